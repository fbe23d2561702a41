// Package dataset joins the primary company list against the dynamically
// configured related tables and resolves per-cell values for display and
// editing.
package dataset

import (
	"licence-desk/internal/domain"
)

// Row is one display row of the merged grid. The first row of a company
// carries the joined data bags; additional rows represent the second and
// later matches of a multi-valued related table.
type Row struct {
	CompanyID   int64
	CompanyName string
	// Values holds the company's own columns (the entity fields).
	Values map[string]any
	// Data maps table name -> first matching record's fields.
	Data map[string]map[string]any
	// Record holds an additional row's own fields.
	Record map[string]any

	IsFirstRow      bool
	IsAdditionalRow bool
	SourceTable     string // set on additional rows
	RecordID        int64  // source record id on additional rows
}

// MergedRow groups all display rows of one company.
type MergedRow struct {
	Company domain.Company
	Rows    []Row
	RowSpan int
}

// Merge produces one MergedRow per company regardless of whether
// any related data exists (outer-join semantics). relevantTables is
// iterated in the given order so output is deterministic for fixed input.
func Merge(companies []domain.Company, tableData map[string][]domain.TableRecord, relevantTables []string) []MergedRow {
	merged := make([]MergedRow, 0, len(companies))

	for i := range companies {
		company := companies[i]

		first := Row{
			CompanyID:   company.ID,
			CompanyName: company.Name,
			Values:      companyValues(&company),
			Data:        map[string]map[string]any{},
			IsFirstRow:  true,
		}
		var additional []Row

		for _, tableName := range relevantTables {
			// The company table is the left side of the join; a mapping
			// row listing it among its tables must not self-join.
			if tableName == "company" {
				continue
			}
			matches := matchRecords(tableData[tableName], &company)
			if len(matches) == 0 {
				continue
			}
			first.Data[tableName] = matches[0].Fields
			for _, extra := range matches[1:] {
				additional = append(additional, Row{
					CompanyID:       company.ID,
					CompanyName:     company.Name,
					Record:          extra.Fields,
					RecordID:        extra.ID,
					IsAdditionalRow: true,
					SourceTable:     tableName,
				})
			}
		}

		rows := append([]Row{first}, additional...)
		merged = append(merged, MergedRow{
			Company: company,
			Rows:    rows,
			RowSpan: len(rows),
		})
	}
	return merged
}

// matchRecords filters a table's records down to those belonging to the
// company. Name match is primary because imported records may carry no
// foreign id yet; input order is preserved.
func matchRecords(records []domain.TableRecord, company *domain.Company) []domain.TableRecord {
	var matches []domain.TableRecord
	for i := range records {
		if records[i].MatchesCompany(company) {
			matches = append(matches, records[i])
		}
	}
	return matches
}

// companyValues exposes the company's columns under the names the field
// resolver looks up: the fixed company_name column plus the free-form
// field bag.
func companyValues(c *domain.Company) map[string]any {
	values := make(map[string]any, len(c.Fields)+2)
	for k, v := range c.Fields {
		values[k] = v
	}
	values["company_name"] = c.Name
	values["id"] = c.ID
	return values
}
