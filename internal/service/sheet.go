package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"licence-desk/internal/domain"
	"licence-desk/internal/grid"
	"licence-desk/internal/schema"
)

// SheetService exports a resolved tab as a CSV sheet and applies edited
// sheets back onto companies and table records.
type SheetService struct {
	datasets  *DatasetService
	companies domain.CompanyRepository
	records   domain.RecordRepository
	audit     domain.AuditRepository
	logger    *slog.Logger
}

// NewSheetService creates a new SheetService.
func NewSheetService(datasets *DatasetService, companies domain.CompanyRepository, records domain.RecordRepository, audit domain.AuditRepository, logger *slog.Logger) *SheetService {
	return &SheetService{datasets: datasets, companies: companies, records: records, audit: audit, logger: logger}
}

// ExportCSV writes one tab's merged data as a CSV sheet: companies
// across, fields down.
func (s *SheetService) ExportCSV(ctx context.Context, mainTab, tab string, w io.Writer) error {
	ds, err := s.datasets.Resolve(ctx, mainTab, tab)
	if err != nil {
		return err
	}
	return grid.EncodeCSV(w, grid.Export(ds.Structure, ds.Rows))
}

// ImportResult summarizes an applied sheet.
type ImportResult struct {
	CompaniesUpdated int      `json:"companies_updated"`
	CellsApplied     int      `json:"cells_applied"`
	UnknownCompanies []string `json:"unknown_companies,omitempty"`
	UnknownLabels    []string `json:"unknown_labels,omitempty"`
}

// ImportCSV parses an uploaded sheet and writes its cells back to the
// metastore. Columns of unknown companies and rows whose labels the
// tab's structure does not carry are reported, not failed: partial
// sheets are the normal case. Cell values land in the company field bag
// for company columns and in the company's first record of the field's
// table otherwise, creating the record when none exists yet.
func (s *SheetService) ImportCSV(ctx context.Context, mainTab, tab string, data []byte) (result *ImportResult, err error) {
	defer func() { logAction(ctx, s.audit, "IMPORT_SHEET", "dataset", mainTab+"/"+tab, err) }()

	cells, err := grid.DecodeCSV(data)
	if err != nil {
		return nil, domain.ErrValidation("parse sheet: %v", err)
	}
	sheet, err := grid.Parse(cells)
	if err != nil {
		return nil, err
	}

	structure, err := s.datasets.Structure(ctx, mainTab, tab)
	if err != nil {
		return nil, err
	}
	byLabel := grid.FieldsByLabel(structure)

	tableData, err := s.records.ListByTables(ctx, importTables(byLabel))
	if err != nil {
		return nil, fmt.Errorf("load table records: %w", err)
	}

	result = &ImportResult{}
	unknownLabels := map[string]bool{}
	for _, col := range sheet.Columns {
		if err := s.applyColumn(ctx, col, byLabel, tableData, unknownLabels, result); err != nil {
			return nil, err
		}
	}
	for label := range unknownLabels {
		result.UnknownLabels = append(result.UnknownLabels, label)
	}
	sort.Strings(result.UnknownLabels)

	s.logger.Info("sheet import applied",
		"main_tab", mainTab,
		"tab", tab,
		"companies_updated", result.CompaniesUpdated,
		"cells_applied", result.CellsApplied,
		"unknown_companies", len(result.UnknownCompanies),
	)
	return result, nil
}

// applyColumn writes one company's cells.
func (s *SheetService) applyColumn(ctx context.Context, col grid.Column, byLabel map[string]schema.Field, tableData map[string][]domain.TableRecord, unknownLabels map[string]bool, result *ImportResult) error {
	company, err := s.companies.GetByName(ctx, col.CompanyName)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			result.UnknownCompanies = append(result.UnknownCompanies, col.CompanyName)
			return nil
		}
		return fmt.Errorf("look up company %q: %w", col.CompanyName, err)
	}

	companyFields := map[string]any{}
	tableFields := map[string]map[string]any{}
	for label, value := range col.Values {
		field, ok := byLabel[strings.ToLower(label)]
		if !ok {
			unknownLabels[label] = true
			continue
		}
		if field.Table == "company" {
			companyFields[field.Column] = value
		} else {
			if tableFields[field.Table] == nil {
				tableFields[field.Table] = map[string]any{}
			}
			tableFields[field.Table][field.Column] = value
		}
		result.CellsApplied++
	}

	if len(companyFields) > 0 {
		if _, err := s.companies.Update(ctx, company.ID, domain.UpdateCompanyRequest{Fields: companyFields}); err != nil {
			return fmt.Errorf("update company %q: %w", company.Name, err)
		}
	}
	for table, values := range tableFields {
		if err := s.applyRecord(ctx, company, table, values, tableData[table]); err != nil {
			return err
		}
	}
	if len(companyFields) > 0 || len(tableFields) > 0 {
		result.CompaniesUpdated++
	}
	return nil
}

// applyRecord merges values into the company's first record of the
// table, matched the same way the dataset merger joins rows, or creates
// one when the company has none yet.
func (s *SheetService) applyRecord(ctx context.Context, company *domain.Company, table string, values map[string]any, existing []domain.TableRecord) error {
	for i := range existing {
		if !existing[i].MatchesCompany(company) {
			continue
		}
		rec := &existing[i]
		merged := make(map[string]any, len(rec.Fields)+len(values))
		for k, v := range rec.Fields {
			merged[k] = v
		}
		for k, v := range values {
			merged[k] = v
		}
		if _, err := s.records.Update(ctx, rec.ID, merged); err != nil {
			return fmt.Errorf("update %s record for %q: %w", table, company.Name, err)
		}
		return nil
	}
	_, err := s.records.Create(ctx, domain.CreateRecordRequest{
		TableName:   table,
		CompanyID:   &company.ID,
		CompanyName: company.Name,
		Fields:      values,
	})
	if err != nil {
		return fmt.Errorf("create %s record for %q: %w", table, company.Name, err)
	}
	return nil
}

// importTables collects the distinct non-company tables a sheet can
// touch, in deterministic order.
func importTables(byLabel map[string]schema.Field) []string {
	seen := map[string]bool{}
	var tables []string
	for _, field := range byLabel {
		if field.Table == "company" || seen[field.Table] {
			continue
		}
		seen[field.Table] = true
		tables = append(tables, field.Table)
	}
	sort.Strings(tables)
	return tables
}
