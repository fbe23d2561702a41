// Package grid converts resolved datasets to and from 2-D spreadsheet
// cell grids. Exported sheets carry one column per company with the
// company names as the header row and the field display labels in
// column 0; imported sheets use the same layout and are matched back to
// companies by case-insensitive name.
package grid

import (
	"strings"

	"licence-desk/internal/dataset"
	"licence-desk/internal/domain"
	"licence-desk/internal/schema"
)

// cornerLabel fills cell (0,0), which belongs to neither axis.
const cornerLabel = "Field"

// Fields flattens a resolved structure into its displayable fields, in
// display order. Separators and the synthetic index node carry no
// fields and drop out naturally.
func Fields(structure []schema.StructureNode) []schema.Field {
	var fields []schema.Field
	for _, node := range structure {
		for _, group := range node.CategorizedFields {
			fields = append(fields, group.Fields...)
		}
	}
	return fields
}

// Export renders the merged rows as a cell grid: header row of company
// names, one row per field with the display label in column 0. A field
// whose table matched more than one record joins the extra values with
// "; " so overflow rows survive the flat layout.
func Export(structure []schema.StructureNode, rows []dataset.MergedRow) [][]string {
	fields := Fields(structure)

	header := make([]string, 0, len(rows)+1)
	header = append(header, cornerLabel)
	for _, mr := range rows {
		header = append(header, mr.Company.Name)
	}

	cells := [][]string{header}
	for _, field := range fields {
		row := make([]string, 0, len(rows)+1)
		row = append(row, field.Label)
		for _, mr := range rows {
			row = append(row, cellValue(field, mr))
		}
		cells = append(cells, row)
	}
	return cells
}

// cellValue resolves one field for one company, folding additional rows
// of the field's table into the same cell.
func cellValue(field schema.Field, mr dataset.MergedRow) string {
	var parts []string
	for _, row := range mr.Rows {
		if row.IsAdditionalRow && row.SourceTable != field.Table {
			continue
		}
		if v := dataset.DisplayValue(field, row); v != "-" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "; ")
}

// Column is one company's worth of imported cells, keyed by the field
// display label from column 0.
type Column struct {
	CompanyName string
	Values      map[string]string
}

// Sheet is a parsed import grid.
type Sheet struct {
	Columns []Column
}

// Parse reads an imported cell grid back into per-company value maps.
// Row 0 names the companies; column 0 names the fields. Empty cells are
// dropped rather than treated as deletions, and blank header columns
// are skipped entirely.
func Parse(cells [][]string) (*Sheet, error) {
	if len(cells) == 0 || len(cells[0]) < 2 {
		return nil, domain.ErrValidation("sheet needs a header row with at least one company column")
	}
	header := cells[0]

	sheet := &Sheet{}
	for col := 1; col < len(header); col++ {
		name := strings.TrimSpace(header[col])
		if name == "" {
			continue
		}
		values := map[string]string{}
		for _, row := range cells[1:] {
			if len(row) == 0 || col >= len(row) {
				continue
			}
			label := strings.TrimSpace(row[0])
			value := strings.TrimSpace(row[col])
			if label == "" || value == "" || value == "-" {
				continue
			}
			values[label] = value
		}
		sheet.Columns = append(sheet.Columns, Column{CompanyName: name, Values: values})
	}
	if len(sheet.Columns) == 0 {
		return nil, domain.ErrValidation("sheet header row contains no company names")
	}
	return sheet, nil
}

// FieldsByLabel indexes a structure's fields by lower-cased display
// label so import rows can be matched tolerantly. The company_name
// field is excluded: the name is the join key, not an importable value.
func FieldsByLabel(structure []schema.StructureNode) map[string]schema.Field {
	byLabel := map[string]schema.Field{}
	for _, field := range Fields(structure) {
		if field.Column == "company_name" {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(field.Label))
		if _, exists := byLabel[key]; !exists {
			byLabel[key] = field
		}
	}
	return byLabel
}
