package schema

import (
	"log/slog"
	"strings"

	"licence-desk/internal/domain"
)

// MappingRecord is the decoded form of a persisted mapping row. Sections
// and column mappings keep their configured order.
type MappingRecord struct {
	MainTab     string
	Tab         string
	Sections    *OrderedMap         // section -> enabled (bool)
	Subsections map[string][]string // section -> subsection names
	TableNames  map[string][]string // section -> backing tables
	Columns     *OrderedMap         // "table.column" -> display label
	ColumnOrder map[string]int      // "table.column" -> rank
	Dropdowns   map[string][]string // "table.column" -> options
}

// SectionEnabled reports whether the section is switched on in this row.
func (m *MappingRecord) SectionEnabled(section string) bool {
	v, ok := m.Sections.Get(section)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	return isBool && b
}

// FromRow decodes a persisted mapping row. A row whose sections or column
// mappings cannot be decoded is considered malformed: the caller logs and
// skips it without aborting resolution for other rows. The remaining
// columns degrade to empty maps individually.
func FromRow(row domain.MappingRow, logger *slog.Logger) (*MappingRecord, bool) {
	sections, ok := DecodeOrderedMap(row.SectionsSections)
	if !ok {
		logger.Warn("skipping mapping row: malformed sections", "mapping_id", row.ID, "tab", row.Tab)
		return nil, false
	}
	columns, ok := DecodeOrderedMap(row.ColumnMappings)
	if !ok {
		logger.Warn("skipping mapping row: malformed column mappings", "mapping_id", row.ID, "tab", row.Tab)
		return nil, false
	}

	subsections, ok := DecodeStringListMap(row.SectionsSubsections)
	if !ok && row.SectionsSubsections != "" {
		logger.Warn("mapping row has malformed subsections; using none", "mapping_id", row.ID)
	}
	tableNames, ok := DecodeStringListMap(row.TableNames)
	if !ok && row.TableNames != "" {
		logger.Warn("mapping row has malformed table names; using none", "mapping_id", row.ID)
	}
	columnOrder, _ := DecodeIntMap(row.ColumnOrder)
	dropdowns, _ := DecodeStringListMap(row.FieldDropdowns)

	return &MappingRecord{
		MainTab:     row.MainTab,
		Tab:         row.Tab,
		Sections:    sections,
		Subsections: subsections,
		TableNames:  tableNames,
		Columns:     columns,
		ColumnOrder: columnOrder,
		Dropdowns:   dropdowns,
	}, true
}

// SplitFieldKey splits a "table.column" key. Column names may themselves
// contain dots, so only the first dot separates.
func SplitFieldKey(key string) (table, column string, ok bool) {
	i := strings.Index(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}
