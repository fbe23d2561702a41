package schema

import (
	"log/slog"
	"sort"
	"strings"

	"licence-desk/internal/domain"
)

// VisibilityState holds explicit visibility toggles for the four taxonomy
// levels. Absence of a key means visible (default-open policy).
type VisibilityState struct {
	Tabs        map[string]bool
	Sections    map[string]bool
	Subsections map[string]bool
	Fields      map[string]bool // keyed "table.column"
}

// Visible applies the default-open policy to one level's map.
func visible(m map[string]bool, name string) bool {
	if m == nil {
		return true
	}
	v, ok := m[name]
	return !ok || v
}

// OrderState holds integer ranks for the four taxonomy levels. Absence of
// a key means rank 0; ties keep original position (stable sort).
type OrderState struct {
	Tabs        map[string]int
	Sections    map[string]int
	Subsections map[string]int
	Fields      map[string]int // keyed "table.column"
}

func rank(m map[string]int, name string) int {
	if m == nil {
		return 0
	}
	return m[name]
}

// FromDisplaySettings builds the resolver inputs from persisted settings.
func FromDisplaySettings(s *domain.DisplaySettings) (VisibilityState, OrderState) {
	if s == nil {
		return VisibilityState{}, OrderState{}
	}
	return VisibilityState{
			Tabs:        s.TabVisibility,
			Sections:    s.SectionVisibility,
			Subsections: s.SubsectionVisibility,
			Fields:      s.FieldVisibility,
		}, OrderState{
			Tabs:        s.TabOrder,
			Sections:    s.SectionOrder,
			Subsections: s.SubsectionOrder,
			Fields:      s.FieldOrder,
		}
}

// Field is one resolved, displayable column.
type Field struct {
	Name            string   `json:"name"` // "table.column"
	Label           string   `json:"label"`
	Table           string   `json:"table"`
	Column          string   `json:"column"`
	DropdownOptions []string `json:"dropdown_options,omitempty"`
	SubCategory     string   `json:"sub_category,omitempty"`
}

// CategorizedFields groups a section's fields under one subsection.
type CategorizedFields struct {
	Category string  `json:"category"`
	Fields   []Field `json:"fields"`
}

// StructureNode is one resolved top-level node: a section, one of the
// fixed leading nodes, or a separator between sections.
type StructureNode struct {
	Name              string              `json:"name"`
	Label             string              `json:"label"`
	IsSeparator       bool                `json:"is_separator"`
	CategorizedFields []CategorizedFields `json:"categorized_fields,omitempty"`
}

// specialViews are tabs that render their own entity tables and therefore
// skip the leading company node.
var specialViews = map[string]bool{
	"employee details": true,
	"customer details": true,
	"supplier details": true,
}

// IsSpecialView reports whether a tab is one of the fixed special views.
func IsSpecialView(tab string) bool {
	return specialViews[strings.ToLower(strings.TrimSpace(tab))]
}

// Resolve builds the ordered, filtered structure tree for one (mainTab,
// tab) pair. Malformed mapping rows are skipped with a warning; a section
// left with no fields is dropped entirely.
func Resolve(rows []domain.MappingRow, mainTab, tab string, vis VisibilityState, order OrderState, logger *slog.Logger) []StructureNode {
	if logger == nil {
		logger = slog.Default()
	}

	result := []StructureNode{{Name: "index", Label: "Index"}}
	if !IsSpecialView(tab) {
		result = append(result, StructureNode{
			Name:  "company",
			Label: "Company",
			CategorizedFields: []CategorizedFields{{
				Fields: []Field{{
					Name:   "company.company_name",
					Label:  "Company Name",
					Table:  "company",
					Column: "company_name",
				}},
			}},
		})
	}

	sections := collectSections(rows, mainTab, tab, vis, order, logger)

	// Stable sort by section rank; seed nodes stay in front and
	// separators are inserted afterwards so they never re-sort on their
	// own rank.
	sort.SliceStable(sections, func(i, j int) bool {
		return rank(order.Sections, sections[i].Name) < rank(order.Sections, sections[j].Name)
	})

	for i, node := range sections {
		if i > 0 {
			result = append(result, StructureNode{
				Name:        node.Name + "-separator",
				IsSeparator: true,
			})
		}
		result = append(result, node)
	}
	return result
}

// collectSections walks the matching mapping rows and produces one node
// per surviving section, in configured order.
func collectSections(rows []domain.MappingRow, mainTab, tab string, vis VisibilityState, order OrderState, logger *slog.Logger) []StructureNode {
	var nodes []StructureNode
	seen := map[string]bool{}

	for _, row := range rows {
		if row.MainTab != mainTab || row.Tab != tab {
			continue
		}
		record, ok := FromRow(row, logger)
		if !ok {
			continue
		}

		for _, section := range record.Sections.Keys() {
			if !record.SectionEnabled(section) || !visible(vis.Sections, section) {
				continue
			}
			if seen[section] {
				continue
			}

			node := buildSectionNode(record, section, vis, order)
			if node == nil {
				continue // no surviving fields
			}
			seen[section] = true
			nodes = append(nodes, *node)
		}
	}
	return nodes
}

// buildSectionNode assembles one section's subsection groups. When the
// subsection and table lists align one-to-one, each subsection owns its
// table's fields; otherwise all of the section's fields fall under the
// first subsection so no field renders twice.
func buildSectionNode(record *MappingRecord, section string, vis VisibilityState, order OrderState) *StructureNode {
	tables := record.TableNames[section]
	if len(tables) == 0 {
		return nil
	}
	tableSet := make(map[string]bool, len(tables))
	for _, t := range tables {
		tableSet[t] = true
	}

	subs := record.Subsections[section]
	aligned := len(subs) == len(tables) && len(subs) > 1
	tableSub := map[string]string{}
	if aligned {
		for i, t := range tables {
			tableSub[t] = subs[i]
		}
	}
	defaultSub := ""
	if len(subs) > 0 {
		defaultSub = subs[0]
	}

	// Collect fields per subsection, in configured column order.
	groups := map[string][]Field{}
	var groupOrder []string
	for _, key := range record.Columns.Keys() {
		table, column, ok := SplitFieldKey(key)
		if !ok || !tableSet[table] {
			continue // orphaned field: table not backing this section
		}
		if !visible(vis.Fields, key) {
			continue
		}

		sub := defaultSub
		if aligned {
			sub = tableSub[table]
		}
		if sub != "" && !visible(vis.Subsections, sub) {
			continue
		}

		labelAny, _ := record.Columns.Get(key)
		label, _ := labelAny.(string)
		if label == "" {
			label = column
		}

		if _, exists := groups[sub]; !exists {
			groupOrder = append(groupOrder, sub)
		}
		groups[sub] = append(groups[sub], Field{
			Name:            key,
			Label:           label,
			Table:           table,
			Column:          column,
			DropdownOptions: record.Dropdowns[key],
			SubCategory:     sub,
		})
	}
	if len(groupOrder) == 0 {
		return nil
	}

	fieldRank := func(f Field) int {
		if order.Fields != nil {
			if r, ok := order.Fields[f.Name]; ok {
				return r
			}
		}
		return record.ColumnOrder[f.Name]
	}

	categorized := make([]CategorizedFields, 0, len(groupOrder))
	for _, sub := range groupOrder {
		fields := groups[sub]
		sort.SliceStable(fields, func(i, j int) bool {
			return fieldRank(fields[i]) < fieldRank(fields[j])
		})
		categorized = append(categorized, CategorizedFields{Category: sub, Fields: fields})
	}
	sort.SliceStable(categorized, func(i, j int) bool {
		return rank(order.Subsections, categorized[i].Category) < rank(order.Subsections, categorized[j].Category)
	})

	return &StructureNode{Name: section, Label: section, CategorizedFields: categorized}
}

// Tabs returns the distinct visible tabs of a main tab, ordered by rank
// with ties kept in first-appearance order.
func Tabs(rows []domain.MappingRow, mainTab string, vis VisibilityState, order OrderState) []string {
	var tabs []string
	seen := map[string]bool{}
	for _, row := range rows {
		if row.MainTab != mainTab || seen[row.Tab] {
			continue
		}
		seen[row.Tab] = true
		if visible(vis.Tabs, row.Tab) {
			tabs = append(tabs, row.Tab)
		}
	}
	sort.SliceStable(tabs, func(i, j int) bool {
		return rank(order.Tabs, tabs[i]) < rank(order.Tabs, tabs[j])
	})
	return tabs
}

// RelevantTables returns every table backing a visible section of the
// given (mainTab, tab) pair, first-appearance order, no duplicates.
func RelevantTables(rows []domain.MappingRow, mainTab, tab string, vis VisibilityState, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.Default()
	}
	var tables []string
	seen := map[string]bool{}
	for _, row := range rows {
		if row.MainTab != mainTab || row.Tab != tab {
			continue
		}
		record, ok := FromRow(row, logger)
		if !ok {
			continue
		}
		for _, section := range record.Sections.Keys() {
			if !record.SectionEnabled(section) || !visible(vis.Sections, section) {
				continue
			}
			for _, t := range record.TableNames[section] {
				if !seen[t] {
					seen[t] = true
					tables = append(tables, t)
				}
			}
		}
	}
	return tables
}
