// Package declarative loads desired-state YAML for the metastore's
// configuration resources (schema mappings and document types) and
// applies it: create what is missing, update what drifted. Resources
// absent from the YAML are left alone, so partial configs are safe to
// apply.
package declarative

import (
	"fmt"

	"licence-desk/internal/domain"
)

// SupportedAPIVersion is the current API version for YAML documents.
const SupportedAPIVersion = "licencedesk/v1"

// Known Kind strings used in YAML documents.
const (
	KindNameMappingList      = "MappingList"
	KindNameDocumentTypeList = "DocumentTypeList"
)

// MappingListDoc is a YAML document declaring schema mapping rows.
type MappingListDoc struct {
	APIVersion string        `yaml:"apiVersion"`
	Kind       string        `yaml:"kind"`
	Mappings   []MappingSpec `yaml:"mappings"`
}

// MappingSpec declares one (mainTab, tab) mapping row. The nested
// section and column shapes replace the six raw JSON columns of the
// stored row with something a human can maintain.
type MappingSpec struct {
	MainTab  string        `yaml:"mainTab"`
	Tab      string        `yaml:"tab"`
	Sections []SectionSpec `yaml:"sections"`
	// Columns is a sequence; its order is the declaration order stored
	// on the row.
	Columns []ColumnSpec `yaml:"columns"`
}

// SectionSpec declares one section of a tab.
type SectionSpec struct {
	Name        string   `yaml:"name"`
	Enabled     *bool    `yaml:"enabled"` // nil means enabled
	Subsections []string `yaml:"subsections"`
	Tables      []string `yaml:"tables"`
}

// ColumnSpec declares one displayable column.
type ColumnSpec struct {
	Key      string   `yaml:"key"` // "table.column"
	Label    string   `yaml:"label"`
	Order    int      `yaml:"order"`
	Dropdown []string `yaml:"dropdown"`
}

// DocumentTypeListDoc is a YAML document declaring document types.
type DocumentTypeListDoc struct {
	APIVersion    string             `yaml:"apiVersion"`
	Kind          string             `yaml:"kind"`
	DocumentTypes []DocumentTypeSpec `yaml:"documentTypes"`
}

// DocumentTypeSpec declares one document type with its extraction
// field schema.
type DocumentTypeSpec struct {
	Name     string      `yaml:"name"`
	Category string      `yaml:"category"`
	Validity string      `yaml:"validity"` // renewal | one-off, default renewal
	Fields   []FieldSpec `yaml:"fields"`
}

// FieldSpec declares one extraction field; array and object fields
// recurse via Fields.
type FieldSpec struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Type   string      `yaml:"type"`
	Fields []FieldSpec `yaml:"fields"`
}

// DesiredState is everything loaded from a config directory.
type DesiredState struct {
	Mappings      []MappingSpec
	DocumentTypes []DocumentTypeSpec
}

// ToCreateRequest converts the spec into the flat-map shape the
// mapping repository stores.
func (m *MappingSpec) ToCreateRequest() (domain.CreateMappingRequest, error) {
	req := domain.CreateMappingRequest{
		MainTab:             m.MainTab,
		Tab:                 m.Tab,
		SectionsSections:    map[string]bool{},
		SectionsSubsections: map[string]any{},
		TableNames:          map[string][]string{},
		ColumnMappings:      make(domain.ColumnMappings, 0, len(m.Columns)),
		ColumnOrder:         map[string]int{},
		FieldDropdowns:      map[string][]string{},
	}
	for _, section := range m.Sections {
		if section.Name == "" {
			return req, fmt.Errorf("mapping %s/%s: section without a name", m.MainTab, m.Tab)
		}
		enabled := section.Enabled == nil || *section.Enabled
		req.SectionsSections[section.Name] = enabled
		if len(section.Subsections) > 0 {
			req.SectionsSubsections[section.Name] = section.Subsections
		}
		req.TableNames[section.Name] = section.Tables
	}
	for _, col := range m.Columns {
		if col.Key == "" {
			return req, fmt.Errorf("mapping %s/%s: column without a key", m.MainTab, m.Tab)
		}
		req.ColumnMappings = append(req.ColumnMappings, domain.ColumnMapping{Key: col.Key, Label: col.Label})
		if col.Order != 0 {
			req.ColumnOrder[col.Key] = col.Order
		}
		if len(col.Dropdown) > 0 {
			req.FieldDropdowns[col.Key] = col.Dropdown
		}
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("mapping %s/%s: %w", m.MainTab, m.Tab, err)
	}
	return req, nil
}

// ToCreateRequest converts the spec into a repository create request,
// defaulting validity to renewal.
func (d *DocumentTypeSpec) ToCreateRequest() (domain.CreateDocumentTypeRequest, error) {
	validity := domain.Validity(d.Validity)
	if d.Validity == "" {
		validity = domain.ValidityRenewal
	}
	req := domain.CreateDocumentTypeRequest{
		Name:     d.Name,
		Category: d.Category,
		Validity: validity,
		Fields:   toExtractedFields(d.Fields),
	}
	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("document type %q: %w", d.Name, err)
	}
	return req, nil
}

func toExtractedFields(specs []FieldSpec) []domain.ExtractedField {
	if len(specs) == 0 {
		return nil
	}
	fields := make([]domain.ExtractedField, 0, len(specs))
	for _, s := range specs {
		fields = append(fields, domain.ExtractedField{
			ID:     s.ID,
			Name:   s.Name,
			Type:   domain.FieldType(s.Type),
			Fields: toExtractedFields(s.Fields),
		})
	}
	return fields
}
