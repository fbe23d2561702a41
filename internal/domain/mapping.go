package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MappingRow is one persisted schema-mapping configuration record as stored
// in the metastore. The JSON columns are kept as raw strings here: the
// upstream store has historically double-encoded them, so decoding goes
// through the tolerant parser in internal/schema, never plain Unmarshal.
type MappingRow struct {
	ID                  int64
	MainTab             string
	Tab                 string
	SectionsSections    string // JSON: section -> bool
	SectionsSubsections string // JSON: section -> subsection | [subsection]
	TableNames          string // JSON: section -> [table]
	ColumnMappings      string // JSON: "table.column" -> display label
	ColumnOrder         string // JSON: "table.column" -> int
	FieldDropdowns      string // JSON: "table.column" -> [option]
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ColumnMapping pairs one "table.column" key with its display label.
type ColumnMapping struct {
	Key   string
	Label string
}

// ColumnMappings is an ordered column-mapping set. Slice order is the
// declaration order; it survives into the stored JSON object and is the
// tie-break for columns sharing an explicit rank, so plain Go maps must
// never sit between a client payload and the stored row.
type ColumnMappings []ColumnMapping

// MarshalJSON renders a JSON object with keys in slice order.
func (c ColumnMappings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cm := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cm.Key)
		if err != nil {
			return nil, err
		}
		label, err := json.Marshal(cm.Label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(label)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON walks the object with a token decoder so the wire key
// order is kept.
func (c *ColumnMappings) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("column mappings: expected a JSON object")
	}
	out := ColumnMappings{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("column mappings: non-string key")
		}
		var label string
		if err := dec.Decode(&label); err != nil {
			return fmt.Errorf("column mapping %q: %w", key, err)
		}
		out = append(out, ColumnMapping{Key: key, Label: label})
	}
	*c = out
	return nil
}

// CreateMappingRequest holds parameters for creating a mapping row. The
// JSON payloads are accepted as decoded values and stored single-encoded.
type CreateMappingRequest struct {
	MainTab             string
	Tab                 string
	SectionsSections    map[string]bool
	SectionsSubsections map[string]any
	TableNames          map[string][]string
	ColumnMappings      ColumnMappings
	ColumnOrder         map[string]int
	FieldDropdowns      map[string][]string
}

// Validate checks that the request is well-formed.
func (r *CreateMappingRequest) Validate() error {
	if strings.TrimSpace(r.MainTab) == "" {
		return ErrValidation("main_tab is required")
	}
	if strings.TrimSpace(r.Tab) == "" {
		return ErrValidation("tab is required")
	}
	if len(r.ColumnMappings) == 0 {
		return ErrValidation("at least one column mapping is required")
	}
	seen := make(map[string]struct{}, len(r.ColumnMappings))
	for _, cm := range r.ColumnMappings {
		if !strings.Contains(cm.Key, ".") {
			return ErrValidation("column mapping key %q must be table.column", cm.Key)
		}
		if _, dup := seen[cm.Key]; dup {
			return ErrValidation("duplicate column mapping key %q", cm.Key)
		}
		seen[cm.Key] = struct{}{}
	}
	return nil
}

// UpdateMappingRequest holds optional updates for a mapping row. Nil maps
// leave the stored value untouched.
type UpdateMappingRequest struct {
	SectionsSections    map[string]bool
	SectionsSubsections map[string]any
	TableNames          map[string][]string
	ColumnMappings      ColumnMappings
	ColumnOrder         map[string]int
	FieldDropdowns      map[string][]string
}

// DisplaySettings stores the visibility and order overrides for one
// (main_tab, tab) pair. Absence of a key means visible / rank 0.
type DisplaySettings struct {
	ID                   int64
	MainTab              string
	Tab                  string
	TabVisibility        map[string]bool
	SectionVisibility    map[string]bool
	SubsectionVisibility map[string]bool
	FieldVisibility      map[string]bool // keyed "table.column"
	TabOrder             map[string]int
	SectionOrder         map[string]int
	SubsectionOrder      map[string]int
	FieldOrder           map[string]int // keyed "table.column"
	UpdatedAt            time.Time
}

// EmptyDisplaySettings returns settings with all maps allocated, meaning
// everything visible at rank 0.
func EmptyDisplaySettings(mainTab, tab string) *DisplaySettings {
	return &DisplaySettings{
		MainTab:              mainTab,
		Tab:                  tab,
		TabVisibility:        map[string]bool{},
		SectionVisibility:    map[string]bool{},
		SubsectionVisibility: map[string]bool{},
		FieldVisibility:      map[string]bool{},
		TabOrder:             map[string]int{},
		SectionOrder:         map[string]int{},
		SubsectionOrder:      map[string]int{},
		FieldOrder:           map[string]int{},
	}
}
