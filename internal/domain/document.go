package domain

import (
	"regexp"
	"strings"
	"time"
)

// Validity describes whether a document type expires.
type Validity string

// Validity values.
const (
	ValidityRenewal Validity = "renewal" // carries issue/expiry dates
	ValidityOneOff  Validity = "one-off" // no expiry concept
)

// FieldType enumerates the scalar and composite extraction field types.
type FieldType string

// Extraction field types.
const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldEmail  FieldType = "email"
	FieldPhone  FieldType = "phone"
	FieldArray  FieldType = "array"
	FieldObject FieldType = "object"
)

var validFieldTypes = map[FieldType]bool{
	FieldText: true, FieldNumber: true, FieldDate: true,
	FieldEmail: true, FieldPhone: true, FieldArray: true, FieldObject: true,
}

// ExtractedField describes one field the extraction service should pull
// from an uploaded document. Array and object fields recurse via Fields.
type ExtractedField struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Type   FieldType        `json:"type"`
	Fields []ExtractedField `json:"fields,omitempty"` // sub-schema for array/object
}

// IsComposite reports whether the field has a nested sub-schema.
func (f *ExtractedField) IsComposite() bool {
	return f.Type == FieldArray || f.Type == FieldObject
}

// ambiguousFragment matches field names that would collide with the
// flatten codec's 1-based array index segments (e.g. "phase_2").
var ambiguousFragment = regexp.MustCompile(`_[0-9]+(_|$)`)

// ValidateFields checks an extraction field schema: names present and
// unique per level, types known, composite fields carry a sub-schema, and
// no name contains a "_<digits>" fragment the flatten codec would read as
// an array index.
func ValidateFields(fields []ExtractedField) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return ErrValidation("extraction field name is required")
		}
		if seen[name] {
			return ErrValidation("duplicate extraction field name %q", name)
		}
		seen[name] = true
		if ambiguousFragment.MatchString(name) {
			return ErrValidation("field name %q contains a _<digits> fragment reserved for array indices", name)
		}
		if !validFieldTypes[f.Type] {
			return ErrValidation("field %q has unknown type %q", name, f.Type)
		}
		if f.IsComposite() {
			if len(f.Fields) == 0 {
				return ErrValidation("field %q of type %s requires a sub-schema", name, f.Type)
			}
			if err := ValidateFields(f.Fields); err != nil {
				return err
			}
		} else if len(f.Fields) > 0 {
			return ErrValidation("scalar field %q must not carry a sub-schema", name)
		}
	}
	return nil
}

// DocumentType defines a compliance document (licence) companies upload.
type DocumentType struct {
	ID        int64
	Name      string
	Category  string
	Validity  Validity
	Fields    []ExtractedField
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateDocumentTypeRequest holds parameters for creating a document type.
type CreateDocumentTypeRequest struct {
	Name     string
	Category string
	Validity Validity
	Fields   []ExtractedField
}

// Validate checks that the request is well-formed.
func (r *CreateDocumentTypeRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrValidation("document type name is required")
	}
	if r.Validity != ValidityRenewal && r.Validity != ValidityOneOff {
		return ErrValidation("validity must be %q or %q", ValidityRenewal, ValidityOneOff)
	}
	return ValidateFields(r.Fields)
}

// UpdateDocumentTypeRequest holds optional updates for a document type.
type UpdateDocumentTypeRequest struct {
	Name     *string
	Category *string
	Validity *Validity
	Fields   []ExtractedField // nil leaves the schema untouched
}
