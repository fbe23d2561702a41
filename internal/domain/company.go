package domain

import (
	"strings"
	"time"
)

// Company is the primary entity of the registry. Beyond the fixed columns,
// every configured attribute lives in Fields, keyed by "table.column" column
// name as defined in the schema mappings.
type Company struct {
	ID        int64
	Name      string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizedName returns the lower-cased, trimmed company name used for
// joining related records that carry no foreign id.
func (c *Company) NormalizedName() string {
	return NormalizeCompanyName(c.Name)
}

// NormalizeCompanyName lower-cases and trims a company name for matching.
func NormalizeCompanyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateCompanyRequest holds parameters for creating a company.
type CreateCompanyRequest struct {
	Name   string
	Fields map[string]any
}

// Validate checks that the request is well-formed.
func (r *CreateCompanyRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrValidation("company name is required")
	}
	return nil
}

// UpdateCompanyRequest holds optional fields for updating a company.
// Nil pointers leave the stored value untouched.
type UpdateCompanyRequest struct {
	Name   *string
	Fields map[string]any // merged key-by-key into the stored field bag
}

// TableRecord is one row of a dynamically configured related table. The
// table itself exists only as metadata (schema mappings); the record's
// columns live in Fields.
type TableRecord struct {
	ID          int64
	TableName   string
	CompanyID   *int64 // nil for imported rows not yet linked
	CompanyName string
	Fields      map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MatchesCompany reports whether the record belongs to the given company.
// Name match is primary because imported records may carry no foreign id.
func (r *TableRecord) MatchesCompany(c *Company) bool {
	if NormalizeCompanyName(r.CompanyName) == c.NormalizedName() && c.NormalizedName() != "" {
		return true
	}
	return r.CompanyID != nil && *r.CompanyID == c.ID
}

// CreateRecordRequest holds parameters for creating a table record.
type CreateRecordRequest struct {
	TableName   string
	CompanyID   *int64
	CompanyName string
	Fields      map[string]any
}

// Validate checks that the request is well-formed.
func (r *CreateRecordRequest) Validate() error {
	if strings.TrimSpace(r.TableName) == "" {
		return ErrValidation("table name is required")
	}
	if r.CompanyID == nil && strings.TrimSpace(r.CompanyName) == "" {
		return ErrValidation("either company_id or company_name is required")
	}
	return nil
}
