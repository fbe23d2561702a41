package domain

import (
	"context"
	"time"
)

// CompanyRepository provides CRUD operations for companies.
type CompanyRepository interface {
	Create(ctx context.Context, req CreateCompanyRequest) (*Company, error)
	GetByID(ctx context.Context, id int64) (*Company, error)
	GetByName(ctx context.Context, name string) (*Company, error)
	List(ctx context.Context, page PageRequest) ([]Company, int64, error)
	Update(ctx context.Context, id int64, req UpdateCompanyRequest) (*Company, error)
	Delete(ctx context.Context, id int64) error
}

// RecordRepository provides CRUD operations for dynamic table records.
type RecordRepository interface {
	Create(ctx context.Context, req CreateRecordRequest) (*TableRecord, error)
	GetByID(ctx context.Context, id int64) (*TableRecord, error)
	ListByTable(ctx context.Context, tableName string, page PageRequest) ([]TableRecord, int64, error)
	// ListByTables loads all records of the given tables, keyed by table
	// name, in insertion order. Used by the dataset merger.
	ListByTables(ctx context.Context, tableNames []string) (map[string][]TableRecord, error)
	Update(ctx context.Context, id int64, fields map[string]any) (*TableRecord, error)
	Delete(ctx context.Context, id int64) error
}

// MappingRepository provides CRUD operations for schema mapping rows and
// display settings.
type MappingRepository interface {
	Create(ctx context.Context, req CreateMappingRequest) (*MappingRow, error)
	GetByID(ctx context.Context, id int64) (*MappingRow, error)
	ListByTab(ctx context.Context, mainTab, tab string) ([]MappingRow, error)
	ListAll(ctx context.Context) ([]MappingRow, error)
	Update(ctx context.Context, id int64, req UpdateMappingRequest) (*MappingRow, error)
	Delete(ctx context.Context, id int64) error

	GetDisplaySettings(ctx context.Context, mainTab, tab string) (*DisplaySettings, error)
	SaveDisplaySettings(ctx context.Context, s *DisplaySettings) (*DisplaySettings, error)
}

// DocumentTypeRepository provides CRUD operations for document types.
type DocumentTypeRepository interface {
	Create(ctx context.Context, req CreateDocumentTypeRequest) (*DocumentType, error)
	GetByID(ctx context.Context, id int64) (*DocumentType, error)
	GetByName(ctx context.Context, name string) (*DocumentType, error)
	List(ctx context.Context, page PageRequest) ([]DocumentType, int64, error)
	Update(ctx context.Context, id int64, req UpdateDocumentTypeRequest) (*DocumentType, error)
	Delete(ctx context.Context, id int64) error
}

// UploadRepository provides access to upload records. Versions of the same
// (company, document type) pair are ordered newest first.
type UploadRepository interface {
	Create(ctx context.Context, u *Upload) (*Upload, error)
	GetByID(ctx context.Context, id int64) (*Upload, error)
	// Latest returns the newest upload for the pair, or NotFoundError.
	Latest(ctx context.Context, companyID, documentTypeID int64) (*Upload, error)
	ListVersions(ctx context.Context, companyID, documentTypeID int64) ([]Upload, error)
	ListByCompany(ctx context.Context, companyID int64) ([]Upload, error)
	ListExpiring(ctx context.Context, before time.Time) ([]Upload, error)
	SetExtractedDetails(ctx context.Context, id int64, details map[string]any) error
	SetDates(ctx context.Context, id int64, issue, expiry *time.Time) error
	Delete(ctx context.Context, id int64) error
}

// ReminderRepository stores expiry-scan findings.
type ReminderRepository interface {
	// Upsert records the finding, replacing any previous reminder for the
	// same upload.
	Upsert(ctx context.Context, r *Reminder) (*Reminder, error)
	List(ctx context.Context, page PageRequest) ([]Reminder, int64, error)
	DeleteForUpload(ctx context.Context, uploadID int64) error
}

// AuditRepository appends and queries the audit log.
type AuditRepository interface {
	Append(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, page PageRequest) ([]AuditEntry, int64, error)
}

// APIKeyRepository stores API keys (hashes only).
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) (*APIKey, error)
	GetByHash(ctx context.Context, hash string) (*APIKey, error)
	List(ctx context.Context, page PageRequest) ([]APIKey, int64, error)
	Delete(ctx context.Context, id string) error
}
