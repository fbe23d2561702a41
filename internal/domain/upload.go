package domain

import (
	"strings"
	"time"
)

// LicenceStatus is the derived compliance state of a document slot.
type LicenceStatus string

// Licence statuses.
const (
	StatusValid        LicenceStatus = "Valid"
	StatusExpiringSoon LicenceStatus = "Expiring Soon"
	StatusExpired      LicenceStatus = "Expired"
	StatusPending      LicenceStatus = "Pending" // no upload yet
)

// ExpiringSoonWindowDays is the inclusive days-left band that counts as
// "Expiring Soon".
const ExpiringSoonWindowDays = 30

// Upload is one stored version of a document file for a company and
// document type. Multiple uploads for the same pair coexist as versions,
// newest first by CreatedAt.
type Upload struct {
	ID               int64
	CompanyID        int64
	CompanyName      string
	DocumentTypeID   int64
	ObjectPath       string // provider-native path, e.g. s3://bucket/key
	FileName         string
	ContentType      string
	SizeBytes        int64
	ExtractedDetails map[string]any // free-form extraction output, flattened keys
	IssueDate        *time.Time
	ExpiryDate       *time.Time
	UploadedBy       string
	CreatedAt        time.Time
}

// CreateUploadRequest holds parameters for registering an uploaded file.
type CreateUploadRequest struct {
	CompanyID      int64
	DocumentTypeID int64
	FileName       string
	ContentType    string
	SizeBytes      int64
	IssueDate      *time.Time
	ExpiryDate     *time.Time
	UploadedBy     string
}

// Validate checks that the request is well-formed. Renewal documents need
// expiry tracking, which is enforced by the upload service once the
// document type is loaded.
func (r *CreateUploadRequest) Validate() error {
	if r.CompanyID <= 0 {
		return ErrValidation("company_id is required")
	}
	if r.DocumentTypeID <= 0 {
		return ErrValidation("document_type_id is required")
	}
	if strings.TrimSpace(r.FileName) == "" {
		return ErrValidation("file name is required")
	}
	return nil
}

// Reminder is one expiry-scan finding for an upload.
type Reminder struct {
	ID             int64
	UploadID       int64
	CompanyID      int64
	DocumentTypeID int64
	Status         LicenceStatus // Expiring Soon or Expired
	DueDate        time.Time     // the expiry date the finding refers to
	DaysLeft       int
	CreatedAt      time.Time
}

// MissingDocument names one document type a company has no upload for.
type MissingDocument struct {
	DocumentTypeID int64
	Name           string
	Category       string
}
