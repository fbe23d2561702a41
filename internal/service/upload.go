package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"licence-desk/internal/dataset"
	"licence-desk/internal/domain"
	"licence-desk/internal/extract"
	"licence-desk/internal/storage"
)

// Extractor pulls structured fields out of a stored document. Implemented
// by extract.Client; nil when no extraction service is configured.
type Extractor interface {
	Extract(ctx context.Context, fileURL string, fields []domain.ExtractedField) (map[string]any, error)
}

// UploadService stores document files, registers upload versions, and
// runs field extraction on them.
type UploadService struct {
	uploads   domain.UploadRepository
	companies domain.CompanyRepository
	docTypes  domain.DocumentTypeRepository
	reminders domain.ReminderRepository
	store     storage.ObjectStore
	extractor Extractor
	audit     domain.AuditRepository
	logger    *slog.Logger
}

// NewUploadService creates a new UploadService. store may be nil when
// object storage is not configured; extractor may be nil when extraction
// is not configured.
func NewUploadService(
	uploads domain.UploadRepository,
	companies domain.CompanyRepository,
	docTypes domain.DocumentTypeRepository,
	reminders domain.ReminderRepository,
	store storage.ObjectStore,
	extractor Extractor,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *UploadService {
	return &UploadService{
		uploads:   uploads,
		companies: companies,
		docTypes:  docTypes,
		reminders: reminders,
		store:     store,
		extractor: extractor,
		audit:     audit,
		logger:    logger,
	}
}

// Upload stores the file, registers a new version, and extracts fields
// when an extraction service and a field schema are available. The stored
// version survives extraction failures; dates and details are simply
// absent until a re-extract.
func (s *UploadService) Upload(ctx context.Context, req domain.CreateUploadRequest, file io.Reader) (*domain.Upload, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, domain.ErrValidation("object storage is not configured")
	}

	company, err := s.companies.GetByID(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	docType, err := s.docTypes.GetByID(ctx, req.DocumentTypeID)
	if err != nil {
		return nil, err
	}

	key := objectKey(company.ID, docType.Name, req.FileName)
	objectPath, err := s.store.Put(ctx, key, req.ContentType, file)
	if err != nil {
		logAction(ctx, s.audit, "UPLOAD_DOCUMENT", "upload", key, err)
		return nil, fmt.Errorf("store document: %w", err)
	}

	upload, err := s.uploads.Create(ctx, &domain.Upload{
		CompanyID:      company.ID,
		CompanyName:    company.Name,
		DocumentTypeID: docType.ID,
		ObjectPath:     objectPath,
		FileName:       req.FileName,
		ContentType:    req.ContentType,
		SizeBytes:      req.SizeBytes,
		IssueDate:      req.IssueDate,
		ExpiryDate:     req.ExpiryDate,
		UploadedBy:     callerName(ctx),
	})
	if err != nil {
		logAction(ctx, s.audit, "UPLOAD_DOCUMENT", "upload", key, err)
		return nil, err
	}
	logAction(ctx, s.audit, "UPLOAD_DOCUMENT", "upload", strconv.FormatInt(upload.ID, 10), nil)

	// A new version supersedes the old one; its reminder no longer applies.
	if versions, err := s.uploads.ListVersions(ctx, company.ID, docType.ID); err == nil {
		for _, v := range versions[1:] {
			_ = s.reminders.DeleteForUpload(ctx, v.ID)
		}
	}

	if s.extractor != nil && len(docType.Fields) > 0 {
		if err := s.runExtraction(ctx, upload, docType); err != nil {
			s.logger.Warn("extraction failed, keeping upload without details",
				"upload_id", upload.ID, "document_type", docType.Name, "error", err)
		}
	}

	return s.uploads.GetByID(ctx, upload.ID)
}

// BatchItem is one document in a batch upload.
type BatchItem struct {
	Request domain.CreateUploadRequest
	File    io.Reader
}

// BatchResult reports the outcome of one batch item.
type BatchResult struct {
	FileName string
	Upload   *domain.Upload
	Err      error
}

// UploadBatch stores several documents with bounded parallelism. One
// failed item never fails the batch; each result carries its own error.
func (s *UploadService) UploadBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range items {
		item := items[i]
		idx := i
		g.Go(func() error {
			upload, err := s.Upload(gctx, item.Request, item.File)
			results[idx] = BatchResult{FileName: item.Request.FileName, Upload: upload, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Get returns an upload by ID.
func (s *UploadService) Get(ctx context.Context, id int64) (*domain.Upload, error) {
	return s.uploads.GetByID(ctx, id)
}

// Latest returns the newest upload for a (company, document type) pair.
func (s *UploadService) Latest(ctx context.Context, companyID, documentTypeID int64) (*domain.Upload, error) {
	return s.uploads.Latest(ctx, companyID, documentTypeID)
}

// Versions returns all uploads for a pair, newest first.
func (s *UploadService) Versions(ctx context.Context, companyID, documentTypeID int64) ([]domain.Upload, error) {
	return s.uploads.ListVersions(ctx, companyID, documentTypeID)
}

// ListByCompany returns all uploads of one company, newest first.
func (s *UploadService) ListByCompany(ctx context.Context, companyID int64) ([]domain.Upload, error) {
	return s.uploads.ListByCompany(ctx, companyID)
}

// DownloadURL returns a short-lived signed URL for an upload's file.
func (s *UploadService) DownloadURL(ctx context.Context, id int64) (string, error) {
	if s.store == nil {
		return "", domain.ErrValidation("object storage is not configured")
	}
	upload, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.SignedGetURL(ctx, upload.ObjectPath, storage.SignedURLTTL)
}

// Delete removes an upload version, its stored object, and its reminder.
func (s *UploadService) Delete(ctx context.Context, id int64) error {
	upload, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, upload.ObjectPath); err != nil {
			s.logger.Warn("delete stored object failed", "path", upload.ObjectPath, "error", err)
		}
	}
	_ = s.reminders.DeleteForUpload(ctx, id)
	err = s.uploads.Delete(ctx, id)
	logAction(ctx, s.audit, "DELETE_UPLOAD", "upload", strconv.FormatInt(id, 10), err)
	return err
}

// Reextract reruns field extraction on a stored upload.
func (s *UploadService) Reextract(ctx context.Context, id int64) (*domain.Upload, error) {
	if s.extractor == nil {
		return nil, domain.ErrValidation("extraction service is not configured")
	}
	upload, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	docType, err := s.docTypes.GetByID(ctx, upload.DocumentTypeID)
	if err != nil {
		return nil, err
	}
	if err := s.runExtraction(ctx, upload, docType); err != nil {
		return nil, err
	}
	return s.uploads.GetByID(ctx, id)
}

// UpdateExtractedDetails replaces the stored extraction output of an
// upload, typically after a manual correction.
func (s *UploadService) UpdateExtractedDetails(ctx context.Context, id int64, details map[string]any) (*domain.Upload, error) {
	if _, err := s.uploads.GetByID(ctx, id); err != nil {
		return nil, err
	}
	err := s.uploads.SetExtractedDetails(ctx, id, details)
	logAction(ctx, s.audit, "UPDATE_UPLOAD_DETAILS", "upload", strconv.FormatInt(id, 10), err)
	if err != nil {
		return nil, err
	}
	return s.uploads.GetByID(ctx, id)
}

// runExtraction extracts fields from the stored file and resolves issue
// and expiry dates out of the result. Dates given explicitly at upload
// time win over extracted ones.
func (s *UploadService) runExtraction(ctx context.Context, upload *domain.Upload, docType *domain.DocumentType) error {
	fileURL, err := s.store.SignedGetURL(ctx, upload.ObjectPath, storage.SignedURLTTL)
	if err != nil {
		return fmt.Errorf("sign extraction url: %w", err)
	}

	details, err := s.extractor.Extract(ctx, fileURL, docType.Fields)
	if err != nil {
		return err
	}
	if err := s.uploads.SetExtractedDetails(ctx, upload.ID, details); err != nil {
		return err
	}

	issue := upload.IssueDate
	expiry := upload.ExpiryDate
	keys := extract.FieldKeys(docType.Fields)
	if issue == nil {
		if found, ok := dataset.FindIssueDate(details, keys); ok {
			issue = &found
		}
	}
	if expiry == nil {
		if found, ok := dataset.FindExpiryDate(details, keys); ok {
			expiry = &found
		}
	}
	if issue != upload.IssueDate || expiry != upload.ExpiryDate {
		if err := s.uploads.SetDates(ctx, upload.ID, issue, expiry); err != nil {
			return err
		}
	}
	return nil
}

// objectKey builds a stable storage key: per-company, per-type, with a
// timestamp so versions never collide.
func objectKey(companyID int64, docTypeName, fileName string) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(docTypeName), " ", "-"))
	return path.Join(
		"companies", strconv.FormatInt(companyID, 10),
		slug,
		fmt.Sprintf("%d_%s", time.Now().UnixNano(), path.Base(fileName)),
	)
}
