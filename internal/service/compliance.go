package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"licence-desk/internal/dataset"
	"licence-desk/internal/domain"
)

// ComplianceService derives licence statuses across companies and
// document types.
type ComplianceService struct {
	uploads   domain.UploadRepository
	docTypes  domain.DocumentTypeRepository
	companies domain.CompanyRepository

	// now is swappable for tests.
	now func() time.Time
}

// NewComplianceService creates a new ComplianceService.
func NewComplianceService(uploads domain.UploadRepository, docTypes domain.DocumentTypeRepository, companies domain.CompanyRepository) *ComplianceService {
	return &ComplianceService{
		uploads:   uploads,
		docTypes:  docTypes,
		companies: companies,
		now:       time.Now,
	}
}

// DocumentStatus is the derived state of one document slot for a company.
type DocumentStatus struct {
	DocumentTypeID int64                `json:"document_type_id"`
	Name           string               `json:"name"`
	Category       string               `json:"category"`
	Status         domain.LicenceStatus `json:"status"`
	UploadID       *int64               `json:"upload_id,omitempty"`
	IssueDate      *time.Time           `json:"issue_date,omitempty"`
	ExpiryDate     *time.Time           `json:"expiry_date,omitempty"`
	DaysLeft       *int                 `json:"days_left,omitempty"`
}

// CompanyStatus returns one status per document type for a company. Slots
// without any upload come back as Pending.
func (s *ComplianceService) CompanyStatus(ctx context.Context, companyID int64) ([]DocumentStatus, error) {
	if _, err := s.companies.GetByID(ctx, companyID); err != nil {
		return nil, err
	}
	types, err := s.allDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	statuses := make([]DocumentStatus, 0, len(types))
	for _, dt := range types {
		ds := DocumentStatus{
			DocumentTypeID: dt.ID,
			Name:           dt.Name,
			Category:       dt.Category,
			Status:         domain.StatusPending,
		}

		latest, err := s.uploads.Latest(ctx, companyID, dt.ID)
		var notFound *domain.NotFoundError
		switch {
		case err == nil:
			ds.UploadID = &latest.ID
			ds.Status = dataset.Status(latest, dt.Validity, today)
			if issue, ok := dataset.ResolveIssue(latest); ok {
				ds.IssueDate = &issue
			}
			if expiry, ok := dataset.ResolveExpiry(latest); ok {
				ds.ExpiryDate = &expiry
				days := dataset.DaysLeft(expiry, today)
				ds.DaysLeft = &days
			}
		case errors.As(err, &notFound):
			// no upload yet, Pending stands
		default:
			return nil, fmt.Errorf("latest upload for type %d: %w", dt.ID, err)
		}

		statuses = append(statuses, ds)
	}
	return statuses, nil
}

// MissingDocuments names the document types a company has never uploaded.
func (s *ComplianceService) MissingDocuments(ctx context.Context, companyID int64) ([]domain.MissingDocument, error) {
	statuses, err := s.CompanyStatus(ctx, companyID)
	if err != nil {
		return nil, err
	}
	missing := []domain.MissingDocument{}
	for _, ds := range statuses {
		if ds.UploadID == nil {
			missing = append(missing, domain.MissingDocument{
				DocumentTypeID: ds.DocumentTypeID,
				Name:           ds.Name,
				Category:       ds.Category,
			})
		}
	}
	return missing, nil
}

func (s *ComplianceService) allDocumentTypes(ctx context.Context) ([]domain.DocumentType, error) {
	var types []domain.DocumentType
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		batch, total, err := s.docTypes.List(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("load document types: %w", err)
		}
		types = append(types, batch...)
		next := domain.NextPageToken(page.Offset(), page.Limit(), total)
		if next == "" {
			return types, nil
		}
		page.PageToken = next
	}
}
