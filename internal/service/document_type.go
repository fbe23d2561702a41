package service

import (
	"context"
	"strconv"

	"licence-desk/internal/domain"
)

// DocumentTypeService manages document types and their extraction
// schemas.
type DocumentTypeService struct {
	repo  domain.DocumentTypeRepository
	audit domain.AuditRepository
}

// NewDocumentTypeService creates a new DocumentTypeService.
func NewDocumentTypeService(repo domain.DocumentTypeRepository, audit domain.AuditRepository) *DocumentTypeService {
	return &DocumentTypeService{repo: repo, audit: audit}
}

// Create inserts a document type.
func (s *DocumentTypeService) Create(ctx context.Context, req domain.CreateDocumentTypeRequest) (*domain.DocumentType, error) {
	dt, err := s.repo.Create(ctx, req)
	logAction(ctx, s.audit, "CREATE_DOCUMENT_TYPE", "document_type", req.Name, err)
	return dt, err
}

// Get returns a document type by ID.
func (s *DocumentTypeService) Get(ctx context.Context, id int64) (*domain.DocumentType, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByName returns a document type by its unique name.
func (s *DocumentTypeService) GetByName(ctx context.Context, name string) (*domain.DocumentType, error) {
	return s.repo.GetByName(ctx, name)
}

// List returns document types ordered by name.
func (s *DocumentTypeService) List(ctx context.Context, page domain.PageRequest) ([]domain.DocumentType, int64, error) {
	return s.repo.List(ctx, page)
}

// Update applies partial changes to a document type.
func (s *DocumentTypeService) Update(ctx context.Context, id int64, req domain.UpdateDocumentTypeRequest) (*domain.DocumentType, error) {
	dt, err := s.repo.Update(ctx, id, req)
	logAction(ctx, s.audit, "UPDATE_DOCUMENT_TYPE", "document_type", strconv.FormatInt(id, 10), err)
	return dt, err
}

// Delete removes a document type and, through the schema, its uploads.
func (s *DocumentTypeService) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	logAction(ctx, s.audit, "DELETE_DOCUMENT_TYPE", "document_type", strconv.FormatInt(id, 10), err)
	return err
}
