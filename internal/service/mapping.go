package service

import (
	"context"
	"strconv"

	"licence-desk/internal/domain"
)

// MappingService manages schema-mapping rows and display settings.
type MappingService struct {
	repo  domain.MappingRepository
	audit domain.AuditRepository
}

// NewMappingService creates a new MappingService.
func NewMappingService(repo domain.MappingRepository, audit domain.AuditRepository) *MappingService {
	return &MappingService{repo: repo, audit: audit}
}

// Create inserts a mapping row.
func (s *MappingService) Create(ctx context.Context, req domain.CreateMappingRequest) (*domain.MappingRow, error) {
	row, err := s.repo.Create(ctx, req)
	logAction(ctx, s.audit, "CREATE_MAPPING", "mapping", req.MainTab+"/"+req.Tab, err)
	return row, err
}

// Get returns a mapping row by ID.
func (s *MappingService) Get(ctx context.Context, id int64) (*domain.MappingRow, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByTab returns the mapping rows of one tab pair.
func (s *MappingService) ListByTab(ctx context.Context, mainTab, tab string) ([]domain.MappingRow, error) {
	return s.repo.ListByTab(ctx, mainTab, tab)
}

// ListAll returns every mapping row.
func (s *MappingService) ListAll(ctx context.Context) ([]domain.MappingRow, error) {
	return s.repo.ListAll(ctx)
}

// Update applies partial changes to a mapping row.
func (s *MappingService) Update(ctx context.Context, id int64, req domain.UpdateMappingRequest) (*domain.MappingRow, error) {
	row, err := s.repo.Update(ctx, id, req)
	logAction(ctx, s.audit, "UPDATE_MAPPING", "mapping", strconv.FormatInt(id, 10), err)
	return row, err
}

// Delete removes a mapping row.
func (s *MappingService) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	logAction(ctx, s.audit, "DELETE_MAPPING", "mapping", strconv.FormatInt(id, 10), err)
	return err
}

// GetDisplaySettings returns the overrides for one tab pair, empty
// settings when none are stored.
func (s *MappingService) GetDisplaySettings(ctx context.Context, mainTab, tab string) (*domain.DisplaySettings, error) {
	return s.repo.GetDisplaySettings(ctx, mainTab, tab)
}

// SaveDisplaySettings upserts the overrides for one tab pair. Last write
// wins.
func (s *MappingService) SaveDisplaySettings(ctx context.Context, settings *domain.DisplaySettings) (*domain.DisplaySettings, error) {
	saved, err := s.repo.SaveDisplaySettings(ctx, settings)
	name := ""
	if settings != nil {
		name = settings.MainTab + "/" + settings.Tab
	}
	logAction(ctx, s.audit, "SAVE_DISPLAY_SETTINGS", "display_settings", name, err)
	return saved, err
}
