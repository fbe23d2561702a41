package service

import (
	"context"
	"fmt"
	"log/slog"

	"licence-desk/internal/dataset"
	"licence-desk/internal/domain"
	"licence-desk/internal/schema"
)

// DatasetService resolves display structures from schema mappings and
// joins company data onto them.
type DatasetService struct {
	mappings  domain.MappingRepository
	companies domain.CompanyRepository
	records   domain.RecordRepository
	logger    *slog.Logger
}

// NewDatasetService creates a new DatasetService.
func NewDatasetService(mappings domain.MappingRepository, companies domain.CompanyRepository, records domain.RecordRepository, logger *slog.Logger) *DatasetService {
	return &DatasetService{mappings: mappings, companies: companies, records: records, logger: logger}
}

// Dataset is a resolved tab: its display structure plus one merged row
// group per company.
type Dataset struct {
	MainTab   string                 `json:"main_tab"`
	Tab       string                 `json:"tab"`
	Structure []schema.StructureNode `json:"structure"`
	Rows      []dataset.MergedRow    `json:"rows"`
}

// Tabs returns the visible tab names under a main tab, in configured
// order.
func (s *DatasetService) Tabs(ctx context.Context, mainTab string) ([]string, error) {
	rows, err := s.mappings.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load mappings: %w", err)
	}
	settings, err := s.mappings.GetDisplaySettings(ctx, mainTab, "")
	if err != nil {
		return nil, fmt.Errorf("load display settings: %w", err)
	}
	vis, order := schema.FromDisplaySettings(settings)
	return schema.Tabs(rows, mainTab, vis, order), nil
}

// Structure resolves the display structure of one tab: sections in
// configured order with separators, subsections, and field groups.
func (s *DatasetService) Structure(ctx context.Context, mainTab, tab string) ([]schema.StructureNode, error) {
	rows, settings, err := s.loadTab(ctx, mainTab, tab)
	if err != nil {
		return nil, err
	}
	vis, order := schema.FromDisplaySettings(settings)
	return schema.Resolve(rows, mainTab, tab, vis, order, s.logger), nil
}

// Resolve loads everything a tab needs: structure, companies, and the
// records of every relevant table merged into one row group per company.
func (s *DatasetService) Resolve(ctx context.Context, mainTab, tab string) (*Dataset, error) {
	rows, settings, err := s.loadTab(ctx, mainTab, tab)
	if err != nil {
		return nil, err
	}
	vis, order := schema.FromDisplaySettings(settings)

	structure := schema.Resolve(rows, mainTab, tab, vis, order, s.logger)
	tables := schema.RelevantTables(rows, mainTab, tab, vis, s.logger)

	companies, err := s.allCompanies(ctx)
	if err != nil {
		return nil, err
	}
	tableData, err := s.records.ListByTables(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("load table records: %w", err)
	}

	return &Dataset{
		MainTab:   mainTab,
		Tab:       tab,
		Structure: structure,
		Rows:      dataset.Merge(companies, tableData, tables),
	}, nil
}

// allCompanies pages through the full company list. The registry is
// back-office sized, so loading it whole is fine.
func (s *DatasetService) allCompanies(ctx context.Context) ([]domain.Company, error) {
	var companies []domain.Company
	page := domain.PageRequest{MaxResults: domain.MaxMaxResults}
	for {
		batch, total, err := s.companies.List(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("load companies: %w", err)
		}
		companies = append(companies, batch...)
		next := domain.NextPageToken(page.Offset(), page.Limit(), total)
		if next == "" {
			return companies, nil
		}
		page.PageToken = next
	}
}

func (s *DatasetService) loadTab(ctx context.Context, mainTab, tab string) ([]domain.MappingRow, *domain.DisplaySettings, error) {
	if mainTab == "" || tab == "" {
		return nil, nil, domain.ErrValidation("main_tab and tab are required")
	}
	rows, err := s.mappings.ListByTab(ctx, mainTab, tab)
	if err != nil {
		return nil, nil, fmt.Errorf("load mappings: %w", err)
	}
	settings, err := s.mappings.GetDisplaySettings(ctx, mainTab, tab)
	if err != nil {
		return nil, nil, fmt.Errorf("load display settings: %w", err)
	}
	return rows, settings, nil
}
