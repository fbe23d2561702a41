package service

import (
	"context"
	"strconv"

	"licence-desk/internal/domain"
)

// CompanyService manages companies and the dynamic table records hanging
// off them.
type CompanyService struct {
	companies domain.CompanyRepository
	records   domain.RecordRepository
	audit     domain.AuditRepository
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companies domain.CompanyRepository, records domain.RecordRepository, audit domain.AuditRepository) *CompanyService {
	return &CompanyService{companies: companies, records: records, audit: audit}
}

// CreateCompany creates a company.
func (s *CompanyService) CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error) {
	company, err := s.companies.Create(ctx, req)
	logAction(ctx, s.audit, "CREATE_COMPANY", "company", req.Name, err)
	return company, err
}

// GetCompany returns a company by ID.
func (s *CompanyService) GetCompany(ctx context.Context, id int64) (*domain.Company, error) {
	return s.companies.GetByID(ctx, id)
}

// ListCompanies returns companies ordered by name.
func (s *CompanyService) ListCompanies(ctx context.Context, page domain.PageRequest) ([]domain.Company, int64, error) {
	return s.companies.List(ctx, page)
}

// UpdateCompany applies partial changes to a company.
func (s *CompanyService) UpdateCompany(ctx context.Context, id int64, req domain.UpdateCompanyRequest) (*domain.Company, error) {
	company, err := s.companies.Update(ctx, id, req)
	logAction(ctx, s.audit, "UPDATE_COMPANY", "company", strconv.FormatInt(id, 10), err)
	return company, err
}

// DeleteCompany removes a company. Uploads cascade away; records keep
// their company name for re-linking.
func (s *CompanyService) DeleteCompany(ctx context.Context, id int64) error {
	err := s.companies.Delete(ctx, id)
	logAction(ctx, s.audit, "DELETE_COMPANY", "company", strconv.FormatInt(id, 10), err)
	return err
}

// CreateRecord creates a table record. When only a company name is
// given, the record is linked to the matching company if one exists.
func (s *CompanyService) CreateRecord(ctx context.Context, req domain.CreateRecordRequest) (*domain.TableRecord, error) {
	if req.CompanyID == nil && req.CompanyName != "" {
		if company, err := s.companies.GetByName(ctx, req.CompanyName); err == nil {
			req.CompanyID = &company.ID
		}
	}
	record, err := s.records.Create(ctx, req)
	logAction(ctx, s.audit, "CREATE_RECORD", "record", req.TableName, err)
	return record, err
}

// GetRecord returns a table record by ID.
func (s *CompanyService) GetRecord(ctx context.Context, id int64) (*domain.TableRecord, error) {
	return s.records.GetByID(ctx, id)
}

// ListRecords returns the records of one table.
func (s *CompanyService) ListRecords(ctx context.Context, tableName string, page domain.PageRequest) ([]domain.TableRecord, int64, error) {
	return s.records.ListByTable(ctx, tableName, page)
}

// UpdateRecord replaces a record's field bag.
func (s *CompanyService) UpdateRecord(ctx context.Context, id int64, fields map[string]any) (*domain.TableRecord, error) {
	record, err := s.records.Update(ctx, id, fields)
	logAction(ctx, s.audit, "UPDATE_RECORD", "record", strconv.FormatInt(id, 10), err)
	return record, err
}

// DeleteRecord removes a table record.
func (s *CompanyService) DeleteRecord(ctx context.Context, id int64) error {
	err := s.records.Delete(ctx, id)
	logAction(ctx, s.audit, "DELETE_RECORD", "record", strconv.FormatInt(id, 10), err)
	return err
}
