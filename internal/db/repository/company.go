package repository

import (
	"context"
	"database/sql"

	"licence-desk/internal/domain"
)

var _ domain.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo stores companies in SQLite.
type CompanyRepo struct {
	db *sql.DB
}

// NewCompanyRepo creates a new CompanyRepo.
func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// Create inserts a new company.
func (r *CompanyRepo) Create(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fieldsJSON, err := marshalMap(req.Fields)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO companies (company_name, fields_json)
		VALUES (?, ?)
	`, req.Name, fieldsJSON)
	if err != nil {
		return nil, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// GetByID returns a company by ID.
func (r *CompanyRepo) GetByID(ctx context.Context, id int64) (*domain.Company, error) {
	return r.getOne(ctx, `
		SELECT id, company_name, fields_json, created_at, updated_at
		FROM companies WHERE id = ?
	`, id)
}

// GetByName returns a company by name, case-insensitively.
func (r *CompanyRepo) GetByName(ctx context.Context, name string) (*domain.Company, error) {
	return r.getOne(ctx, `
		SELECT id, company_name, fields_json, created_at, updated_at
		FROM companies WHERE company_name = ? COLLATE NOCASE
	`, name)
}

// List returns companies ordered by name with the total count.
func (r *CompanyRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Company, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, company_name, fields_json, created_at, updated_at
		FROM companies
		ORDER BY company_name COLLATE NOCASE
		LIMIT ? OFFSET ?
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return companies, total, nil
}

// Update applies partial changes to a company. Fields are merged key by
// key into the stored bag.
func (r *CompanyRepo) Update(ctx context.Context, id int64, req domain.UpdateCompanyRequest) (*domain.Company, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if req.Name != nil {
		name = *req.Name
	}
	merged := current.Fields
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range req.Fields {
		merged[k] = v
	}
	fieldsJSON, err := marshalMap(merged)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE companies
		SET company_name = ?, fields_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, fieldsJSON, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a company.
func (r *CompanyRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("company %d not found", id)
	}
	return nil
}

func (r *CompanyRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Company, error) {
	return scanCompany(r.db.QueryRowContext(ctx, query, args...))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*domain.Company, error) {
	var c domain.Company
	var fieldsJSON string
	if err := row.Scan(&c.ID, &c.Name, &fieldsJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, mapDBError(err)
	}
	fields, err := unmarshalMap(fieldsJSON)
	if err != nil {
		return nil, err
	}
	c.Fields = fields
	return &c, nil
}
