package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"licence-desk/internal/domain"
)

var _ domain.DocumentTypeRepository = (*DocumentTypeRepo)(nil)

// DocumentTypeRepo stores document types and their extraction schemas in
// SQLite.
type DocumentTypeRepo struct {
	db *sql.DB
}

// NewDocumentTypeRepo creates a new DocumentTypeRepo.
func NewDocumentTypeRepo(db *sql.DB) *DocumentTypeRepo {
	return &DocumentTypeRepo{db: db}
}

// Create inserts a new document type.
func (r *DocumentTypeRepo) Create(ctx context.Context, req domain.CreateDocumentTypeRequest) (*domain.DocumentType, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	fieldsJSON, err := marshalFieldSchema(req.Fields)
	if err != nil {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO document_types (name, category, validity, fields_json)
		VALUES (?, ?, ?, ?)
	`, req.Name, req.Category, string(req.Validity), fieldsJSON)
	if err != nil {
		return nil, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID returns a document type by ID.
func (r *DocumentTypeRepo) GetByID(ctx context.Context, id int64) (*domain.DocumentType, error) {
	return scanDocumentType(r.db.QueryRowContext(ctx, `
		SELECT id, name, category, validity, fields_json, created_at, updated_at
		FROM document_types WHERE id = ?
	`, id))
}

// GetByName returns a document type by its unique name.
func (r *DocumentTypeRepo) GetByName(ctx context.Context, name string) (*domain.DocumentType, error) {
	return scanDocumentType(r.db.QueryRowContext(ctx, `
		SELECT id, name, category, validity, fields_json, created_at, updated_at
		FROM document_types WHERE name = ?
	`, name))
}

// List returns document types ordered by name with the total count.
func (r *DocumentTypeRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.DocumentType, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_types`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, validity, fields_json, created_at, updated_at
		FROM document_types
		ORDER BY name
		LIMIT ? OFFSET ?
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	var types []domain.DocumentType
	for rows.Next() {
		dt, err := scanDocumentType(rows)
		if err != nil {
			return nil, 0, err
		}
		types = append(types, *dt)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return types, total, nil
}

// Update applies partial changes to a document type.
func (r *DocumentTypeRepo) Update(ctx context.Context, id int64, req domain.UpdateDocumentTypeRequest) (*domain.DocumentType, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if req.Name != nil {
		name = *req.Name
	}
	category := current.Category
	if req.Category != nil {
		category = *req.Category
	}
	validity := current.Validity
	if req.Validity != nil {
		validity = *req.Validity
	}
	fields := current.Fields
	if req.Fields != nil {
		if err := domain.ValidateFields(req.Fields); err != nil {
			return nil, err
		}
		fields = req.Fields
	}
	fieldsJSON, err := marshalFieldSchema(fields)
	if err != nil {
		return nil, err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE document_types
		SET name = ?, category = ?, validity = ?, fields_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, category, string(validity), fieldsJSON, id)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes a document type.
func (r *DocumentTypeRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM document_types WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("document type %d not found", id)
	}
	return nil
}

func marshalFieldSchema(fields []domain.ExtractedField) (string, error) {
	if fields == nil {
		fields = []domain.ExtractedField{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal field schema: %w", err)
	}
	return string(b), nil
}

func scanDocumentType(row rowScanner) (*domain.DocumentType, error) {
	var dt domain.DocumentType
	var validity string
	var fieldsJSON string
	if err := row.Scan(&dt.ID, &dt.Name, &dt.Category, &validity, &fieldsJSON, &dt.CreatedAt, &dt.UpdatedAt); err != nil {
		return nil, mapDBError(err)
	}
	dt.Validity = domain.Validity(validity)
	if err := unmarshalInto(fieldsJSON, &dt.Fields); err != nil {
		return nil, err
	}
	return &dt, nil
}
