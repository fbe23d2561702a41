package repository

import (
	"context"
	"database/sql"
	"time"

	"licence-desk/internal/domain"
)

var _ domain.UploadRepository = (*UploadRepo)(nil)

// UploadRepo stores document upload versions in SQLite.
type UploadRepo struct {
	db *sql.DB
}

// NewUploadRepo creates a new UploadRepo.
func NewUploadRepo(db *sql.DB) *UploadRepo {
	return &UploadRepo{db: db}
}

const uploadColumns = `
	id, company_id, company_name, document_type_id, object_path, file_name,
	content_type, size_bytes, extracted_json, issue_date, expiry_date,
	uploaded_by, created_at
`

// Create inserts a new upload version.
func (r *UploadRepo) Create(ctx context.Context, u *domain.Upload) (*domain.Upload, error) {
	if u == nil {
		return nil, domain.ErrValidation("upload is required")
	}

	var extracted any
	if u.ExtractedDetails != nil {
		raw, err := marshalMap(u.ExtractedDetails)
		if err != nil {
			return nil, err
		}
		extracted = raw
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO uploads
			(company_id, company_name, document_type_id, object_path, file_name,
			 content_type, size_bytes, extracted_json, issue_date, expiry_date, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.CompanyID, u.CompanyName, u.DocumentTypeID, u.ObjectPath, u.FileName,
		u.ContentType, u.SizeBytes, extracted, nullableTime(u.IssueDate), nullableTime(u.ExpiryDate), u.UploadedBy)
	if err != nil {
		return nil, mapDBError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID returns an upload by ID.
func (r *UploadRepo) GetByID(ctx context.Context, id int64) (*domain.Upload, error) {
	return scanUpload(r.db.QueryRowContext(ctx, `
		SELECT `+uploadColumns+` FROM uploads WHERE id = ?
	`, id))
}

// Latest returns the newest upload for the (company, document type) pair.
func (r *UploadRepo) Latest(ctx context.Context, companyID, documentTypeID int64) (*domain.Upload, error) {
	return scanUpload(r.db.QueryRowContext(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads
		WHERE company_id = ? AND document_type_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, companyID, documentTypeID))
}

// ListVersions returns all uploads for the pair, newest first.
func (r *UploadRepo) ListVersions(ctx context.Context, companyID, documentTypeID int64) ([]domain.Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads
		WHERE company_id = ? AND document_type_id = ?
		ORDER BY created_at DESC, id DESC
	`, companyID, documentTypeID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return collectUploads(rows)
}

// ListByCompany returns all uploads of one company, newest first.
func (r *UploadRepo) ListByCompany(ctx context.Context, companyID int64) ([]domain.Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads
		WHERE company_id = ?
		ORDER BY created_at DESC, id DESC
	`, companyID)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return collectUploads(rows)
}

// ListExpiring returns the latest upload version per pair whose expiry
// date falls before the cutoff. Older superseded versions are excluded.
func (r *UploadRepo) ListExpiring(ctx context.Context, before time.Time) ([]domain.Upload, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+uploadColumns+`
		FROM uploads u
		WHERE u.expiry_date IS NOT NULL
		  AND u.expiry_date < ?
		  AND u.id = (
			SELECT v.id FROM uploads v
			WHERE v.company_id = u.company_id AND v.document_type_id = u.document_type_id
			ORDER BY v.created_at DESC, v.id DESC
			LIMIT 1
		  )
		ORDER BY u.expiry_date
	`, before.UTC())
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close()
	return collectUploads(rows)
}

// SetExtractedDetails stores the extraction output for an upload.
func (r *UploadRepo) SetExtractedDetails(ctx context.Context, id int64, details map[string]any) error {
	raw, err := marshalMap(details)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE uploads SET extracted_json = ? WHERE id = ?
	`, raw, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("upload %d not found", id)
	}
	return nil
}

// SetDates stores the resolved issue and expiry dates for an upload.
func (r *UploadRepo) SetDates(ctx context.Context, id int64, issue, expiry *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE uploads SET issue_date = ?, expiry_date = ? WHERE id = ?
	`, nullableTime(issue), nullableTime(expiry), id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("upload %d not found", id)
	}
	return nil
}

// Delete removes an upload version.
func (r *UploadRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("upload %d not found", id)
	}
	return nil
}

func scanUpload(row rowScanner) (*domain.Upload, error) {
	var u domain.Upload
	var extracted sql.NullString
	var issue, expiry sql.NullTime
	err := row.Scan(&u.ID, &u.CompanyID, &u.CompanyName, &u.DocumentTypeID,
		&u.ObjectPath, &u.FileName, &u.ContentType, &u.SizeBytes,
		&extracted, &issue, &expiry, &u.UploadedBy, &u.CreatedAt)
	if err != nil {
		return nil, mapDBError(err)
	}
	if extracted.Valid {
		details, err := unmarshalMap(extracted.String)
		if err != nil {
			return nil, err
		}
		u.ExtractedDetails = details
	}
	u.IssueDate = timePtr(issue)
	u.ExpiryDate = timePtr(expiry)
	return &u, nil
}

func collectUploads(rows *sql.Rows) ([]domain.Upload, error) {
	var out []domain.Upload
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapDBError(err)
	}
	return out, nil
}
