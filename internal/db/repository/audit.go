package repository

import (
	"context"
	"database/sql"

	"licence-desk/internal/domain"
)

var _ domain.AuditRepository = (*AuditRepo)(nil)

// AuditRepo appends to and reads the audit log.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Append inserts one audit entry.
func (r *AuditRepo) Append(ctx context.Context, e *domain.AuditEntry) error {
	if e == nil {
		return domain.ErrValidation("audit entry is required")
	}
	if e.ID == "" {
		e.ID = domain.NewID()
	}
	if e.Status == "" {
		e.Status = "OK"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, principal_name, action, entity_type, entity_id, detail, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.PrincipalName, e.Action, e.EntityType, e.EntityID, e.Detail, e.Status, e.ErrorMessage)
	return mapDBError(err)
}

// List returns audit entries newest first with the total count.
func (r *AuditRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, principal_name, action, entity_type, entity_id, detail, status, error_message, created_at
		FROM audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.PrincipalName, &e.Action, &e.EntityType, &e.EntityID,
			&e.Detail, &e.Status, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, 0, mapDBError(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return entries, total, nil
}
