package repository

import (
	"context"
	"database/sql"

	"licence-desk/internal/domain"
)

var _ domain.ReminderRepository = (*ReminderRepo)(nil)

// ReminderRepo stores expiry-scan findings in SQLite.
type ReminderRepo struct {
	db *sql.DB
}

// NewReminderRepo creates a new ReminderRepo.
func NewReminderRepo(db *sql.DB) *ReminderRepo {
	return &ReminderRepo{db: db}
}

// Upsert records a finding, replacing any previous reminder for the same
// upload so rescans never accumulate duplicates.
func (r *ReminderRepo) Upsert(ctx context.Context, rem *domain.Reminder) (*domain.Reminder, error) {
	if rem == nil || rem.UploadID <= 0 {
		return nil, domain.ErrValidation("reminder upload_id is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (upload_id, company_id, document_type_id, status, due_date, days_left)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (upload_id) DO UPDATE SET
			company_id = excluded.company_id,
			document_type_id = excluded.document_type_id,
			status = excluded.status,
			due_date = excluded.due_date,
			days_left = excluded.days_left
	`, rem.UploadID, rem.CompanyID, rem.DocumentTypeID, string(rem.Status), rem.DueDate.UTC(), rem.DaysLeft)
	if err != nil {
		return nil, mapDBError(err)
	}

	return scanReminder(r.db.QueryRowContext(ctx, `
		SELECT id, upload_id, company_id, document_type_id, status, due_date, days_left, created_at
		FROM reminders WHERE upload_id = ?
	`, rem.UploadID))
}

// List returns reminders ordered by due date with the total count.
func (r *ReminderRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Reminder, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reminders`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, upload_id, company_id, document_type_id, status, due_date, days_left, created_at
		FROM reminders
		ORDER BY due_date, id
		LIMIT ? OFFSET ?
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	var reminders []domain.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, 0, err
		}
		reminders = append(reminders, *rem)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return reminders, total, nil
}

// DeleteForUpload removes the reminder for an upload, if any.
func (r *ReminderRepo) DeleteForUpload(ctx context.Context, uploadID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE upload_id = ?`, uploadID)
	return mapDBError(err)
}

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var rem domain.Reminder
	var status string
	if err := row.Scan(&rem.ID, &rem.UploadID, &rem.CompanyID, &rem.DocumentTypeID,
		&status, &rem.DueDate, &rem.DaysLeft, &rem.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	rem.Status = domain.LicenceStatus(status)
	return &rem, nil
}
