package api

import (
	"context"
	"net/http"
	"time"

	"licence-desk/internal/domain"
)

// reminderService defines the expiry reminder operations used by the API
// handler.
type reminderService interface {
	List(ctx context.Context, page domain.PageRequest) ([]domain.Reminder, int64, error)
	Scan(ctx context.Context) (int, error)
}

type reminderResponse struct {
	ID             int64                `json:"id"`
	UploadID       int64                `json:"upload_id"`
	CompanyID      int64                `json:"company_id"`
	DocumentTypeID int64                `json:"document_type_id"`
	Status         domain.LicenceStatus `json:"status"`
	DueDate        time.Time            `json:"due_date"`
	DaysLeft       int                  `json:"days_left"`
	CreatedAt      time.Time            `json:"created_at"`
}

func reminderToAPI(rem domain.Reminder) reminderResponse {
	return reminderResponse{
		ID:             rem.ID,
		UploadID:       rem.UploadID,
		CompanyID:      rem.CompanyID,
		DocumentTypeID: rem.DocumentTypeID,
		Status:         rem.Status,
		DueDate:        rem.DueDate,
		DaysLeft:       rem.DaysLeft,
		CreatedAt:      rem.CreatedAt,
	}
}

func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	reminders, total, err := h.reminders.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]reminderResponse, len(reminders))
	for i, rem := range reminders {
		data[i] = reminderToAPI(rem)
	}
	writeJSON(w, http.StatusOK, listPage[reminderResponse]{Data: data, NextPageToken: nextPageToken(page, total)})
}

// scanReminders triggers an expiry scan outside the cron schedule.
func (h *Handler) scanReminders(w http.ResponseWriter, r *http.Request) {
	count, err := h.reminders.Scan(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"reminders_created": count})
}
