package api

import (
	"context"
	"net/http"
	"time"

	"licence-desk/internal/domain"
)

// auditService defines the audit log operations used by the API handler.
type auditService interface {
	List(ctx context.Context, page domain.PageRequest) ([]domain.AuditEntry, int64, error)
}

type auditEntryResponse struct {
	ID            string    `json:"id"`
	PrincipalName string    `json:"principal_name"`
	Action        string    `json:"action"`
	EntityType    *string   `json:"entity_type,omitempty"`
	EntityID      *string   `json:"entity_id,omitempty"`
	Detail        *string   `json:"detail,omitempty"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func auditEntryToAPI(e domain.AuditEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:            e.ID,
		PrincipalName: e.PrincipalName,
		Action:        e.Action,
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		Detail:        e.Detail,
		Status:        e.Status,
		ErrorMessage:  e.ErrorMessage,
		CreatedAt:     e.CreatedAt,
	}
}

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	entries, total, err := h.audit.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		data[i] = auditEntryToAPI(e)
	}
	writeJSON(w, http.StatusOK, listPage[auditEntryResponse]{Data: data, NextPageToken: nextPageToken(page, total)})
}
