package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"licence-desk/internal/domain"
)

type recordResponse struct {
	ID          int64          `json:"id"`
	TableName   string         `json:"table_name"`
	CompanyID   *int64         `json:"company_id,omitempty"`
	CompanyName string         `json:"company_name,omitempty"`
	Fields      map[string]any `json:"fields,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func recordToAPI(rec *domain.TableRecord) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		TableName:   rec.TableName,
		CompanyID:   rec.CompanyID,
		CompanyName: rec.CompanyName,
		Fields:      rec.Fields,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

type createRecordBody struct {
	TableName   string         `json:"table_name"`
	CompanyID   *int64         `json:"company_id"`
	CompanyName string         `json:"company_name"`
	Fields      map[string]any `json:"fields"`
}

type updateRecordBody struct {
	Fields map[string]any `json:"fields"`
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	var body createRecordBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.companies.CreateRecord(r.Context(), domain.CreateRecordRequest{
		TableName:   body.TableName,
		CompanyID:   body.CompanyID,
		CompanyName: body.CompanyName,
		Fields:      body.Fields,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, recordToAPI(rec))
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "recordID")
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.companies.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToAPI(rec))
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	tableName := chi.URLParam(r, "tableName")
	page := pageFromQuery(r)
	records, total, err := h.companies.ListRecords(r.Context(), tableName, page)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]recordResponse, len(records))
	for i := range records {
		data[i] = recordToAPI(&records[i])
	}
	writeJSON(w, http.StatusOK, listPage[recordResponse]{Data: data, NextPageToken: nextPageToken(page, total)})
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "recordID")
	if err != nil {
		writeError(w, err)
		return
	}
	var body updateRecordBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	rec, err := h.companies.UpdateRecord(r.Context(), id, body.Fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordToAPI(rec))
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "recordID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.companies.DeleteRecord(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
