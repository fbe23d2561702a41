package api

import (
	"context"
	"net/http"
	"time"

	"licence-desk/internal/domain"
)

// documentTypeService defines the document type operations used by the
// API handler.
type documentTypeService interface {
	Create(ctx context.Context, req domain.CreateDocumentTypeRequest) (*domain.DocumentType, error)
	Get(ctx context.Context, id int64) (*domain.DocumentType, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.DocumentType, int64, error)
	Update(ctx context.Context, id int64, req domain.UpdateDocumentTypeRequest) (*domain.DocumentType, error)
	Delete(ctx context.Context, id int64) error
}

type documentTypeResponse struct {
	ID        int64                   `json:"id"`
	Name      string                  `json:"name"`
	Category  string                  `json:"category,omitempty"`
	Validity  domain.Validity         `json:"validity"`
	Fields    []domain.ExtractedField `json:"fields,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func documentTypeToAPI(dt *domain.DocumentType) documentTypeResponse {
	return documentTypeResponse{
		ID:        dt.ID,
		Name:      dt.Name,
		Category:  dt.Category,
		Validity:  dt.Validity,
		Fields:    dt.Fields,
		CreatedAt: dt.CreatedAt,
		UpdatedAt: dt.UpdatedAt,
	}
}

type createDocumentTypeBody struct {
	Name     string                  `json:"name"`
	Category string                  `json:"category"`
	Validity domain.Validity         `json:"validity"`
	Fields   []domain.ExtractedField `json:"fields"`
}

type updateDocumentTypeBody struct {
	Name     *string                 `json:"name"`
	Category *string                 `json:"category"`
	Validity *domain.Validity        `json:"validity"`
	Fields   []domain.ExtractedField `json:"fields"`
}

func (h *Handler) createDocumentType(w http.ResponseWriter, r *http.Request) {
	var body createDocumentTypeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	dt, err := h.docTypes.Create(r.Context(), domain.CreateDocumentTypeRequest{
		Name:     body.Name,
		Category: body.Category,
		Validity: body.Validity,
		Fields:   body.Fields,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, documentTypeToAPI(dt))
}

func (h *Handler) listDocumentTypes(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	types, total, err := h.docTypes.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]documentTypeResponse, len(types))
	for i := range types {
		data[i] = documentTypeToAPI(&types[i])
	}
	writeJSON(w, http.StatusOK, listPage[documentTypeResponse]{Data: data, NextPageToken: nextPageToken(page, total)})
}

func (h *Handler) getDocumentType(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentTypeID")
	if err != nil {
		writeError(w, err)
		return
	}
	dt, err := h.docTypes.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentTypeToAPI(dt))
}

func (h *Handler) updateDocumentType(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentTypeID")
	if err != nil {
		writeError(w, err)
		return
	}
	var body updateDocumentTypeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	dt, err := h.docTypes.Update(r.Context(), id, domain.UpdateDocumentTypeRequest{
		Name:     body.Name,
		Category: body.Category,
		Validity: body.Validity,
		Fields:   body.Fields,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentTypeToAPI(dt))
}

func (h *Handler) deleteDocumentType(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "documentTypeID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.docTypes.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
