package api

import (
	"context"
	"net/http"

	"licence-desk/internal/domain"
	"licence-desk/internal/service"
)

// complianceService defines the compliance reporting operations used by
// the API handler.
type complianceService interface {
	CompanyStatus(ctx context.Context, companyID int64) ([]service.DocumentStatus, error)
	MissingDocuments(ctx context.Context, companyID int64) ([]domain.MissingDocument, error)
}

func (h *Handler) companyCompliance(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	statuses, err := h.compliance.CompanyStatus(r.Context(), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listPage[service.DocumentStatus]{Data: statuses})
}

type missingDocumentResponse struct {
	DocumentTypeID int64  `json:"document_type_id"`
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
}

func (h *Handler) companyMissingDocuments(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	missing, err := h.compliance.MissingDocuments(r.Context(), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]missingDocumentResponse, len(missing))
	for i, m := range missing {
		data[i] = missingDocumentResponse{DocumentTypeID: m.DocumentTypeID, Name: m.Name, Category: m.Category}
	}
	writeJSON(w, http.StatusOK, listPage[missingDocumentResponse]{Data: data})
}
