package api

import (
	"context"
	"net/http"
	"time"

	"licence-desk/internal/domain"
)

// companyService defines the company and record operations used by the
// API handler.
type companyService interface {
	CreateCompany(ctx context.Context, req domain.CreateCompanyRequest) (*domain.Company, error)
	GetCompany(ctx context.Context, id int64) (*domain.Company, error)
	ListCompanies(ctx context.Context, page domain.PageRequest) ([]domain.Company, int64, error)
	UpdateCompany(ctx context.Context, id int64, req domain.UpdateCompanyRequest) (*domain.Company, error)
	DeleteCompany(ctx context.Context, id int64) error
	CreateRecord(ctx context.Context, req domain.CreateRecordRequest) (*domain.TableRecord, error)
	GetRecord(ctx context.Context, id int64) (*domain.TableRecord, error)
	ListRecords(ctx context.Context, tableName string, page domain.PageRequest) ([]domain.TableRecord, int64, error)
	UpdateRecord(ctx context.Context, id int64, fields map[string]any) (*domain.TableRecord, error)
	DeleteRecord(ctx context.Context, id int64) error
}

type companyResponse struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Fields    map[string]any `json:"fields,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func companyToAPI(c *domain.Company) companyResponse {
	return companyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Fields:    c.Fields,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type createCompanyBody struct {
	Name   string         `json:"name"`
	Fields map[string]any `json:"fields"`
}

type updateCompanyBody struct {
	Name   *string        `json:"name"`
	Fields map[string]any `json:"fields"`
}

func (h *Handler) createCompany(w http.ResponseWriter, r *http.Request) {
	var body createCompanyBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	company, err := h.companies.CreateCompany(r.Context(), domain.CreateCompanyRequest{Name: body.Name, Fields: body.Fields})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, companyToAPI(company))
}

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	companies, total, err := h.companies.ListCompanies(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]companyResponse, len(companies))
	for i := range companies {
		data[i] = companyToAPI(&companies[i])
	}
	writeJSON(w, http.StatusOK, listPage[companyResponse]{Data: data, NextPageToken: nextPageToken(page, total)})
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	company, err := h.companies.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, companyToAPI(company))
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	var body updateCompanyBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	company, err := h.companies.UpdateCompany(r.Context(), id, domain.UpdateCompanyRequest{Name: body.Name, Fields: body.Fields})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, companyToAPI(company))
}

func (h *Handler) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.companies.DeleteCompany(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
