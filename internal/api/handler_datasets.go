package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"licence-desk/internal/dataset"
	"licence-desk/internal/schema"
	"licence-desk/internal/service"
)

// datasetService defines the resolved-view operations used by the API
// handler.
type datasetService interface {
	Tabs(ctx context.Context, mainTab string) ([]string, error)
	Structure(ctx context.Context, mainTab, tab string) ([]schema.StructureNode, error)
	Resolve(ctx context.Context, mainTab, tab string) (*service.Dataset, error)
}

type rowResponse struct {
	CompanyID       int64                     `json:"company_id"`
	CompanyName     string                    `json:"company_name"`
	Values          map[string]any            `json:"values,omitempty"`
	Data            map[string]map[string]any `json:"data,omitempty"`
	Record          map[string]any            `json:"record,omitempty"`
	IsFirstRow      bool                      `json:"is_first_row"`
	IsAdditionalRow bool                      `json:"is_additional_row"`
	SourceTable     string                    `json:"source_table,omitempty"`
	RecordID        int64                     `json:"record_id,omitempty"`
}

type mergedRowResponse struct {
	Company companyResponse `json:"company"`
	Rows    []rowResponse   `json:"rows"`
	RowSpan int             `json:"row_span"`
}

type datasetResponse struct {
	MainTab   string                 `json:"main_tab"`
	Tab       string                 `json:"tab"`
	Structure []schema.StructureNode `json:"structure"`
	Rows      []mergedRowResponse    `json:"rows"`
}

func rowToAPI(row dataset.Row) rowResponse {
	return rowResponse{
		CompanyID:       row.CompanyID,
		CompanyName:     row.CompanyName,
		Values:          row.Values,
		Data:            row.Data,
		Record:          row.Record,
		IsFirstRow:      row.IsFirstRow,
		IsAdditionalRow: row.IsAdditionalRow,
		SourceTable:     row.SourceTable,
		RecordID:        row.RecordID,
	}
}

func mergedRowToAPI(m dataset.MergedRow) mergedRowResponse {
	rows := make([]rowResponse, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = rowToAPI(row)
	}
	return mergedRowResponse{
		Company: companyToAPI(&m.Company),
		Rows:    rows,
		RowSpan: m.RowSpan,
	}
}

func (h *Handler) listTabs(w http.ResponseWriter, r *http.Request) {
	tabs, err := h.datasets.Tabs(r.Context(), chi.URLParam(r, "mainTab"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listPage[string]{Data: tabs})
}

func (h *Handler) getStructure(w http.ResponseWriter, r *http.Request) {
	structure, err := h.datasets.Structure(r.Context(), chi.URLParam(r, "mainTab"), chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listPage[schema.StructureNode]{Data: structure})
}

func (h *Handler) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.datasets.Resolve(r.Context(), chi.URLParam(r, "mainTab"), chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}
	rows := make([]mergedRowResponse, len(ds.Rows))
	for i, m := range ds.Rows {
		rows[i] = mergedRowToAPI(m)
	}
	writeJSON(w, http.StatusOK, datasetResponse{
		MainTab:   ds.MainTab,
		Tab:       ds.Tab,
		Structure: ds.Structure,
		Rows:      rows,
	})
}
