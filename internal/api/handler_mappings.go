package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"licence-desk/internal/domain"
)

// mappingService defines the schema-mapping operations used by the API
// handler.
type mappingService interface {
	Create(ctx context.Context, req domain.CreateMappingRequest) (*domain.MappingRow, error)
	Get(ctx context.Context, id int64) (*domain.MappingRow, error)
	ListByTab(ctx context.Context, mainTab, tab string) ([]domain.MappingRow, error)
	ListAll(ctx context.Context) ([]domain.MappingRow, error)
	Update(ctx context.Context, id int64, req domain.UpdateMappingRequest) (*domain.MappingRow, error)
	Delete(ctx context.Context, id int64) error
	GetDisplaySettings(ctx context.Context, mainTab, tab string) (*domain.DisplaySettings, error)
	SaveDisplaySettings(ctx context.Context, settings *domain.DisplaySettings) (*domain.DisplaySettings, error)
}

// mappingResponse carries the stored JSON columns verbatim; historically
// double-encoded rows pass through untouched and are the client's problem
// to decode, exactly as stored.
type mappingResponse struct {
	ID                  int64           `json:"id"`
	MainTab             string          `json:"main_tab"`
	Tab                 string          `json:"tab"`
	SectionsSections    json.RawMessage `json:"sections_sections,omitempty"`
	SectionsSubsections json.RawMessage `json:"sections_subsections,omitempty"`
	TableNames          json.RawMessage `json:"table_names,omitempty"`
	ColumnMappings      json.RawMessage `json:"column_mappings,omitempty"`
	ColumnOrder         json.RawMessage `json:"column_order,omitempty"`
	FieldDropdowns      json.RawMessage `json:"field_dropdowns,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func mappingToAPI(m *domain.MappingRow) mappingResponse {
	return mappingResponse{
		ID:                  m.ID,
		MainTab:             m.MainTab,
		Tab:                 m.Tab,
		SectionsSections:    rawColumn(m.SectionsSections),
		SectionsSubsections: rawColumn(m.SectionsSubsections),
		TableNames:          rawColumn(m.TableNames),
		ColumnMappings:      rawColumn(m.ColumnMappings),
		ColumnOrder:         rawColumn(m.ColumnOrder),
		FieldDropdowns:      rawColumn(m.FieldDropdowns),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// rawColumn passes a stored JSON column through when it is valid JSON,
// and re-encodes it as a JSON string otherwise.
func rawColumn(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	enc, _ := json.Marshal(s)
	return enc
}

type mappingBody struct {
	MainTab             string              `json:"main_tab"`
	Tab                 string              `json:"tab"`
	SectionsSections    map[string]bool     `json:"sections_sections"`
	SectionsSubsections map[string]any      `json:"sections_subsections"`
	TableNames          map[string][]string `json:"table_names"`
	// Declaration order of the payload's keys is preserved end to end.
	ColumnMappings domain.ColumnMappings `json:"column_mappings"`
	ColumnOrder    map[string]int        `json:"column_order"`
	FieldDropdowns map[string][]string   `json:"field_dropdowns"`
}

func (h *Handler) createMapping(w http.ResponseWriter, r *http.Request) {
	var body mappingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	row, err := h.mappings.Create(r.Context(), domain.CreateMappingRequest{
		MainTab:             body.MainTab,
		Tab:                 body.Tab,
		SectionsSections:    body.SectionsSections,
		SectionsSubsections: body.SectionsSubsections,
		TableNames:          body.TableNames,
		ColumnMappings:      body.ColumnMappings,
		ColumnOrder:         body.ColumnOrder,
		FieldDropdowns:      body.FieldDropdowns,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mappingToAPI(row))
}

// listMappings returns all mapping rows, filtered to one tab when the
// main_tab and tab query params are both present.
func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	mainTab := r.URL.Query().Get("main_tab")
	tab := r.URL.Query().Get("tab")

	var (
		rows []domain.MappingRow
		err  error
	)
	if mainTab != "" && tab != "" {
		rows, err = h.mappings.ListByTab(r.Context(), mainTab, tab)
	} else {
		rows, err = h.mappings.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]mappingResponse, len(rows))
	for i := range rows {
		data[i] = mappingToAPI(&rows[i])
	}
	writeJSON(w, http.StatusOK, listPage[mappingResponse]{Data: data})
}

func (h *Handler) getMapping(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "mappingID")
	if err != nil {
		writeError(w, err)
		return
	}
	row, err := h.mappings.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mappingToAPI(row))
}

func (h *Handler) updateMapping(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "mappingID")
	if err != nil {
		writeError(w, err)
		return
	}
	var body mappingBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	row, err := h.mappings.Update(r.Context(), id, domain.UpdateMappingRequest{
		SectionsSections:    body.SectionsSections,
		SectionsSubsections: body.SectionsSubsections,
		TableNames:          body.TableNames,
		ColumnMappings:      body.ColumnMappings,
		ColumnOrder:         body.ColumnOrder,
		FieldDropdowns:      body.FieldDropdowns,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mappingToAPI(row))
}

func (h *Handler) deleteMapping(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "mappingID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.mappings.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type displaySettingsBody struct {
	TabVisibility        map[string]bool `json:"tab_visibility"`
	SectionVisibility    map[string]bool `json:"section_visibility"`
	SubsectionVisibility map[string]bool `json:"subsection_visibility"`
	FieldVisibility      map[string]bool `json:"field_visibility"`
	TabOrder             map[string]int  `json:"tab_order"`
	SectionOrder         map[string]int  `json:"section_order"`
	SubsectionOrder      map[string]int  `json:"subsection_order"`
	FieldOrder           map[string]int  `json:"field_order"`
}

type displaySettingsResponse struct {
	MainTab string `json:"main_tab"`
	Tab     string `json:"tab"`
	displaySettingsBody
	UpdatedAt time.Time `json:"updated_at"`
}

func displaySettingsToAPI(s *domain.DisplaySettings) displaySettingsResponse {
	return displaySettingsResponse{
		MainTab: s.MainTab,
		Tab:     s.Tab,
		displaySettingsBody: displaySettingsBody{
			TabVisibility:        s.TabVisibility,
			SectionVisibility:    s.SectionVisibility,
			SubsectionVisibility: s.SubsectionVisibility,
			FieldVisibility:      s.FieldVisibility,
			TabOrder:             s.TabOrder,
			SectionOrder:         s.SectionOrder,
			SubsectionOrder:      s.SubsectionOrder,
			FieldOrder:           s.FieldOrder,
		},
		UpdatedAt: s.UpdatedAt,
	}
}

func (h *Handler) getDisplaySettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.mappings.GetDisplaySettings(r.Context(), chi.URLParam(r, "mainTab"), chi.URLParam(r, "tab"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, displaySettingsToAPI(settings))
}

func (h *Handler) saveDisplaySettings(w http.ResponseWriter, r *http.Request) {
	var body displaySettingsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	settings, err := h.mappings.SaveDisplaySettings(r.Context(), &domain.DisplaySettings{
		MainTab:              chi.URLParam(r, "mainTab"),
		Tab:                  chi.URLParam(r, "tab"),
		TabVisibility:        body.TabVisibility,
		SectionVisibility:    body.SectionVisibility,
		SubsectionVisibility: body.SubsectionVisibility,
		FieldVisibility:      body.FieldVisibility,
		TabOrder:             body.TabOrder,
		SectionOrder:         body.SectionOrder,
		SubsectionOrder:      body.SubsectionOrder,
		FieldOrder:           body.FieldOrder,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, displaySettingsToAPI(settings))
}
