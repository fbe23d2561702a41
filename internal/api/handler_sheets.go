package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"licence-desk/internal/domain"
	"licence-desk/internal/service"
)

// maxImportBytes bounds the size of an imported sheet.
const maxImportBytes = 16 << 20

// sheetService defines the spreadsheet round-trip operations used by the
// API handler.
type sheetService interface {
	ExportCSV(ctx context.Context, mainTab, tab string, w io.Writer) error
	ImportCSV(ctx context.Context, mainTab, tab string, data []byte) (*service.ImportResult, error)
}

// exportSheet serves the resolved tab as a CSV download. The sheet is
// buffered so resolution errors still map to a proper status code.
func (h *Handler) exportSheet(w http.ResponseWriter, r *http.Request) {
	mainTab := chi.URLParam(r, "mainTab")
	tab := chi.URLParam(r, "tab")

	var buf bytes.Buffer
	if err := h.sheets.ExportCSV(r.Context(), mainTab, tab, &buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", mainTab+"_"+tab+".csv"))
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) importSheet(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		writeError(w, domain.ErrValidation("read request body: %v", err))
		return
	}
	if len(data) > maxImportBytes {
		writeError(w, domain.ErrValidation("sheet exceeds %d bytes", maxImportBytes))
		return
	}
	result, err := h.sheets.ImportCSV(r.Context(), chi.URLParam(r, "mainTab"), chi.URLParam(r, "tab"), data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
