package api

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
	"licence-desk/internal/service"
)

type mockSheetService struct {
	exportFn func(ctx context.Context, mainTab, tab string, w io.Writer) error
	importFn func(ctx context.Context, mainTab, tab string, data []byte) (*service.ImportResult, error)
}

func (m *mockSheetService) ExportCSV(ctx context.Context, mainTab, tab string, w io.Writer) error {
	if m.exportFn == nil {
		panic("not implemented")
	}
	return m.exportFn(ctx, mainTab, tab, w)
}
func (m *mockSheetService) ImportCSV(ctx context.Context, mainTab, tab string, data []byte) (*service.ImportResult, error) {
	if m.importFn == nil {
		panic("not implemented")
	}
	return m.importFn(ctx, mainTab, tab, data)
}

func TestHandler_ExportSheet(t *testing.T) {
	t.Parallel()

	h := &Handler{sheets: &mockSheetService{
		exportFn: func(_ context.Context, mainTab, tab string, w io.Writer) error {
			assert.Equal(t, "Companies", mainTab)
			assert.Equal(t, "Licences", tab)
			_, err := w.Write([]byte("Field,ACME\n"))
			return err
		},
	}}

	rec := doRequest(t, h, http.MethodGet, "/tabs/Companies/Licences/export", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Companies_Licences.csv")
	assert.Equal(t, "Field,ACME\n", rec.Body.String())
}

func TestHandler_ExportSheet_UnknownTab(t *testing.T) {
	t.Parallel()

	h := &Handler{sheets: &mockSheetService{
		exportFn: func(context.Context, string, string, io.Writer) error {
			return domain.ErrNotFound("no mappings for tab")
		},
	}}

	rec := doRequest(t, h, http.MethodGet, "/tabs/Companies/Nope/export", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandler_ImportSheet(t *testing.T) {
	t.Parallel()

	h := &Handler{sheets: &mockSheetService{
		importFn: func(_ context.Context, mainTab, tab string, data []byte) (*service.ImportResult, error) {
			assert.Equal(t, "Field,ACME\nLicence Number,TL-1\n", string(data))
			return &service.ImportResult{CompaniesUpdated: 1, CellsApplied: 1}, nil
		},
	}}

	body := strings.NewReader("Field,ACME\nLicence Number,TL-1\n")
	rec := doRequest(t, h, http.MethodPost, "/tabs/Companies/Licences/import", body)

	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[service.ImportResult](t, rec)
	assert.Equal(t, 1, got.CompaniesUpdated)
	assert.Equal(t, 1, got.CellsApplied)
}

func TestHandler_ImportSheet_BadSheet(t *testing.T) {
	t.Parallel()

	h := &Handler{sheets: &mockSheetService{
		importFn: func(context.Context, string, string, []byte) (*service.ImportResult, error) {
			return nil, domain.ErrValidation("empty csv: no header row")
		},
	}}

	rec := doRequest(t, h, http.MethodPost, "/tabs/Companies/Licences/import", strings.NewReader(""))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
