package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args against a stub server.
func runCommand(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--host", srv.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestCompaniesList_Table(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/companies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"ACME FZE","fields":{"company.emirate":"Dubai"},"updated_at":"2026-03-02T09:00:00Z"}]}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCommand(t, srv, "companies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ACME FZE")
	assert.Contains(t, out, "2026-03-02")
	assert.NotContains(t, out, "Next page")
}

func TestCompaniesList_JSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[],"next_page_token":""}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCommand(t, srv, "companies", "list", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"data"`)
}

func TestCompliance_Table(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/companies/4/compliance", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"document_type_id":2,"name":"Trade Licence","category":"Licences","status":"Expiring Soon","expiry_date":"2026-09-20T00:00:00Z","days_left":21}]}`))
	}))
	t.Cleanup(srv.Close)

	out, err := runCommand(t, srv, "compliance", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Trade Licence")
	assert.Contains(t, out, "Expiring Soon")
	assert.Contains(t, out, "2026-09-20")
}

func TestCompliance_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":404,"message":"company 99 not found"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := runCommand(t, srv, "compliance", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company 99 not found")
}

func TestRoot_RejectsBadOutputFormat(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	t.Cleanup(srv.Close)

	_, err := runCommand(t, srv, "companies", "list", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
