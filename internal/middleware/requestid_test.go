package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRequestID serves one request through the middleware and returns
// the ID the inner handler saw plus the recorded response.
func runRequestID(t *testing.T, headerID string) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/companies", nil)
	if headerID != "" {
		req.Header.Set("X-Request-ID", headerID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	t.Parallel()

	seen, rec := runRequestID(t, "")
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestID_ReusesWellFormedHeader(t *testing.T) {
	t.Parallel()

	seen, rec := runRequestID(t, "gw-7f3a_001")
	assert.Equal(t, "gw-7f3a_001", seen)
	assert.Equal(t, "gw-7f3a_001", rec.Header().Get("X-Request-ID"))
}

func TestRequestID_ReplacesUnsafeHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headerID string
		keep     bool
	}{
		{name: "alphanumeric with separators", headerID: "abc-123_DEF", keep: true},
		{name: "newline injection", headerID: "fake\nlevel=ERROR forged"},
		{name: "carriage return injection", headerID: "fake\rforged"},
		{name: "spaces", headerID: "id with spaces"},
		{name: "markup", headerID: "id<script>alert(1)</script>"},
		{name: "over max length", headerID: strings.Repeat("a", maxRequestIDLen+1)},
		{name: "at max length", headerID: strings.Repeat("a", maxRequestIDLen), keep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seen, _ := runRequestID(t, tt.headerID)
			require.NotEmpty(t, seen)
			if tt.keep {
				assert.Equal(t, tt.headerID, seen)
			} else {
				assert.NotEqual(t, tt.headerID, seen)
			}
		})
	}
}

func TestRequestIDFromContext_EmptyWithoutMiddleware(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, RequestIDFromContext(req.Context()))
}
