package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"licence-desk/internal/domain"
)

// apiError is the JSON body of every error response.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// listPage is the envelope for paginated list responses.
type listPage[T any] struct {
	Data          []T    `json:"data"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := httpStatusFromDomainError(err)
	writeJSON(w, code, apiError{Code: code, Message: err.Error()})
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrValidation("invalid request body: %v", err)
	}
	return nil
}

// pageFromQuery extracts a PageRequest from max_results/page_token query
// params.
func pageFromQuery(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

// idParam parses a chi URL param as an int64 id.
func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("invalid %s %q", name, raw)
	}
	return id, nil
}

// nextPageToken builds the next page token for a list response, or ""
// when the listing is exhausted.
func nextPageToken(page domain.PageRequest, total int64) string {
	return domain.NextPageToken(page.Offset(), page.Limit(), total)
}

// formInt64 parses a required positive integer form field.
func formInt64(r *http.Request, name string) (int64, error) {
	raw := r.FormValue(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, domain.ErrValidation("invalid %s %q", name, raw)
	}
	return v, nil
}

// formDate parses an optional form field as a date-only or RFC 3339
// timestamp.
func formDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, domain.ErrValidation("invalid %s %q: want YYYY-MM-DD or RFC 3339", name, raw)
}

// optStr returns a pointer to the string if non-empty, otherwise nil.
func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
