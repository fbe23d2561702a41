package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"licence-desk/internal/domain"
)

// Client calls the remote document-extraction service: given a signed
// file URL and the target field schema, it returns a best-effort value
// map keyed by field name.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an extraction client. A nil httpClient gets a
// 60-second-timeout default.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

type extractRequest struct {
	FileURL string                  `json:"file_url"`
	Fields  []domain.ExtractedField `json:"fields"`
}

// Extract posts the document URL and field schema and returns the
// normalized, flattened value map ready for storage.
func (c *Client) Extract(ctx context.Context, fileURL string, fields []domain.ExtractedField) (map[string]any, error) {
	body, err := json.Marshal(extractRequest{FileURL: fileURL, Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	return Flatten(Normalize(raw, fields)), nil
}

// Normalize repairs the known quirks of extraction responses before
// flattening. Array-typed fields sometimes come back as JSON-encoded
// strings; those are decoded defensively, falling back to a
// single-element array around the raw string.
func Normalize(values map[string]any, fields []domain.ExtractedField) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}

	for i := range fields {
		f := &fields[i]
		v, ok := out[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case domain.FieldArray:
			out[f.Name] = normalizeArray(v, f.Fields)
		case domain.FieldObject:
			if obj, isObj := v.(map[string]any); isObj {
				out[f.Name] = Normalize(obj, f.Fields)
			}
		}
	}
	return out
}

func normalizeArray(v any, sub []domain.ExtractedField) []any {
	switch t := v.(type) {
	case []any:
		return normalizeElements(t, sub)
	case string:
		var decoded []any
		if err := json.Unmarshal([]byte(t), &decoded); err == nil {
			return normalizeElements(decoded, sub)
		}
		// Some responses wrap a single object in a string without array
		// brackets.
		var obj map[string]any
		if err := json.Unmarshal([]byte(t), &obj); err == nil {
			return []any{Normalize(obj, sub)}
		}
		return []any{t}
	case nil:
		return nil
	default:
		return []any{v}
	}
}

func normalizeElements(elems []any, sub []domain.ExtractedField) []any {
	for i, elem := range elems {
		if obj, ok := elem.(map[string]any); ok {
			elems[i] = Normalize(obj, sub)
		}
	}
	return elems
}
