package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"licence-desk/internal/domain"
	"licence-desk/internal/middleware"
)

// apiKeyService defines the API key management operations used by the
// API handler.
type apiKeyService interface {
	Create(ctx context.Context, req domain.CreateAPIKeyRequest) (string, *domain.APIKey, error)
	List(ctx context.Context, page domain.PageRequest) ([]domain.APIKey, int64, error)
	Delete(ctx context.Context, id string) error
}

type apiKeyResponse struct {
	ID            string     `json:"id"`
	PrincipalName string     `json:"principal_name"`
	Name          string     `json:"name"`
	KeyPrefix     string     `json:"key_prefix"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func apiKeyToAPI(k domain.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:            k.ID,
		PrincipalName: k.PrincipalName,
		Name:          k.Name,
		KeyPrefix:     k.KeyPrefix,
		ExpiresAt:     k.ExpiresAt,
		CreatedAt:     k.CreatedAt,
	}
}

type createAPIKeyBody struct {
	PrincipalName string     `json:"principal_name"`
	Name          string     `json:"name"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

type createAPIKeyResponse struct {
	apiKeyResponse
	Key string `json:"key"` // raw key, shown once
}

func (h *Handler) createAPIKey(w http.ResponseWriter, r *http.Request) {
	var body createAPIKeyBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.PrincipalName == "" {
		if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
			body.PrincipalName = principal
		}
	}
	rawKey, key, err := h.apiKeys.Create(r.Context(), domain.CreateAPIKeyRequest{
		PrincipalName: body.PrincipalName,
		Name:          body.Name,
		ExpiresAt:     body.ExpiresAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createAPIKeyResponse{apiKeyResponse: apiKeyToAPI(*key), Key: rawKey})
}

func (h *Handler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	keys, total, err := h.apiKeys.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	data := make([]apiKeyResponse, len(keys))
	for i, k := range keys {
		data[i] = apiKeyToAPI(k)
	}
	writeJSON(w, http.StatusOK, listPage[apiKeyResponse]{Data: data, NextPageToken: nextPageToken(page, total)})
}

func (h *Handler) deleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "apiKeyID")
	if id == "" {
		writeError(w, domain.ErrValidation("api key id is required"))
		return
	}
	if err := h.apiKeys.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
