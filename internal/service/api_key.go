package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"licence-desk/internal/domain"
)

// APIKeyService provides API key management operations.
type APIKeyService struct {
	repo  domain.APIKeyRepository
	audit domain.AuditRepository
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(repo domain.APIKeyRepository, audit domain.AuditRepository) *APIKeyService {
	return &APIKeyService{repo: repo, audit: audit}
}

// Create generates a new API key. Returns the raw key, which is shown
// exactly once; only its SHA-256 hash is stored.
func (s *APIKeyService) Create(ctx context.Context, req domain.CreateAPIKeyRequest) (string, *domain.APIKey, error) {
	if err := req.Validate(); err != nil {
		return "", nil, err
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	rawKey := hex.EncodeToString(rawBytes)

	hash := sha256.Sum256([]byte(rawKey))
	key, err := s.repo.Create(ctx, &domain.APIKey{
		PrincipalName: req.PrincipalName,
		Name:          req.Name,
		KeyPrefix:     rawKey[:8],
		KeyHash:       hex.EncodeToString(hash[:]),
		ExpiresAt:     req.ExpiresAt,
	})
	logAction(ctx, s.audit, "CREATE_API_KEY", "api_key", req.Name, err)
	if err != nil {
		return "", nil, err
	}
	return rawKey, key, nil
}

// List returns API key metadata, never raw keys.
func (s *APIKeyService) List(ctx context.Context, page domain.PageRequest) ([]domain.APIKey, int64, error) {
	return s.repo.List(ctx, page)
}

// Delete revokes an API key.
func (s *APIKeyService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	logAction(ctx, s.audit, "DELETE_API_KEY", "api_key", id, err)
	return err
}
