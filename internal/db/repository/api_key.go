package repository

import (
	"context"
	"database/sql"

	"licence-desk/internal/domain"
)

var _ domain.APIKeyRepository = (*APIKeyRepo)(nil)

// APIKeyRepo stores API key hashes in SQLite. Raw keys never touch the
// database.
type APIKeyRepo struct {
	db *sql.DB
}

// NewAPIKeyRepo creates a new APIKeyRepo.
func NewAPIKeyRepo(db *sql.DB) *APIKeyRepo {
	return &APIKeyRepo{db: db}
}

// Create inserts a new API key record.
func (r *APIKeyRepo) Create(ctx context.Context, key *domain.APIKey) (*domain.APIKey, error) {
	if key == nil {
		return nil, domain.ErrValidation("api key is required")
	}
	if key.ID == "" {
		key.ID = domain.NewID()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, principal_name, name, key_prefix, key_hash, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, key.ID, key.PrincipalName, key.Name, key.KeyPrefix, key.KeyHash, nullableTime(key.ExpiresAt))
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.getOne(ctx, `WHERE id = ?`, key.ID)
}

// GetByHash returns the key record matching a SHA-256 hash.
func (r *APIKeyRepo) GetByHash(ctx context.Context, hash string) (*domain.APIKey, error) {
	return r.getOne(ctx, `WHERE key_hash = ?`, hash)
}

// LookupPrincipalByAPIKeyHash returns the principal name for a key hash.
// Expired keys are rejected.
func (r *APIKeyRepo) LookupPrincipalByAPIKeyHash(ctx context.Context, hash string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `
		SELECT principal_name FROM api_keys
		WHERE key_hash = ?
		  AND (expires_at IS NULL OR expires_at > CURRENT_TIMESTAMP)
	`, hash).Scan(&name)
	if err != nil {
		return "", mapDBError(err)
	}
	return name, nil
}

// List returns API keys ordered by creation time with the total count.
func (r *APIKeyRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.APIKey, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_keys`).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, principal_name, name, key_prefix, key_hash, expires_at, created_at
		FROM api_keys
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, 0, err
		}
		keys = append(keys, *k)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return keys, total, nil
}

// Delete removes an API key.
func (r *APIKeyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound("api key %s not found", id)
	}
	return nil
}

func (r *APIKeyRepo) getOne(ctx context.Context, where string, args ...any) (*domain.APIKey, error) {
	return scanAPIKey(r.db.QueryRowContext(ctx, `
		SELECT id, principal_name, name, key_prefix, key_hash, expires_at, created_at
		FROM api_keys `+where, args...))
}

func scanAPIKey(row rowScanner) (*domain.APIKey, error) {
	var k domain.APIKey
	var expires sql.NullTime
	if err := row.Scan(&k.ID, &k.PrincipalName, &k.Name, &k.KeyPrefix, &k.KeyHash, &expires, &k.CreatedAt); err != nil {
		return nil, mapDBError(err)
	}
	k.ExpiresAt = timePtr(expires)
	return &k, nil
}
