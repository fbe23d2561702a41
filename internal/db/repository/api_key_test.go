package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/db"
	"licence-desk/internal/domain"
)

func TestAPIKeyRepo_LookupByHash(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPIKeyRepo(writeDB)

	created, err := repo.Create(context.Background(), &domain.APIKey{
		PrincipalName: "alice",
		Name:          "ci",
		KeyPrefix:     "ld_12345",
		KeyHash:       "hash-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	principal, err := repo.LookupPrincipalByAPIKeyHash(context.Background(), "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", principal)

	_, err = repo.LookupPrincipalByAPIKeyHash(context.Background(), "wrong")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)

	err = repo.Delete(context.Background(), created.ID)
	require.NoError(t, err)
}

func TestAPIKeyRepo_ExpiredKeyRejected(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAPIKeyRepo(writeDB)

	past := time.Now().Add(-time.Hour)
	_, err := repo.Create(context.Background(), &domain.APIKey{
		PrincipalName: "bob",
		Name:          "stale",
		KeyPrefix:     "ld_99999",
		KeyHash:       "hash-2",
		ExpiresAt:     &past,
	})
	require.NoError(t, err)

	_, err = repo.LookupPrincipalByAPIKeyHash(context.Background(), "hash-2")
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
