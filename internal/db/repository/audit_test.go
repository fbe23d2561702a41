package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/db"
	"licence-desk/internal/domain"
)

func TestAuditRepo_AppendAndList(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewAuditRepo(writeDB)

	entityType := "company"
	entityID := "1"
	err := repo.Append(context.Background(), &domain.AuditEntry{
		PrincipalName: "alice",
		Action:        "CREATE_COMPANY",
		EntityType:    &entityType,
		EntityID:      &entityID,
	})
	require.NoError(t, err)

	errMsg := "company name is required"
	err = repo.Append(context.Background(), &domain.AuditEntry{
		PrincipalName: "bob",
		Action:        "CREATE_COMPANY",
		Status:        "ERROR",
		ErrorMessage:  &errMsg,
	})
	require.NoError(t, err)

	entries, total, err := repo.List(context.Background(), domain.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)

	// Default status is OK.
	for _, e := range entries {
		if e.PrincipalName == "alice" {
			assert.Equal(t, "OK", e.Status)
		}
	}
}
