package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/db"
	"licence-desk/internal/domain"
)

func TestDocumentTypeRepo_CRUDLifecycle(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewDocumentTypeRepo(writeDB)

	created, err := repo.Create(context.Background(), domain.CreateDocumentTypeRequest{
		Name:     "Trade Licence",
		Category: "Licences",
		Validity: domain.ValidityRenewal,
		Fields: []domain.ExtractedField{
			{ID: "f1", Name: "licence number", Type: domain.FieldText},
			{ID: "f2", Name: "directors", Type: domain.FieldArray, Fields: []domain.ExtractedField{
				{ID: "f3", Name: "name", Type: domain.FieldText},
			}},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Fields, 2)
	assert.Equal(t, domain.FieldArray, created.Fields[1].Type)
	require.Len(t, created.Fields[1].Fields, 1, "nested schema survives the round trip")

	byName, err := repo.GetByName(context.Background(), "Trade Licence")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	oneOff := domain.ValidityOneOff
	updated, err := repo.Update(context.Background(), created.ID, domain.UpdateDocumentTypeRequest{
		Validity: &oneOff,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ValidityOneOff, updated.Validity)
	assert.Len(t, updated.Fields, 2, "nil fields leave the schema untouched")

	err = repo.Delete(context.Background(), created.ID)
	require.NoError(t, err)
}

func TestDocumentTypeRepo_RejectsAmbiguousFieldNames(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewDocumentTypeRepo(writeDB)

	_, err := repo.Create(context.Background(), domain.CreateDocumentTypeRequest{
		Name:     "Odd Schema",
		Validity: domain.ValidityOneOff,
		Fields: []domain.ExtractedField{
			{ID: "f1", Name: "phase_2", Type: domain.FieldText},
		},
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}
