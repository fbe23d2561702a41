package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/db"
	"licence-desk/internal/domain"
)

func newMappingRequest() domain.CreateMappingRequest {
	return domain.CreateMappingRequest{
		MainTab:             "Companies",
		Tab:                 "Licences",
		SectionsSections:    map[string]bool{"Trade Licence": true},
		SectionsSubsections: map[string]any{"Trade Licence": []string{"Details"}},
		TableNames:          map[string][]string{"Trade Licence": {"trade_licence"}},
		ColumnMappings:      domain.ColumnMappings{{Key: "trade_licence.number", Label: "Licence Number"}},
		ColumnOrder:         map[string]int{"trade_licence.number": 1},
	}
}

func TestMappingRepo_CRUDLifecycle(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewMappingRepo(writeDB)

	created, err := repo.Create(context.Background(), newMappingRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Trade Licence": true}`, created.SectionsSections)
	assert.JSONEq(t, `{"trade_licence.number": "Licence Number"}`, created.ColumnMappings)

	updated, err := repo.Update(context.Background(), created.ID, domain.UpdateMappingRequest{
		ColumnOrder: map[string]int{"trade_licence.number": 5},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"trade_licence.number": 5}`, updated.ColumnOrder)
	assert.Equal(t, created.ColumnMappings, updated.ColumnMappings, "untouched columns survive partial update")

	rows, err := repo.ListByTab(context.Background(), "Companies", "Licences")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	err = repo.Delete(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(context.Background(), created.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestMappingRepo_CreatePreservesColumnOrder(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewMappingRepo(writeDB)

	req := newMappingRequest()
	// Deliberately not in alphabetical order; stored key order must
	// match declaration order, not a map's marshalling order.
	req.ColumnMappings = domain.ColumnMappings{
		{Key: "trade_licence.status", Label: "Status"},
		{Key: "trade_licence.number", Label: "Licence Number"},
		{Key: "trade_licence.authority", Label: "Authority"},
	}

	created, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t,
		`{"trade_licence.status":"Status","trade_licence.number":"Licence Number","trade_licence.authority":"Authority"}`,
		created.ColumnMappings)
}

func TestMappingRepo_DisplaySettingsRoundTrip(t *testing.T) {
	t.Parallel()

	writeDB, _ := db.OpenTestSQLite(t)
	repo := NewMappingRepo(writeDB)

	// No stored row yet: everything visible.
	empty, err := repo.GetDisplaySettings(context.Background(), "Companies", "Licences")
	require.NoError(t, err)
	assert.Empty(t, empty.SectionVisibility)

	settings := domain.EmptyDisplaySettings("Companies", "Licences")
	settings.SectionVisibility["Trade Licence"] = false
	settings.FieldOrder["trade_licence.number"] = 3

	saved, err := repo.SaveDisplaySettings(context.Background(), settings)
	require.NoError(t, err)
	assert.False(t, saved.SectionVisibility["Trade Licence"])
	assert.Equal(t, 3, saved.FieldOrder["trade_licence.number"])

	// Second save replaces, not accumulates.
	settings.SectionVisibility["Trade Licence"] = true
	again, err := repo.SaveDisplaySettings(context.Background(), settings)
	require.NoError(t, err)
	assert.True(t, again.SectionVisibility["Trade Licence"])
	assert.Equal(t, saved.ID, again.ID)
}
