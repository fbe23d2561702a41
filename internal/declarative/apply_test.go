package declarative

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/db"
	"licence-desk/internal/db/repository"
	"licence-desk/internal/domain"
)

func newApplier(t *testing.T) (*Applier, *repository.MappingRepo, *repository.DocumentTypeRepo) {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	mappings := repository.NewMappingRepo(writeDB)
	docTypes := repository.NewDocumentTypeRepo(writeDB)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewApplier(mappings, docTypes, logger), mappings, docTypes
}

func loadTestState(t *testing.T) *DesiredState {
	t.Helper()
	dir := writeConfig(t, map[string]string{
		"mappings.yaml":       mappingYAML,
		"document-types.yaml": docTypeYAML,
	})
	state, err := LoadDirectory(dir)
	require.NoError(t, err)
	return state
}

func TestApplier_CreatesThenConverges(t *testing.T) {
	t.Parallel()

	applier, mappings, docTypes := newApplier(t)
	state := loadTestState(t)
	ctx := context.Background()

	plan, err := applier.Apply(ctx, state)
	require.NoError(t, err)
	creates, updates := plan.Summary()
	assert.Equal(t, 2, creates)
	assert.Equal(t, 0, updates)

	rows, err := mappings.ListByTab(ctx, "Companies", "Licences")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	dt, err := docTypes.GetByName(ctx, "Trade Licence")
	require.NoError(t, err)
	assert.Equal(t, "Licences", dt.Category)
	require.Len(t, dt.Fields, 2)

	// Second apply is a no-op.
	plan, err = applier.Apply(ctx, state)
	require.NoError(t, err)
	assert.False(t, plan.HasChanges())
}

func TestApplier_DetectsDrift(t *testing.T) {
	t.Parallel()

	applier, mappings, docTypes := newApplier(t)
	state := loadTestState(t)
	ctx := context.Background()

	_, err := applier.Apply(ctx, state)
	require.NoError(t, err)

	// Drift both resources behind the applier's back.
	rows, err := mappings.ListByTab(ctx, "Companies", "Licences")
	require.NoError(t, err)
	_, err = mappings.Update(ctx, rows[0].ID, domain.UpdateMappingRequest{
		ColumnMappings: domain.ColumnMappings{{Key: "trade_licence.number", Label: "Renamed"}},
	})
	require.NoError(t, err)

	dt, err := docTypes.GetByName(ctx, "Trade Licence")
	require.NoError(t, err)
	category := "Other"
	_, err = docTypes.Update(ctx, dt.ID, domain.UpdateDocumentTypeRequest{Category: &category})
	require.NoError(t, err)

	plan, err := applier.Plan(ctx, state)
	require.NoError(t, err)
	require.Len(t, plan.Actions, 2)
	for _, action := range plan.Actions {
		assert.Equal(t, OpUpdate, action.Operation)
		assert.NotEmpty(t, action.Changes)
	}

	// Apply converges back to the desired state.
	_, err = applier.Apply(ctx, state)
	require.NoError(t, err)
	plan, err = applier.Plan(ctx, state)
	require.NoError(t, err)
	assert.False(t, plan.HasChanges())
}

func TestApplier_PlanDoesNotWrite(t *testing.T) {
	t.Parallel()

	applier, mappings, _ := newApplier(t)
	state := loadTestState(t)
	ctx := context.Background()

	plan, err := applier.Plan(ctx, state)
	require.NoError(t, err)
	assert.True(t, plan.HasChanges())

	rows, err := mappings.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
