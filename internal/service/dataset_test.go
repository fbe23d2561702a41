package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
)

func seedLicenceTab(t *testing.T, r *repos) {
	t.Helper()
	_, err := r.mappings.Create(context.Background(), domain.CreateMappingRequest{
		MainTab:             "Companies",
		Tab:                 "Licences",
		SectionsSections:    map[string]bool{"Trade Licence": true},
		SectionsSubsections: map[string]any{"Trade Licence": []string{"Details"}},
		TableNames:          map[string][]string{"Trade Licence": {"trade_licence"}},
		ColumnMappings: domain.ColumnMappings{
			{Key: "trade_licence.number", Label: "Licence Number"},
			{Key: "trade_licence.status", Label: "Status"},
		},
		ColumnOrder: map[string]int{
			"trade_licence.number": 1,
			"trade_licence.status": 2,
		},
	})
	require.NoError(t, err)
}

func TestDatasetService_ResolveJoinsCompanies(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	seedLicenceTab(t, r)

	acme := seedCompany(t, r, "ACME")
	seedCompany(t, r, "Globex") // no records

	_, err := r.records.Create(context.Background(), domain.CreateRecordRequest{
		TableName:   "trade_licence",
		CompanyName: "acme", // joins by normalized name
		Fields:      map[string]any{"number": "TL-1001", "status": "active"},
	})
	require.NoError(t, err)

	svc := NewDatasetService(r.mappings, r.companies, r.records, testLogger())
	ds, err := svc.Resolve(context.Background(), "Companies", "Licences")
	require.NoError(t, err)

	require.Len(t, ds.Rows, 2, "every company appears even without records")
	require.NotEmpty(t, ds.Structure)

	byName := map[string]int{}
	for i, row := range ds.Rows {
		byName[row.Company.Name] = i
	}
	acmeRows := ds.Rows[byName["ACME"]]
	require.Len(t, acmeRows.Rows, 1)
	assert.Equal(t, "TL-1001", acmeRows.Rows[0].Data["trade_licence"]["number"])
	assert.Equal(t, acme.ID, acmeRows.Company.ID)

	globexRows := ds.Rows[byName["Globex"]]
	require.Len(t, globexRows.Rows, 1)
	assert.Empty(t, globexRows.Rows[0].Data["trade_licence"])
}

func TestDatasetService_StructureHonorsDisplaySettings(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	seedLicenceTab(t, r)

	settings := domain.EmptyDisplaySettings("Companies", "Licences")
	settings.FieldVisibility["trade_licence.status"] = false
	_, err := r.mappings.SaveDisplaySettings(context.Background(), settings)
	require.NoError(t, err)

	svc := NewDatasetService(r.mappings, r.companies, r.records, testLogger())
	structure, err := svc.Structure(context.Background(), "Companies", "Licences")
	require.NoError(t, err)

	for _, node := range structure {
		for _, group := range node.CategorizedFields {
			for _, field := range group.Fields {
				assert.NotEqual(t, "trade_licence.status", field.Name, "hidden fields stay out of the structure")
			}
		}
	}
}

func TestDatasetService_RequiresTabPair(t *testing.T) {
	t.Parallel()

	r, _ := newRepos(t)
	svc := NewDatasetService(r.mappings, r.companies, r.records, testLogger())

	_, err := svc.Resolve(context.Background(), "", "Licences")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}
