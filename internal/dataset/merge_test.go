package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/domain"
)

func int64p(v int64) *int64 { return &v }

func testCompanies() []domain.Company {
	return []domain.Company{
		{ID: 1, Name: "ACME Trading", Fields: map[string]any{"licence_no": "L-100"}},
		{ID: 2, Name: "Globex", Fields: map[string]any{}},
		{ID: 3, Name: "Initech", Fields: map[string]any{}},
	}
}

func testTableData() map[string][]domain.TableRecord {
	return map[string][]domain.TableRecord{
		"contacts": {
			{ID: 10, TableName: "contacts", CompanyName: "acme trading", Fields: map[string]any{"name": "Amira"}},
			{ID: 11, TableName: "contacts", CompanyName: "ACME TRADING", Fields: map[string]any{"name": "Bilal"}},
			{ID: 12, TableName: "contacts", CompanyID: int64p(2), CompanyName: "", Fields: map[string]any{"name": "Carla"}},
		},
		"trade_licences": {
			{ID: 20, TableName: "trade_licences", CompanyName: "ACME Trading", Fields: map[string]any{"number": "TL-1"}},
		},
	}
}

func TestMerge_OuterJoinCompleteness(t *testing.T) {
	t.Parallel()

	companies := testCompanies()
	merged := Merge(companies, testTableData(), []string{"contacts", "trade_licences"})
	require.Len(t, merged, len(companies))

	// Initech has no related records at all but still gets a row.
	initech := merged[2]
	assert.Equal(t, "Initech", initech.Company.Name)
	require.Len(t, initech.Rows, 1)
	assert.True(t, initech.Rows[0].IsFirstRow)
	assert.Empty(t, initech.Rows[0].Data)
}

func TestMerge_RowSpanInvariant(t *testing.T) {
	t.Parallel()

	merged := Merge(testCompanies(), testTableData(), []string{"contacts", "trade_licences"})
	for _, m := range merged {
		assert.Equal(t, m.RowSpan, len(m.Rows))

		var additional int
		for _, r := range m.Rows {
			if r.IsAdditionalRow {
				additional++
			}
		}
		assert.Equal(t, m.RowSpan-1, additional)
	}
}

func TestMerge_FirstRowCarriesDataBags(t *testing.T) {
	t.Parallel()

	merged := Merge(testCompanies(), testTableData(), []string{"contacts", "trade_licences"})
	acme := merged[0]

	require.Len(t, acme.Rows, 2) // first row + one extra contact
	first := acme.Rows[0]
	assert.True(t, first.IsFirstRow)
	assert.Equal(t, "Amira", first.Data["contacts"]["name"])
	assert.Equal(t, "TL-1", first.Data["trade_licences"]["number"])

	extra := acme.Rows[1]
	assert.True(t, extra.IsAdditionalRow)
	assert.Equal(t, "contacts", extra.SourceTable)
	assert.Equal(t, "Bilal", extra.Record["name"])
}

func TestMerge_CaseInsensitiveNameAndIDMatch(t *testing.T) {
	t.Parallel()

	merged := Merge(testCompanies(), testTableData(), []string{"contacts"})

	// Globex's contact carries no name, only a foreign id.
	globex := merged[1]
	require.Len(t, globex.Rows, 1)
	assert.Equal(t, "Carla", globex.Rows[0].Data["contacts"]["name"])
}

func TestMerge_Deterministic(t *testing.T) {
	t.Parallel()

	a := Merge(testCompanies(), testTableData(), []string{"contacts", "trade_licences"})
	b := Merge(testCompanies(), testTableData(), []string{"contacts", "trade_licences"})
	assert.Equal(t, a, b)
}

func TestMerge_CompanyTableNeverSelfJoins(t *testing.T) {
	t.Parallel()

	data := testTableData()
	// A misconfigured mapping row can list the company table itself.
	data["company"] = []domain.TableRecord{
		{ID: 30, TableName: "company", CompanyName: "ACME Trading", Fields: map[string]any{"name": "ACME Trading"}},
		{ID: 31, TableName: "company", CompanyName: "ACME Trading", Fields: map[string]any{"name": "ACME dup"}},
	}

	merged := Merge(testCompanies(), data, []string{"company", "contacts"})
	acme := merged[0]

	_, selfJoined := acme.Rows[0].Data["company"]
	assert.False(t, selfJoined)
	for _, r := range acme.Rows {
		assert.NotEqual(t, "company", r.SourceTable)
	}
}

func TestMerge_IrrelevantTablesIgnored(t *testing.T) {
	t.Parallel()

	merged := Merge(testCompanies(), testTableData(), []string{"trade_licences"})
	acme := merged[0]
	require.Len(t, acme.Rows, 1)
	_, hasContacts := acme.Rows[0].Data["contacts"]
	assert.False(t, hasContacts)
}
