package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licence-desk/internal/schema"
)

func TestResolveValue_Precedence(t *testing.T) {
	t.Parallel()

	// An additional row for table A whose B_data bag holds the same
	// column name: the row's own column must win.
	row := Row{
		IsAdditionalRow: true,
		SourceTable:     "licences_a",
		Record:          map[string]any{"number": "from-own-record"},
		Data: map[string]map[string]any{
			"licences_b": {"number": "from-b-bag"},
		},
		Values: map[string]any{"number": "from-company"},
	}

	v, ok := ResolveValue(schema.Field{Table: "licences_a", Column: "number"}, row)
	require.True(t, ok)
	assert.Equal(t, "from-own-record", v)
}

func TestResolveValue_DataBagBeforeDirectColumn(t *testing.T) {
	t.Parallel()

	// Company column name collides with a joined table's column: the
	// joined bag wins for that table's fields.
	row := Row{
		IsFirstRow: true,
		Data: map[string]map[string]any{
			"contacts": {"email": "contact@acme.example"},
		},
		Values: map[string]any{"email": "company@acme.example"},
	}

	v, ok := ResolveValue(schema.Field{Table: "contacts", Column: "email"}, row)
	require.True(t, ok)
	assert.Equal(t, "contact@acme.example", v)

	v, ok = ResolveValue(schema.Field{Table: "company", Column: "email"}, row)
	require.True(t, ok)
	assert.Equal(t, "company@acme.example", v)
}

func TestResolveValue_Missing(t *testing.T) {
	t.Parallel()

	row := Row{IsFirstRow: true, Values: map[string]any{}}
	_, ok := ResolveValue(schema.Field{Table: "contacts", Column: "email"}, row)
	assert.False(t, ok)

	assert.Equal(t, "-", DisplayValue(schema.Field{Table: "contacts", Column: "email"}, row))
}

func TestDisplayValue(t *testing.T) {
	t.Parallel()

	row := Row{
		IsFirstRow: true,
		Values:     map[string]any{"count": float64(3), "blank": "", "name": "ACME"},
	}
	assert.Equal(t, "ACME", DisplayValue(schema.Field{Table: "company", Column: "name"}, row))
	assert.Equal(t, "3", DisplayValue(schema.Field{Table: "company", Column: "count"}, row))
	assert.Equal(t, "-", DisplayValue(schema.Field{Table: "company", Column: "blank"}, row))
}
