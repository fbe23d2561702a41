package dataset

import (
	"licence-desk/internal/schema"
)

// ResolveValue locates the value for a structured field descriptor in a
// merged row. Precedence, which must not be reordered:
//
//  1. an additional row of the field's own table answers from its record;
//  2. the first row's joined data bag for the field's table;
//  3. the row's direct columns (covers the primary company table).
//
// Reversing 2 and 3 silently returns wrong values whenever a company
// column name collides with a joined table's column name.
func ResolveValue(field schema.Field, row Row) (any, bool) {
	if row.IsAdditionalRow && row.SourceTable == field.Table {
		v, ok := row.Record[field.Column]
		return v, ok
	}
	if bag, ok := row.Data[field.Table]; ok {
		if v, found := bag[field.Column]; found {
			return v, true
		}
	}
	v, ok := row.Values[field.Column]
	return v, ok
}

// DisplayValue resolves a field to a string, substituting the placeholder
// for missing values.
func DisplayValue(field schema.Field, row Row) string {
	v, ok := ResolveValue(field, row)
	if !ok || v == nil {
		return "-"
	}
	s, isString := v.(string)
	if isString {
		if s == "" {
			return "-"
		}
		return s
	}
	return stringify(v)
}
