package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValue_AlreadyDecoded(t *testing.T) {
	t.Parallel()

	in := map[string]any{"a": true}
	v, ok := DecodeValue(in)
	require.True(t, ok)
	assert.Equal(t, in, v)

	// Idempotence: decoding the decoded value changes nothing.
	again, ok := DecodeValue(v)
	require.True(t, ok)
	assert.Equal(t, v, again)
}

func TestDecodeValue_StorageShapes(t *testing.T) {
	t.Parallel()

	want := map[string]any{"Licences": true, "Contacts": false}

	tests := []struct {
		name string
		raw  string
	}{
		{"plain json", `{"Licences":true,"Contacts":false}`},
		{"escaped quotes", `{\"Licences\":true,\"Contacts\":false}`},
		{"double encoded", `"{\"Licences\":true,\"Contacts\":false}"`},
		{"double encoded escaped", `"{\\\"Licences\\\":true,\\\"Contacts\\\":false}"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v, ok := DecodeValue(tt.raw)
			require.True(t, ok, "raw: %s", tt.raw)
			assert.Equal(t, want, v)
		})
	}
}

func TestDecodeValue_Malformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "{not json", "]["} {
		_, ok := DecodeValue(raw)
		assert.False(t, ok, "raw: %q", raw)
	}
}

func TestDecodeBoolMap_Fallback(t *testing.T) {
	t.Parallel()

	m, ok := DecodeBoolMap("{broken")
	assert.False(t, ok)
	assert.Empty(t, m)

	m, ok = DecodeBoolMap(`{"A":true,"B":false,"C":"yes"}`)
	require.True(t, ok)
	assert.True(t, m["A"])
	assert.False(t, m["B"])
	assert.False(t, m["C"]) // non-bool values are off
}

func TestDecodeStringListMap_BareString(t *testing.T) {
	t.Parallel()

	m, ok := DecodeStringListMap(`{"Licences":"General","Contacts":["Primary","Billing"]}`)
	require.True(t, ok)
	assert.Equal(t, []string{"General"}, m["Licences"])
	assert.Equal(t, []string{"Primary", "Billing"}, m["Contacts"])
}

func TestDecodeOrderedMap_PreservesKeyOrder(t *testing.T) {
	t.Parallel()

	om, ok := DecodeOrderedMap(`{"z.col":"Z","a.col":"A","m.col":"M"}`)
	require.True(t, ok)
	assert.Equal(t, []string{"z.col", "a.col", "m.col"}, om.Keys())

	v, found := om.Get("a.col")
	require.True(t, found)
	assert.Equal(t, "A", v)
}

func TestDecodeOrderedMap_DoubleEncoded(t *testing.T) {
	t.Parallel()

	om, ok := DecodeOrderedMap(`"{\"b\":1,\"a\":2}"`)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a"}, om.Keys())

	v, _ := om.Get("b")
	assert.Equal(t, float64(1), v)
}

func TestDecodeIntMap(t *testing.T) {
	t.Parallel()

	m, ok := DecodeIntMap(`{"t.a":2,"t.b":0,"t.c":-1}`)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"t.a": 2, "t.b": 0, "t.c": -1}, m)
}
