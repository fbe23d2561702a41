// Package schema turns persisted mapping configuration into the ordered,
// filtered structure tree that drives every table and form in the UI.
package schema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// maxDecodePasses bounds the repeated-decode loop for historically
// double-encoded configuration strings.
const maxDecodePasses = 5

// DecodeValue decodes a stored configuration value that may be an
// already-decoded value, a plain JSON string, a JSON string with escaped
// quotes, or a double-encoded JSON string. It reports false when no pass
// produced a usable value. Decoding an already-decoded value is a no-op,
// so DecodeValue is idempotent.
func DecodeValue(raw any) (any, bool) {
	s, isString := raw.(string)
	if !isString {
		return raw, raw != nil
	}

	for pass := 0; pass < maxDecodePasses; pass++ {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			unescaped := unescape(s)
			if unescaped == s {
				return nil, false
			}
			s = unescaped
			continue
		}
		if inner, ok := v.(string); ok {
			// Double-encoded: the payload itself is a JSON string.
			s = inner
			continue
		}
		return v, true
	}
	return nil, false
}

// unescape removes one level of backslash escaping.
func unescape(s string) string {
	s = strings.ReplaceAll(s, `\\`, `\`)
	return strings.ReplaceAll(s, `\"`, `"`)
}

// DecodeBoolMap decodes a section→enabled style map. Falls back to an
// empty map, reporting whether decoding succeeded.
func DecodeBoolMap(raw any) (map[string]bool, bool) {
	v, ok := DecodeValue(raw)
	if !ok {
		return map[string]bool{}, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]bool{}, false
	}
	out := make(map[string]bool, len(m))
	for k, val := range m {
		b, isBool := val.(bool)
		out[k] = isBool && b
	}
	return out, true
}

// DecodeIntMap decodes a key→rank map. JSON numbers arrive as float64.
func DecodeIntMap(raw any) (map[string]int, bool) {
	v, ok := DecodeValue(raw)
	if !ok {
		return map[string]int{}, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]int{}, false
	}
	out := make(map[string]int, len(m))
	for k, val := range m {
		if f, isNum := val.(float64); isNum {
			out[k] = int(f)
		}
	}
	return out, true
}

// DecodeStringListMap decodes a key→[]string map, tolerating bare string
// values as single-element lists.
func DecodeStringListMap(raw any) (map[string][]string, bool) {
	v, ok := DecodeValue(raw)
	if !ok {
		return map[string][]string{}, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return map[string][]string{}, false
	}
	out := make(map[string][]string, len(m))
	for k, val := range m {
		out[k] = toStringList(val)
	}
	return out, true
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		list := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return nil
	}
}

// OrderedMap is a string-keyed map that preserves JSON key order. The
// resolver iterates sections and column mappings in their configured
// order, which plain Go maps would scramble.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// Keys returns the keys in insertion order.
func (m *OrderedMap) Keys() []string { return m.keys }

// Get returns the value for a key.
func (m *OrderedMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.keys) }

// Set appends or replaces a key. Used by tests and the settings service.
func (m *OrderedMap) Set(key string, value any) {
	if m.values == nil {
		m.values = map[string]any{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// DecodeOrderedMap decodes a stored JSON object preserving key order,
// applying the same tolerant multi-pass decoding as DecodeValue.
func DecodeOrderedMap(raw any) (*OrderedMap, bool) {
	s, isString := raw.(string)
	if !isString {
		// Already-decoded maps have lost their order; fall back to an
		// unordered copy with sorted-at-call-site determinism handled by
		// the caller encoding to JSON first.
		if m, ok := raw.(map[string]any); ok {
			data, err := json.Marshal(m)
			if err != nil {
				return nil, false
			}
			return decodeOrderedJSON(data)
		}
		return nil, false
	}

	for pass := 0; pass < maxDecodePasses; pass++ {
		if om, ok := decodeOrderedJSON([]byte(s)); ok {
			return om, true
		}
		// The payload may be a (possibly escaped) JSON string one level
		// down; unwrap and retry.
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			s = inner
			continue
		}
		unescaped := unescape(s)
		if unescaped == s {
			return nil, false
		}
		s = unescaped
	}
	return nil, false
}

// decodeOrderedJSON walks the top level of a JSON object with a token
// decoder so key order survives.
func decodeOrderedJSON(data []byte) (*OrderedMap, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}

	om := &OrderedMap{values: map[string]any{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		om.Set(key, normalizeNumbers(value))
	}
	return om, true
}

// normalizeNumbers converts json.Number back to float64 so OrderedMap
// values look like ordinary encoding/json output.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalizeNumbers(val)
		}
		return t
	default:
		return v
	}
}
