// Package extract converts document-extraction output between its nested
// form and the flat editable key-value form, and calls the remote
// extraction service.
package extract

import (
	"sort"
	"strconv"
	"strings"

	"licence-desk/internal/domain"
)

// Flatten converts a nested object into a flat map whose keys join the
// path segments with "_". Array elements use 1-based integer segments:
//
//	{name:"ACME", directors:[{name:"A"},{name:"B"}]}
//	-> {name:"ACME", directors_1_name:"A", directors_2_name:"B"}
//
// Integer path fragments are reserved for array indices; field names
// containing "_<digits>" fragments are rejected upstream at document-type
// validation, so the transform stays reversible.
func Flatten(obj map[string]any) map[string]any {
	flat := map[string]any{}
	flattenInto(flat, "", obj)
	return flat
}

// FieldKeys returns the top-level field names of an extraction schema in
// declaration order. Date heuristics scan extraction output in this
// order, so the schema author controls which date field wins.
func FieldKeys(fields []domain.ExtractedField) []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Name)
	}
	return keys
}

func flattenInto(flat map[string]any, prefix string, obj map[string]any) {
	for key, value := range obj {
		flattenValue(flat, prefix+key, value)
	}
}

func flattenValue(flat map[string]any, key string, value any) {
	switch v := value.(type) {
	case map[string]any:
		flattenInto(flat, key+"_", v)
	case []any:
		for i, elem := range v {
			flattenValue(flat, key+"_"+strconv.Itoa(i+1), elem)
		}
	default:
		flat[key] = v
	}
}

// Unflatten rebuilds the nested object from a flat map produced by
// Flatten. A path segment that parses as a positive integer switches the
// container from object to array, creating empty-object placeholders up
// to that 1-based index.
func Unflatten(flat map[string]any) map[string]any {
	root := newNode()

	// Keys are walked in sorted order so array slots fill
	// deterministically regardless of map iteration order.
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segments := strings.Split(key, "_")
		insert(root, segments, flat[key])
	}
	return materialize(root).(map[string]any)
}

// node is the intermediate container while rebuilding: either an object
// (fields) or an array (elems), decided by the first segment that
// addresses it.
type node struct {
	fields map[string]*node
	order  []string
	elems  []*node
	leaf   any
	isLeaf bool
}

func newNode() *node {
	return &node{fields: map[string]*node{}}
}

func insert(n *node, segments []string, value any) {
	if len(segments) == 0 {
		n.leaf = value
		n.isLeaf = true
		return
	}

	seg := segments[0]
	if idx, ok := arrayIndex(seg); ok {
		for len(n.elems) < idx {
			n.elems = append(n.elems, newNode())
		}
		insert(n.elems[idx-1], segments[1:], value)
		return
	}

	child, exists := n.fields[seg]
	if !exists {
		child = newNode()
		n.fields[seg] = child
		n.order = append(n.order, seg)
	}
	insert(child, segments[1:], value)
}

// arrayIndex reports whether a segment is a 1-based array index.
func arrayIndex(seg string) (int, bool) {
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 1 {
		return 0, false
	}
	return idx, true
}

func materialize(n *node) any {
	if n.isLeaf {
		return n.leaf
	}
	if len(n.elems) > 0 {
		arr := make([]any, len(n.elems))
		for i, elem := range n.elems {
			arr[i] = materialize(elem)
		}
		return arr
	}
	obj := make(map[string]any, len(n.order))
	for _, key := range n.order {
		obj[key] = materialize(n.fields[key])
	}
	return obj
}
