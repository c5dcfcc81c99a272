// Package flow implements the FlowCore orchestration engine: a recursive
// interpreter over declarative, JSON-compatible node graphs with per-instance
// state history and an audit trail of every evaluated step.
package flow

import (
	"encoding/json"
	"sort"
	"strings"
)

// Value is a JSON-compatible tree: nil, bool, float64, string, []Value, or
// map[string]Value. It is the universal currency of FlowCore — state,
// node parameters, inputs, and results are all Values.
//
// Values are represented as plain Go interface{} (mirroring encoding/json's
// own decoding target) rather than a closed sum type, since node
// implementations and scope capabilities routinely produce and consume
// map[string]interface{}/[]interface{} directly. DeepCopy and Get/Set below
// are the only operations that need to know the shape.
type Value = interface{}

// DeepCopy returns an independent copy of v: mutating the result never
// affects v, and vice versa. Per spec, every snapshot of state, steps, or
// event payloads handed to a caller must be such a copy.
//
// The copy walks containers structurally rather than round-tripping through
// encoding/json, so it preserves OrderedMap's key order and doesn't coerce
// Go-native numeric types (e.g. int) to float64 the way a JSON round trip
// would. Scalar leaves (string, bool, numbers, nil) are immutable in Go and
// so need no copying.
func DeepCopy(v Value) Value {
	switch t := v.(type) {
	case nil:
		return nil
	case OrderedMap:
		pairs := make([]Pair, 0, len(t.keys))
		for _, k := range t.keys {
			pairs = append(pairs, Pair{Key: k, Value: DeepCopy(t.vals[k])})
		}
		return NewOrderedMap(pairs...)
	case map[string]Value:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case []Value:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = DeepCopy(e)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// Equal reports whether two Values are deeply equal after normalization to
// their JSON representation (per spec §8's "bit-for-bit after normalization
// to JSON" round-trip contract for undo/redo). OrderedMap's key order does
// not affect Equal: two mappings with the same entries in different order
// compare equal, since JSON objects are unordered.
func Equal(a, b Value) bool {
	da, errA := json.Marshal(a)
	db, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	var na, nb Value
	if err := json.Unmarshal(da, &na); err != nil {
		return false
	}
	if err := json.Unmarshal(db, &nb); err != nil {
		return false
	}
	return equalNormalized(na, nb)
}

func equalNormalized(a, b Value) bool {
	switch at := a.(type) {
	case map[string]Value:
		bt, ok := b.(map[string]Value)
		if !ok || len(at) != len(bt) {
			return false
		}
		for k, v := range at {
			bv, present := bt[k]
			if !present || !equalNormalized(v, bv) {
				return false
			}
		}
		return true
	case []Value:
		bt, ok := b.([]Value)
		if !ok || len(at) != len(bt) {
			return false
		}
		for i := range at {
			if !equalNormalized(at[i], bt[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// splitPath splits a dot-separated path into segments. An empty or nil path
// yields zero segments, denoting the root.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get walks path (dot-separated) through v and returns the leaf Value.
//
// Per spec, any missing intermediate segment or a nil/absent leaf yields the
// empty string "" — callers cannot distinguish "absent" from an explicit
// empty-string value. This is a deliberate, documented sharp edge inherited
// unchanged from the source behavior (spec.md §9, Open Question 1): do not
// "fix" it to return nil/ok.
func Get(v Value, path string) Value {
	segs := splitPath(path)
	cur := v
	for _, seg := range segs {
		m, ok := AsMap(cur)
		if !ok {
			return ""
		}
		next, present := m[seg]
		if !present {
			return ""
		}
		cur = next
	}
	if cur == nil {
		return ""
	}
	return cur
}

// Set returns a new root Value with the subtree at path replaced by a deep
// copy of val. An empty path replaces the whole root.
//
// Intermediate segments are created as maps when missing. If an intermediate
// segment already exists but holds a non-mapping value, it is silently
// replaced by a new mapping — this erases whatever was there. That is
// preserved literally from the source behavior (spec.md §9, Open Question
// 3); it is a sharp edge, not a bug to "fix" here.
func Set(root Value, path string, val Value) Value {
	segs := splitPath(path)
	if len(segs) == 0 {
		return DeepCopy(val)
	}
	return setAt(root, segs, DeepCopy(val))
}

func setAt(cur Value, segs []string, val Value) Value {
	m, ok := AsMap(cur)
	if !ok {
		m = make(map[string]Value)
	} else {
		// Avoid mutating the caller's map in place; build a fresh one so
		// DeepCopy semantics hold for anything still referencing cur.
		fresh := make(map[string]Value, len(m))
		for k, v := range m {
			fresh[k] = v
		}
		m = fresh
	}

	seg := segs[0]
	if len(segs) == 1 {
		m[seg] = val
		return m
	}

	child, present := m[seg]
	if !present {
		child = map[string]Value{}
	}
	m[seg] = setAt(child, segs[1:], val)
	return m
}

// AsSlice returns v as a []Value and true if v is an ordered sequence.
// encoding/json decodes JSON arrays as []interface{}; Go-constructed Values
// may also use typed slices; of those, only []string is accepted and
// normalized.
func AsSlice(v Value) ([]Value, bool) {
	switch t := v.(type) {
	case []Value:
		return t, true
	case []string:
		out := make([]Value, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// AsMap returns v as a map[string]Value and true if v is a mapping, whether
// backed by a plain map or an OrderedMap (key order is lost in the latter
// case; use AsOrderedMap when order matters).
func AsMap(v Value) (map[string]Value, bool) {
	switch t := v.(type) {
	case map[string]Value:
		return t, true
	case OrderedMap:
		return t.ToMap(), true
	default:
		return nil, false
	}
}

// AsOrderedMap returns v as an OrderedMap and true if v is a mapping. A
// plain map[string]Value is accepted but yields keys in an arbitrary,
// merely-deterministic (sorted) order, since Go maps carry no insertion
// order; construct node definitions via OrderedMap/NewOrderedMap or decode
// them with ParseNodesJSON to get the source's true order.
func AsOrderedMap(v Value) (OrderedMap, bool) {
	switch t := v.(type) {
	case OrderedMap:
		return t, true
	case map[string]Value:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]Pair, len(keys))
		for i, k := range keys {
			pairs[i] = Pair{Key: k, Value: t[k]}
		}
		return NewOrderedMap(pairs...), true
	default:
		return OrderedMap{}, false
	}
}

// AsStringSlice returns v as a []string and true only if v is an ordered
// sequence whose every element is a string.
func AsStringSlice(v Value) ([]string, bool) {
	seq, ok := AsSlice(v)
	if !ok {
		return nil, false
	}
	out := make([]string, len(seq))
	for i, e := range seq {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// IsEmptyContainer reports whether v is an empty sequence or an empty
// mapping (spec §4.4: both evaluate to {edges: ['pass']} with no sub-steps).
func IsEmptyContainer(v Value) bool {
	if seq, ok := AsSlice(v); ok {
		return len(seq) == 0
	}
	if m, ok := AsMap(v); ok {
		return len(m) == 0
	}
	return false
}
