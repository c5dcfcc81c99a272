package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is a string-keyed Value that remembers the insertion order of
// its keys. Go's map[string]interface{} has no stable iteration order, but
// spec.md's Branch and ParamCall node shapes are defined over the
// *insertion* order of an underlying mapping (Branch key-iteration order
// drives which edge a Branch follows first; ParamCall disambiguation counts
// keys). OrderedMap is FlowCore's explicit answer to spec.md §9's Open
// Question 5 ("in languages without such ordering the implementer must
// impose an explicit order").
//
// Node definitions built directly in Go should use NewOrderedMap.
// Node definitions decoded from JSON text should go through ParseNodesJSON,
// which decodes objects into OrderedMap instead of Go's order-losing default.
type OrderedMap struct {
	keys []string
	vals map[string]Value
}

// NewOrderedMap builds an OrderedMap from key/value pairs in the given order.
// A repeated key keeps its first position but takes the later value, mirroring
// JSON object semantics where a duplicate key overwrites in place.
func NewOrderedMap(pairs ...Pair) OrderedMap {
	om := OrderedMap{vals: make(map[string]Value, len(pairs))}
	for _, p := range pairs {
		om.set(p.Key, p.Value)
	}
	return om
}

// Pair is one key/value entry used to construct an OrderedMap in source order.
type Pair struct {
	Key   string
	Value Value
}

func (om *OrderedMap) set(key string, val Value) {
	if _, exists := om.vals[key]; !exists {
		om.keys = append(om.keys, key)
	}
	if om.vals == nil {
		om.vals = make(map[string]Value)
	}
	om.vals[key] = val
}

// Keys returns the map's keys in insertion order.
func (om OrderedMap) Keys() []string {
	return om.keys
}

// Len returns the number of entries.
func (om OrderedMap) Len() int {
	return len(om.keys)
}

// Get returns the value for key and whether it is present.
func (om OrderedMap) Get(key string) (Value, bool) {
	v, ok := om.vals[key]
	return v, ok
}

// ToMap returns an unordered map[string]Value copy, for callers that don't
// care about order (e.g. ParamCall parameters handed to a capability).
func (om OrderedMap) ToMap() map[string]Value {
	out := make(map[string]Value, len(om.keys))
	for _, k := range om.keys {
		out[k] = om.vals[k]
	}
	return out
}

// MarshalJSON emits the object with keys in insertion order.
func (om OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range om.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(om.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into an OrderedMap, preserving the
// order keys appeared in the source text. Nested objects are themselves
// decoded as OrderedMap, recursively.
func (om *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("flow: OrderedMap: expected object, got %v", tok)
	}

	*om = OrderedMap{vals: make(map[string]Value)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("flow: OrderedMap: expected string key, got %v", keyTok)
		}
		val, err := decodeJSONValue(dec)
		if err != nil {
			return err
		}
		om.set(key, val)
	}
	// Consume the closing '}'.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// decodeJSONValue decodes one JSON value from dec, producing OrderedMap for
// objects and []Value for arrays, recursively, so order is preserved at
// every nesting level.
func decodeJSONValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			om := OrderedMap{vals: make(map[string]Value)}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				om.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return om, nil
		case '[':
			var seq []Value
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			if seq == nil {
				seq = []Value{}
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("flow: unexpected delimiter %v", t)
		}
	default:
		return tok, nil
	}
}

// ParseNodesJSON decodes a JSON array of node definitions, preserving branch
// and param-call key order via OrderedMap at every nesting level (see
// OrderedMap's doc comment). Use this instead of encoding/json.Unmarshal
// whenever node definitions are loaded from JSON text.
func ParseNodesJSON(data []byte) ([]Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	val, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	seq, ok := AsSlice(val)
	if !ok {
		return nil, fmt.Errorf("flow: ParseNodesJSON: top-level value is not an array")
	}
	return seq, nil
}
