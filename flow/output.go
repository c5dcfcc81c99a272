package flow

// EdgeFunc is an executable carried as a value inside a mapping returned by
// a node capability (spec.md §4.3's "object-of-edge-fns" shape, Design
// Note §9's `EdgeFns(orderedmap<string,fn>)` variant). It is invoked with
// the node's Execution Context as its receiver and no arguments.
type EdgeFunc func(ctx *Context) (Value, error)

// Output is the canonical shape every node evaluation reduces to (spec.md
// §3's Step.output): a non-empty ordered list of edge names, plus an
// optional parallel list of results.
type Output struct {
	Edges   []string
	Results []Value

	// ErrorDetails carries a human-readable message for the two
	// Node-Evaluator-level error outputs (unresolved-identifier,
	// unknown-node-shape; spec.md §7). Empty otherwise.
	ErrorDetails string
}

// Normalize converts a raw return value from a node capability or InlineFn
// into canonical Output, per spec.md §4.3's dispatch table. It is the sole
// producer of canonical output; every other component that needs an Output
// goes through this function.
func Normalize(ctx *Context, raw Value) (Output, error) {
	out, err := normalize(ctx, raw)
	if err != nil {
		return Output{}, err
	}
	if len(out.Edges) == 0 {
		out.Edges = []string{"pass"}
	}
	return out, nil
}

func normalize(ctx *Context, raw Value) (Output, error) {
	if raw == nil {
		return Output{Edges: []string{"pass"}, Results: []Value{raw}}, nil
	}

	if s, ok := raw.(string); ok {
		return Output{Edges: []string{s}}, nil
	}

	if strs, ok := AsStringSlice(raw); ok && len(strs) > 0 {
		return Output{Edges: strs}, nil
	}

	if _, ok := AsSlice(raw); ok {
		// Any other sequence, including an empty one or one containing
		// non-strings: treated as an opaque value, not edges.
		return Output{Edges: []string{"pass"}, Results: []Value{raw}}, nil
	}

	if om, ok := AsOrderedMap(raw); ok {
		edges := make([]string, 0, om.Len())
		fns := make([]EdgeFunc, 0, om.Len())
		for _, key := range om.Keys() {
			val, _ := om.Get(key)
			fn, ok := val.(EdgeFunc)
			if !ok {
				continue
			}
			edges = append(edges, key)
			fns = append(fns, fn)
		}
		if len(edges) == 0 {
			return Output{Edges: []string{"pass"}, Results: []Value{raw}}, nil
		}
		results := make([]Value, len(fns))
		for i, fn := range fns {
			v, err := fn(ctx)
			if err != nil {
				results[i] = map[string]Value{"error": err.Error()}
				continue
			}
			results[i] = v
		}
		return Output{Edges: edges, Results: results}, nil
	}

	// number, bool, or anything else not covered above.
	return Output{Edges: []string{"pass"}, Results: []Value{raw}}, nil
}
