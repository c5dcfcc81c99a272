package flow

import "fmt"

// Kind classifies a parsed NodeDefinition per spec.md §3.
type Kind int

const (
	// KindCall is a CallableId: a string identifying a capability in scope.
	KindCall Kind = iota
	// KindInline is an InlineFn supplied directly by the host (not
	// serializable; only reachable via the Go construction API).
	KindInline
	// KindSubflow is an ordered sequence of child Nodes evaluated by a
	// nested Flow Instance.
	KindSubflow
	// KindLoop is [controller, action...] evaluated by the Loop Orchestrator.
	KindLoop
	// KindBranch is a mapping from edge name to a child node sequence.
	KindBranch
	// KindParamCall invokes a single resolved capability with a parameter
	// mapping.
	KindParamCall
)

// InlineFunc is an executable supplied directly by the host when building a
// flow programmatically (spec.md §3's InlineFn). It receives the Execution
// Context and returns a raw Value to be normalized by the Output Normalizer,
// or an error if the node itself failed (spec.md §7's node-throw case).
type InlineFunc func(ctx *Context) (Value, error)

// Node is the parsed, tagged-variant form of a NodeDefinition. Parsing
// happens once at Instance construction (Design Note §9): the evaluator
// dispatches purely on Kind and never re-inspects the raw Value's shape.
type Node struct {
	Kind Kind

	// Raw is the original NodeDefinition Value as passed to ParseNode; the
	// evaluator records a deep copy of it into Step.Node.
	Raw Value

	// CallID is set for KindCall and KindParamCall.
	CallID string

	// Inline is set for KindInline.
	Inline InlineFunc

	// Children holds:
	//   - KindSubflow: the sequence of sibling nodes, in order.
	//   - KindLoop: exactly [controller, action0, action1, ...].
	Children []Node

	// BranchKeys preserves the edge-name iteration order for KindBranch
	// (spec.md §9 Open Question 5: order must be explicit, Go maps have
	// none).
	BranchKeys []string

	// Branch maps edge name -> child node sequence for KindBranch. A
	// branch value that was itself a single NodeDefinition (not a
	// sequence) is normalized to a one-element sequence here.
	Branch map[string][]Node

	// Params holds the parameter mapping Value for KindParamCall (may be
	// nil, meaning the capability was called with no params).
	Params Value
}

// capabilityResolver is the minimal surface ParseNode needs from a Scope to
// disambiguate ParamCall from Branch (spec.md §3: "scope resolves k to a
// capability"). The full Scope type is defined in scope.go; parsing only
// needs to know resolvability, not the resolved value itself.
type capabilityResolver interface {
	Resolves(id string) bool
}

// ParseNodes parses a top-level sequence of raw NodeDefinitions — the shape
// a Flow Instance's node list takes (spec.md §3) — into Nodes, in order.
func ParseNodes(raw []Value, scope capabilityResolver) ([]Node, error) {
	nodes := make([]Node, 0, len(raw))
	for i, v := range raw {
		n, err := ParseNode(v, scope)
		if err != nil {
			return nil, fmt.Errorf("flow: ParseNodes: node %d: %w", i, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ParseNode classifies and recursively parses a raw NodeDefinition Value
// into a Node, per spec.md §3's shape rules. scope is consulted only to
// disambiguate a single-key mapping between ParamCall and Branch; it may be
// nil, in which case every single-key mapping is treated as a Branch (the
// conservative choice, since without a scope nothing can be confirmed as a
// resolvable capability).
func ParseNode(raw Value, scope capabilityResolver) (Node, error) {
	if fn, ok := raw.(InlineFunc); ok {
		return Node{Kind: KindInline, Raw: raw, Inline: fn}, nil
	}

	switch v := raw.(type) {
	case string:
		return Node{Kind: KindCall, Raw: raw, CallID: v}, nil

	case nil:
		return Node{Kind: KindSubflow, Raw: raw, Children: nil}, nil

	default:
		if seq, ok := AsSlice(raw); ok {
			return parseSequence(raw, seq, scope)
		}
		if om, ok := AsOrderedMap(raw); ok {
			return parseMapping(raw, om, scope)
		}
		return Node{}, fmt.Errorf("flow: ParseNode: unsupported node definition shape %T", raw)
	}
}

// parseSequence implements the Subflow/Loop disambiguation of spec.md §3.
func parseSequence(raw Value, seq []Value, scope capabilityResolver) (Node, error) {
	if len(seq) == 1 {
		if innerSeq, ok := AsSlice(seq[0]); ok && len(innerSeq) > 0 {
			// Loop: [controller, action1, ..., actionN].
			controller, err := ParseNode(innerSeq[0], scope)
			if err != nil {
				return Node{}, fmt.Errorf("flow: ParseNode: loop controller: %w", err)
			}
			children := make([]Node, 0, len(innerSeq))
			children = append(children, controller)
			for i, a := range innerSeq[1:] {
				action, err := ParseNode(a, scope)
				if err != nil {
					return Node{}, fmt.Errorf("flow: ParseNode: loop action %d: %w", i, err)
				}
				children = append(children, action)
			}
			return Node{Kind: KindLoop, Raw: raw, Children: children}, nil
		}
		// Single element that isn't a non-empty sequence: a one-node Subflow.
		child, err := ParseNode(seq[0], scope)
		if err != nil {
			return Node{}, fmt.Errorf("flow: ParseNode: subflow element: %w", err)
		}
		return Node{Kind: KindSubflow, Raw: raw, Children: []Node{child}}, nil
	}

	// Length 0 or length > 1: an ordinary Subflow.
	children := make([]Node, 0, len(seq))
	for i, e := range seq {
		child, err := ParseNode(e, scope)
		if err != nil {
			return Node{}, fmt.Errorf("flow: ParseNode: subflow element %d: %w", i, err)
		}
		children = append(children, child)
	}
	return Node{Kind: KindSubflow, Raw: raw, Children: children}, nil
}

// parseMapping implements the Branch-or-ParamCall disambiguation of
// spec.md §3.
func parseMapping(raw Value, om OrderedMap, scope capabilityResolver) (Node, error) {
	if om.Len() == 1 {
		key := om.Keys()[0]
		val, _ := om.Get(key)

		isParams := val == nil
		if !isParams {
			if _, isMapping := AsOrderedMap(val); isMapping {
				if _, isSeq := AsSlice(val); !isSeq {
					isParams = true
				}
			}
		}

		if isParams && scope != nil && scope.Resolves(key) {
			return Node{
				Kind:   KindParamCall,
				Raw:    raw,
				CallID: key,
				Params: val,
			}, nil
		}
	}

	keys := om.Keys()
	branch := make(map[string][]Node, len(keys))
	for _, key := range keys {
		val, _ := om.Get(key)
		var defs []Value
		if seq, ok := AsSlice(val); ok {
			defs = seq
		} else {
			defs = []Value{val}
		}
		children := make([]Node, 0, len(defs))
		for i, d := range defs {
			child, err := ParseNode(d, scope)
			if err != nil {
				return Node{}, fmt.Errorf("flow: ParseNode: branch %q element %d: %w", key, i, err)
			}
			children = append(children, child)
		}
		branch[key] = children
	}

	return Node{Kind: KindBranch, Raw: raw, BranchKeys: keys, Branch: branch}, nil
}
