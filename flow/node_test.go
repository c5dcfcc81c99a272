package flow

import "testing"

func TestParseNodeCallableId(t *testing.T) {
	n, err := ParseNode("A", nil)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Kind != KindCall || n.CallID != "A" {
		t.Fatalf("ParseNode(A) = %+v, want KindCall{CallID: A}", n)
	}
}

func TestParseNodeSubflowMultiElement(t *testing.T) {
	n, err := ParseNode([]Value{"A", "B"}, nil)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Kind != KindSubflow || len(n.Children) != 2 {
		t.Fatalf("ParseNode([A,B]) = %+v, want a 2-child Subflow", n)
	}
}

func TestParseNodeSubflowSingleNonSequenceElement(t *testing.T) {
	n, err := ParseNode([]Value{"A"}, nil)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Kind != KindSubflow || len(n.Children) != 1 {
		t.Fatalf("ParseNode([A]) = %+v, want a 1-child Subflow", n)
	}
}

func TestParseNodeLoop(t *testing.T) {
	n, err := ParseNode([]Value{[]Value{"Ctl", "Act1", "Act2"}}, nil)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Kind != KindLoop {
		t.Fatalf("ParseNode([[Ctl,Act1,Act2]]) kind = %v, want KindLoop", n.Kind)
	}
	if len(n.Children) != 3 {
		t.Fatalf("loop Children = %v, want [controller, action1, action2]", n.Children)
	}
	if n.Children[0].CallID != "Ctl" {
		t.Fatalf("loop controller = %+v, want CallID Ctl", n.Children[0])
	}
}

func TestParseNodeEmptySequenceIsSubflow(t *testing.T) {
	n, err := ParseNode([]Value{}, nil)
	if err != nil {
		t.Fatalf("ParseNode: %v", err)
	}
	if n.Kind != KindSubflow || len(n.Children) != 0 {
		t.Fatalf("ParseNode([]) = %+v, want empty Subflow", n)
	}
}

// TestParseNodeParamCallVsBranch covers spec.md S5.
func TestParseNodeParamCallVsBranch(t *testing.T) {
	scope := NewScope()
	scope.Register("K", capOf("pass"))

	t.Run("single key, params map, resolvable -> ParamCall", func(t *testing.T) {
		raw := NewOrderedMap(Pair{Key: "K", Value: map[string]Value{"x": 1}})
		n, err := ParseNode(raw, scope)
		if err != nil {
			t.Fatalf("ParseNode: %v", err)
		}
		if n.Kind != KindParamCall || n.CallID != "K" {
			t.Fatalf("ParseNode({K:{x:1}}) = %+v, want ParamCall(K)", n)
		}
	})

	t.Run("single key, sequence value -> Branch", func(t *testing.T) {
		raw := NewOrderedMap(Pair{Key: "K", Value: []Value{"N1"}})
		n, err := ParseNode(raw, scope)
		if err != nil {
			t.Fatalf("ParseNode: %v", err)
		}
		if n.Kind != KindBranch {
			t.Fatalf("ParseNode({K:[N1]}) kind = %v, want KindBranch", n.Kind)
		}
		if len(n.BranchKeys) != 1 || n.BranchKeys[0] != "K" {
			t.Fatalf("BranchKeys = %v, want [K]", n.BranchKeys)
		}
	})

	t.Run("two keys -> Branch regardless of value shapes", func(t *testing.T) {
		raw := NewOrderedMap(
			Pair{Key: "K", Value: map[string]Value{"x": 1}},
			Pair{Key: "other", Value: "N"},
		)
		n, err := ParseNode(raw, scope)
		if err != nil {
			t.Fatalf("ParseNode: %v", err)
		}
		if n.Kind != KindBranch {
			t.Fatalf("ParseNode(two keys) kind = %v, want KindBranch", n.Kind)
		}
	})

	t.Run("single key not resolvable in scope -> Branch", func(t *testing.T) {
		raw := NewOrderedMap(Pair{Key: "Unknown", Value: map[string]Value{"x": 1}})
		n, err := ParseNode(raw, scope)
		if err != nil {
			t.Fatalf("ParseNode: %v", err)
		}
		if n.Kind != KindBranch {
			t.Fatalf("ParseNode({Unknown:{x:1}}) kind = %v, want KindBranch since Unknown doesn't resolve", n.Kind)
		}
	})
}

func TestParseNodesJSONPreservesBranchKeyOrder(t *testing.T) {
	raw, err := ParseNodesJSON([]byte(`["C", {"big":"A","small":"B"}]`))
	if err != nil {
		t.Fatalf("ParseNodesJSON: %v", err)
	}
	nodes, err := ParseNodes(raw, nil)
	if err != nil {
		t.Fatalf("ParseNodes: %v", err)
	}
	if nodes[1].Kind != KindBranch {
		t.Fatalf("second node kind = %v, want KindBranch", nodes[1].Kind)
	}
	want := []string{"big", "small"}
	if len(nodes[1].BranchKeys) != 2 || nodes[1].BranchKeys[0] != want[0] || nodes[1].BranchKeys[1] != want[1] {
		t.Fatalf("BranchKeys = %v, want %v (source order preserved)", nodes[1].BranchKeys, want)
	}
}
