package flow

import (
	"context"
	"fmt"
)

// evalNode interprets one parsed Node, dispatching by Kind (spec.md §4.4).
// idx is the node's position in the owning Instance's node list (its
// currentIndex-1); priorSteps is the steps slice recorded before it.
func (inst *Instance) evalNode(goCtx context.Context, n Node, idx int, priorSteps []Step) (Step, error) {
	ctx := inst.buildContext(goCtx, n, idx, priorSteps)

	switch n.Kind {
	case KindInline:
		raw, err := n.Inline(ctx)
		if err != nil {
			return Step{}, err
		}
		out, err := Normalize(ctx, raw)
		if err != nil {
			return Step{}, err
		}
		return Step{Node: DeepCopy(n.Raw), Output: out}, nil

	case KindCall, KindParamCall:
		cap, ok := inst.scope.resolve(n.CallID)
		if !ok {
			return Step{
				Node: DeepCopy(n.Raw),
				Output: Output{
					Edges:        []string{"error"},
					ErrorDetails: fmt.Sprintf("%q not found", n.CallID),
				},
			}, nil
		}
		raw, err := cap.Impl(ctx)
		if err != nil {
			return Step{}, err
		}
		out, err := Normalize(ctx, raw)
		if err != nil {
			return Step{}, err
		}
		return Step{Node: DeepCopy(n.Raw), Output: out}, nil

	case KindLoop:
		subSteps, out, err := inst.evalLoop(goCtx, n, idx)
		if err != nil {
			return Step{}, err
		}
		return Step{Node: DeepCopy(n.Raw), Output: out, SubSteps: subSteps}, nil

	case KindSubflow:
		if len(n.Children) == 0 {
			return Step{Node: DeepCopy(n.Raw), Output: Output{Edges: []string{"pass"}}}, nil
		}
		subSteps, out, err := inst.runChild(goCtx, n.Children, idx)
		if err != nil {
			return Step{}, err
		}
		return Step{Node: DeepCopy(n.Raw), Output: out, SubSteps: subSteps}, nil

	case KindBranch:
		return inst.evalBranch(goCtx, n, idx, priorSteps)

	default:
		return Step{
			Node: DeepCopy(n.Raw),
			Output: Output{
				Edges:        []string{"error", "pass"},
				ErrorDetails: "Unknown node type",
			},
		}, nil
	}
}

// evalBranch implements spec.md §4.4's Branch evaluation: the previous
// step's edges select the first matching branch key, in BranchKeys order.
func (inst *Instance) evalBranch(goCtx context.Context, n Node, idx int, priorSteps []Step) (Step, error) {
	var prevEdges []string
	if len(priorSteps) > 0 {
		prevEdges = priorSteps[len(priorSteps)-1].Output.Edges
	}

	for _, key := range n.BranchKeys {
		if !containsString(prevEdges, key) {
			continue
		}
		children := n.Branch[key]
		subSteps, out, err := inst.runChild(goCtx, children, idx)
		if err != nil {
			return Step{}, err
		}
		return Step{Node: DeepCopy(n.Raw), Output: out, SubSteps: subSteps}, nil
	}

	return Step{Node: DeepCopy(n.Raw), Output: Output{Edges: []string{"pass"}}}, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// resolve adapts Scope.Resolve for a possibly-nil Scope (an Instance with
// no scope simply never resolves a CallableId).
func (s *Scope) resolve(id string) (Capability, bool) {
	if s == nil {
		return Capability{}, false
	}
	return s.Resolve(id)
}
