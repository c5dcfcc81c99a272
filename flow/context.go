package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/flowkit/flowcore/flow/hub"
)

// Context is the object handed to every node executable and edge function
// as its receiver (spec.md §4.8). It exposes the current node's view of the
// owning Flow Instance: state, prior steps, the input computed from the
// previous step, and the humanInput/emit/on primitives that reach through
// to the Flow Hub.
type Context struct {
	// State is the owning Instance's State Store handle.
	State *State

	// Steps is the list of steps recorded before this node, i.e. the
	// instance's steps slice as of entry to the current node.
	Steps []Step

	// Nodes is the owning Flow Instance's full parsed node list.
	Nodes []Node

	// Self describes the current node (spec.md §4.8's "self construction
	// rules").
	Self Value

	// Input is computed from the previous step's Results: the sole element
	// if there is exactly one, the whole slice if more than one, else nil.
	Input Value

	// Params holds the parameter mapping for a ParamCall node (spec.md
	// §4.4: "invoke resolved capability with Execution Context and the
	// parameter mapping as a single argument"). Nil for every other Kind.
	Params Value

	// FlowInstanceID is the owning instance's id.
	FlowInstanceID string

	goCtx     context.Context
	hub       *hub.Hub
	metrics   *Metrics
	selfIndex int
	instance  *Instance
}

// GoContext returns the context.Context the owning Instance.Run was called
// with, for capabilities that need to pass cancellation/deadlines through to
// an external call (an HTTP request, an LLM API call).
func (c *Context) GoContext() context.Context {
	return c.goCtx
}

// HumanInput suspends the calling node until Hub.Resume is called for the
// pause's id, then returns the resume payload. customPauseID, if
// non-empty, is used as the pause id instead of an auto-generated one.
func (c *Context) HumanInput(details Value, customPauseID string) (Value, error) {
	_, data, err := c.hub.RequestPause(c.goCtx, customPauseID, c.FlowInstanceID, details)
	return data, err
}

// Emit broadcasts a flowManagerNodeEvent tagged with this instance and the
// emitting node's index/definition (spec.md §4.8).
func (c *Context) Emit(customEventName string, data Value) {
	c.metrics.recordNodeEventFanout(customEventName)
	var definition Value
	if c.selfIndex >= 0 && c.selfIndex < len(c.Nodes) {
		definition = DeepCopy(c.Nodes[c.selfIndex].Raw)
	}
	emittingNode := map[string]Value{"index": c.selfIndex, "definition": definition}
	c.hub.EmitNodeEvent(c.FlowInstanceID, emittingNode, customEventName, data, time.Now().UnixNano())
}

// On registers a listener for flowManagerNodeEvent, invoking cb only when
// the event's customEventName matches. meta names the emitting node (as
// recorded in the event) and this listening node's Self description. The
// registration is tracked on the owning Instance and cleared on its next
// Run (spec.md §4.8).
func (c *Context) On(customEventName string, cb func(eventData Value, meta map[string]Value)) {
	id := c.hub.AddEventListener(hub.EventFlowManagerNodeEvent, func(payload interface{}) {
		m, ok := payload.(map[string]Value)
		if !ok {
			return
		}
		if name, _ := m["customEventName"].(string); name != customEventName {
			return
		}
		cb(m["eventData"], map[string]Value{
			"emittingNode":   m["emittingNode"],
			"listeningNode":  c.Self,
		})
	})
	c.instance.trackListener(hub.EventFlowManagerNodeEvent, id)
}

// computeInput implements spec.md §4.8's input rule from the previous
// step's results.
func computeInput(steps []Step) Value {
	if len(steps) == 0 {
		return nil
	}
	prev := steps[len(steps)-1]
	switch len(prev.Output.Results) {
	case 0:
		return nil
	case 1:
		return prev.Output.Results[0]
	default:
		out := make([]Value, len(prev.Output.Results))
		copy(out, prev.Output.Results)
		return out
	}
}

// capabilityRecord renders a resolved Capability into the mapping self
// preserves verbatim (spec.md §6: "the core preserves in self but does not
// interpret"). Meta, if itself a mapping, is merged in flat; otherwise it is
// carried under a "meta" key.
func capabilityRecord(cap Capability) map[string]Value {
	m := map[string]Value{"id": cap.ID, "name": cap.Name}
	if cap.Description != "" {
		m["description"] = cap.Description
	}
	if metaMap, ok := AsMap(cap.Meta); ok {
		for k, v := range metaMap {
			m[k] = v
		}
	} else if cap.Meta != nil {
		m["meta"] = cap.Meta
	}
	return m
}

// selfFor builds the `self` description for a node per spec.md §4.8's
// construction rules. scope is consulted to resolve CallableId/ParamCall
// keys to their capability record; n.Raw is preserved as `source` on every
// synthetic (non-record) self.
func selfFor(n Node, idx int, scope *Scope, params Value) Value {
	switch n.Kind {
	case KindCall:
		if scope != nil {
			if cap, ok := scope.Resolve(n.CallID); ok {
				return capabilityRecord(cap)
			}
		}
		return map[string]Value{
			"id":                    n.CallID,
			"name":                  n.CallID,
			"source":                n.Raw,
			"_unresolvedIdentifier": true,
		}
	case KindInline:
		return map[string]Value{
			"id":                          fmt.Sprintf("inline-%d", idx),
			"name":                        fmt.Sprintf("Workflow-Defined Function @ %d", idx),
			"source":                      n.Raw,
			"_isWorkflowProvidedFunction": true,
		}
	case KindParamCall:
		self := map[string]Value{"id": n.CallID, "name": n.CallID}
		if scope != nil {
			if cap, ok := scope.Resolve(n.CallID); ok {
				self = capabilityRecord(cap)
			}
		}
		self["parametersProvided"] = params
		self["_isParameterizedCall"] = true
		return self
	default: // Subflow, Loop, Branch
		return n.Raw
	}
}
