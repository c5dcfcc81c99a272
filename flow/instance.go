package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowkit/flowcore/flow/emit"
	"github.com/flowkit/flowcore/flow/hub"
	"github.com/flowkit/flowcore/flow/store"
	"github.com/google/uuid"
)

// trackedListener records one listener an Instance registered on the Hub,
// so it can be deregistered on the next Run (spec.md §4.6 step 2).
type trackedListener struct {
	event string
	id    hub.ListenerID
}

// Instance is a Flow Instance (spec.md §4.6): a node list, a private State
// Store, and the bookkeeping (steps, listeners) produced by running it.
// Instances are not safe for concurrent Run calls on the same value
// (spec.md §5's re-entrancy rule); FlowCore rejects rather than leaving
// this undefined.
type Instance struct {
	mu sync.Mutex

	instanceID string
	nodes      []Node
	scope      *Scope
	hub        *hub.Hub

	state *State

	steps        []Step
	currentIndex int
	listeners    []trackedListener

	metrics *Metrics
	emitter emit.Emitter
	audit   store.Store

	running bool
}

// InstanceConfig configures a new Instance (spec.md §6's constructor
// surface).
type InstanceConfig struct {
	// InitialState seeds the State Store. Nil starts from an empty mapping.
	InitialState Value

	// Nodes is the parsed node list the instance will evaluate.
	Nodes []Node

	// Scope resolves CallableId/ParamCall identifiers. Nil means no
	// identifier ever resolves.
	Scope *Scope

	// InstanceID, if empty, is generated.
	InstanceID string

	// Hub is the Flow Hub this instance publishes events to and suspends
	// humanInput calls against. Nil uses hub.Default().
	Hub *hub.Hub

	// Metrics, if non-nil, receives step/loop-iteration counters for this
	// instance and every child it spawns (spec.md §4.9 of the expanded
	// spec).
	Metrics *Metrics

	// Emitter, if non-nil, receives an observability Event alongside every
	// flowManagerStep broadcast to the Hub. Nil disables it (equivalent to
	// emit.NewNullEmitter()).
	Emitter emit.Emitter

	// Audit, if non-nil, receives a Record of every step for later
	// inspection. A save failure is ignored without being logged — the
	// audit trail is a convenience, not part of the run's success
	// criteria (spec.md §1's "durable flow resumption" non-goal extends to
	// "the run must not fail because of the audit sink").
	Audit store.Store
}

// NewInstance constructs an Instance from cfg.
func NewInstance(cfg InstanceConfig) *Instance {
	h := cfg.Hub
	if h == nil {
		h = hub.Default()
	}
	id := cfg.InstanceID
	if id == "" {
		id = uuid.NewString()
	}
	return &Instance{
		instanceID: id,
		nodes:      cfg.Nodes,
		scope:      cfg.Scope,
		hub:        h,
		state:      NewState(cfg.InitialState),
		metrics:    cfg.Metrics,
		emitter:    cfg.Emitter,
		audit:      cfg.Audit,
	}
}

// NewInstanceFromValues parses rawNodes with ParseNodes using cfg.Scope
// before constructing the Instance, for hosts that hold raw
// JSON-compatible NodeDefinitions rather than already-parsed Nodes.
func NewInstanceFromValues(rawNodes []Value, cfg InstanceConfig) (*Instance, error) {
	var resolver capabilityResolver
	if cfg.Scope != nil {
		resolver = cfg.Scope
	}
	nodes, err := ParseNodes(rawNodes, resolver)
	if err != nil {
		return nil, err
	}
	cfg.Nodes = nodes
	return NewInstance(cfg), nil
}

// GetInstanceID returns the instance's id.
func (inst *Instance) GetInstanceID() string {
	return inst.instanceID
}

// GetStateManager returns the instance's State Store handle.
func (inst *Instance) GetStateManager() *State {
	return inst.state
}

// GetSteps returns a deep copy of the steps recorded by the most recent Run.
func (inst *Instance) GetSteps() []Step {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return deepCopySteps(inst.steps)
}

// trackListener records a listener registration for cleanup on the next Run.
func (inst *Instance) trackListener(event string, id hub.ListenerID) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.listeners = append(inst.listeners, trackedListener{event: event, id: id})
}

// Run drives sequential evaluation of the instance's node list (spec.md
// §4.6). It is not re-entrant: calling Run while a previous Run on the same
// Instance is in flight returns ErrRunActive immediately.
func (inst *Instance) Run(ctx context.Context) ([]Step, error) {
	inst.mu.Lock()
	if inst.running {
		inst.mu.Unlock()
		return nil, ErrRunActive
	}
	inst.running = true
	for _, l := range inst.listeners {
		inst.hub.RemoveEventListener(l.event, l.id)
	}
	inst.listeners = nil
	inst.currentIndex = 0
	inst.steps = nil
	inst.mu.Unlock()

	defer func() {
		inst.mu.Lock()
		inst.running = false
		inst.mu.Unlock()
	}()

	if len(inst.nodes) == 0 {
		return []Step{}, nil
	}

	for idx, n := range inst.nodes {
		inst.mu.Lock()
		inst.currentIndex = idx + 1
		priorSteps := deepCopySteps(inst.steps)
		inst.mu.Unlock()

		step, err := inst.evalNode(ctx, n, idx, priorSteps)
		if err != nil {
			return nil, err
		}

		inst.mu.Lock()
		inst.steps = append(inst.steps, step)
		snapshotSteps := deepCopyStep(step)
		currentState := inst.state.GetState()
		inst.mu.Unlock()

		inst.metrics.recordStep(inst.instanceID, containsString(step.Output.Edges, "error"))
		inst.hub.EmitStep(inst.instanceID, idx, stepToValue(snapshotSteps), currentState)
		inst.emitEvent(idx, nodeIDOf(n), step)
		inst.saveAudit(ctx, idx, snapshotSteps, currentState)
	}

	inst.mu.Lock()
	result := deepCopySteps(inst.steps)
	inst.mu.Unlock()
	return result, nil
}

// stepToValue renders a Step into the Value shape spec.md §6's wire format
// names for stepData, so Hub consumers (possibly out-of-process) see plain
// JSON-compatible data rather than a Go struct.
func stepToValue(s Step) Value {
	out := map[string]Value{
		"node": s.Node,
		"output": map[string]Value{
			"edges":   toValueSlice(s.Output.Edges),
			"results": s.Output.Results,
		},
	}
	if s.Output.ErrorDetails != "" {
		out["output"].(map[string]Value)["errorDetails"] = s.Output.ErrorDetails
	}
	if s.SubSteps != nil {
		sub := make([]Value, len(s.SubSteps))
		for i, ss := range s.SubSteps {
			sub[i] = stepToValue(ss)
		}
		out["subSteps"] = sub
	}
	return out
}

// emitEvent forwards a step's outcome to the configured Emitter, if any.
// This is a best-effort observability sink distinct from the Hub's
// flowManagerStep broadcast: it carries no delivery guarantee and is
// skipped entirely when no Emitter was configured.
func (inst *Instance) emitEvent(stepIndex int, nodeID string, step Step) {
	if inst.emitter == nil {
		return
	}
	inst.emitter.Emit(emit.Event{
		FlowInstanceID: inst.instanceID,
		StepIndex:      stepIndex,
		NodeID:         nodeID,
		Name:           "flowManagerStep",
		Meta: map[string]interface{}{
			"edges": step.Output.Edges,
		},
	})
}

// saveAudit forwards one step to the configured audit Store, if any. A
// failure is swallowed (see InstanceConfig.Audit's doc comment).
func (inst *Instance) saveAudit(ctx context.Context, stepIndex int, step Step, currentState Value) {
	if inst.audit == nil {
		return
	}
	_ = inst.audit.SaveStep(ctx, store.Record{
		FlowInstanceID: inst.instanceID,
		StepIndex:      stepIndex,
		StepData:       stepToValue(step),
		CurrentState:   currentState,
	})
}

// nodeIDOf returns a best-effort human-readable identifier for n, for
// observability events; empty for node kinds with no natural name.
func nodeIDOf(n Node) string {
	switch n.Kind {
	case KindCall, KindParamCall:
		return n.CallID
	default:
		return ""
	}
}

func toValueSlice(strs []string) []Value {
	out := make([]Value, len(strs))
	for i, s := range strs {
		out[i] = s
	}
	return out
}

// buildContext assembles the Execution Context for node n at idx, given the
// steps recorded before it.
func (inst *Instance) buildContext(goCtx context.Context, n Node, idx int, priorSteps []Step) *Context {
	var params Value
	if n.Kind == KindParamCall {
		params = n.Params
	}
	return &Context{
		State:          inst.state,
		Steps:          priorSteps,
		Nodes:          inst.nodes,
		Self:           selfFor(n, idx, inst.scope, n.Params),
		Input:          computeInput(priorSteps),
		Params:         params,
		FlowInstanceID: inst.instanceID,
		goCtx:          goCtx,
		hub:            inst.hub,
		metrics:        inst.metrics,
		selfIndex:      idx,
		instance:       inst,
	}
}

// childInstanceID builds a deterministic id for a child spawned from this
// instance at node idx, per spec.md §4.4's "{parent.id}-subflow-idx{idx}"
// scheme.
func (inst *Instance) childInstanceID(idx int) string {
	return fmt.Sprintf("%s-subflow-idx%d", inst.instanceID, idx)
}

// runChild spawns, runs, and copies back the state of a child Instance over
// childNodes, sharing this instance's scope and Hub. It returns the
// child's steps and the Output adopted from the child's last step (or
// {edges:['pass']} if the child produced no steps), per spec.md §4.4.
func (inst *Instance) runChild(goCtx context.Context, childNodes []Node, idx int) ([]Step, Output, error) {
	child := NewInstance(InstanceConfig{
		InitialState: inst.state.GetState(),
		Nodes:        childNodes,
		Scope:        inst.scope,
		InstanceID:   inst.childInstanceID(idx),
		Hub:          inst.hub,
		Metrics:      inst.metrics,
		Emitter:      inst.emitter,
		Audit:        inst.audit,
	})

	steps, err := child.Run(goCtx)
	if err != nil {
		return nil, Output{}, err
	}

	inst.state.SetState(child.state.GetState())

	if len(steps) == 0 {
		return steps, Output{Edges: []string{"pass"}}, nil
	}
	return steps, steps[len(steps)-1].Output, nil
}
