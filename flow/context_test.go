package flow

import (
	"context"
	"testing"
	"time"

	"github.com/flowkit/flowcore/flow/hub"
)

// TestHumanInputSuspendsAndResumes covers spec.md S4.
func TestHumanInputSuspendsAndResumes(t *testing.T) {
	h := hub.New()

	var pausedSeen hub.FlowPausedPayload
	h.AddEventListener(hub.EventFlowPaused, func(p interface{}) {
		pausedSeen = p.(hub.FlowPausedPayload)
	})
	var resumedSeen hub.FlowResumedPayload
	h.AddEventListener(hub.EventFlowResumed, func(p interface{}) {
		resumedSeen = p.(hub.FlowResumedPayload)
	})

	scope := NewScope()
	scope.Register("AskHuman", func(ctx *Context) (Value, error) {
		answer, err := ctx.HumanInput(map[string]Value{"prompt": "?"}, "p1")
		if err != nil {
			return nil, err
		}
		return answer, nil
	})

	nodes, err := ParseNodes([]Value{"AskHuman"}, scope)
	if err != nil {
		t.Fatalf("ParseNodes: %v", err)
	}
	inst := NewInstance(InstanceConfig{Nodes: nodes, Scope: scope, Hub: h})

	runDone := make(chan []Step, 1)
	runErr := make(chan error, 1)
	go func() {
		steps, err := inst.Run(context.Background())
		if err != nil {
			runErr <- err
			return
		}
		runDone <- steps
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !h.IsPaused("p1") && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !h.IsPaused("p1") {
		t.Fatalf("pause p1 was never requested")
	}
	if pausedSeen.PauseID != "p1" {
		t.Fatalf("flowPaused payload = %+v, want PauseID p1", pausedSeen)
	}

	if !h.Resume("p1", map[string]Value{"answer": 42.0}) {
		t.Fatalf("Resume(p1) = false")
	}

	select {
	case err := <-runErr:
		t.Fatalf("Run failed: %v", err)
	case steps := <-runDone:
		if len(steps) != 1 {
			t.Fatalf("len(steps) = %d, want 1", len(steps))
		}
		result := steps[0].Output.Results[0].(map[string]Value)
		if result["answer"] != 42.0 {
			t.Fatalf("node's awaited value = %v, want {answer: 42}", result)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run never completed after Resume")
	}

	if resumedSeen.PauseID != "p1" {
		t.Fatalf("flowResumed payload = %+v, want PauseID p1", resumedSeen)
	}
	if got := resumedSeen.ResumeData.(map[string]Value)["answer"]; got != 42.0 {
		t.Fatalf("flowResumed.ResumeData = %v, want {answer: 42}", resumedSeen.ResumeData)
	}
}

// TestSelfForResolvedCallPreservesCapabilityRecord covers spec.md §4.8: a
// resolved CallableId's self is the capability record itself, including any
// description/metadata the host attached via RegisterCapability.
func TestSelfForResolvedCallPreservesCapabilityRecord(t *testing.T) {
	scope := NewScope()
	scope.RegisterCapability("gmail:sendEmail", Capability{
		ID:          "gmail:sendEmail",
		Name:        "sendEmail",
		Description: "sends an email via Gmail",
		Impl:        passCap,
		Meta:        map[string]Value{"outputs": []Value{"ok", "failed"}},
	})

	self := selfFor(Node{Kind: KindCall, CallID: "gmail:sendEmail"}, 0, scope, nil)
	m, ok := self.(map[string]Value)
	if !ok {
		t.Fatalf("self = %v, want a map", self)
	}
	if m["id"] != "gmail:sendEmail" || m["name"] != "sendEmail" {
		t.Fatalf("self = %+v, want the registered id/name preserved", m)
	}
	if m["description"] != "sends an email via Gmail" {
		t.Fatalf("self.description = %v, want the registered description", m["description"])
	}
	outputs, ok := AsSlice(m["outputs"])
	if !ok || len(outputs) != 2 {
		t.Fatalf("self.outputs = %v, want the registered Meta merged in flat", m["outputs"])
	}
}

// TestSelfForUnresolvedCallCarriesSource covers spec.md §4.8: an unresolved
// CallableId gets a synthetic self naming the node's source alongside the
// _unresolvedIdentifier flag.
func TestSelfForUnresolvedCallCarriesSource(t *testing.T) {
	self := selfFor(Node{Kind: KindCall, CallID: "Missing", Raw: "Missing"}, 0, NewScope(), nil)
	m := self.(map[string]Value)
	if m["id"] != "Missing" || m["_unresolvedIdentifier"] != true {
		t.Fatalf("self = %+v, want id=Missing and _unresolvedIdentifier=true", m)
	}
	if m["source"] != "Missing" {
		t.Fatalf("self.source = %v, want the raw node definition", m["source"])
	}
}

// TestSelfForInlineCarriesSource covers spec.md §4.8's InlineFn self shape.
func TestSelfForInlineCarriesSource(t *testing.T) {
	raw := InlineFunc(passCap)
	self := selfFor(Node{Kind: KindInline, Raw: raw}, 3, nil, nil)
	m := self.(map[string]Value)
	if m["_isWorkflowProvidedFunction"] != true {
		t.Fatalf("self = %+v, want _isWorkflowProvidedFunction=true", m)
	}
	if m["name"] != "Workflow-Defined Function @ 3" {
		t.Fatalf("self.name = %v, want the indexed synthetic name", m["name"])
	}
	src, ok := m["source"].(InlineFunc)
	if !ok || src == nil {
		t.Fatalf("self.source = %v, want the raw InlineFunc", m["source"])
	}
}

// TestSelfForParamCallMergesRecordWithParams covers spec.md §4.8: a
// ParamCall's self is the capability record merged with parametersProvided.
func TestSelfForParamCallMergesRecordWithParams(t *testing.T) {
	scope := NewScope()
	scope.RegisterCapability("search", Capability{ID: "search", Name: "search", Impl: passCap})

	params := map[string]Value{"q": "go"}
	self := selfFor(Node{Kind: KindParamCall, CallID: "search", Params: params}, 0, scope, params)
	m := self.(map[string]Value)
	if m["id"] != "search" || m["_isParameterizedCall"] != true {
		t.Fatalf("self = %+v, want id=search and _isParameterizedCall=true", m)
	}
	if !Equal(m["parametersProvided"], params) {
		t.Fatalf("self.parametersProvided = %v, want %v", m["parametersProvided"], params)
	}
}

func TestEmitAndOnWithinSameInstance(t *testing.T) {
	h := hub.New()
	scope := NewScope()
	received := make(chan Value, 1)

	scope.Register("Listener", func(ctx *Context) (Value, error) {
		ctx.On("ping", func(data Value, meta map[string]Value) {
			received <- data
		})
		return "pass", nil
	})
	scope.Register("Emitter", func(ctx *Context) (Value, error) {
		ctx.Emit("ping", "hello")
		return "pass", nil
	})

	nodes, err := ParseNodes([]Value{"Listener", "Emitter"}, scope)
	if err != nil {
		t.Fatalf("ParseNodes: %v", err)
	}
	inst := NewInstance(InstanceConfig{Nodes: nodes, Scope: scope, Hub: h})

	if _, err := inst.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case data := <-received:
		if data != "hello" {
			t.Fatalf("listener received %v, want hello", data)
		}
	case <-time.After(time.Second):
		t.Fatalf("On callback never fired for a same-run Emit")
	}
}

func TestListenersClearedOnNextRun(t *testing.T) {
	h := hub.New()
	scope := NewScope()
	fireCount := 0

	scope.Register("Listener", func(ctx *Context) (Value, error) {
		ctx.On("ping", func(Value, map[string]Value) { fireCount++ })
		return "pass", nil
	})
	scope.Register("Emitter", func(ctx *Context) (Value, error) {
		ctx.Emit("ping", nil)
		return "pass", nil
	})

	nodes, err := ParseNodes([]Value{"Listener", "Emitter"}, scope)
	if err != nil {
		t.Fatalf("ParseNodes: %v", err)
	}
	inst := NewInstance(InstanceConfig{Nodes: nodes, Scope: scope, Hub: h})

	if _, err := inst.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := inst.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// Each Run registers one listener on node "Listener" then fires it once
	// from "Emitter"; since registrations are cleared at the start of every
	// Run, two runs must total exactly 2 fires, not 1+2=3.
	if fireCount != 2 {
		t.Fatalf("fireCount = %d, want 2 (listeners must be deregistered between runs)", fireCount)
	}
}
