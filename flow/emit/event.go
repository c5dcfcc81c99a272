// Package emit provides an observability sink for FlowCore execution,
// distinct from the Flow Hub's pause/resume and listener-fan-out contract
// (flow/hub): an Emitter is a one-way, best-effort telemetry destination a
// host wires in for logging/tracing/metrics, not a coordination point other
// Instances depend on.
package emit

// Event represents one observability event emitted during flow execution.
type Event struct {
	// FlowInstanceID identifies the Flow Instance that produced this event.
	FlowInstanceID string

	// StepIndex is the 0-based node position this event relates to. Zero
	// for instance-level events that precede any step.
	StepIndex int

	// NodeID is a human-readable identifier for the node, when known
	// (CallableId for KindCall/KindParamCall, "" otherwise).
	NodeID string

	// Name is the kind of event: "flowManagerStep", "flowManagerNodeEvent",
	// "flowPaused", "flowResumed", "resumeFailed", or a host-defined name.
	Name string

	// Meta carries event-specific structured data (step output, pause
	// details, custom event payload, ...).
	Meta map[string]interface{}
}
