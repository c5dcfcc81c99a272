package emit

import "context"

// Emitter receives observability events produced while a Flow Instance
// runs. Implementations should be non-blocking and thread-safe: Emit may be
// called concurrently by multiple Flow Instances sharing a Hub.
type Emitter interface {
	// Emit sends a single event to the configured backend. Implementations
	// must not panic; internal failures should be logged, not propagated.
	Emit(event Event)

	// EmitBatch sends multiple events as one operation, preserving order.
	// Returns an error only on catastrophic failure (e.g. misconfiguration);
	// per-event delivery failures should be logged and swallowed.
	EmitBatch(ctx context.Context, events []Event) error

	// Flush blocks until any buffered events have been delivered, or ctx is
	// done. Safe to call multiple times.
	Flush(ctx context.Context) error
}
