package emit

import (
	"context"
	"sync"
)

// BufferedEmitter stores events in memory, keyed by FlowInstanceID, for
// later inspection — development, tests, and dashboards that want to query
// execution history without a persistent backend.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewBufferedEmitter returns an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.FlowInstanceID] = append(b.events[event.FlowInstanceID], event)
}

func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		b.Emit(e)
	}
	return nil
}

func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// GetHistory returns a copy of every event recorded for flowInstanceID, in
// emission order.
func (b *BufferedEmitter) GetHistory(flowInstanceID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[flowInstanceID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Clear removes stored events for flowInstanceID, or every event if
// flowInstanceID is empty.
func (b *BufferedEmitter) Clear(flowInstanceID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if flowInstanceID == "" {
		b.events = make(map[string][]Event)
		return
	}
	delete(b.events, flowInstanceID)
}
