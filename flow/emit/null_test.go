package emit

import (
	"context"
	"testing"
)

func TestNullEmitterDiscardsEverything(t *testing.T) {
	n := NewNullEmitter()
	n.Emit(Event{Name: "flowManagerStep"})
	if err := n.EmitBatch(context.Background(), []Event{{Name: "x"}, {Name: "y"}}); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if err := n.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
