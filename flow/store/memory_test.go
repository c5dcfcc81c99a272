package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemStoreSaveAndLoadPreservesOrder(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := m.SaveStep(ctx, Record{FlowInstanceID: "f1", StepIndex: i}); err != nil {
			t.Fatalf("SaveStep: %v", err)
		}
	}
	_ = m.SaveStep(ctx, Record{FlowInstanceID: "f2", StepIndex: 0})

	recs, err := m.LoadSteps(ctx, "f1")
	if err != nil {
		t.Fatalf("LoadSteps: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	for i, r := range recs {
		if r.StepIndex != i {
			t.Fatalf("recs[%d].StepIndex = %d, want %d", i, r.StepIndex, i)
		}
	}
}

func TestMemStoreLoadStepsMissReturnsErrNotFound(t *testing.T) {
	m := NewMemStore()
	_, err := m.LoadSteps(context.Background(), "never-seen")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSteps(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMemStoreClose(t *testing.T) {
	m := NewMemStore()
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
