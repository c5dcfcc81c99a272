package emit

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestOTelEmitterEmitRecordsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{
		FlowInstanceID: "flow-1",
		StepIndex:      2,
		NodeID:         "A",
		Name:           "flowManagerStep",
		Meta:           map[string]interface{}{"edges": "pass"},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "flowManagerStep" {
		t.Errorf("span name = %q, want flowManagerStep", span.Name)
	}
	attrs := attributeMap(span.Attributes)
	if attrs["flow_instance_id"] != "flow-1" {
		t.Errorf("flow_instance_id = %v, want flow-1", attrs["flow_instance_id"])
	}
	if attrs["step_index"] != int64(2) {
		t.Errorf("step_index = %v, want 2", attrs["step_index"])
	}
	if !span.EndTime.After(span.StartTime) {
		t.Error("span was not ended")
	}
}

func TestOTelEmitterEmitWithErrorMetaSetsSpanStatus(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{
		Name: "flowManagerStep",
		Meta: map[string]interface{}{"error": "boom"},
	})

	span := exporter.GetSpans()[0]
	if span.Status.Code != codes.Error {
		t.Errorf("status code = %v, want Error", span.Status.Code)
	}
	if span.Status.Description != "boom" {
		t.Errorf("status description = %q, want boom", span.Status.Description)
	}
	if len(span.Events) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestOTelEmitterEmitBatchCreatesOneSpanPerEvent(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	emitter := NewOTelEmitter(tp.Tracer("test"))
	events := []Event{
		{Name: "flowManagerStep", StepIndex: 0},
		{Name: "flowManagerStep", StepIndex: 1},
		{Name: "flowManagerNodeEvent", StepIndex: 1},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("EmitBatch: %v", err)
	}
	if len(exporter.GetSpans()) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(exporter.GetSpans()))
	}
}

func TestOTelEmitterFlushForcesExport(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	emitter := NewOTelEmitter(tp.Tracer("test"))
	emitter.Emit(Event{Name: "flowManagerStep"})

	if err := emitter.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(exporter.GetSpans()) != 1 {
		t.Fatalf("expected 1 span after Flush, got %d", len(exporter.GetSpans()))
	}
}

func attributeMap(attrs []attribute.KeyValue) map[string]interface{} {
	m := make(map[string]interface{})
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
