package observe

import (
	"context"
	"errors"
	"testing"
	"time"
)

type captureExporter struct {
	batches [][]Entry
	err     error
}

func (e *captureExporter) Export(ctx context.Context, batch []Entry) error {
	_ = ctx
	e.batches = append(e.batches, batch)
	return e.err
}

func TestTracer_FlushExportsBufferedSpans(t *testing.T) {
	exp := &captureExporter{}
	tr := NewTracer(exp, NewBreaker(3, time.Minute), nil)
	defer tr.Close()

	span := tr.StartSpan("session")
	span.Log("in", "out", nil)
	span.End()

	child := tr.StartChildSpan(span.TraceID, span.SpanID, "turn")
	child.End()

	tr.Flush(context.Background())

	if len(exp.batches) != 1 || len(exp.batches[0]) != 2 {
		t.Fatalf("batches = %v", exp.batches)
	}
	got := exp.batches[0][1]
	if got.TraceID != span.TraceID || got.ParentSpanID != span.SpanID {
		t.Fatalf("child correlation ids wrong: %+v", got)
	}
}

func TestTracer_BreakerDisablesExport(t *testing.T) {
	exp := &captureExporter{err: errors.New("ingest down")}
	tr := NewTracer(exp, NewBreaker(2, time.Minute), nil)
	defer tr.Close()

	for i := 0; i < 3; i++ {
		tr.StartSpan("s").End()
		tr.Flush(context.Background())
	}

	// Two failing flushes trip the breaker; the third enqueue is dropped.
	if len(exp.batches) != 2 {
		t.Fatalf("expected 2 export attempts, got %d", len(exp.batches))
	}

	tr.StartSpan("s").End()
	tr.Flush(context.Background())
	if len(exp.batches) != 2 {
		t.Fatal("export must stay disabled after the breaker trips")
	}
}

func TestTracer_NewTraceIDsAreUnique(t *testing.T) {
	tr := NewTracer(nil, nil, nil)
	a1, b1 := tr.NewTraceIDs()
	a2, b2 := tr.NewTraceIDs()
	if a1 == "" || b1 == "" || a1 == a2 || b1 == b2 {
		t.Fatalf("ids not unique: %s/%s vs %s/%s", a1, b1, a2, b2)
	}
}
