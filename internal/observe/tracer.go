// Package observe ships per-turn trace records to an external observability
// service. Export is asynchronous and best-effort: batches are buffered and
// flushed in the background, and a failure-window breaker turns the whole
// integration off rather than let it degrade chat handling.
package observe

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rankscout/rankscout/internal/research"
)

// Entry is one exported span record.
type Entry struct {
	TraceID      string    `json:"trace_id"`
	SpanID       string    `json:"span_id"`
	ParentSpanID string    `json:"parent_span_id,omitempty"`
	Name         string    `json:"name"`
	Input        any       `json:"input,omitempty"`
	Output       any       `json:"output,omitempty"`
	Metadata     any       `json:"metadata,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// Exporter delivers a batch of entries to the backend (HTTP ingest or a
// queue consumed by the worker).
type Exporter interface {
	Export(ctx context.Context, batch []Entry) error
}

type Tracer struct {
	exporter Exporter
	breaker  *Breaker
	logger   *zap.Logger

	mu  sync.Mutex
	buf []Entry

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTracer starts the background flusher when an exporter is configured.
// A nil exporter yields a tracer that still allocates correlation ids but
// exports nothing.
func NewTracer(exporter Exporter, breaker *Breaker, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = NewBreaker(0, 0)
	}
	t := &Tracer{
		exporter: exporter,
		breaker:  breaker,
		logger:   logger,
		stop:     make(chan struct{}),
	}
	if exporter != nil {
		go t.flushLoop()
	}
	return t
}

// NewTraceIDs allocates a root trace/span id pair for a new session.
func (t *Tracer) NewTraceIDs() (string, string) {
	return uuid.NewString(), uuid.NewString()
}

// RecordTurn enqueues one turn as a child span of the session's root span.
// Satisfies research.Recorder.
func (t *Tracer) RecordTurn(traceID, parentSpanID, sessionID string, entry research.TurnEntry) {
	span := t.StartChildSpan(traceID, parentSpanID, "turn")
	span.Log(entry.UserText, entry, map[string]any{
		"session_id": sessionID,
		"kind":       entry.Kind,
		"model":      entry.Model,
	})
	span.End()
}

type Span struct {
	tracer *Tracer

	TraceID      string
	SpanID       string
	ParentSpanID string
	Name         string

	started  time.Time
	input    any
	output   any
	metadata any
}

// StartSpan opens a root span in a fresh trace.
func (t *Tracer) StartSpan(name string) *Span {
	traceID, spanID := t.NewTraceIDs()
	return &Span{tracer: t, TraceID: traceID, SpanID: spanID, Name: name, started: time.Now()}
}

// StartChildSpan opens a span under existing correlation ids.
func (t *Tracer) StartChildSpan(traceID, parentSpanID, name string) *Span {
	return &Span{
		tracer:       t,
		TraceID:      traceID,
		SpanID:       uuid.NewString(),
		ParentSpanID: parentSpanID,
		Name:         name,
		started:      time.Now(),
	}
}

func (s *Span) Log(input, output any, metadata any) {
	s.input = input
	s.output = output
	s.metadata = metadata
}

// End enqueues the span for export.
func (s *Span) End() {
	s.tracer.enqueue(Entry{
		TraceID:      s.TraceID,
		SpanID:       s.SpanID,
		ParentSpanID: s.ParentSpanID,
		Name:         s.Name,
		Input:        s.input,
		Output:       s.output,
		Metadata:     s.metadata,
		StartedAt:    s.started,
		EndedAt:      time.Now(),
	})
}

func (t *Tracer) enqueue(e Entry) {
	if t.exporter == nil || t.breaker.Disabled() {
		return
	}
	t.mu.Lock()
	t.buf = append(t.buf, e)
	t.mu.Unlock()
}

const flushInterval = 5 * time.Second

func (t *Tracer) flushLoop() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.Flush(context.Background())
		case <-t.stop:
			t.Flush(context.Background())
			return
		}
	}
}

// Flush exports the buffered batch. Failures count against the breaker;
// once it trips, buffered and future entries are dropped.
func (t *Tracer) Flush(ctx context.Context) {
	t.mu.Lock()
	batch := t.buf
	t.buf = nil
	t.mu.Unlock()

	if len(batch) == 0 || t.exporter == nil {
		return
	}
	if t.breaker.Disabled() {
		return
	}

	fctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := t.exporter.Export(fctx, batch); err != nil {
		if t.breaker.RecordFailure() {
			t.logger.Warn("trace export disabled for process lifetime", zap.Error(err))
		} else {
			t.logger.Warn("trace export failed", zap.Error(err))
		}
	}
}

// Close flushes outstanding entries and stops the background loop.
func (t *Tracer) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
}
