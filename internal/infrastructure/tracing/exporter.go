package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// SpanCounter receives exporter throughput.
type SpanCounter interface {
	SpanExported()
	SpanDropped()
}

// LogExporter writes finished spans to a zap logger from a background
// collector. Spans submitted while the buffer is full are dropped.
type LogExporter struct {
	logger  *zap.Logger
	spans   chan sdktrace.ReadOnlySpan
	counter SpanCounter

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewLogExporter creates a log exporter with room for buffer pending spans.
func NewLogExporter(logger *zap.Logger, buffer int, counter SpanCounter) *LogExporter {
	if buffer <= 0 {
		buffer = 1000
	}
	e := &LogExporter{
		logger:  logger,
		spans:   make(chan sdktrace.ReadOnlySpan, buffer),
		counter: counter,
		done:    make(chan struct{}),
	}

	go e.collectSpans()

	return e
}

// ExportSpans submits spans to the collector. Queued spans are always
// logged, so a cancelled context is not reported as a failed export.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil
	}
	for _, span := range spans {
		e.submit(span)
	}
	return nil
}

// Shutdown drains the buffer and stops the collector.
func (e *LogExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.spans)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *LogExporter) submit(span sdktrace.ReadOnlySpan) {
	select {
	case e.spans <- span:
	default:
		e.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.String("span_id", span.SpanContext().SpanID().String()),
		)
		if e.counter != nil {
			e.counter.SpanDropped()
		}
	}
}

func (e *LogExporter) collectSpans() {
	defer close(e.done)
	for span := range e.spans {
		e.processSpan(span)
	}
}

func (e *LogExporter) processSpan(span sdktrace.ReadOnlySpan) {
	sc := span.SpanContext()
	fields := []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
		zap.String("operation", span.Name()),
		zap.String("kind", span.SpanKind().String()),
		zap.Duration("duration", span.EndTime().Sub(span.StartTime())),
	}

	if parent := span.Parent(); parent.IsValid() {
		fields = append(fields, zap.String("parent_id", parent.SpanID().String()))
	}
	for _, kv := range span.Attributes() {
		fields = append(fields, zap.String(string(kv.Key), kv.Value.Emit()))
	}

	if status := span.Status(); status.Code == codes.Error {
		fields = append(fields, zap.String("error", status.Description))
		e.logger.Error("span completed with error", fields...)
	} else {
		e.logger.Info("span completed", fields...)
	}

	if e.counter != nil {
		e.counter.SpanExported()
	}
}
