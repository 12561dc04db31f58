package tracing

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNoScope       = errors.New("no active scope in context")
	ErrScopeDetached = errors.New("scope already detached")
	ErrScopeOrder    = errors.New("scope detached before its children")
)

// Scope is the release token for a span activated by Start.
type Scope struct {
	span     trace.Span
	parent   *Scope
	prev     context.Context
	start    time.Time
	children atomic.Int32
	detached atomic.Bool
}

type scopeKey struct{}

// Start creates a span as a child of the span current in ctx (a root span
// when there is none) and activates it in the returned context.
func Start(ctx context.Context, tracer trace.Tracer, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) (context.Context, *Scope) {
	start := time.Now()
	spanCtx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(start),
	)

	scope := &Scope{
		span:   span,
		parent: ScopeFromContext(ctx),
		prev:   ctx,
		start:  start,
	}
	if scope.parent != nil {
		scope.parent.children.Add(1)
	}

	return context.WithValue(spanCtx, scopeKey{}, scope), scope
}

// ScopeFromContext returns the scope activated in ctx, or nil.
func ScopeFromContext(ctx context.Context) *Scope {
	scope, _ := ctx.Value(scopeKey{}).(*Scope)
	return scope
}

// Span returns the span owned by the scope.
func (s *Scope) Span() trace.Span {
	return s.span
}

// StartTime returns the span's start timestamp.
func (s *Scope) StartTime() time.Time {
	return s.start
}

// Detached reports whether the scope has been released.
func (s *Scope) Detached() bool {
	return s.detached.Load()
}

// Detach releases the scope and returns the context that was current
// before it was activated. Only the first call releases.
func (s *Scope) Detach() (context.Context, error) {
	if !s.detached.CompareAndSwap(false, true) {
		return s.prev, ErrScopeDetached
	}
	if s.parent != nil {
		s.parent.children.Add(-1)
	}
	if s.children.Load() > 0 {
		return s.prev, ErrScopeOrder
	}
	return s.prev, nil
}

// Finish completes the scope's span. A non-nil err marks the span as failed
// with err's message; otherwise attrs are applied. The span is ended and the
// scope detached.
func (s *Scope) Finish(attrs []attribute.KeyValue, err error) error {
	if s.detached.Load() {
		return ErrScopeDetached
	}

	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else if len(attrs) > 0 {
		s.span.SetAttributes(attrs...)
	}

	end := time.Now()
	if !end.After(s.start) {
		end = s.start.Add(time.Nanosecond)
	}
	s.span.End(trace.WithTimestamp(end))

	_, derr := s.Detach()
	return derr
}

// Finish completes the scope activated in ctx.
func Finish(ctx context.Context, attrs []attribute.KeyValue, err error) error {
	scope := ScopeFromContext(ctx)
	if scope == nil {
		return ErrNoScope
	}
	return scope.Finish(attrs, err)
}
