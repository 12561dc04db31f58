/*
Package tracing provides the span lifecycle shared by every interceptor and
the OpenTelemetry SDK setup behind it.

# Span lifecycle

Start creates a span as a child of whatever span is current in the context
and activates it, returning the new context and a Scope. The scope is the
release token: Finish marks the span failed or applies result attributes,
ends it and detaches the scope. Detaching happens exactly once; a second
release reports ErrScopeDetached and releasing a scope whose children are
still attached reports ErrScopeOrder.

	ctx, scope := tracing.Start(ctx, tracer, "database.Connection.Query", trace.SpanKindClient,
		attribute.String("db.statement", query),
	)
	rows, err := db.QueryContext(ctx, query)
	_ = scope.Finish(nil, err)

The ambient span travels in context.Context rather than a process-wide
stack. Concurrent request chains never share a scope.

# Provider

NewProvider builds an SDK tracer provider from configuration. The default
"log" exporter writes finished spans through zap from a buffered background
collector; "stdout" and "otlp" use the upstream OpenTelemetry exporters and
"none" records without exporting.

	tp, err := tracing.NewProvider(ctx, cfg, logger.Logger, metrics)
	defer tp.Shutdown(ctx)
*/
package tracing
