// Package main is the entry point for the instrumented kernel host.
//
// The host dispatches HTTP requests through an interceptable kernel and
// reports each request, database query, outbound HTTP call, Redis command
// and gRPC call as an OpenTelemetry span.
//
// Configuration:
//   - Environment variables (12-factor)
//   - An optional YAML or TOML file (-config), overlaid on the environment
//   - CLI flags (override both)
//
// Usage:
//
//	# Spans logged as JSON
//	./server -port 8000
//
//	# Export over OTLP/gRPC
//	OTEL_TRACES_EXPORTER=otlp OTEL_EXPORTER_OTLP_ENDPOINT=collector:4317 ./server
//
//	# Disable the instrumentation
//	OTEL_GO_DISABLED_INSTRUMENTATIONS=kernel ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, flushing pending spans
package main
