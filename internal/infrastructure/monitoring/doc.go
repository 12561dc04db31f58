/*
Package monitoring provides Prometheus metrics for the instrumentation layer.

# Overview

The instrumentation reports on itself: how many spans each interceptor
started and finished, how long the wrapped calls took, how often a hook
failed, whether registration succeeded and how many spans the log exporter
handled or dropped. Middleware adds per-route request counts for the host
kernel.

A nil *Metrics is valid and records nothing, so every component can take
metrics as an optional dependency.

# Usage

	metrics := monitoring.NewMetrics()
	inst := instrumentation.New(tp, instrumentation.WithMetrics(metrics))

	mux.Handle("/metrics", metrics.Handler())
*/
package monitoring
