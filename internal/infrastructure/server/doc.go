// Package server assembles the instrumented kernel host.
//
// NewServer loads the logger, metrics and tracer provider, opens the
// optional database, Redis and gRPC connections, registers the kernel
// routes and attaches the instrumentation to the hook registry. The
// resulting handler serves Prometheus metrics on /metrics and everything
// else through the kernel.
package server
