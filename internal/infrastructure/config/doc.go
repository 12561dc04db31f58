// Package config provides 12-factor configuration for the instrumented host.
//
// Configuration is loaded from environment variables with sensible defaults.
// An optional YAML or TOML file can be layered on top with LoadFile; values
// present in the file win over the environment.
//
// Configuration Sections:
//   - Service: service identity reported on every span
//   - Server: HTTP listen address of the host kernel
//   - Tracing: exporter selection and disabled instrumentations
//   - Database: host database driver, DSN and reported db.system
//   - Redis: optional cache address
//   - RPC: optional upstream gRPC target
//   - Upstream: optional HTTP upstream behind /proxy, with timeout, rate limit and token
//   - Logging: log level and output format
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if cfg.Tracing.IsInstrumentationDisabled(instrumentation.Name) {
//		return
//	}
//
// Environment Variables:
//   - SERVICE_NAME, SERVICE_VERSION, PORT, HOST
//   - OTEL_TRACES_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT
//   - OTEL_GO_DISABLED_INSTRUMENTATIONS, TRACE_SPAN_BUFFER
//   - DB_DRIVER, DB_DSN, DB_SYSTEM, REDIS_ADDR, GRPC_TARGET
//   - UPSTREAM_URL, UPSTREAM_TIMEOUT, UPSTREAM_RPS, UPSTREAM_TOKEN, UPSTREAM_USER_AGENT
//   - LOG_LEVEL, LOG_DEV
package config
