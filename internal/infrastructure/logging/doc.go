// Package logging provides structured logging using uber/zap.
//
// Two output modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Instrumentation code never logs through the host's logger directly; it
// receives a named child from Logger.Instrumentation so hook failures and
// registration problems can be filtered by instrumentation name.
//
// Example Usage:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Logging))
//	logger.Info("Server starting", zap.String("port", cfg.Server.Port))
//	hooksLog := logger.Instrumentation(instrumentation.Name)
package logging
