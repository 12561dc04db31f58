package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/config"
)

// Logger wraps zap.Logger for the host and its instrumentation.
type Logger struct {
	*zap.Logger
}

// Config defines logger configuration. An empty OutputPaths writes to
// stdout.
type Config struct {
	Level       string
	Development bool
	OutputPaths []string
}

// FromConfig maps the application's logging section.
func FromConfig(cfg config.LogConfig) Config {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	return Config{
		Level:       level,
		Development: cfg.Development,
		OutputPaths: []string{"stdout"},
	}
}

// New builds a JSON logger, or a colored console logger in development.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zapConfig(cfg.Development)
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: logger}, nil
}

// Instrumentation returns the child logger used by the named instrumentation.
func (l *Logger) Instrumentation(name string) *zap.Logger {
	return l.Named("instrumentation").With(zap.String("instrumentation", name))
}

func zapConfig(development bool) zap.Config {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg
	}

	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stdout"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}
