package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service" toml:"service"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Tracing  TracingConfig  `yaml:"tracing" toml:"tracing"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	RPC      RPCConfig      `yaml:"rpc" toml:"rpc"`
	Upstream UpstreamConfig `yaml:"upstream" toml:"upstream"`
	Logging  LogConfig      `yaml:"logging" toml:"logging"`
}

// ServiceConfig identifies the traced service.
type ServiceConfig struct {
	Name    string `envconfig:"SERVICE_NAME" default:"kernel-host" yaml:"name" toml:"name"`
	Version string `envconfig:"SERVICE_VERSION" default:"dev" yaml:"version" toml:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000" yaml:"port" toml:"port"`
	Host string `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
}

// UpstreamConfig configures the outbound client behind the /proxy route.
// The route is only registered when URL is set.
type UpstreamConfig struct {
	URL       string        `envconfig:"UPSTREAM_URL" yaml:"url" toml:"url"`
	Timeout   time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"30s" yaml:"timeout" toml:"timeout"`
	RateLimit float64       `envconfig:"UPSTREAM_RPS" yaml:"rateLimit" toml:"rate_limit"`
	Token     string        `envconfig:"UPSTREAM_TOKEN" yaml:"token" toml:"token"`
	UserAgent string        `envconfig:"UPSTREAM_USER_AGENT" yaml:"userAgent" toml:"user_agent"`
}

// TracingConfig holds tracer provider and instrumentation settings.
type TracingConfig struct {
	Exporter                 string   `envconfig:"OTEL_TRACES_EXPORTER" default:"log" yaml:"exporter" toml:"exporter"`
	Endpoint                 string   `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317" yaml:"endpoint" toml:"endpoint"`
	DisabledInstrumentations []string `envconfig:"OTEL_GO_DISABLED_INSTRUMENTATIONS" yaml:"disabledInstrumentations" toml:"disabled_instrumentations"`
	SpanBuffer               int      `envconfig:"TRACE_SPAN_BUFFER" default:"1000" yaml:"spanBuffer" toml:"span_buffer"`
}

// DatabaseConfig holds the host database connection.
type DatabaseConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"mysql" yaml:"driver" toml:"driver"`
	DSN    string `envconfig:"DB_DSN" yaml:"dsn" toml:"dsn"`
	System string `envconfig:"DB_SYSTEM" default:"mariadb" yaml:"system" toml:"system"`
}

// RedisConfig holds the host cache connection.
type RedisConfig struct {
	Address string `envconfig:"REDIS_ADDR" yaml:"address" toml:"address"`
}

// RPCConfig holds the upstream gRPC service the host calls.
type RPCConfig struct {
	Target string `envconfig:"GRPC_TARGET" yaml:"target" toml:"target"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// IsInstrumentationDisabled reports whether name is listed as disabled.
// The entry "all" disables every instrumentation.
func (t TracingConfig) IsInstrumentationDisabled(name string) bool {
	for _, disabled := range t.DisabledInstrumentations {
		disabled = strings.TrimSpace(disabled)
		if strings.EqualFold(disabled, name) || strings.EqualFold(disabled, "all") {
			return true
		}
	}
	return false
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile loads the environment and overlays the YAML or TOML file at path.
// Values present in the file take precedence.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:    "kernel-host",
			Version: "dev",
		},
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Tracing: TracingConfig{
			Exporter:   "log",
			Endpoint:   "localhost:4317",
			SpanBuffer: 1000,
		},
		Database: DatabaseConfig{
			Driver: "mysql",
			System: "mariadb",
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
