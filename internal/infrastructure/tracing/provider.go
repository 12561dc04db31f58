package tracing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/config"
)

// Exporter names accepted by OTEL_TRACES_EXPORTER.
const (
	ExporterLog    = "log"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
	ExporterNone   = "none"
)

// NewProvider builds the SDK tracer provider described by cfg.
func NewProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger, counter SpanCounter) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(Resource(cfg.Service)),
	}

	switch exporter := strings.ToLower(cfg.Tracing.Exporter); exporter {
	case ExporterLog, "":
		exp := NewLogExporter(logger.Named("spans"), cfg.Tracing.SpanBuffer, counter)
		opts = append(opts, sdktrace.WithSyncer(exp))
	case ExporterStdout:
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case ExporterOTLP:
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Tracing.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create otlp exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	case ExporterNone:
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", exporter)
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

// Resource describes the traced service.
func Resource(svc config.ServiceConfig) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", svc.Name),
		attribute.String("service.version", svc.Version),
		attribute.String("service.instance.id", uuid.NewString()),
	)
}

// Propagator returns the W3C trace context and baggage propagator.
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}
