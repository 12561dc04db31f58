package instrumentation

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelprop "go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/database"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook/grpchook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook/redishook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/monitoring"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/tracing"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/kernel"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/providers/http/client"
)

// Name identifies this instrumentation for the disabled-instrumentation check.
const Name = "kernel"

// ScopeName is the instrumentation scope of the tracer.
const ScopeName = "github.com/mladenrtl/opentelemetry-auto-drupal/internal/instrumentation"

// DefaultDBSystem is reported as db.system unless configured otherwise.
const DefaultDBSystem = "mariadb"

// Call-site families, used as metric labels.
const (
	familyDatabase   = "database"
	familyKernel     = "kernel"
	familyHTTPClient = "http_client"
	familyRedis      = "redis"
	familyGRPC       = "grpc"
)

// Instrumentation holds what every hook needs to build spans.
type Instrumentation struct {
	tracer     trace.Tracer
	propagator otelprop.TextMapPropagator
	routes     kernel.RouteProvider
	metrics    *monitoring.Metrics
	logger     *zap.Logger
	dbSystem   string
}

// Option configures an Instrumentation.
type Option func(*Instrumentation)

// WithRouteProvider sets the provider used to name request spans by route.
func WithRouteProvider(p kernel.RouteProvider) Option {
	return func(i *Instrumentation) {
		i.routes = p
	}
}

// WithMetrics records span and hook metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(i *Instrumentation) {
		i.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(i *Instrumentation) {
		i.logger = l
	}
}

// WithPropagator sets the propagator for inbound requests.
func WithPropagator(p otelprop.TextMapPropagator) Option {
	return func(i *Instrumentation) {
		i.propagator = p
	}
}

// WithDBSystem overrides the reported database system.
func WithDBSystem(system string) Option {
	return func(i *Instrumentation) {
		if system != "" {
			i.dbSystem = system
		}
	}
}

// New creates an instrumentation that traces through tp.
func New(tp trace.TracerProvider, opts ...Option) *Instrumentation {
	i := &Instrumentation{
		tracer:     tp.Tracer(ScopeName),
		propagator: tracing.Propagator(),
		logger:     zap.NewNop(),
		dbSystem:   DefaultDBSystem,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Bindings returns every interception target with its hooks.
func (i *Instrumentation) Bindings() []hook.Binding {
	db := DatabaseHooks{inst: i}
	k := KernelHooks{inst: i}
	hc := HTTPClientHooks{inst: i}
	rd := RedisHooks{inst: i}
	rpc := GRPCHooks{inst: i}

	return []hook.Binding{
		{Key: hook.Key{Class: kernel.Class, Method: kernel.MethodHandle}, Pre: k.Pre, Post: k.Post},
		{Key: hook.Key{Class: database.Class, Method: database.MethodQuery}, Pre: db.Pre, Post: db.Post},
		{Key: hook.Key{Class: database.Class, Method: database.MethodExec}, Pre: db.Pre, Post: db.Post},
		{Key: hook.Key{Class: client.Class, Method: client.MethodExecute}, Pre: hc.Pre, Post: hc.Post},
		{Key: hook.Key{Class: redishook.Class, Method: redishook.MethodProcess}, Pre: rd.Pre, Post: rd.Post},
		{Key: hook.Key{Class: grpchook.Class, Method: grpchook.MethodInvoke}, Pre: rpc.Pre, Post: rpc.Post},
	}
}

func (i *Instrumentation) start(ctx context.Context, family, name string, kind trace.SpanKind, attrs ...attribute.KeyValue) context.Context {
	ctx, _ = tracing.Start(ctx, i.tracer, name, kind, attrs...)
	i.metrics.RecordSpanStart(family, kind.String())
	return ctx
}

func (i *Instrumentation) finish(ctx context.Context, family string, attrs []attribute.KeyValue, err error) {
	scope := tracing.ScopeFromContext(ctx)
	if scope == nil {
		i.logger.Warn("no active span to finish", zap.String("instrumentation", family))
		return
	}

	if ferr := scope.Finish(attrs, err); ferr != nil {
		i.logger.Warn("span scope released out of order",
			zap.String("instrumentation", family),
			zap.Error(ferr),
		)
	}
	i.metrics.RecordSpanFinish(family, err != nil, time.Since(scope.StartTime()))
}
