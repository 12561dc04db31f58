package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/database"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook/grpchook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook/redishook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/config"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/logging"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/monitoring"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/tracing"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/instrumentation"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/kernel"
	httpclient "github.com/mladenrtl/opentelemetry-auto-drupal/internal/providers/http/client"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and the instrumented host components
type Server struct {
	http     *http.Server
	router   *mux.Router
	kernel   *kernel.Kernel
	hooks    *hook.Registry
	provider *sdktrace.TracerProvider
	db       *database.Connection
	cache    *redis.Client
	rpc      *grpc.ClientConn
	client   *httpclient.Client
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing kernel host",
		zap.String("service", cfg.Service.Name),
		zap.String("port", cfg.Server.Port),
		zap.String("exporter", cfg.Tracing.Exporter),
	)

	metrics := monitoring.NewMetrics()

	provider, err := tracing.NewProvider(ctx, cfg, logger.Logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	hooks := hook.NewRegistry(hook.WithErrorHandler(
		instrumentation.ErrorHandler(logger.Named("hooks"), metrics),
	))

	s := &Server{
		hooks:    hooks,
		provider: provider,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		client:   newUpstreamClient(hooks, cfg.Upstream),
	}

	if err := s.connect(ctx); err != nil {
		_ = s.release()
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	s.kernel = kernel.New(hooks, kernel.WithMiddleware(
		gin.Recovery(),
		monitoring.Middleware(metrics),
	))
	s.routes()

	inst := instrumentation.New(provider,
		instrumentation.WithRouteProvider(s.kernel),
		instrumentation.WithMetrics(metrics),
		instrumentation.WithLogger(logger.Instrumentation(instrumentation.Name)),
		instrumentation.WithPropagator(tracing.Propagator()),
		instrumentation.WithDBSystem(cfg.Database.System),
	)
	if err := instrumentation.Register(hooks, inst, cfg.Tracing); err != nil {
		logger.Error("Instrumentation registration failed, serving untraced", zap.Error(err))
	}

	s.router = mux.NewRouter()
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name("metrics")
	s.router.PathPrefix("/").Handler(s.kernel)

	s.http = &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully", zap.Int("routes", len(s.kernel.Routes())))
	return s, nil
}

// connect opens the optional backing services named in the configuration
func (s *Server) connect(ctx context.Context) error {
	cfg := s.config

	if cfg.Database.DSN != "" {
		conn, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, s.hooks)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = conn
		s.logger.Info("Connected to database", zap.String("driver", cfg.Database.Driver))
	}

	if cfg.Redis.Address != "" {
		s.cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
		redishook.Instrument(s.cache, s.hooks)
		s.logger.Info("Redis client configured", zap.String("addr", cfg.Redis.Address))
	}

	if cfg.RPC.Target != "" {
		conn, err := grpc.NewClient(cfg.RPC.Target,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithUnaryInterceptor(grpchook.UnaryClientInterceptor(s.hooks, tracing.Propagator())),
		)
		if err != nil {
			return fmt.Errorf("failed to create gRPC client: %w", err)
		}
		s.rpc = conn
		s.logger.Info("gRPC client configured", zap.String("target", cfg.RPC.Target))
	}
	return nil
}

// newUpstreamClient builds the outbound client used by the /proxy route
func newUpstreamClient(hooks *hook.Registry, cfg config.UpstreamConfig) *httpclient.Client {
	c := httpclient.NewClient(httpclient.WithHooks(hooks))
	if cfg.Timeout > 0 {
		c.SetTimeout(cfg.Timeout)
	}
	c.SetRateLimit(cfg.RateLimit)
	if cfg.Token != "" {
		c.SetBearerAuth(cfg.Token)
	}
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	return c
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Kernel returns the request kernel
func (s *Server) Kernel() *kernel.Kernel {
	return s.kernel
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server and flushes pending spans
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to stop HTTP server: %w", err))
		}
	}
	errs = append(errs, s.release())

	if err := s.provider.Shutdown(ctx); err != nil {
		s.logger.Error("Failed to flush spans", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to shut down tracer provider: %w", err))
	}

	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// release closes the backing service connections
func (s *Server) release() error {
	var errs []error
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}
	if s.rpc != nil {
		if err := s.rpc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close gRPC client: %w", err))
		}
	}
	return errors.Join(errs...)
}

// routes registers the host routes on the kernel
func (s *Server) routes() {
	s.kernel.Route("home", http.MethodGet, "/", s.home)
	s.kernel.Route("health", http.MethodGet, "/health", s.health)

	if s.db != nil {
		s.kernel.Route("db.ping", http.MethodGet, "/db", s.dbPing)
	}
	if s.cache != nil {
		s.kernel.Route("cache.get", http.MethodGet, "/cache/:key", s.cacheGet)
	}
	if s.config.Upstream.URL != "" {
		s.kernel.Route("proxy", http.MethodGet, "/proxy", s.proxy)
	}
	if s.rpc != nil {
		s.kernel.Route("rpc.health", http.MethodGet, "/rpc", s.rpcHealth)
	}
}
