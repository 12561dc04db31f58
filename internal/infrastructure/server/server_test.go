package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Tracing.Exporter = "none"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := NewServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServerRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"service":"kernel-host","version":"dev"}`, rec.Body.String())

	rec = get(t, s, "/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	names := make([]string, 0)
	for _, r := range s.Kernel().Routes() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"home", "health"}, names)
}

func TestServerMetrics(t *testing.T) {
	s := newTestServer(t, testConfig())

	require.Equal(t, http.StatusOK, get(t, s, "/health").Code)

	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `autotrace_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, `autotrace_spans_started_total{instrumentation="kernel",kind="server"} 1`)
	assert.Contains(t, body, `autotrace_hook_registrations_total{result="success"} 6`)
}

func TestServerDisabledInstrumentation(t *testing.T) {
	cfg := testConfig()
	cfg.Tracing.DisabledInstrumentations = []string{"kernel"}
	s := newTestServer(t, cfg)

	require.Equal(t, http.StatusOK, get(t, s, "/health").Code)
	assert.Empty(t, s.hooks.Keys())
	assert.NotContains(t, get(t, s, "/metrics").Body.String(), "autotrace_spans_started_total{")
}

func TestServerDatabaseRoute(t *testing.T) {
	db, mock, err := sqlmock.NewWithDSN("server_test_db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	cfg.Database.Driver = "sqlmock"
	cfg.Database.DSN = "server_test_db"
	s := newTestServer(t, cfg)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	rec := get(t, s, "/db")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":1}`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Contains(t, get(t, s, "/metrics").Body.String(),
		`autotrace_spans_started_total{instrumentation="database",kind="client"} 1`)
}

func TestServerDatabaseUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "no-such-driver"
	cfg.Database.DSN = "dsn"

	_, err := NewServer(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to connect to database")
}

func TestServerProxyRoute(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"traceparent":   r.Header.Get("Traceparent"),
			"authorization": r.Header.Get("Authorization"),
			"user-agent":    r.Header.Get("User-Agent"),
		})
	}))
	t.Cleanup(upstream.Close)

	cfg := testConfig()
	cfg.Upstream.URL = upstream.URL
	cfg.Upstream.Token = "secret"
	cfg.Upstream.UserAgent = "kernel-host/test"
	s := newTestServer(t, cfg)

	rec := get(t, s, "/proxy")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["traceparent"])
	assert.Equal(t, "Bearer secret", body["authorization"])
	assert.Equal(t, "kernel-host/test", body["user-agent"])
	assert.Contains(t, get(t, s, "/metrics").Body.String(),
		`autotrace_spans_started_total{instrumentation="http_client",kind="client"} 1`)
}

func TestServerRPCRoute(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cfg := testConfig()
	cfg.RPC.Target = lis.Addr().String()
	s := newTestServer(t, cfg)

	rec := get(t, s, "/rpc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"SERVING"}`, rec.Body.String())
	assert.Contains(t, get(t, s, "/metrics").Body.String(),
		`autotrace_spans_started_total{instrumentation="grpc",kind="client"} 1`)
}

func TestNewUpstreamClient(t *testing.T) {
	c := newUpstreamClient(nil, config.UpstreamConfig{Timeout: 2 * time.Second, RateLimit: 4})
	assert.Equal(t, 2*time.Second, c.Resty.GetClient().Timeout)
	assert.Equal(t, 4, c.Limiter.Burst())

	c = newUpstreamClient(nil, config.UpstreamConfig{})
	assert.Equal(t, 30*time.Second, c.Resty.GetClient().Timeout)
	assert.Equal(t, 0, c.Limiter.Burst())
}

func TestCloseWithoutRun(t *testing.T) {
	s, err := NewServer(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NoError(t, s.Close())
}
