package instrumentation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/database"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/config"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/monitoring"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/kernel"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestWithNestedQuery(t *testing.T) {
	reg := hook.NewRegistry()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	conn := database.New(db, reg)
	t.Cleanup(func() { _ = conn.Close() })

	k := kernel.New(reg)
	k.Route("user.list", http.MethodGet, "/users", func(c *gin.Context) {
		rows, err := conn.Query(c.Request.Context(), "SELECT name FROM users WHERE active = ?", true)
		if err != nil {
			_ = c.Error(err)
			c.Status(http.StatusInternalServerError)
			return
		}
		_ = rows.Close()
		c.String(http.StatusOK, "ok")
	})

	metrics := monitoring.NewMetrics()
	inst, recorder := newTestInstrumentation(t, WithRouteProvider(k), WithMetrics(metrics))
	require.NoError(t, Register(reg, inst, config.TracingConfig{}))

	mock.ExpectQuery("SELECT name FROM users WHERE active = ?").
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ada"))

	rec := httptest.NewRecorder()
	k.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://example.com/users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	query, request := ended[0], ended[1]

	assert.Equal(t, "database.Connection.Query", query.Name())
	assert.Contains(t, query.Attributes(), DBStatement.String("SELECT name FROM users WHERE active = ?"))
	assert.Contains(t, query.Attributes(), DBVariables.StringSlice([]string{"true"}))
	assert.Contains(t, query.Attributes(), CodeFunction.String("Query"))
	v, ok := attr(query, CodeFilepath)
	require.True(t, ok)
	assert.Contains(t, v.AsString(), "connection.go")

	assert.Equal(t, "HTTP GET user.list", request.Name())
	assert.Equal(t, trace.SpanKindServer, request.SpanKind())
	assert.Contains(t, request.Attributes(), HTTPURL.String("http://example.com/users"))
	assert.Contains(t, request.Attributes(), HTTPRoute.String("user.list"))
	assert.Contains(t, request.Attributes(), HTTPResponseStatusCode.Int(200))
	assert.Contains(t, request.Attributes(), HTTPResponseContentLength.Int(2))

	assert.Equal(t, request.SpanContext().SpanID(), query.Parent().SpanID())
	assert.Equal(t, request.SpanContext().TraceID(), query.SpanContext().TraceID())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SpansStarted.WithLabelValues("kernel", "server")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SpansFinished.WithLabelValues("database", "ok")))
}

func TestRequestErrorPropagates(t *testing.T) {
	reg := hook.NewRegistry()
	boom := errors.New("Test exception")

	k := kernel.New(reg)
	k.Route("fail", http.MethodPost, "/fail", func(c *gin.Context) {
		_ = c.Error(boom)
		c.Status(http.StatusInternalServerError)
	})

	inst, recorder := newTestInstrumentation(t, WithRouteProvider(k))
	require.NoError(t, Register(reg, inst, config.TracingConfig{}))

	resp, err := k.Handle(context.Background(), kernel.NewRequest(httptest.NewRequest(http.MethodPost, "https://example.com/fail", nil)))
	assert.Same(t, boom, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	span := assertEnded(t, recorder)
	assert.Equal(t, "HTTPS POST /fail", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Test exception", span.Status().Description)
	_, ok := attr(span, HTTPRoute)
	assert.False(t, ok)
}

func TestPanicFinishesSpan(t *testing.T) {
	reg := hook.NewRegistry()
	k := kernel.New(reg)
	k.Route("panic", http.MethodGet, "/panic", func(*gin.Context) {
		panic("handler exploded")
	})

	inst, recorder := newTestInstrumentation(t)
	require.NoError(t, Register(reg, inst, config.TracingConfig{}))

	assert.PanicsWithValue(t, "handler exploded", func() {
		_, _ = k.Handle(context.Background(), kernel.NewRequest(httptest.NewRequest(http.MethodGet, "/panic", nil)))
	})

	span := assertEnded(t, recorder)
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "handler exploded", span.Status().Description)
}

func TestSiblingSpansShareParent(t *testing.T) {
	reg := hook.NewRegistry()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := database.New(db, reg)
	t.Cleanup(func() { _ = conn.Close() })

	inst, recorder := newTestInstrumentation(t)
	require.NoError(t, Register(reg, inst, config.TracingConfig{}))

	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE").WillReturnError(errors.New("deadlock"))

	ctx, root := inst.tracer.Start(context.Background(), "root")
	_, err = conn.Exec(ctx, "INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "UPDATE t SET a = 2")
	assert.EqualError(t, err, "deadlock")
	root.End()

	ended := recorder.Ended()
	require.Len(t, ended, 3)
	for _, span := range ended[:2] {
		assert.Equal(t, "database.Connection.Exec", span.Name())
		assert.Equal(t, root.SpanContext().SpanID(), span.Parent().SpanID())
	}
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}
