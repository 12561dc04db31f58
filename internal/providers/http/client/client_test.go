package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Method", r.Method)
		w.Header().Set("X-Traceparent", r.Header.Get("traceparent"))
		w.Header().Set("X-User-Agent", r.Header.Get("User-Agent"))
		w.Header().Set("X-Query", r.URL.Query().Get("q"))
		w.Header().Set("X-Auth", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	c := NewClient()

	require.NotNil(t, c.Resty)
	require.NotNil(t, c.Limiter)
	assert.Equal(t, UserAgent, c.Resty.Header.Get("User-Agent"))
	assert.Equal(t, 30*time.Second, c.Resty.GetClient().Timeout)
	assert.Equal(t, 0, c.Resty.RetryCount)
}

func TestClientVerbs(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient()
	ctx := context.Background()

	resp, err := c.Get(ctx, srv.URL, WithQuery("q", "term"), WithHeader("X-Extra", "1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, http.MethodGet, resp.Header().Get("X-Method"))
	assert.Equal(t, "term", resp.Header().Get("X-Query"))
	assert.Equal(t, UserAgent, resp.Header().Get("X-User-Agent"))

	resp, err = c.Post(ctx, srv.URL, "payload")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, resp.Header().Get("X-Method"))
	assert.Equal(t, "payload", resp.String())

	resp, err = c.Put(ctx, srv.URL, "update")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, resp.Header().Get("X-Method"))

	resp, err = c.Delete(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, resp.Header().Get("X-Method"))
}

func TestClientInjectsTraceContext(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	resp, err := c.Get(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", resp.Header().Get("X-Traceparent"))

	resp, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Empty(t, resp.Header().Get("X-Traceparent"))
}

func TestClientSettings(t *testing.T) {
	srv := newEchoServer(t)
	c := NewClient()

	c.SetHeader("User-Agent", "custom/2.0")
	c.SetBearerAuth("secret")
	c.SetTimeout(5 * time.Second)
	c.SetRateLimit(100)

	assert.Equal(t, 5*time.Second, c.Resty.GetClient().Timeout)
	assert.Equal(t, 100, c.Limiter.Burst())

	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "custom/2.0", resp.Header().Get("X-User-Agent"))
	assert.Equal(t, "Bearer secret", resp.Header().Get("X-Auth"))

	c.SetRateLimit(0)
	assert.Equal(t, 0, c.Limiter.Burst())
}

func TestRequestHonoursCancelledContext(t *testing.T) {
	c := NewClient()
	c.SetRateLimit(0.5)
	_ = c.Limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Request(ctx)
	assert.ErrorContains(t, err, "rate limit error")
}

func TestExecuteIsHooked(t *testing.T) {
	srv := newEchoServer(t)
	reg := hook.NewRegistry()

	var call *hook.Call
	var ret any
	require.NoError(t, reg.Hook(Class, MethodExecute,
		func(ctx context.Context, c *hook.Call) (context.Context, error) {
			call = c
			return ctx, nil
		},
		func(_ context.Context, _ *hook.Call, r any, _ error) {
			ret = r
		},
	))

	c := NewClient(WithHooks(reg))
	opt := WithHeader("X-Extra", "1")
	resp, err := c.Execute(context.Background(), "get", srv.URL, opt)
	require.NoError(t, err)

	require.NotNil(t, call)
	assert.Same(t, c, call.Receiver)
	require.Len(t, call.Args, 3)
	assert.Equal(t, "get", call.Args[0])
	assert.Equal(t, srv.URL, call.Args[1])
	assert.IsType(t, RequestOption(nil), call.Args[2])
	assert.Contains(t, call.File, "execute.go")

	got, ok := ret.(*resty.Response)
	require.True(t, ok)
	assert.Same(t, resp, got)
}
