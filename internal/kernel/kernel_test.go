package kernel

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "http://example.com/node/1?x=y", strings.NewReader("hello"))
	r.Header.Set("Traceparent", "00-abc-def-01")
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	req := NewRequest(r)

	assert.Equal(t, "/node/1?x=y", req.Server["REQUEST_URI"])
	assert.Equal(t, http.MethodPost, req.Server["REQUEST_METHOD"])
	assert.Equal(t, "example.com", req.Server["HTTP_HOST"])
	assert.Equal(t, int64(5), req.Server["HTTP_CONTENT_LENGTH"])
	assert.Equal(t, "00-abc-def-01", req.Server["HTTP_TRACEPARENT"])
	assert.Equal(t, "10.0.0.1", req.Server["HTTP_X_FORWARDED_FOR"])
	assert.Equal(t, "HTTP/1.1", req.Server["SERVER_PROTOCOL"])
	assert.False(t, req.Server.Has("HTTPS"))
	_, ok := req.Scheme()
	assert.False(t, ok)
}

func TestRequestScheme(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.TLS = &tls.ConnectionState{}
	scheme, ok := NewRequest(r).Scheme()
	assert.True(t, ok)
	assert.Equal(t, "https", scheme)

	tests := []struct {
		name   string
		bag    ServerBag
		want   string
		wantOK bool
	}{
		{name: "on", bag: ServerBag{"HTTPS": "on"}, want: "https", wantOK: true},
		{name: "one", bag: ServerBag{"HTTPS": "1"}, want: "https", wantOK: true},
		{name: "true", bag: ServerBag{"HTTPS": "TRUE"}, want: "https", wantOK: true},
		{name: "bool", bag: ServerBag{"HTTPS": true}, want: "https", wantOK: true},
		{name: "off", bag: ServerBag{"HTTPS": "off"}, want: "http", wantOK: true},
		{name: "flag wins over scheme field", bag: ServerBag{"HTTPS": "off", "HTTP_SCHEME": "https"}, want: "http", wantOK: true},
		{name: "scheme field", bag: ServerBag{"HTTP_SCHEME": "HTTPS"}, want: "https", wantOK: true},
		{name: "empty", bag: ServerBag{}, want: "", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Server: tt.bag}
			scheme, ok := req.Scheme()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, scheme)
		})
	}
}

func TestHeaderField(t *testing.T) {
	assert.Equal(t, "HTTP_CONTENT_LENGTH", HeaderField("Content-Length"))
	assert.Equal(t, "HTTP_TRACEPARENT", HeaderField("traceparent"))
}

func TestKernelHandle(t *testing.T) {
	k := New(nil)
	k.Route("node.view", http.MethodGet, "/node/:id", func(c *gin.Context) {
		c.String(http.StatusOK, "node "+c.Param("id"))
	})

	resp, err := k.Handle(context.Background(), NewRequest(httptest.NewRequest(http.MethodGet, "/node/7", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "node 7", string(resp.Content))
	assert.Equal(t, 6, resp.ContentLength())
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	resp, err = k.Handle(context.Background(), NewRequest(httptest.NewRequest(http.MethodGet, "/missing", nil)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestKernelHandleError(t *testing.T) {
	boom := errors.New("Test exception")
	k := New(nil)
	k.Route("fail", http.MethodGet, "/fail", func(c *gin.Context) {
		_ = c.Error(boom)
		c.String(http.StatusInternalServerError, "failed")
	})

	resp, err := k.Handle(context.Background(), NewRequest(httptest.NewRequest(http.MethodGet, "/fail", nil)))
	assert.Same(t, boom, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestKernelHandleIsHooked(t *testing.T) {
	reg := hook.NewRegistry()
	var seen *hook.Call
	var ret any
	require.NoError(t, reg.Hook(Class, MethodHandle,
		func(ctx context.Context, call *hook.Call) (context.Context, error) {
			seen = call
			return ctx, nil
		},
		func(_ context.Context, _ *hook.Call, r any, _ error) {
			ret = r
		},
	))

	k := New(reg)
	k.Route("home", http.MethodGet, "/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := NewRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	resp, err := k.Handle(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Same(t, k, seen.Receiver)
	assert.Equal(t, []any{req}, seen.Args)
	assert.Equal(t, Class, seen.Class)
	assert.Equal(t, MethodHandle, seen.Function)
	assert.True(t, strings.HasSuffix(seen.File, "kernel.go"))
	assert.Same(t, resp, ret)
}

func TestKernelContextReachesHandlers(t *testing.T) {
	type key struct{}
	k := New(nil)
	k.Route("ctx", http.MethodGet, "/ctx", func(c *gin.Context) {
		v, _ := c.Request.Context().Value(key{}).(string)
		c.String(http.StatusOK, v)
	})

	ctx := context.WithValue(context.Background(), key{}, "ambient")
	resp, err := k.Handle(ctx, NewRequest(httptest.NewRequest(http.MethodGet, "/ctx", nil)))
	require.NoError(t, err)
	assert.Equal(t, "ambient", string(resp.Content))
}

func TestKernelServeHTTP(t *testing.T) {
	k := New(nil, WithMiddleware(func(c *gin.Context) {
		c.Header("X-Kernel", "1")
		c.Next()
	}))
	k.Route("echo", http.MethodPost, "/echo", func(c *gin.Context) {
		body, _ := c.GetRawData()
		c.Data(http.StatusCreated, "text/plain", body)
	})

	rec := httptest.NewRecorder()
	k.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("payload")))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "payload", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Kernel"))
}

func TestKernelRoutes(t *testing.T) {
	k := New(nil)
	k.Route("a", http.MethodGet, "/a")
	k.Route("b", http.MethodPost, "/b")

	routes, err := k.RouteCollectionForRequest(nil)
	require.NoError(t, err)
	assert.Equal(t, []Route{
		{Name: "a", Method: http.MethodGet, Path: "/a"},
		{Name: "b", Method: http.MethodPost, Path: "/b"},
	}, routes)
}

func TestResponseContentLength(t *testing.T) {
	var nilResp *Response
	assert.Equal(t, 0, nilResp.ContentLength())

	resp := &Response{Header: http.Header{"Content-Length": {"42"}}, Content: []byte("abc")}
	assert.Equal(t, 42, resp.ContentLength())

	resp.Header.Set("Content-Length", "bogus")
	assert.Equal(t, 3, resp.ContentLength())
}
