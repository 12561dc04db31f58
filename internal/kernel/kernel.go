package kernel

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// Interception target for request dispatch.
const (
	Class        = "kernel.Kernel"
	MethodHandle = "Handle"
)

// Response is the buffered outcome of a dispatched request.
type Response struct {
	StatusCode int
	Header     http.Header
	Content    []byte
}

// ContentLength returns the Content-Length header when it parses, otherwise
// the body length.
func (r *Response) ContentLength() int {
	if r == nil {
		return 0
	}
	if v := r.Header.Get("Content-Length"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return len(r.Content)
}

// Kernel dispatches requests through a gin engine. Dispatch goes through the
// hook registry so it can be intercepted.
type Kernel struct {
	engine *gin.Engine
	hooks  *hook.Registry

	mu     sync.RWMutex
	routes []Route
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithMiddleware installs gin middleware ahead of every route.
func WithMiddleware(handlers ...gin.HandlerFunc) Option {
	return func(k *Kernel) {
		k.engine.Use(handlers...)
	}
}

// New creates a kernel. A nil registry dispatches without interception.
func New(hooks *hook.Registry, opts ...Option) *Kernel {
	engine := gin.New()
	k := &Kernel{engine: engine, hooks: hooks}

	engine.Use(collectErrors)
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Route registers a named route.
func (k *Kernel) Route(name, method, path string, handlers ...gin.HandlerFunc) {
	k.engine.Handle(method, path, handlers...)

	k.mu.Lock()
	defer k.mu.Unlock()
	k.routes = append(k.routes, Route{Name: name, Method: method, Path: path})
}

// Routes returns the named route table.
func (k *Kernel) Routes() []Route {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]Route, len(k.routes))
	copy(out, k.routes)
	return out
}

// RouteCollectionForRequest implements RouteProvider.
func (k *Kernel) RouteCollectionForRequest(*Request) ([]Route, error) {
	return k.Routes(), nil
}

// Handle dispatches req and returns the buffered response. An error attached
// by a handler with c.Error is returned alongside the response.
func (k *Kernel) Handle(ctx context.Context, req *Request) (*Response, error) {
	return hook.Do(ctx, k.hooks, Class, MethodHandle, k, []any{req}, func(ctx context.Context) (*Response, error) {
		return k.dispatch(ctx, req)
	})
}

// ServeHTTP adapts the kernel to net/http.
func (k *Kernel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Handler errors are already reflected in the written response.
	resp, _ := k.Handle(r.Context(), NewRequest(r))
	if resp == nil {
		status := http.StatusInternalServerError
		http.Error(w, http.StatusText(status), status)
		return
	}

	for name, values := range resp.Header {
		w.Header()[name] = values
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Content)
}

type stateKey struct{}

type dispatchState struct {
	err error
}

func (k *Kernel) dispatch(ctx context.Context, req *Request) (*Response, error) {
	state := &dispatchState{}
	r := req.Request.WithContext(context.WithValue(ctx, stateKey{}, state))

	w := newBufferedWriter()
	k.engine.ServeHTTP(w, r)

	return &Response{
		StatusCode: w.status,
		Header:     w.header,
		Content:    w.body.Bytes(),
	}, state.err
}

func collectErrors(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}
	if state, ok := c.Request.Context().Value(stateKey{}).(*dispatchState); ok {
		state.err = c.Errors.Last().Err
	}
}

type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header), status: http.StatusOK}
}

func (w *bufferedWriter) Header() http.Header {
	return w.header
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *bufferedWriter) WriteHeader(status int) {
	w.status = status
}
