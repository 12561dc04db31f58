package instrumentation

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/tracing"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/kernel"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/propagation"
)

// KernelHooks trace request dispatch. Expected arguments are
// [*kernel.Request]. The span is renamed after the matched route once
// dispatch completes.
type KernelHooks struct {
	inst *Instrumentation
}

type requestInfo struct {
	scheme string
	method string
	uri    string
	path   string
}

func (h KernelHooks) Pre(ctx context.Context, call *hook.Call) (context.Context, error) {
	req, err := requestArg(call)
	if err != nil {
		return ctx, err
	}

	ctx, err = propagation.Extract(ctx, h.inst.propagator, req)
	if err != nil {
		return ctx, err
	}

	info := describe(req)
	attrs := append(codeAttributes(call),
		HTTPURL.String(info.scheme+"://"+get(req, "host")+info.uri),
		HTTPRequestMethod.String(info.method),
		HTTPScheme.String(info.scheme),
	)
	if n, err := strconv.ParseInt(get(req, "content-length"), 10, 64); err == nil {
		attrs = append(attrs, HTTPRequestContentLength.Int64(n))
	}

	name := strings.ToUpper(info.scheme) + " " + info.method + " " + info.path
	return h.inst.start(ctx, familyKernel, name, trace.SpanKindServer, attrs...), nil
}

func (h KernelHooks) Post(ctx context.Context, call *hook.Call, ret any, err error) {
	if err != nil {
		h.inst.finish(ctx, familyKernel, nil, err)
		return
	}

	var attrs []attribute.KeyValue
	if resp, ok := ret.(*kernel.Response); ok && resp != nil {
		attrs = append(attrs,
			HTTPResponseContentLength.Int(resp.ContentLength()),
			HTTPResponseStatusCode.Int(resp.StatusCode),
		)
	}

	if req, rerr := requestArg(call); rerr == nil {
		if route, ok := h.matchRoute(req); ok {
			info := describe(req)
			if scope := tracing.ScopeFromContext(ctx); scope != nil {
				scope.Span().SetName(strings.ToUpper(info.scheme) + " " + info.method + " " + route)
			}
			attrs = append(attrs, HTTPRoute.String(route))
		}
	}

	h.inst.finish(ctx, familyKernel, attrs, nil)
}

func (h KernelHooks) matchRoute(req *kernel.Request) (string, bool) {
	if h.inst.routes == nil {
		return "", false
	}
	routes, err := h.inst.routes.RouteCollectionForRequest(req)
	if err != nil {
		h.inst.logger.Debug("route lookup failed", zap.Error(err))
		return "", false
	}

	path := describe(req).path
	for _, r := range routes {
		if r.Path == path {
			return r.Name, true
		}
	}
	return "", false
}

func requestArg(call *hook.Call) (*kernel.Request, error) {
	if err := arity(call, 1, 1); err != nil {
		return nil, err
	}
	req, ok := call.Args[0].(*kernel.Request)
	if !ok || req == nil {
		return nil, argumentError(call, "argument 0 (request) must be a non-nil *kernel.Request, got %T", call.Args[0])
	}
	return req, nil
}

// describe reads the server's own method and URI fields. Client supplied
// HTTP_METHOD and HTTP_PATH headers never name the span.
func describe(req *kernel.Request) requestInfo {
	info := requestInfo{
		method: serverField(req, "REQUEST_METHOD"),
		uri:    serverField(req, "REQUEST_URI"),
	}
	info.scheme, _ = req.Scheme()
	if info.scheme == "" {
		info.scheme = "http"
	}
	info.path = info.uri
	if i := strings.IndexByte(info.path, '?'); i >= 0 {
		info.path = info.path[:i]
	}
	return info
}

func serverField(req *kernel.Request, name string) string {
	v, _ := req.Server.Get(name)
	s, _ := v.(string)
	return s
}

func get(req *kernel.Request, key string) string {
	v, _, _ := propagation.RequestGetter{}.Get(req, key)
	return v
}
