package instrumentation

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// HTTPClientHooks trace outbound requests made through a client's dynamic
// entry point. Expected arguments are [method string, target string, ...];
// trailing arguments are request options and are ignored.
type HTTPClientHooks struct {
	inst *Instrumentation
}

type statusCoder interface {
	StatusCode() int
}

func (h HTTPClientHooks) Pre(ctx context.Context, call *hook.Call) (context.Context, error) {
	if err := arity(call, 2, -1); err != nil {
		return ctx, err
	}
	method, err := stringArg(call, 0, "method")
	if err != nil {
		return ctx, err
	}
	target, err := stringArg(call, 1, "target")
	if err != nil {
		return ctx, err
	}

	attrs := append(codeAttributes(call),
		HTTPRequestMethod.String(method),
		URLFull.String(target),
	)
	return h.inst.start(ctx, familyHTTPClient, strings.ToUpper(method), trace.SpanKindClient, attrs...), nil
}

func (h HTTPClientHooks) Post(ctx context.Context, _ *hook.Call, ret any, err error) {
	var attrs []attribute.KeyValue
	if code, ok := statusCode(ret); ok {
		attrs = append(attrs, HTTPResponseStatusCode.Int(code))
	}
	h.inst.finish(ctx, familyHTTPClient, attrs, err)
}

func statusCode(ret any) (int, bool) {
	switch resp := ret.(type) {
	case *http.Response:
		if resp != nil {
			return resp.StatusCode, true
		}
	case statusCoder:
		if v := reflect.ValueOf(resp); v.Kind() == reflect.Pointer && v.IsNil() {
			return 0, false
		}
		if code := resp.StatusCode(); code > 0 {
			return code, true
		}
	}
	return 0, false
}
