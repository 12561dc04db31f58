// Package grpchook routes unary gRPC client calls through a hook registry
// under grpc.ClientConn::Invoke with arguments [fullMethod string, request any].
package grpchook

import (
	"context"
	"net/http"
	"strings"

	otelprop "go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/propagation"
)

// Interception target for unary calls.
const (
	Class        = "grpc.ClientConn"
	MethodInvoke = "Invoke"
)

// UnaryClientInterceptor returns an interceptor that routes each call
// through reg and injects trace context into outgoing metadata.
func UnaryClientInterceptor(reg *hook.Registry, prop otelprop.TextMapPropagator) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		_, err := reg.Invoke(ctx, Class, MethodInvoke, cc, []any{method, req}, func(ctx context.Context) (any, error) {
			return reply, invoker(outgoing(ctx, prop), method, req, reply, cc, opts...)
		})
		return err
	}
}

func outgoing(ctx context.Context, prop otelprop.TextMapPropagator) context.Context {
	if prop == nil {
		return ctx
	}
	header := http.Header{}
	if err := propagation.Inject(ctx, prop, header); err != nil || len(header) == 0 {
		return ctx
	}

	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	for k, v := range header {
		md.Set(strings.ToLower(k), v...)
	}
	return metadata.NewOutgoingContext(ctx, md)
}
