package instrumentation

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/status"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// GRPCHooks trace unary client calls. Expected arguments are
// [fullMethod string, request any].
type GRPCHooks struct {
	inst *Instrumentation
}

func (h GRPCHooks) Pre(ctx context.Context, call *hook.Call) (context.Context, error) {
	if err := arity(call, 2, 2); err != nil {
		return ctx, err
	}
	fullMethod, err := stringArg(call, 0, "fullMethod")
	if err != nil {
		return ctx, err
	}

	name := strings.TrimPrefix(fullMethod, "/")
	service, method, _ := strings.Cut(name, "/")

	attrs := append(codeAttributes(call),
		RPCSystem.String("grpc"),
		RPCService.String(service),
		RPCMethod.String(method),
	)
	return h.inst.start(ctx, familyGRPC, name, trace.SpanKindClient, attrs...), nil
}

// Post records the status code on failed calls too.
func (h GRPCHooks) Post(ctx context.Context, _ *hook.Call, _ any, err error) {
	trace.SpanFromContext(ctx).SetAttributes(RPCGRPCStatusCode.Int(int(status.Code(err))))
	h.inst.finish(ctx, familyGRPC, nil, err)
}
