package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// DatabaseHooks trace statement execution. Expected arguments are
// [query string, params []any]. The statement is recorded verbatim.
type DatabaseHooks struct {
	inst *Instrumentation
}

func (h DatabaseHooks) Pre(ctx context.Context, call *hook.Call) (context.Context, error) {
	if err := arity(call, 2, 2); err != nil {
		return ctx, err
	}
	query, err := stringArg(call, 0, "query")
	if err != nil {
		return ctx, err
	}

	var params []any
	switch p := call.Args[1].(type) {
	case nil:
	case []any:
		params = p
	default:
		return ctx, argumentError(call, "argument 1 (params) must be []any, got %T", call.Args[1])
	}

	attrs := append(codeAttributes(call),
		DBSystem.String(h.inst.dbSystem),
		DBStatement.String(query),
		DBVariables.StringSlice(stringSlice(params)),
	)
	return h.inst.start(ctx, familyDatabase, call.Class+"."+call.Function, trace.SpanKindClient, attrs...), nil
}

func (h DatabaseHooks) Post(ctx context.Context, _ *hook.Call, _ any, err error) {
	h.inst.finish(ctx, familyDatabase, nil, err)
}
