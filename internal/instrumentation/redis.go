package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// RedisHooks trace cache commands. Expected arguments are
// [name string, args []any].
type RedisHooks struct {
	inst *Instrumentation
}

func (h RedisHooks) Pre(ctx context.Context, call *hook.Call) (context.Context, error) {
	if err := arity(call, 2, 2); err != nil {
		return ctx, err
	}
	name, err := stringArg(call, 0, "name")
	if err != nil {
		return ctx, err
	}
	args, ok := call.Args[1].([]any)
	if !ok {
		return ctx, argumentError(call, "argument 1 (args) must be []any, got %T", call.Args[1])
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}

	attrs := append(codeAttributes(call),
		DBSystem.String("redis"),
		DBStatement.String(strings.Join(parts, " ")),
	)
	return h.inst.start(ctx, familyRedis, strings.ToUpper(name), trace.SpanKindClient, attrs...), nil
}

func (h RedisHooks) Post(ctx context.Context, _ *hook.Call, _ any, err error) {
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	h.inst.finish(ctx, familyRedis, nil, err)
}
