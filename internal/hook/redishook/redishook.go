// Package redishook routes go-redis commands through a hook registry under
// redis.Client::Process with arguments [name string, args []any].
package redishook

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// Interception target for command processing.
const (
	Class         = "redis.Client"
	MethodProcess = "Process"
)

// Hook is a redis.Hook backed by a hook registry.
type Hook struct {
	hooks *hook.Registry
}

var _ redis.Hook = (*Hook)(nil)

// New creates a hook for reg.
func New(reg *hook.Registry) *Hook {
	return &Hook{hooks: reg}
}

// Instrument adds the hook to a client.
func Instrument(client redis.UniversalClient, reg *hook.Registry) {
	client.AddHook(New(reg))
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		_, err := h.hooks.Invoke(ctx, Class, MethodProcess, cmd, []any{cmd.Name(), cmd.Args()}, func(ctx context.Context) (any, error) {
			return cmd, next(ctx, cmd)
		})
		return err
	}
}

// Pipelines are not intercepted.
func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
