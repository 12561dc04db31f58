/*
Package hook provides the interception capability used by the automatic
instrumentation.

# Overview

A Registry maps a (class, method) pair to a pre-hook and a post-hook.
Instrumented call sites route their work through Invoke (or the generic Do),
which runs the pre-hook before the call and the post-hook after it, on every
exit path: normal return, returned error, panic and runtime.Goexit.

Call sites stay transparent. The wrapped call's return value and error are
handed back unchanged, panics are re-raised after the post-hook has observed
them, and failures inside the hooks themselves are reported to the registry's
error handler instead of reaching the host.

# Usage

	reg := hook.NewRegistry(hook.WithErrorHandler(onHookError))
	_ = reg.Hook("database.Connection", "Query", pre, post)

	rows, err := hook.Do(ctx, reg, "database.Connection", "Query", conn,
		[]any{query, args},
		func(ctx context.Context) (*sql.Rows, error) {
			return db.QueryContext(ctx, query, args...)
		})

A nil *Registry is valid at call sites: Invoke and Do simply run the call.
*/
package hook
