/*
Package instrumentation turns intercepted calls into OpenTelemetry spans.

Each call-site family has a hooks type with a Pre and a Post method:

  - DatabaseHooks: database.Connection Query and Exec, CLIENT spans
  - KernelHooks: kernel.Kernel Handle, SERVER spans renamed by route
  - HTTPClientHooks: client.Client Execute, CLIENT spans
  - RedisHooks: redis.Client Process, CLIENT spans
  - GRPCHooks: grpc.ClientConn Invoke, CLIENT spans

Pre validates the positional arguments, starts a span under the span
current in the context and returns the context carrying it. Post finishes
the span: a non-nil error marks it failed with the error's message,
otherwise result attributes are applied. Host results and errors pass
through untouched.

Register wires every binding into a hook.Capability:

	reg := hook.NewRegistry(hook.WithErrorHandler(instrumentation.ErrorHandler(logger, metrics)))
	inst := instrumentation.New(tp, instrumentation.WithRouteProvider(k))
	if err := instrumentation.Register(reg, inst, cfg.Tracing); err != nil {
		logger.Error("instrumentation inactive", zap.Error(err))
	}
*/
package instrumentation
