/*
Package kernel is a small request-dispatch framework built on gin.

Requests are wrapped in a Request carrying a CGI-style ServerBag and
dispatched by Kernel.Handle into a buffered Response. Handle is routed
through a hook.Registry under kernel.Kernel::Handle, so tracing can wrap
every dispatch without the framework knowing about it.

	k := kernel.New(registry)
	k.Route("user.view", http.MethodGet, "/users/:id", viewUser)
	http.ListenAndServe(":8000", k)

Routes are registered with a name. The kernel implements RouteProvider,
which instrumentation uses to name request spans after dispatch.
*/
package kernel
