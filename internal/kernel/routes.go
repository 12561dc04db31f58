package kernel

// Route is a named route known to the framework.
type Route struct {
	Name   string
	Method string
	Path   string
}

// RouteProvider returns the routes that apply to a request.
type RouteProvider interface {
	RouteCollectionForRequest(req *Request) ([]Route, error)
}
