// Package propagation adapts framework requests and outbound headers to
// OpenTelemetry trace-context propagation.
//
// RequestGetter exposes a *kernel.Request through a fixed key set
// (content-length, host, method, path, scheme) resolved against the
// request's server bag; other keys such as traceparent map to HTTP_* header
// fields. Any other carrier shape yields an *UnsupportedCarrierTypeError.
// HeaderSetter and Inject cover the outbound direction over http.Header.
package propagation
