package kernel

import (
	"net/http"
	"strconv"
	"strings"
)

// ServerBag holds CGI-style server and environment metadata for a request.
type ServerBag map[string]any

// Get returns the value stored under key.
func (b ServerBag) Get(key string) (any, bool) {
	v, ok := b[key]
	return v, ok
}

// Has reports whether key is present.
func (b ServerBag) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// Request is an inbound request together with its server bag.
type Request struct {
	*http.Request
	Server ServerBag
}

// NewRequest wraps r and fills the server bag from it.
func NewRequest(r *http.Request) *Request {
	return &Request{Request: r, Server: serverBag(r)}
}

// Scheme returns the request scheme. A present HTTPS flag decides between
// "https" and "http"; otherwise HTTP_SCHEME is used. ok is false when the
// bag carries neither.
func (r *Request) Scheme() (scheme string, ok bool) {
	if v, ok := r.Server.Get("HTTPS"); ok && v != nil {
		if isOn(v) {
			return "https", true
		}
		return "http", true
	}
	if v, ok := r.Server.Get("HTTP_SCHEME"); ok {
		if s, ok := v.(string); ok && s != "" {
			return strings.ToLower(s), true
		}
	}
	return "", false
}

func serverBag(r *http.Request) ServerBag {
	bag := ServerBag{
		"REQUEST_METHOD":  r.Method,
		"SERVER_PROTOCOL": r.Proto,
	}

	uri := r.RequestURI
	if r.URL != nil {
		uri = r.URL.RequestURI()
	}
	bag["REQUEST_URI"] = uri

	for name, values := range r.Header {
		bag[HeaderField(name)] = strings.Join(values, ",")
	}

	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	if host != "" {
		bag["HTTP_HOST"] = host
	}
	if r.ContentLength > 0 {
		bag["HTTP_CONTENT_LENGTH"] = r.ContentLength
	}
	if r.TLS != nil || r.URL != nil && r.URL.Scheme == "https" {
		bag["HTTPS"] = "on"
	}

	return bag
}

// HeaderField returns the server bag field for a header name,
// e.g. "Content-Length" becomes "HTTP_CONTENT_LENGTH".
func HeaderField(name string) string {
	return "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func isOn(v any) bool {
	switch flag := v.(type) {
	case bool:
		return flag
	case int:
		return flag == 1
	case int64:
		return flag == 1
	case string:
		on, err := strconv.ParseBool(flag)
		return (err == nil && on) || strings.EqualFold(flag, "on")
	}
	return false
}
