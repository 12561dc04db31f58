package client

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
)

// Interception target for outbound requests.
const (
	Class         = "client.Client"
	MethodExecute = "Execute"
)

// RequestOption customizes a single request.
type RequestOption func(*resty.Request)

// WithBody sets the request body.
func WithBody(body any) RequestOption {
	return func(r *resty.Request) {
		r.SetBody(body)
	}
}

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

// WithQuery sets a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetQueryParam(key, value)
	}
}

// Execute sends a request with the given method to target. The call is
// routed through the hook registry with arguments [method, target, opts...].
func (c *Client) Execute(ctx context.Context, method, target string, opts ...RequestOption) (*resty.Response, error) {
	args := make([]any, 0, 2+len(opts))
	args = append(args, method, target)
	for _, opt := range opts {
		args = append(args, opt)
	}

	return hook.Do(ctx, c.hooks, Class, MethodExecute, c, args, func(ctx context.Context) (*resty.Response, error) {
		req, err := c.Request(ctx)
		if err != nil {
			return nil, err
		}
		for _, opt := range opts {
			opt(req)
		}
		return req.Execute(method, target)
	})
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, target string, opts ...RequestOption) (*resty.Response, error) {
	return c.Execute(ctx, http.MethodGet, target, opts...)
}

// Post sends a POST request with body.
func (c *Client) Post(ctx context.Context, target string, body any, opts ...RequestOption) (*resty.Response, error) {
	return c.Execute(ctx, http.MethodPost, target, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Put sends a PUT request with body.
func (c *Client) Put(ctx context.Context, target string, body any, opts ...RequestOption) (*resty.Response, error) {
	return c.Execute(ctx, http.MethodPut, target, append([]RequestOption{WithBody(body)}, opts...)...)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, target string, opts ...RequestOption) (*resty.Response, error) {
	return c.Execute(ctx, http.MethodDelete, target, opts...)
}
