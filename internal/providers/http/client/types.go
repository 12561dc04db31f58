package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	otelprop "go.opentelemetry.io/otel/propagation"
	"golang.org/x/time/rate"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/tracing"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/propagation"
)

// UserAgent is sent with every request unless overridden.
const UserAgent = "autotrace-http/1.0"

// Client wraps resty with rate limiting and trace-context injection.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Mu      sync.RWMutex

	hooks      *hook.Registry
	propagator otelprop.TextMapPropagator
}

// Option configures a Client.
type Option func(*Client)

// WithHooks routes Execute through reg.
func WithHooks(reg *hook.Registry) Option {
	return func(c *Client) {
		c.hooks = reg
	}
}

// WithPropagator sets the propagator used for outbound headers.
func WithPropagator(p otelprop.TextMapPropagator) Option {
	return func(c *Client) {
		c.propagator = p
	}
}

// NewClient creates an HTTP client on a pooled transport. Requests are
// never retried.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", UserAgent)
	restyClient.SetTransport(retryClient.HTTPClient.Transport)

	c := &Client{
		Resty:      restyClient,
		Limiter:    rate.NewLimiter(rate.Inf, 0),
		propagator: tracing.Propagator(),
	}
	for _, opt := range opts {
		opt(c)
	}

	restyClient.OnBeforeRequest(c.injectTraceContext)
	return c
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetTimeout configures request timeout
func (c *Client) SetTimeout(duration time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetTimeout(duration)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetAuthToken(token)
}

// Request creates a new request after waiting for the rate limiter.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

func (c *Client) injectTraceContext(_ *resty.Client, r *resty.Request) error {
	return propagation.Inject(r.Context(), c.propagator, r.Header)
}
