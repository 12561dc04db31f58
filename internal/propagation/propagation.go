package propagation

import (
	"context"
	"fmt"
	"net/http"

	otelprop "go.opentelemetry.io/otel/propagation"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/kernel"
)

// Extract reads remote trace context from a request carrier into ctx.
func Extract(ctx context.Context, prop otelprop.TextMapPropagator, carrier any) (context.Context, error) {
	req, err := asRequest(carrier)
	if err != nil {
		return ctx, err
	}
	return prop.Extract(ctx, requestCarrier{req: req}), nil
}

// HeaderSetter writes propagation fields into outbound http.Header carriers.
type HeaderSetter struct{}

// Set stores value under key. Only http.Header carriers are accepted.
func (HeaderSetter) Set(carrier any, key, value string) error {
	h, ok := carrier.(http.Header)
	if !ok || h == nil {
		return &UnsupportedCarrierTypeError{Type: fmt.Sprintf("%T", carrier)}
	}
	h.Set(key, value)
	return nil
}

// Inject writes the trace context of ctx into an outbound header carrier.
func Inject(ctx context.Context, prop otelprop.TextMapPropagator, carrier any) error {
	h, ok := carrier.(http.Header)
	if !ok || h == nil {
		return &UnsupportedCarrierTypeError{Type: fmt.Sprintf("%T", carrier)}
	}
	prop.Inject(ctx, headerCarrier{header: h})
	return nil
}

// requestCarrier adapts RequestGetter to the OpenTelemetry carrier interface.
type requestCarrier struct {
	getter RequestGetter
	req    *kernel.Request
}

func (c requestCarrier) Get(key string) string {
	v, _, _ := c.getter.Get(c.req, key)
	return v
}

func (requestCarrier) Set(string, string) {}

func (c requestCarrier) Keys() []string {
	keys, _ := c.getter.Keys(c.req)
	return keys
}

type headerCarrier struct {
	setter HeaderSetter
	header http.Header
}

func (c headerCarrier) Get(key string) string {
	return c.header.Get(key)
}

func (c headerCarrier) Set(key, value string) {
	_ = c.setter.Set(c.header, key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.header))
	for k := range c.header {
		keys = append(keys, k)
	}
	return keys
}
