// Package client provides the outbound HTTP client.
//
// Built on go-resty/resty over the go-retryablehttp pooled transport:
//   - Connection pooling and keep-alive
//   - Context-based cancellation
//   - Rate limiting per client instance
//   - W3C trace context injected into every outbound request
//
// Every request goes through Execute, which is routed through the hook
// registry under client.Client::Execute with arguments
// [method, target, options...]. Get, Post, Put and Delete are thin helpers.
//
// Example Usage:
//
//	c := client.NewClient(client.WithHooks(registry))
//	resp, err := c.Get(ctx, "https://example.com/api")
package client
