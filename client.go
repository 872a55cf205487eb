// Package httpclient provides a resilient HTTP client with uniform request
// semantics: base-URL resolution, header merging, automatic retry of
// transport failures with a fixed delay, optional connection reuse, and
// response normalization into a Result envelope. It integrates with
// jp-go-errors for standardized error handling and supports an optional
// circuit breaker around every attempt.
//
// Every request method returns a Result rather than an error: transport
// failures, HTTP error statuses, and decode problems all terminate in a
// failure envelope. Only the context-aware AsyncClient reports an error, and
// only to propagate cancellation.
package httpclient

import (
	"context"
	"net/http"
)

// Client is the blocking request executor. Methods block the calling
// goroutine until the call completes, including retry delays.
//
// Example:
//
//	client, err := httpclient.New(
//	    httpclient.WithBaseURL("https://api.example.com"),
//	    httpclient.WithRetry(2, 500*time.Millisecond),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	result := client.Get("/users", httpclient.WithQueryParam("page", "1"))
//	if !result.Success {
//	    return errors.New(result.Error)
//	}
type Client struct {
	core *core
}

// New creates a blocking client from the given options. It rejects invalid
// configuration (negative retry count, non-positive timeout).
func New(opts ...Option) (*Client, error) {
	core, err := newCore(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{core: core}, nil
}

// Get issues a GET request.
func (c *Client) Get(path string, opts ...RequestOption) Result {
	return c.do(http.MethodGet, path, opts)
}

// Post issues a POST request. Provide a body with WithJSON, WithForm or WithBody.
func (c *Client) Post(path string, opts ...RequestOption) Result {
	return c.do(http.MethodPost, path, opts)
}

// Put issues a PUT request. Provide a body with WithJSON, WithForm or WithBody.
func (c *Client) Put(path string, opts ...RequestOption) Result {
	return c.do(http.MethodPut, path, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(path string, opts ...RequestOption) Result {
	return c.do(http.MethodDelete, path, opts)
}

// Do issues a request with an arbitrary method. All the method helpers
// delegate to it.
func (c *Client) Do(method, path string, opts ...RequestOption) Result {
	return c.do(method, path, opts)
}

func (c *Client) do(method, path string, opts []RequestOption) Result {
	// execute only returns an error for a canceled context, which a
	// background context never is.
	result, _ := c.core.execute(context.Background(), method, path, opts)
	return result
}

// Close releases the session's connection resources. It is idempotent and
// safe to call when no session was ever created. A request issued after
// Close transparently opens a new session.
func (c *Client) Close() {
	c.core.session.close()
}

// Stats returns a snapshot of the client's request statistics.
// This method is thread-safe.
func (c *Client) Stats() RequestStats {
	return c.core.stats.snapshot()
}

// BreakerState returns the circuit breaker state. Without a configured
// breaker it reports StateClosed.
func (c *Client) BreakerState() BreakerState {
	return c.core.breakerState()
}

// Health returns the health of the client's circuit breaker. Without a
// configured breaker the client is always reported healthy.
func (c *Client) Health() HealthStatus {
	return c.core.health()
}
