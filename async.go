package httpclient

import (
	"context"
	"net/http"
)

// AsyncClient is the context-aware request executor. It offers the same
// contract as Client with a different scheduling model: each call suspends
// the calling goroutine during network I/O and inter-retry delays, and
// honors cancellation of the given context at any suspension point.
//
// A canceled call stops retrying immediately and propagates ctx.Err() with a
// zero Result instead of returning a failure envelope. Every other outcome
// is reported through the envelope with a nil error.
//
// Calls issued concurrently from independent goroutines proceed
// independently, sharing the single underlying session.
type AsyncClient struct {
	core *core
}

// NewAsync creates a context-aware client from the given options. It rejects
// invalid configuration (negative retry count, non-positive timeout).
func NewAsync(opts ...Option) (*AsyncClient, error) {
	core, err := newCore(opts...)
	if err != nil {
		return nil, err
	}
	return &AsyncClient{core: core}, nil
}

// Get issues a GET request.
func (c *AsyncClient) Get(ctx context.Context, path string, opts ...RequestOption) (Result, error) {
	return c.core.execute(ctx, http.MethodGet, path, opts)
}

// Post issues a POST request. Provide a body with WithJSON, WithForm or WithBody.
func (c *AsyncClient) Post(ctx context.Context, path string, opts ...RequestOption) (Result, error) {
	return c.core.execute(ctx, http.MethodPost, path, opts)
}

// Put issues a PUT request. Provide a body with WithJSON, WithForm or WithBody.
func (c *AsyncClient) Put(ctx context.Context, path string, opts ...RequestOption) (Result, error) {
	return c.core.execute(ctx, http.MethodPut, path, opts)
}

// Delete issues a DELETE request.
func (c *AsyncClient) Delete(ctx context.Context, path string, opts ...RequestOption) (Result, error) {
	return c.core.execute(ctx, http.MethodDelete, path, opts)
}

// Do issues a request with an arbitrary method. All the method helpers
// delegate to it.
func (c *AsyncClient) Do(ctx context.Context, method, path string, opts ...RequestOption) (Result, error) {
	return c.core.execute(ctx, method, path, opts)
}

// Close releases the session's connection resources. It is idempotent and
// safe to call when no session was ever created. A request issued after
// Close transparently opens a new session.
func (c *AsyncClient) Close() {
	c.core.session.close()
}

// Stats returns a snapshot of the client's request statistics.
// This method is thread-safe.
func (c *AsyncClient) Stats() RequestStats {
	return c.core.stats.snapshot()
}

// BreakerState returns the circuit breaker state. Without a configured
// breaker it reports StateClosed.
func (c *AsyncClient) BreakerState() BreakerState {
	return c.core.breakerState()
}

// Health returns the health of the client's circuit breaker. Without a
// configured breaker the client is always reported healthy.
func (c *AsyncClient) Health() HealthStatus {
	return c.core.health()
}
