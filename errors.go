package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
	"github.com/sony/gobreaker/v2"
)

// ErrNoBaseURL is reported when a relative path is requested on a client
// that was constructed without a base URL.
var ErrNoBaseURL = errors.New("relative path requires a configured base URL")

// HTTPError is implemented by errors that carry an HTTP status code.
// Errors of this kind represent a completed HTTP exchange, not a transport
// failure, and are therefore never retried.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError represents an HTTP exchange that completed with a status code
// outside [200,300). It carries a snippet of the response body so the failure
// envelope's message can be derived from the status and body.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
	}
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// StatusCode implements the HTTPError interface.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// ErrorClassifier determines whether a failed attempt should trigger a retry.
// Implement this interface to customize retry behavior for your own error types.
type ErrorClassifier interface {
	// IsRetryable returns true if the error represents a transient
	// transport-level failure that should be retried.
	IsRetryable(err error) bool
}

// CircuitBreakerErrorClassifier determines whether a failure should trip the
// circuit breaker when one is configured.
type CircuitBreakerErrorClassifier interface {
	// ShouldTripCircuit returns true if the error represents a failure serious
	// enough to open the circuit and reject requests temporarily.
	ShouldTripCircuit(err error) bool
}

// TransportClassifier is the default classifier. Transport-level failures
// (connection errors, DNS failures, per-attempt timeouts) are retryable.
// Completed HTTP exchanges, context cancellation, and circuit breaker
// rejections are not.
type TransportClassifier struct {
	// TripStatuses lists HTTP status codes that trip the circuit breaker.
	// Defaults to 500, 502, 503, 504 if nil.
	TripStatuses []int
}

// NewTransportClassifier creates a TransportClassifier with the default
// circuit-trip status codes.
func NewTransportClassifier() *TransportClassifier {
	return &TransportClassifier{
		TripStatuses: []int{500, 502, 503, 504},
	}
}

// IsRetryable implements ErrorClassifier.
func (c *TransportClassifier) IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Per-attempt timeouts are wrapped as timeout errors before the parent
	// context is consulted, so this check must come first.
	if pkgerrors.IsTimeout(err) {
		return true
	}

	// A canceled or expired parent context makes further attempts pointless.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// An open circuit rejects requests without reaching the transport;
	// retrying inside the same call would only burn the delay budget.
	if errors.Is(err, pkgerrors.ErrCircuitOpen) || errors.Is(err, pkgerrors.ErrCircuitHalfOpen) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}

	// A completed exchange with an error status is an HTTP-level failure,
	// mapped to a failure envelope rather than retried.
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return false
	}

	// Everything else is a transport failure: connection refused, DNS errors,
	// resets, unexpected EOF.
	return true
}

// ShouldTripCircuit implements CircuitBreakerErrorClassifier.
// Transport failures and server-error statuses count against the circuit;
// timeouts and cancellations are transient and do not.
func (c *TransportClassifier) ShouldTripCircuit(err error) bool {
	if err == nil {
		return false
	}

	if pkgerrors.IsTimeout(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return containsStatus(c.tripStatuses(), httpErr.StatusCode())
	}

	return true
}

func (c *TransportClassifier) tripStatuses() []int {
	if c.TripStatuses != nil {
		return c.TripStatuses
	}
	return []int{500, 502, 503, 504}
}

func containsStatus(statuses []int, status int) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
