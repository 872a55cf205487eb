package httpclient

import (
	"errors"
	"log/slog"
	"time"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
	"github.com/sony/gobreaker/v2"
)

// BreakerConfig holds circuit breaker configuration options.
type BreakerConfig struct {
	// ReadyToTrip is called with a copy of counts whenever an attempt fails in
	// the closed state. If it returns true the circuit opens.
	// Default: trips after 3 requests with 60% failure rate.
	ReadyToTrip func(counts BreakerCounts) bool

	// Classifier determines which failures count against the circuit.
	// Default: NewTransportClassifier()
	Classifier CircuitBreakerErrorClassifier

	// OnStateChange is called whenever the circuit changes state.
	OnStateChange func(from, to BreakerState)

	// Interval is the cyclic period of the closed state after which the
	// internal counts are cleared. If 0, counts never clear.
	// Default: 10 seconds
	Interval time.Duration

	// Timeout is the period of the open state, after which the circuit
	// becomes half-open.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRequests is the number of attempts allowed through while the
	// circuit is half-open.
	// Default: 3
	MaxRequests uint32
}

// BreakerOption is a functional option for configuring the circuit breaker.
type BreakerOption func(*BreakerConfig)

// BreakerCounts holds the internal counts of the circuit breaker.
type BreakerCounts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// BreakerState represents the state of the circuit breaker.
type BreakerState int

const (
	// StateClosed means the circuit is closed and attempts flow normally.
	StateClosed BreakerState = iota

	// StateHalfOpen means the circuit is testing if the service has recovered.
	StateHalfOpen

	// StateOpen means the circuit is open and attempts are rejected immediately.
	StateOpen
)

// String returns the string representation of the circuit breaker state.
func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// WithMaxRequests sets the number of attempts allowed through in half-open state.
func WithMaxRequests(maxRequests uint32) BreakerOption {
	return func(c *BreakerConfig) {
		c.MaxRequests = maxRequests
	}
}

// WithBreakerInterval sets the interval for clearing counts in closed state.
func WithBreakerInterval(interval time.Duration) BreakerOption {
	return func(c *BreakerConfig) {
		c.Interval = interval
	}
}

// WithBreakerTimeout sets how long the circuit stays open before probing.
func WithBreakerTimeout(timeout time.Duration) BreakerOption {
	return func(c *BreakerConfig) {
		c.Timeout = timeout
	}
}

// WithReadyToTrip sets a custom function deciding when the circuit opens.
//
// Example:
//
//	httpclient.WithReadyToTrip(func(counts httpclient.BreakerCounts) bool {
//	    return counts.ConsecutiveFailures >= 5
//	})
func WithReadyToTrip(fn func(counts BreakerCounts) bool) BreakerOption {
	return func(c *BreakerConfig) {
		c.ReadyToTrip = fn
	}
}

// WithTripClassifier sets a custom classifier for which failures count
// against the circuit.
func WithTripClassifier(classifier CircuitBreakerErrorClassifier) BreakerOption {
	return func(c *BreakerConfig) {
		c.Classifier = classifier
	}
}

// WithStateChangeHandler sets a callback for circuit state changes.
func WithStateChangeHandler(fn func(from, to BreakerState)) BreakerOption {
	return func(c *BreakerConfig) {
		c.OnStateChange = fn
	}
}

// DefaultBreakerConfig returns circuit breaker configuration with sensible defaults.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts BreakerCounts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		Classifier: NewTransportClassifier(),
	}
}

// breaker places a gobreaker circuit around each transport attempt. When the
// circuit is open, attempts are rejected without reaching the transport and
// the rejection surfaces as a failure envelope.
type breaker struct {
	cb     *gobreaker.CircuitBreaker[*exchange]
	logger *slog.Logger
}

func newBreaker(config *BreakerConfig, logger *slog.Logger) *breaker {
	classifier := config.Classifier
	if classifier == nil {
		classifier = NewTransportClassifier()
	}
	readyToTrip := config.ReadyToTrip
	if readyToTrip == nil {
		readyToTrip = DefaultBreakerConfig().ReadyToTrip
	}

	settings := gobreaker.Settings{
		Name:        "httpclient",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return readyToTrip(convertCounts(counts))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())

			if config.OnStateChange != nil {
				config.OnStateChange(convertState(from), convertState(to))
			}
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return !classifier.ShouldTripCircuit(err)
		},
	}

	return &breaker{
		cb:     gobreaker.NewCircuitBreaker[*exchange](settings),
		logger: logger,
	}
}

// execute runs one attempt through the circuit. Rejections are wrapped with
// jp-go-errors circuit breaker errors so classifiers and callers can match
// them with errors.Is.
func (b *breaker) execute(fn func() (*exchange, error)) (*exchange, error) {
	ex, err := b.cb.Execute(fn)
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState):
			counts := b.cb.Counts()
			b.logger.Warn("circuit breaker is open, request rejected",
				"error", err,
				"state", b.cb.State(),
				"counts", counts)
			return ex, pkgerrors.NewCircuitBreakerError(
				"request rejected",
				"execute",
				"open",
				pkgerrors.WithCause(err),
				pkgerrors.WithCounts(pkgerrors.CircuitCounts{
					Requests:             counts.Requests,
					TotalSuccesses:       counts.TotalSuccesses,
					TotalFailures:        counts.TotalFailures,
					ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
					ConsecutiveFailures:  counts.ConsecutiveFailures,
				}),
			)
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			counts := b.cb.Counts()
			b.logger.Debug("circuit breaker in half-open state, too many requests",
				"error", err)
			return ex, pkgerrors.NewCircuitBreakerError(
				"too many requests in half-open state",
				"execute",
				"half-open",
				pkgerrors.WithCause(err),
				pkgerrors.WithCounts(pkgerrors.CircuitCounts{
					Requests:             counts.Requests,
					TotalSuccesses:       counts.TotalSuccesses,
					TotalFailures:        counts.TotalFailures,
					ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
					ConsecutiveFailures:  counts.ConsecutiveFailures,
				}),
			)
		}
	}
	return ex, err
}

func (b *breaker) state() BreakerState {
	return convertState(b.cb.State())
}

func (b *breaker) counts() BreakerCounts {
	return convertCounts(b.cb.Counts())
}

func convertCounts(counts gobreaker.Counts) BreakerCounts {
	return BreakerCounts{
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}

func convertState(state gobreaker.State) BreakerState {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}
