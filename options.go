package httpclient

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds client configuration. It is fixed at construction and never
// mutated afterwards; unknown or invalid settings are rejected by New.
type Config struct {
	// BaseURL is an optional prefix for relative request paths. Absolute
	// request URLs bypass it. When empty, every request path must be absolute.
	BaseURL string

	// DefaultHeaders are merged into every request. Per-call headers win on
	// key collision.
	DefaultHeaders map[string]string

	// Timeout applies to each individual attempt, not to the cumulative retry
	// sequence. Default: 10 seconds.
	Timeout time.Duration

	// RetryCount is the number of re-attempts after the first failure.
	// 0 means exactly one attempt. Default: 2.
	RetryCount int

	// RetryDelay is the fixed wait between attempts, with no jitter.
	// Default: 500 milliseconds.
	RetryDelay time.Duration

	// UseSession selects connection reuse: when true one shared connection
	// pool serves every request until Close, when false each attempt opens
	// and tears down its own pool. Default: true.
	UseSession bool

	// Classifier decides which attempt failures are retried.
	// Default: NewTransportClassifier().
	Classifier ErrorClassifier

	// Logger records failed attempts. Each client holds its own reference;
	// there is no process-wide logging state.
	// Default: slog.Default()
	Logger *slog.Logger

	// Breaker optionally places a circuit breaker around every attempt.
	// Nil disables it.
	Breaker *BreakerConfig
}

// Option is a functional option for configuring a client.
type Option func(*Config)

// WithBaseURL sets the prefix used to resolve relative request paths.
//
// Example:
//
//	httpclient.WithBaseURL("https://api.example.com")
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithDefaultHeaders sets headers merged into every request.
// Per-call headers override them on key collision.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Config) {
		c.DefaultHeaders = headers
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry sets the retry policy: count re-attempts after the first failure,
// separated by a fixed delay.
//
// Example:
//
//	httpclient.WithRetry(2, 500*time.Millisecond) // up to 3 attempts total
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Config) {
		c.RetryCount = count
		c.RetryDelay = delay
	}
}

// WithoutSession disables connection reuse: each attempt opens a fresh
// connection pool and tears it down when the attempt completes.
func WithoutSession() Option {
	return func(c *Config) {
		c.UseSession = false
	}
}

// WithClassifier sets a custom error classifier for retry decisions.
func WithClassifier(classifier ErrorClassifier) Option {
	return func(c *Config) {
		c.Classifier = classifier
	}
}

// WithLogger sets the logger used to record failed attempts.
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	httpclient.WithLogger(logger)
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCircuitBreaker enables a circuit breaker around every attempt,
// configured by the given breaker options.
//
// Example:
//
//	httpclient.WithCircuitBreaker(
//	    httpclient.WithBreakerTimeout(30*time.Second),
//	    httpclient.WithMaxRequests(3),
//	)
func WithCircuitBreaker(opts ...BreakerOption) Option {
	return func(c *Config) {
		breakerConfig := DefaultBreakerConfig()
		for _, opt := range opts {
			opt(breakerConfig)
		}
		c.Breaker = breakerConfig
	}
}

// DefaultConfig returns client configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		RetryCount: 2,
		RetryDelay: 500 * time.Millisecond,
		UseSession: true,
		Classifier: NewTransportClassifier(),
		Logger:     slog.Default(),
	}
}

// validate rejects configurations the executor cannot honor.
func (c *Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must be non-negative, got %d", c.RetryCount)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be non-negative, got %s", c.RetryDelay)
	}
	return nil
}
