package httpclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

// execute runs one logical call: it resolves the URL, merges headers, drives
// up to RetryCount+1 attempts through the retry policy, and maps the outcome
// into a Result. The returned error is non-nil only when ctx was canceled;
// every other failure terminates in the envelope.
func (c *core) execute(ctx context.Context, method, path string, opts []RequestOption) (Result, error) {
	ro := &requestOptions{}
	for _, opt := range opts {
		opt(ro)
	}

	fullURL, err := c.resolveURL(path, ro.query)
	if err != nil {
		c.logger.Warn("request rejected",
			"method", method,
			"path", path,
			"error", err)
		c.stats.recordFailure(err)
		return NewFailureResult(0, err.Error()), nil
	}

	headers := mergeHeaders(c.config.DefaultHeaders, ro.headers)

	body, contentType, err := ro.encodeBody()
	if err != nil {
		c.logger.Warn("request rejected",
			"method", method,
			"url", fullURL,
			"error", err)
		c.stats.recordFailure(err)
		return NewFailureResult(0, err.Error()), nil
	}
	if contentType != "" {
		if _, ok := headers["Content-Type"]; !ok {
			headers["Content-Type"] = contentType
		}
	}

	timeout := c.config.Timeout
	if ro.timeout > 0 {
		timeout = ro.timeout
	}

	var last *exchange
	var lastErr error
	attempts := 0
	maxAttempts := c.config.RetryCount + 1

	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempts++
		c.stats.recordAttempt(attempts > 1)

		ex, attemptErr := c.attempt(ctx, method, fullURL, headers, body, timeout)
		if ex != nil {
			last = ex
		}
		if attemptErr == nil {
			lastErr = nil
			return nil
		}
		lastErr = attemptErr

		// Cancellation propagates to the caller instead of the envelope.
		if ctx.Err() != nil {
			return attemptErr
		}

		c.logger.Warn("request attempt failed",
			"method", method,
			"url", fullURL,
			"attempt", attempts,
			"max_attempts", maxAttempts,
			"error", attemptErr)

		if !c.config.Classifier.IsRetryable(attemptErr) {
			return attemptErr
		}
		return retry.RetryableError(attemptErr)
	})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}

		c.stats.recordFailure(lastErr)

		// An HTTP-level failure carries the status of the completed exchange;
		// transport failures never received a response.
		var statusErr *StatusError
		if errors.As(lastErr, &statusErr) {
			return NewFailureResult(statusErr.Code, lastErr.Error()), nil
		}
		return NewFailureResult(0, lastErr.Error()), nil
	}

	c.stats.recordSuccess()
	return NewSuccessResult(last.statusCode, decodeBody(last)), nil
}

// backoff builds the retry schedule: a fixed delay with no jitter, capped at
// RetryCount re-attempts.
func (c *core) backoff() retry.Backoff {
	delay := c.config.RetryDelay
	var b retry.Backoff
	if delay > 0 {
		b = retry.NewConstant(delay)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	// #nosec G115 - RetryCount is validated non-negative at construction
	return retry.WithMaxRetries(uint64(c.config.RetryCount), b)
}

// requestStats tracks per-client request statistics.
type requestStats struct {
	mu              sync.RWMutex
	totalAttempts   int64
	totalRetries    int64
	totalSuccesses  int64
	totalFailures   int64
	lastAttemptTime time.Time
	lastError       error
}

func (s *requestStats) recordAttempt(isRetry bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAttempts++
	if isRetry {
		s.totalRetries++
	}
	s.lastAttemptTime = time.Now()
}

func (s *requestStats) recordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalSuccesses++
}

func (s *requestStats) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalFailures++
	s.lastError = err
}

// RequestStats is a snapshot of a client's request statistics.
type RequestStats struct {
	// TotalAttempts is the total number of transport attempts made
	// (including initial attempts and retries).
	TotalAttempts int64

	// TotalRetries is the number of retry attempts (not including initial attempts).
	TotalRetries int64

	// TotalSuccesses is the number of calls that produced a success envelope.
	TotalSuccesses int64

	// TotalFailures is the number of calls that produced a failure envelope.
	TotalFailures int64

	// LastAttemptTime is the time of the last attempt.
	LastAttemptTime time.Time

	// LastError is the last terminal error encountered (if any).
	LastError error
}

func (s *requestStats) snapshot() RequestStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return RequestStats{
		TotalAttempts:   s.totalAttempts,
		TotalRetries:    s.totalRetries,
		TotalSuccesses:  s.totalSuccesses,
		TotalFailures:   s.totalFailures,
		LastAttemptTime: s.lastAttemptTime,
		LastError:       s.lastError,
	}
}
