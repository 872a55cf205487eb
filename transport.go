package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	pkgerrors "github.com/JohnPlummer/jp-go-errors"
)

// maxErrorBodyBytes caps how much of an error response body is carried into
// failure messages and circuit breaker classification.
const maxErrorBodyBytes = 512

// exchange is one completed transport round trip.
type exchange struct {
	statusCode  int
	contentType string
	body        []byte
}

// core implements the request pipeline shared by the sync and async
// executors: URL resolution, header merging, retry-wrapped attempts, and
// result mapping.
type core struct {
	config  *Config
	logger  *slog.Logger
	session *sessionManager
	breaker *breaker
	stats   *requestStats
}

func newCore(opts ...Option) (*core, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Classifier == nil {
		config.Classifier = NewTransportClassifier()
	}

	c := &core{
		config:  config,
		logger:  config.Logger,
		session: newSessionManager(config.UseSession),
		stats:   &requestStats{},
	}
	if config.Breaker != nil {
		c.breaker = newBreaker(config.Breaker, config.Logger)
	}
	return c, nil
}

// attempt performs exactly one transport exchange. A completed exchange with
// a status outside [200,300) returns both the exchange and a *StatusError so
// the circuit breaker can classify it; a transport failure returns only an
// error.
func (c *core) attempt(ctx context.Context, method, fullURL string, headers map[string]string, body []byte, timeout time.Duration) (*exchange, error) {
	client, release := c.session.acquire()
	defer release()

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	do := func() (*exchange, error) {
		var reader io.Reader
		if len(body) > 0 {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(attemptCtx, method, fullURL, reader)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			// Distinguish the per-attempt deadline from the caller's context:
			// only the former is a retryable transport timeout.
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, pkgerrors.NewTimeoutError("request timed out", method+" "+fullURL, timeout)
			}
			return nil, err
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}

		ex := &exchange{
			statusCode:  resp.StatusCode,
			contentType: resp.Header.Get("Content-Type"),
			body:        payload,
		}
		if !isSuccessStatus(resp.StatusCode) {
			return ex, &StatusError{Code: resp.StatusCode, Body: bodySnippet(payload)}
		}
		return ex, nil
	}

	if c.breaker != nil {
		return c.breaker.execute(do)
	}
	return do()
}

// resolveURL concatenates relative paths onto the configured base URL and
// appends any query parameters. Absolute URLs pass through untouched.
func (c *core) resolveURL(path string, query url.Values) (string, error) {
	full := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if c.config.BaseURL == "" {
			return "", ErrNoBaseURL
		}
		full = strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}

	if len(query) > 0 {
		u, err := url.Parse(full)
		if err != nil {
			return "", fmt.Errorf("invalid request URL %q: %w", full, err)
		}
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		full = u.String()
	}
	return full, nil
}

// mergeHeaders overlays per-call headers on the client defaults; per-call
// values win on key collision.
func mergeHeaders(defaults, perCall map[string]string) map[string]string {
	merged := make(map[string]string, len(defaults)+len(perCall))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range perCall {
		merged[k] = v
	}
	return merged
}

func isSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// decodeBody turns a successful exchange into envelope data: structured
// decoding for JSON content types, the raw text otherwise. A body that claims
// JSON but does not parse degrades to the raw text rather than failing the call.
func decodeBody(ex *exchange) any {
	text := string(ex.body)
	if !isJSONContentType(ex.contentType) {
		return text
	}
	var v any
	if err := json.Unmarshal(ex.body, &v); err != nil {
		return text
	}
	return v
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= maxErrorBodyBytes {
		return s
	}
	cut := maxErrorBodyBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
