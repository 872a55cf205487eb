package httpclient

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// requestOptions collects per-call settings applied on top of the client
// configuration.
type requestOptions struct {
	headers     map[string]string
	query       url.Values
	timeout     time.Duration
	jsonBody    any
	hasJSONBody bool
	form        url.Values
	rawBody     []byte
	contentType string
}

// RequestOption is a functional option applied to a single request.
type RequestOption func(*requestOptions)

// WithHeader sets one header on this request, overriding any default header
// with the same name.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithHeaders sets several headers on this request, overriding default
// headers on key collision.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			o.headers[k] = v
		}
	}
}

// WithQuery adds query parameters to the resolved URL.
func WithQuery(query url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(url.Values, len(query))
		}
		for k, vs := range query {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// WithQueryParam adds a single query parameter to the resolved URL.
func WithQueryParam(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(url.Values)
		}
		o.query.Add(key, value)
	}
}

// WithJSON sends v as a JSON request body with Content-Type application/json,
// unless the request sets its own Content-Type header.
func WithJSON(v any) RequestOption {
	return func(o *requestOptions) {
		o.jsonBody = v
		o.hasJSONBody = true
	}
}

// WithForm sends the values as a form-encoded request body.
func WithForm(form url.Values) RequestOption {
	return func(o *requestOptions) {
		o.form = form
	}
}

// WithBody sends a raw request body with the given content type.
func WithBody(contentType string, body []byte) RequestOption {
	return func(o *requestOptions) {
		o.contentType = contentType
		o.rawBody = body
	}
}

// WithRequestTimeout overrides the client's per-attempt timeout for this
// request only.
func WithRequestTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.timeout = timeout
	}
}

// encodeBody serializes the configured request body, if any, and reports the
// content type it implies. JSON takes precedence over form values, which take
// precedence over a raw body.
func (o *requestOptions) encodeBody() (body []byte, contentType string, err error) {
	switch {
	case o.hasJSONBody:
		encoded, err := json.Marshal(o.jsonBody)
		if err != nil {
			return nil, "", fmt.Errorf("encoding JSON request body: %w", err)
		}
		return encoded, "application/json", nil
	case o.form != nil:
		return []byte(o.form.Encode()), "application/x-www-form-urlencoded", nil
	case o.rawBody != nil:
		return o.rawBody, o.contentType, nil
	}
	return nil, "", nil
}
