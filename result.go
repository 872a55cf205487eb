package httpclient

// Result is the uniform envelope returned by every request method. Callers
// must inspect Success before reading Data or Error: exactly one of the two
// is populated, and which one is determined solely by Success.
type Result struct {
	// Success is true when the final attempt produced an HTTP status in [200,300).
	Success bool `json:"success"`

	// StatusCode is the HTTP status of the last attempt, or 0 when no response
	// was ever received (for example, the connection was never established).
	StatusCode int `json:"status_code,omitempty"`

	// Data holds the response payload and is set only when Success is true.
	// Bodies with a JSON content type are decoded into the usual
	// map[string]any / []any / string / float64 shapes; anything else is the
	// raw body as a string.
	Data any `json:"data,omitempty"`

	// Error describes the terminal failure and is set only when Success is false.
	Error string `json:"error,omitempty"`
}

// NewSuccessResult builds a success envelope carrying the response payload.
func NewSuccessResult(statusCode int, data any) Result {
	return Result{
		Success:    true,
		StatusCode: statusCode,
		Data:       data,
	}
}

// NewFailureResult builds a failure envelope. statusCode may be 0 when the
// failure happened before any HTTP response was received.
func NewFailureResult(statusCode int, message string) Result {
	return Result{
		Success:    false,
		StatusCode: statusCode,
		Error:      message,
	}
}
