package httpclient

// HealthStatus represents the health of a client's circuit breaker.
// It provides a strongly-typed alternative to map[string]interface{} for health checks.
type HealthStatus struct {
	// Healthy indicates whether requests can currently flow.
	// True for closed and half-open circuits, false for an open circuit.
	Healthy bool `json:"healthy"`

	// Status is a short string description of the state ("closed", "half-open", "open").
	Status string `json:"status"`

	// State is the string representation of the circuit breaker state.
	State string `json:"state"`

	// Requests is the total number of attempts in the current interval.
	Requests uint32 `json:"requests"`

	// TotalSuccesses is the total number of successful attempts.
	TotalSuccesses uint32 `json:"total_successes"`

	// TotalFailures is the total number of failed attempts.
	TotalFailures uint32 `json:"total_failures"`

	// ConsecutiveFailures is the number of consecutive failures.
	ConsecutiveFailures uint32 `json:"consecutive_failures"`

	// ConsecutiveSuccesses is the number of consecutive successes.
	ConsecutiveSuccesses uint32 `json:"consecutive_successes"`
}

// breakerState reports the circuit state, defaulting to closed when no
// breaker is configured.
func (c *core) breakerState() BreakerState {
	if c.breaker == nil {
		return StateClosed
	}
	return c.breaker.state()
}

// health builds a health snapshot from the circuit breaker. A client without
// a breaker is always healthy.
func (c *core) health() HealthStatus {
	state := c.breakerState()

	var counts BreakerCounts
	if c.breaker != nil {
		counts = c.breaker.counts()
	}

	var healthy bool
	switch state {
	case StateClosed:
		healthy = true
	case StateHalfOpen:
		healthy = true // Degraded but operational
	case StateOpen:
		healthy = false
	}

	return HealthStatus{
		Healthy:              healthy,
		Status:               state.String(),
		State:                state.String(),
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
	}
}
