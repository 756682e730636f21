// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome labels shared by registration and login counters.
const (
	StatusSuccess      = "success"
	StatusInvalid      = "invalid"      // validation failure
	StatusDuplicate    = "duplicate"    // email already registered
	StatusUnauthorized = "unauthorized" // bad credentials
	StatusError        = "error"        // internal failure
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Auth flow metrics
	IncRegistration(status string)
	IncLogin(status string)
	ObserveHashDuration(duration time.Duration)

	// Edge metrics
	IncRateLimited(route string)
}
