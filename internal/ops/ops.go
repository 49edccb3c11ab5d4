// Package ops holds the shared vocabulary of the stores' async-operation
// lifecycle: operation names, staleness checks and the local rejection
// errors that never reach the network.
package ops

import (
	"errors"
	"fmt"
	"time"
)

// Operation names the async operation a store is currently running.
type Operation string

const (
	OpNone     Operation = ""
	OpLocation Operation = "location"
	OpWeather  Operation = "weather"
	OpForecast Operation = "forecast"
	OpSearch   Operation = "search"
	OpAlerts   Operation = "alerts"
	OpCreate   Operation = "create"
	OpDelete   Operation = "delete"
)

// ErrAlreadyInProgress is returned when a redundant operation is requested
// while the same entity already has one pending. It is a local rejection,
// not a user-visible failure; no network call is made.
var ErrAlreadyInProgress = errors.New("operation already in progress")

// ValidationError reports a client-side precondition failure detected
// before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsStale reports whether data stamped at lastUpdate has outlived maxAge.
// A zero lastUpdate is always stale.
func IsStale(lastUpdate time.Time, maxAge time.Duration, now time.Time) bool {
	if lastUpdate.IsZero() {
		return true
	}
	return now.Sub(lastUpdate) > maxAge
}
