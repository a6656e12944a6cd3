// Package clients provides the instrumented HTTP client used by outbound adapters.
package clients

import (
	"errors"
	"fmt"
	"net/http"
)

// Infrastructure errors. Adapters translate these into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the downstream while the circuit is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once every attempt has failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// StatusError is the last retryable HTTP status seen before giving up.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
