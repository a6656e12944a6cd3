package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 4 << 10

// remoteError is the error envelope some remotes return. Both the nested
// {"error":{"message":..}} and the flat {"message":..} shapes are accepted.
type remoteError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (e remoteError) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}

	return e.Message
}

// parseErrorMessage extracts a message from an error body, or "" if none.
func parseErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	var env remoteError
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBody)).Decode(&env); err != nil {
		return ""
	}

	return env.message()
}

// mapClientError translates errors from the resilient client into domain
// errors. Context errors keep their identity so callers can tell a cancelled
// request from an outage.
func mapClientError(err error, service, operation string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, "circuit breaker open during "+operation)

	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(service, "retries exhausted during "+operation), err)

	default:
		return fmt.Errorf("%w: %w", domain.NewUnavailableError(service, operation+" failed"), err)
	}
}

// mapStatus translates a non-2xx response into a domain error.
func mapStatus(resp *http.Response, service, operation string) error {
	msg := parseErrorMessage(resp.Body)
	if msg == "" {
		msg = fmt.Sprintf("%s returned %d %s", operation, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return domain.NewValidationError("quote", msg)

	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domain.NewForbiddenError(operation, msg)

	case resp.StatusCode == http.StatusNotFound:
		return domain.NewNotFoundError(service, operation)

	case resp.StatusCode == http.StatusConflict:
		return domain.NewConflictErrorWithDetails(service, operation+" rejected", msg)

	default:
		return domain.NewUnavailableError(service, msg)
	}
}
