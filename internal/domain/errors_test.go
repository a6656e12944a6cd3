package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrConflict,
		ErrValidation,
		ErrForbidden,
		ErrUnavailable,
		ErrConflictPending,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.NotErrorIs(t, a, b, "sentinels should be distinct: %v vs %v", a, b)
			}
		}
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		id          string
		expectedMsg string
	}{
		{"with entity and id", "quote", "q_1", `quote with id "q_1" not found`},
		{"with entity only", "conflict", "", "conflict not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNotFoundError(tt.entity, tt.id)

			assert.Equal(t, tt.expectedMsg, err.Error())
			require.ErrorIs(t, err, ErrNotFound)

			var notFound *NotFoundError
			require.ErrorAs(t, err, &notFound)
			assert.Equal(t, tt.entity, notFound.Entity)
			assert.Equal(t, tt.id, notFound.ID)
		})
	}
}

func TestConflictError(t *testing.T) {
	plain := &ConflictError{Entity: "quote", Reason: "stale write"}
	assert.Equal(t, "quote conflict: stale write", plain.Error())
	require.ErrorIs(t, plain, ErrConflict)

	detailed := NewConflictErrorWithDetails("quote", "stale write", "q_1")
	assert.Equal(t, "quote conflict: stale write (q_1)", detailed.Error())

	var conflict *ConflictError
	require.ErrorAs(t, detailed, &conflict)
	assert.Equal(t, "q_1", conflict.Details)
}

func TestValidationError(t *testing.T) {
	withField := NewValidationError("text", "must not be empty")
	assert.Equal(t, "validation failed for text: must not be empty", withField.Error())
	require.ErrorIs(t, withField, ErrValidation)

	withoutField := NewValidationError("", "expected a JSON array")
	assert.Equal(t, "validation failed: expected a JSON array", withoutField.Error())

	withValue := NewValidationErrorWithValue("decision", "unknown", "maybe")

	var validation *ValidationError
	require.ErrorAs(t, withValue, &validation)
	assert.Equal(t, "maybe", validation.Value)
}

func TestForbiddenAndUnavailableErrors(t *testing.T) {
	forbidden := NewForbiddenError("submit", "disabled")
	assert.Equal(t, `operation "submit" forbidden: disabled`, forbidden.Error())
	require.ErrorIs(t, forbidden, ErrForbidden)

	unavailable := NewUnavailableError("remote-quotes", "")
	assert.Equal(t, `service "remote-quotes" unavailable`, unavailable.Error())
	require.ErrorIs(t, unavailable, ErrUnavailable)
}

func TestDuplicateIDError(t *testing.T) {
	err := NewDuplicateIDError("q_1")

	assert.Equal(t, `quote with id "q_1" already exists`, err.Error())
	require.ErrorIs(t, err, ErrConflict)
	assert.False(t, IsConflictPending(err))

	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "q_1", dup.ID)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name        string
		cause       error
		expectedMsg string
	}{
		{"with cause", cause, `fetching from "remote-quotes": connection refused`},
		{"without cause", nil, `fetching from "remote-quotes" failed`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFetchError("remote-quotes", tt.cause)

			assert.Equal(t, tt.expectedMsg, err.Error())
			assert.True(t, IsUnavailable(err))

			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}

			var fetchErr *FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, "remote-quotes", fetchErr.Source)
		})
	}
}

func TestFetchError_PreservesTypedCause(t *testing.T) {
	err := NewFetchError("remote-quotes", NewValidationError("body", "not a JSON array"))

	assert.True(t, IsUnavailable(err))
	assert.True(t, IsValidation(err))
}

func TestConflictPendingError(t *testing.T) {
	err := fmt.Errorf("sync: %w", NewConflictPendingError("c-1"))

	assert.Equal(t, `sync: sync conflict "c-1" is awaiting resolution`, err.Error())
	assert.True(t, IsConflictPending(err))
	assert.True(t, IsConflict(err))

	var pending *ConflictPendingError
	require.ErrorAs(t, err, &pending)
	assert.Equal(t, "c-1", pending.ConflictID)
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		isFunc   func(error) bool
		expected bool
	}{
		{"IsNotFound with NotFoundError", NewNotFoundError("quote", "1"), IsNotFound, true},
		{"IsNotFound with wrapped sentinel", fmt.Errorf("wrapped: %w", ErrNotFound), IsNotFound, true},
		{"IsNotFound with other error", ErrConflict, IsNotFound, false},
		{"IsNotFound with nil", nil, IsNotFound, false},

		{"IsConflict with DuplicateIDError", NewDuplicateIDError("1"), IsConflict, true},
		{"IsConflict with other error", ErrNotFound, IsConflict, false},

		{"IsValidation with ValidationError", NewValidationError("text", "blank"), IsValidation, true},
		{"IsValidation with nil", nil, IsValidation, false},

		{"IsForbidden with ForbiddenError", NewForbiddenError("submit", ""), IsForbidden, true},
		{"IsForbidden with other error", ErrUnavailable, IsForbidden, false},

		{"IsUnavailable with FetchError", NewFetchError("remote", nil), IsUnavailable, true},
		{"IsUnavailable with other error", ErrNotFound, IsUnavailable, false},

		{"IsFetchFailure with FetchError", NewFetchError("remote", ErrNotFound), IsFetchFailure, true},
		{"IsFetchFailure with wrapped FetchError", fmt.Errorf("sync: %w", NewFetchError("remote", nil)), IsFetchFailure, true},
		{"IsFetchFailure with plain unavailable", NewUnavailableError("remote", ""), IsFetchFailure, false},

		{"IsConflictPending with sentinel", ErrConflictPending, IsConflictPending, true},
		{"IsConflictPending with plain conflict", ErrConflict, IsConflictPending, false},
		{"IsConflictPending with nil", nil, IsConflictPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.isFunc(tt.err))
		})
	}
}
