// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port conventions:
//   - Context is always the first parameter
//   - Methods return domain types, never transport or storage types
//   - Failures are reported as domain errors (ErrUnavailable, ErrValidation, ...)
package ports

import (
	"context"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// RemoteSource is the remote side of a sync.
//
// Implementations adapt every record with domain.FromRemote and silently drop
// records that fail validation. Any failure to produce a collection, whether
// transport, status code, or an undecodable body, is reported as a
// *domain.FetchError so callers can rely on domain.IsUnavailable.
type RemoteSource interface {
	// FetchQuotes returns the current remote collection.
	FetchQuotes(ctx context.Context) (domain.Collection, error)

	// SubmitQuote announces a locally created quote to the remote side.
	// Submission is advisory; the remote collection is not expected to change.
	SubmitQuote(ctx context.Context, quote domain.Quote) error
}

// QuoteStore persists the local collection as a whole.
type QuoteStore interface {
	// Load returns the persisted collection. The boolean is false when nothing
	// has ever been saved, which is distinct from an empty saved collection.
	Load(ctx context.Context) (domain.Collection, bool, error)

	// Save replaces the persisted collection atomically.
	Save(ctx context.Context, quotes domain.Collection) error
}

// EventPublisher defines the contract for publishing notifications to the
// presentation layer.
type EventPublisher interface {
	// Publish delivers an event. Delivery is best-effort; callers log and
	// continue on error.
	Publish(ctx context.Context, event Event) error
}

// Event represents a notification that can be published.
type Event interface {
	// EventType returns the type identifier for routing.
	EventType() string

	// Payload returns the event data for serialization.
	Payload() any
}
