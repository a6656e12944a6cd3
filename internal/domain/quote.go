// Package domain contains core business entities and rules.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UncategorizedCategory is assigned to adapted records that carry no category.
const UncategorizedCategory = "Uncategorized"

// ID prefixes keep identifiers from different origins in disjoint namespaces.
const (
	localIDPrefix  = "q_"
	importIDPrefix = "q_imp_"
	remoteIDPrefix = "server_"
)

// Quote is a piece of text tagged with a category.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is the unique identifier for this quote within a collection.
	ID string `json:"id"`

	// Text is the displayed content of the quote.
	Text string `json:"text"`

	// Category is a free-form, case-sensitive classification.
	Category string `json:"category"`

	// LastModified is a Unix timestamp in milliseconds, used only for ordering.
	LastModified int64 `json:"lastModified"`
}

// RawQuote is an untrusted record as it arrives from outside the domain,
// either from the remote source or from an import file.
type RawQuote struct {
	ID           string
	Text         string
	Category     string
	LastModified int64
}

// clock and idSource are overridable for tests.
var (
	clock    = time.Now
	idSource = func() string {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.NewString()
		}

		return id.String()
	}
)

// NowMillis returns the current time as Unix milliseconds.
func NowMillis() int64 {
	return clock().UnixMilli()
}

// NewQuote creates a locally authored quote.
// Returns a ValidationError if text or category is blank.
func NewQuote(text, category string) (Quote, error) {
	q := Quote{
		ID:           localIDPrefix + idSource(),
		Text:         strings.TrimSpace(text),
		Category:     strings.TrimSpace(category),
		LastModified: NowMillis(),
	}

	if err := q.Validate(); err != nil {
		return Quote{}, err
	}

	return q, nil
}

// FromRemote adapts a record fetched from the remote source.
// The remote identifier is namespaced so it can never collide with a locally
// generated one; a missing category or timestamp is defaulted.
func FromRemote(raw RawQuote) (Quote, error) {
	remoteID := strings.TrimSpace(raw.ID)
	if remoteID == "" {
		return Quote{}, NewValidationError("id", "remote record has no identifier")
	}

	q := Quote{
		ID:           remoteIDPrefix + remoteID,
		Text:         strings.TrimSpace(raw.Text),
		Category:     defaultCategory(raw.Category),
		LastModified: raw.LastModified,
	}
	if q.LastModified <= 0 {
		q.LastModified = NowMillis()
	}

	if err := q.Validate(); err != nil {
		return Quote{}, err
	}

	return q, nil
}

// FromImport adapts a record read from an import file.
// Unlike FromRemote it trusts the source: an existing id and timestamp are kept.
func FromImport(raw RawQuote) (Quote, error) {
	q := Quote{
		ID:           strings.TrimSpace(raw.ID),
		Text:         strings.TrimSpace(raw.Text),
		Category:     defaultCategory(raw.Category),
		LastModified: raw.LastModified,
	}
	if q.ID == "" {
		q.ID = importIDPrefix + idSource()
	}

	if q.LastModified <= 0 {
		q.LastModified = NowMillis()
	}

	if err := q.Validate(); err != nil {
		return Quote{}, err
	}

	return q, nil
}

// Validate checks the entity invariants.
func (q Quote) Validate() error {
	if q.ID == "" {
		return NewValidationError("id", "is required")
	}

	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("text", "must not be empty")
	}

	if strings.TrimSpace(q.Category) == "" {
		return NewValidationError("category", "must not be empty")
	}

	return nil
}

func defaultCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return UncategorizedCategory
	}

	return category
}
