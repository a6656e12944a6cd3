package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Accepted int     `json:"accepted"`
	Rejected int     `json:"rejected"`
	Errors   []error `json:"-"`
}

// SeedQuotes is the collection installed on first start when nothing has
// been persisted yet.
func SeedQuotes() domain.Collection {
	now := domain.NowMillis()

	return domain.Collection{
		{ID: "q_seed_1", Text: "The best way to get started is to quit talking and begin doing.", Category: "Motivation", LastModified: now},
		{ID: "q_seed_2", Text: "Don’t let yesterday take up too much of today.", Category: "Inspiration", LastModified: now},
		{ID: "q_seed_3", Text: "It’s not whether you get knocked down, it’s whether you get up.", Category: "Resilience", LastModified: now},
	}
}

// Collection owns the authoritative local quote collection.
// All mutations are serialized and persisted through the store; a failed
// persist restores the previous in-memory state.
type Collection struct {
	mu     sync.RWMutex
	quotes domain.Collection
	store  ports.QuoteStore
	logger *slog.Logger
}

// CollectionConfig contains configuration for the collection manager.
type CollectionConfig struct {
	Store  ports.QuoteStore
	Logger *slog.Logger
}

// NewCollection creates a collection manager. The collection starts empty;
// call Load to read persisted state.
func NewCollection(cfg CollectionConfig) *Collection {
	if cfg.Store == nil {
		panic("app: CollectionConfig.Store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Collection{
		quotes: domain.Collection{},
		store:  cfg.Store,
		logger: logger.With(slog.String("component", "collection")),
	}
}

// Load replaces in-memory state with the persisted collection. When nothing
// has ever been persisted, the seed quotes are installed and saved.
func (c *Collection) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	quotes, found, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading quotes: %w", err)
	}

	if found {
		c.quotes = quotes.Clone()
		if c.quotes == nil {
			c.quotes = domain.Collection{}
		}

		c.logger.InfoContext(ctx, "loaded quotes", slog.Int("count", len(c.quotes)))

		return nil
	}

	seed := SeedQuotes()
	if err := c.store.Save(ctx, seed); err != nil {
		return fmt.Errorf("saving seed quotes: %w", err)
	}

	c.quotes = seed
	c.logger.InfoContext(ctx, "seeded quotes", slog.Int("count", len(seed)))

	return nil
}

// Snapshot returns a copy of the current collection.
func (c *Collection) Snapshot() domain.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.quotes.Clone()
}

// Len returns the number of quotes held.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.quotes)
}

// Add appends a single quote.
func (c *Collection) Add(ctx context.Context, q domain.Quote) error {
	if err := q.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quotes.Contains(q.ID) {
		return domain.NewDuplicateIDError(q.ID)
	}

	next := append(c.quotes.Clone(), q)

	return c.commit(ctx, next)
}

// BulkImport appends every valid quote whose id is not yet present, in input
// order. Invalid entries and duplicates, including duplicates within the
// batch, are skipped and reported. The store is written once.
func (c *Collection) BulkImport(ctx context.Context, quotes []domain.Quote) (ImportResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var result ImportResult

	next := c.quotes.Clone()
	seen := next.Index()

	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, err)

			continue
		}

		if _, dup := seen[q.ID]; dup {
			result.Rejected++
			result.Errors = append(result.Errors, domain.NewDuplicateIDError(q.ID))

			continue
		}

		seen[q.ID] = len(next)
		next = append(next, q)
		result.Accepted++
	}

	if result.Accepted == 0 {
		return result, nil
	}

	if err := c.commit(ctx, next); err != nil {
		return ImportResult{}, err
	}

	return result, nil
}

// ReplaceAll swaps the whole collection. Input holding an invalid quote or a
// repeated id is rejected and the current collection is kept.
func (c *Collection) ReplaceAll(ctx context.Context, quotes domain.Collection) error {
	return c.Update(ctx, func(domain.Collection) domain.Collection {
		return quotes
	})
}

// Update computes a replacement from the current collection and installs it
// under the same lock, so no other mutation can interleave. fn receives a copy
// and its result is validated like ReplaceAll input.
func (c *Collection) Update(ctx context.Context, fn func(current domain.Collection) domain.Collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := fn(c.quotes.Clone()).Clone()
	if next == nil {
		next = domain.Collection{}
	}

	if err := validateUnique(next); err != nil {
		return err
	}

	return c.commit(ctx, next)
}

func validateUnique(quotes domain.Collection) error {
	seen := make(map[string]struct{}, len(quotes))

	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			return err
		}

		if _, dup := seen[q.ID]; dup {
			return domain.NewDuplicateIDError(q.ID)
		}

		seen[q.ID] = struct{}{}
	}

	return nil
}

// commit persists next and installs it. Caller holds c.mu.
func (c *Collection) commit(ctx context.Context, next domain.Collection) error {
	if err := c.store.Save(ctx, next); err != nil {
		c.logger.ErrorContext(ctx, "failed to persist quotes, keeping previous state",
			slog.Int("count", len(c.quotes)),
			slog.Any("error", err),
		)

		return fmt.Errorf("persisting quotes: %w", err)
	}

	c.quotes = next

	return nil
}
