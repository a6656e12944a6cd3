// Package memory provides an in-process quote store.
package memory

import (
	"context"
	"sync"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Store implements ports.QuoteStore in memory. Nothing survives the process.
type Store struct {
	mu     sync.RWMutex
	quotes domain.Collection
	saved  bool
	saves  int
}

// NewStore creates an empty store that reports nothing persisted.
func NewStore() *Store {
	return &Store{}
}

// NewStoreWith creates a store that already holds quotes.
func NewStoreWith(quotes domain.Collection) *Store {
	return &Store{quotes: quotes.Clone(), saved: true}
}

// Load returns a copy of the stored collection and whether one was ever saved.
func (s *Store) Load(ctx context.Context) (domain.Collection, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return nil, false, nil
	}

	return s.quotes.Clone(), true, nil
}

// Save replaces the stored collection with a copy of quotes.
func (s *Store) Save(ctx context.Context, quotes domain.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes = quotes.Clone()
	s.saved = true
	s.saves++

	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saves
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string { return "quote-store" }

// Check implements ports.HealthChecker. An in-memory store is always healthy.
func (s *Store) Check(context.Context) error { return nil }
