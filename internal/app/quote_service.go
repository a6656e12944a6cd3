// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

const defaultSubmitTimeout = 10 * time.Second

// QuoteService orchestrates quote use cases on top of the local collection.
type QuoteService struct {
	collection    *Collection
	remote        ports.RemoteSource
	submitEnabled bool
	submitTimeout time.Duration
	logger        *slog.Logger

	pending sync.WaitGroup
	pick    func(n int) int
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	// Collection is the local collection manager. Required.
	Collection *Collection

	// Remote receives best-effort submissions of new quotes. Optional.
	Remote ports.RemoteSource

	// SubmitEnabled turns on remote submission when Remote is set.
	SubmitEnabled bool

	// SubmitTimeout bounds each background submission.
	SubmitTimeout time.Duration

	Logger *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Collection == nil {
		panic("app: QuoteServiceConfig.Collection is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.SubmitTimeout
	if timeout <= 0 {
		timeout = defaultSubmitTimeout
	}

	return &QuoteService{
		collection:    cfg.Collection,
		remote:        cfg.Remote,
		submitEnabled: cfg.SubmitEnabled && cfg.Remote != nil,
		submitTimeout: timeout,
		logger:        logger.With(slog.String("component", "quotes")),
		pick:          rand.IntN,
	}
}

// AddQuote creates a quote, adds it to the collection and, when enabled,
// submits it to the remote source in the background. Submission failures are
// logged and never affect the result.
func (s *QuoteService) AddQuote(ctx context.Context, text, category string) (domain.Quote, error) {
	q, err := domain.NewQuote(text, category)
	if err != nil {
		return domain.Quote{}, err
	}

	if err := s.collection.Add(ctx, q); err != nil {
		return domain.Quote{}, err
	}

	s.logger.InfoContext(ctx, "quote added",
		slog.String("quote_id", q.ID),
		slog.String("category", q.Category),
	)

	if s.submitEnabled {
		s.submit(ctx, q)
	}

	return q, nil
}

func (s *QuoteService) submit(ctx context.Context, q domain.Quote) {
	// Detach from the request so the submission outlives it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.submitTimeout)

	s.pending.Go(func() {
		defer cancel()

		if err := s.remote.SubmitQuote(ctx, q); err != nil {
			s.logger.WarnContext(ctx, "remote submission failed",
				slog.String("quote_id", q.ID),
				slog.Any("error", err),
			)

			return
		}

		s.logger.DebugContext(ctx, "quote submitted", slog.String("quote_id", q.ID))
	})
}

// Wait blocks until all background submissions have finished.
func (s *QuoteService) Wait() {
	s.pending.Wait()
}

// importRecord is the import/export file shape.
type importRecord struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Category     string `json:"category"`
	LastModified int64  `json:"lastModified"`
}

// ImportQuotes reads a JSON array of quotes and bulk-imports it. Elements that
// fail validation are rejected individually; a body that is not a JSON array
// is rejected as a whole.
func (s *QuoteService) ImportQuotes(ctx context.Context, r io.Reader) (ImportResult, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return ImportResult{}, domain.NewValidationError("", "import must be a JSON array of quotes: "+err.Error())
	}

	var (
		quotes   = make([]domain.Quote, 0, len(raw))
		rejected []error
	)

	for i, item := range raw {
		var rec importRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			rejected = append(rejected, domain.NewValidationError(fmt.Sprintf("[%d]", i), "not a quote object"))
			continue
		}

		q, err := domain.FromImport(domain.RawQuote(rec))
		if err != nil {
			rejected = append(rejected, err)
			continue
		}

		quotes = append(quotes, q)
	}

	result, err := s.collection.BulkImport(ctx, quotes)
	if err != nil {
		return ImportResult{}, err
	}

	result.Rejected += len(rejected)
	result.Errors = append(rejected, result.Errors...)

	s.logger.InfoContext(ctx, "quotes imported",
		slog.Int("accepted", result.Accepted),
		slog.Int("rejected", result.Rejected),
	)

	return result, nil
}

// ExportQuotes writes the collection as an indented JSON array.
func (s *QuoteService) ExportQuotes(_ context.Context, w io.Writer) error {
	quotes := s.collection.Snapshot()
	if quotes == nil {
		quotes = domain.Collection{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(quotes); err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	return nil
}

// RandomQuote picks a quote uniformly from the given category.
// An empty category or "all" picks from the whole collection.
func (s *QuoteService) RandomQuote(_ context.Context, category string) (domain.Quote, error) {
	candidates := s.collection.Snapshot().FilterByCategory(category)
	if len(candidates) == 0 {
		if category == "" {
			category = domain.AllCategories
		}

		return domain.Quote{}, domain.NewNotFoundError("quote in category "+category, "")
	}

	return candidates[s.pick(len(candidates))], nil
}

// Categories returns the distinct categories in first-seen order.
func (s *QuoteService) Categories(_ context.Context) []string {
	return s.collection.Snapshot().Categories()
}

// ListQuotes returns up to limit quotes of the category that follow afterID
// in collection order, and whether more remain. An unknown afterID is a
// NotFoundError.
func (s *QuoteService) ListQuotes(_ context.Context, category, afterID string, limit int) (domain.Collection, bool, error) {
	quotes := s.collection.Snapshot().FilterByCategory(category)

	start := 0
	if afterID != "" {
		i, ok := quotes.Index()[afterID]
		if !ok {
			return nil, false, domain.NewNotFoundError("quote", afterID)
		}

		start = i + 1
	}

	end := min(start+limit, len(quotes))
	if limit <= 0 || start >= len(quotes) {
		return domain.Collection{}, false, nil
	}

	return quotes[start:end], end < len(quotes), nil
}
