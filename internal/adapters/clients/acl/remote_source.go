package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

const (
	postsPath         = "/posts"
	defaultFetchLimit = 10
)

// RemoteSourceConfig configures a RemoteQuoteSource.
type RemoteSourceConfig struct {
	// Client is the resilient HTTP client pointed at the remote base URL.
	Client *clients.Client

	// Name identifies the remote in errors and health checks.
	Name string

	// FetchLimit is sent as _limit on fetches. Defaults to 10.
	FetchLimit int

	Logger *slog.Logger
}

// RemoteQuoteSource implements ports.RemoteSource and ports.HealthChecker
// against a posts-style HTTP API.
type RemoteQuoteSource struct {
	client *clients.Client
	name   string
	limit  int
	logger *slog.Logger
}

// NewRemoteQuoteSource creates the adapter. It returns an error when the
// client is missing.
func NewRemoteQuoteSource(cfg RemoteSourceConfig) (*RemoteQuoteSource, error) {
	if cfg.Client == nil {
		return nil, errors.New("acl: client is required")
	}

	name := cfg.Name
	if name == "" {
		name = cfg.Client.ServiceName()
	}

	limit := cfg.FetchLimit
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RemoteQuoteSource{
		client: cfg.Client,
		name:   name,
		limit:  limit,
		logger: logger.With(slog.String("remote", name)),
	}, nil
}

// FetchQuotes retrieves the remote collection. Records that fail domain
// validation are dropped and logged at debug. Any failure to obtain a usable
// list is reported as a *domain.FetchError.
func (s *RemoteQuoteSource) FetchQuotes(ctx context.Context) (domain.Collection, error) {
	path := postsPath + "?" + url.Values{"_limit": {strconv.Itoa(s.limit)}}.Encode()

	s.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("path", path))

	resp, err := s.client.Get(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.NewFetchError(s.name, ctxErr)
		}

		return nil, domain.NewFetchError(s.name, mapClientError(err, s.name, "fetch quotes"))
	}
	defer func() { _ = resp.Body.Close() }()

	s.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, domain.NewFetchError(s.name, mapStatus(resp, s.name, "fetch quotes"))
	}

	posts, err := decodeJSON[[]post](resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(s.name, err)
	}

	quotes := translateAll(posts, func(p post) (domain.Quote, error) {
		return domain.FromRemote(p.toRaw())
	}, func(i int, err error) {
		s.logger.DebugContext(ctx, "dropping remote record",
			slog.Int("index", i),
			slog.String("remote_id", string(posts[i].ID)),
			slog.String("error", err.Error()))
	})

	s.logger.DebugContext(ctx, "fetched remote quotes",
		slog.Int("received", len(posts)),
		slog.Int("accepted", len(quotes)))

	return quotes, nil
}

// SubmitQuote publishes a locally created quote to the remote.
func (s *RemoteQuoteSource) SubmitQuote(ctx context.Context, q domain.Quote) error {
	payload, err := json.Marshal(fromQuote(q))
	if err != nil {
		return fmt.Errorf("encoding submission: %w", err)
	}

	resp, err := s.client.Post(ctx, postsPath, payload)
	if err != nil {
		return mapClientError(err, s.name, "submit quote")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return mapStatus(resp, s.name, "submit quote")
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	s.logger.InfoContext(ctx, "quote submitted to remote",
		slog.String("quote_id", q.ID),
		slog.Int("status", resp.StatusCode))

	return nil
}

// Name implements ports.HealthChecker.
func (s *RemoteQuoteSource) Name() string {
	return s.name
}

// Check implements ports.HealthChecker. An open circuit is reported without
// contacting the remote.
func (s *RemoteQuoteSource) Check(ctx context.Context) error {
	if state := s.client.CircuitState(); state == clients.StateOpen {
		return fmt.Errorf("circuit breaker %s", state)
	}

	resp, err := s.client.Get(ctx, postsPath+"?_limit=1")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	return nil
}
