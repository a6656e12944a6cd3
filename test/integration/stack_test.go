//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotesync/internal/adapters/events"
	httpadapter "github.com/jsamuelsen/quotesync/internal/adapters/http"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/sqlite"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// remotePost is the wire shape served by the fake remote.
type remotePost struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Body         string `json:"body,omitempty"`
	Category     string `json:"category,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// fakeRemote serves GET and POST /posts from memory.
type fakeRemote struct {
	mu          sync.Mutex
	posts       []remotePost
	unavailable bool
	delay       time.Duration

	fetches     atomic.Int32
	submissions atomic.Int32
}

func (f *fakeRemote) setPosts(posts []remotePost) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.posts = posts
}

func (f *fakeRemote) setUnavailable(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.unavailable = v
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	posts, unavailable, delay := f.posts, f.unavailable, f.delay
	f.mu.Unlock()

	if r.URL.Path != "/posts" {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodPost {
		f.submissions.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":101}`))

		return
	}

	if r.URL.Query().Get("_limit") != "1" {
		f.fetches.Add(1)
	}

	if delay > 0 {
		time.Sleep(delay)
	}

	if unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if posts == nil {
		posts = []remotePost{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(posts)
}

// stack is the whole service wired in-process over a temporary SQLite file.
type stack struct {
	remote     *fakeRemote
	remoteSrv  *httptest.Server
	api        *httptest.Server
	dbPath     string
	store      *sqlite.Store
	collection *app.Collection
	service    *app.QuoteService
	inbox      *events.Inbox
}

func startStack(ctx context.Context, dir string) (*stack, error) {
	s := &stack{remote: &fakeRemote{}, dbPath: filepath.Join(dir, "quotes.db")}
	s.remoteSrv = httptest.NewServer(s.remote)

	if err := s.open(ctx); err != nil {
		s.remoteSrv.Close()
		return nil, err
	}

	return s, nil
}

// open builds everything above the fake remote. It is also used to restart
// the service against the same database.
func (s *stack) open(ctx context.Context) error {
	store, err := sqlite.Open(ctx, s.dbPath, sqlite.Options{Logger: discard})
	if err != nil {
		return err
	}

	client, err := clients.New(&clients.Config{
		BaseURL:     s.remoteSrv.URL,
		ServiceName: "remote-quotes",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{MaxFailures: 100, Timeout: time.Second, HalfOpenLimit: 1},
		Logger:  discard,
	})
	if err != nil {
		return err
	}

	remote, err := acl.NewRemoteQuoteSource(acl.RemoteSourceConfig{Client: client, Logger: discard})
	if err != nil {
		return err
	}

	collection := app.NewCollection(app.CollectionConfig{Store: store, Logger: discard})
	if err := collection.Load(ctx); err != nil {
		return err
	}

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Collection:    collection,
		Remote:        remote,
		SubmitEnabled: true,
		SubmitTimeout: time.Second,
		Logger:        discard,
	})

	inbox := events.NewInbox(discard)

	coordinator, err := app.NewSyncCoordinator(app.SyncCoordinatorConfig{
		Collection: collection,
		Remote:     remote,
		Events:     inbox,
		Logger:     discard,
	})
	if err != nil {
		return err
	}

	registry := ports.NewHealthRegistry()
	_ = registry.Register(store)
	_ = registry.Register(remote)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		Logger:  discard,
		Timeout: 5 * time.Second,
		Health:  handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "test", "test"), prometheus.NewRegistry()),
		Quotes:  handlers.NewQuoteHandler(service),
		Sync:    handlers.NewSyncHandler(coordinator, inbox),
	})

	s.store = store
	s.collection = collection
	s.service = service
	s.inbox = inbox
	s.api = httptest.NewServer(engine)

	return nil
}

// restart closes the API and the store, then opens them again.
func (s *stack) restart(ctx context.Context) error {
	s.closeService()
	return s.open(ctx)
}

func (s *stack) closeService() {
	if s.api != nil {
		s.api.Close()
		s.api = nil
	}

	if s.service != nil {
		s.service.Wait()
	}

	if s.store != nil {
		_ = s.store.Close()
		s.store = nil
	}
}

func (s *stack) close() {
	s.closeService()
	s.remoteSrv.Close()
}
