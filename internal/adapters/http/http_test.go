package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/adapters/events"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotesync/internal/adapters/memory"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type emptyRemote struct{}

func (emptyRemote) FetchQuotes(context.Context) (domain.Collection, error) { return nil, nil }
func (emptyRemote) SubmitQuote(context.Context, domain.Quote) error      { return nil }

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  5 * time.Second,
		MaxRequestSize:  1 << 20,
	}
}

func newRouterConfig(t *testing.T) RouterConfig {
	t.Helper()

	collection := app.NewCollection(app.CollectionConfig{Store: memory.NewStore(), Logger: discard})
	require.NoError(t, collection.Load(context.Background()))

	inbox := events.NewInbox(discard)

	coordinator, err := app.NewSyncCoordinator(app.SyncCoordinatorConfig{
		Collection: collection,
		Remote:     emptyRemote{},
		Events:     inbox,
		Logger:     discard,
	})
	require.NoError(t, err)

	return RouterConfig{
		Logger:      discard,
		ServiceName: "quotesync-test",
		Timeout:     time.Second,
		Health: handlers.NewHealthHandler(
			ports.NewHealthRegistry(),
			handlers.NewBuildInfo("test", "abc123", "now"),
			prometheus.NewRegistry(),
		),
		Quotes: handlers.NewQuoteHandler(app.NewQuoteService(app.QuoteServiceConfig{Collection: collection, Logger: discard})),
		Sync:   handlers.NewSyncHandler(coordinator, inbox),
	}
}

func serve(engine *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	engine.ServeHTTP(w, req)

	return w
}

func TestSetupRouter_Routes(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, newRouterConfig(t))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/-/live", http.StatusOK},
		{http.MethodGet, "/-/ready", http.StatusOK},
		{http.MethodGet, "/-/build", http.StatusOK},
		{http.MethodGet, "/-/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/quotes", http.StatusOK},
		{http.MethodGet, "/api/v1/quotes/random", http.StatusOK},
		{http.MethodGet, "/api/v1/quotes/export", http.StatusOK},
		{http.MethodGet, "/api/v1/categories", http.StatusOK},
		{http.MethodGet, "/api/v1/sync/status", http.StatusOK},
		{http.MethodPost, "/api/v1/sync", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestSetupRouter_IDsOnResponse(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, newRouterConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set(middleware.HeaderCorrelationID, "corr-1")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-1", w.Header().Get(middleware.HeaderCorrelationID))
}

func TestSetupRouter_RecoversPanics(t *testing.T) {
	cfg := newRouterConfig(t)

	var hooked bool
	cfg.PanicHooks = []middleware.PanicHook{func(any, []byte) { hooked = true }}

	engine := gin.New()
	SetupRouter(engine, cfg)
	engine.GET("/api/v1/boom", func(*gin.Context) { panic("boom") })

	w := serve(engine, http.MethodGet, "/api/v1/boom", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.True(t, hooked)
}

func TestSetupRouter_NilHandlers(t *testing.T) {
	engine := gin.New()
	SetupRouter(engine, RouterConfig{Logger: discard})

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/-/live", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/quotes", nil).Code)
}

func TestServerNew(t *testing.T) {
	cfg := testServerConfig()
	cfg.Host = "0.0.0.0"
	cfg.Port = 3000

	srv := New(cfg, discard)

	require.NotNil(t, srv.Engine())
	assert.Equal(t, cfg, srv.Config())
	assert.Equal(t, "0.0.0.0:3000", srv.Addr())
}

func TestServerServe(t *testing.T) {
	srv := New(testServerConfig(), discard)
	srv.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)

		return resp.StatusCode == http.StatusOK && string(body) == "pong"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRun_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	cfg := testServerConfig()
	cfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	err = New(cfg, discard).Run(context.Background())
	require.ErrorContains(t, err, "listening on")
}

func TestMaxBodySize(t *testing.T) {
	cfg := testServerConfig()
	cfg.MaxRequestSize = 100

	srv := New(cfg, discard)
	srv.Engine().POST("/echo", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": len(body)})
	})

	w := serve(srv.Engine(), http.MethodPost, "/echo", strings.NewReader(strings.Repeat("a", 50)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(srv.Engine(), http.MethodPost, "/echo", strings.NewReader(strings.Repeat("a", 200)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
