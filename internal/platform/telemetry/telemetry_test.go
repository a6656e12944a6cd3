package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	p, err := New(context.Background(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestMiddleware_ServesRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(Middleware("quotesync")...)
	engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestMetricsHandler_EchoesIncomingTraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		ctx := propagation.TraceContext{}.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	engine.Use((*Metrics)(nil).handler())
	engine.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", rec.Header().Get(HeaderTraceID))
}

func TestSyncCollector(t *testing.T) {
	snap := SyncSnapshot{State: "diverged", ConflictPending: true, QuoteCount: 7}
	collector := NewSyncCollector(func() SyncSnapshot { return snap })

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(collector))

	expected := `
# HELP quotesync_conflict_pending 1 while a sync conflict awaits a decision.
# TYPE quotesync_conflict_pending gauge
quotesync_conflict_pending 1
# HELP quotesync_quotes Number of quotes in the local collection.
# TYPE quotesync_quotes gauge
quotesync_quotes 7
# HELP quotesync_sync_state 1 for the current sync state, 0 otherwise.
# TYPE quotesync_sync_state gauge
quotesync_sync_state{state="diverged"} 1
quotesync_sync_state{state="fetching"} 0
quotesync_sync_state{state="idle"} 0
`

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected)))

	snap = SyncSnapshot{State: "idle", QuoteCount: 8}

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP quotesync_conflict_pending 1 while a sync conflict awaits a decision.
# TYPE quotesync_conflict_pending gauge
quotesync_conflict_pending 0
`), "quotesync_conflict_pending"))
}
