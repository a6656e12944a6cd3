package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// importPath is exempt from the request timeout; large imports are bounded
// by the body size limit instead.
const importPath = "/api/v1/quotes/import"

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is installed into every request context.
	Logger *slog.Logger

	// ServiceName names the otel tracer and metrics.
	ServiceName string

	// Timeout is the deadline applied to /api/v1 requests. Zero disables it.
	Timeout time.Duration

	// PanicHooks run after a recovered panic is logged.
	PanicHooks []middleware.PanicHook

	Health *handlers.HealthHandler
	Quotes *handlers.QuoteHandler
	Sync   *handlers.SyncHandler
}

// SetupRouter configures middleware and routes on engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Context logger - request-scoped slog.Logger
//  3. Request ID and Correlation ID
//  4. OpenTelemetry - tracing and metrics
//  5. Logging - request logging (skips /-/ endpoints)
//  6. Timeout - /api/v1 only
//
// Route groups:
//   - /-/ (internal): health, build info and metrics
//   - /api/v1/: quotes and sync
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine.Use(
		middleware.Recovery(cfg.PanicHooks...),
		middleware.ContextLogger(logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)

	if cfg.ServiceName != "" {
		engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	}

	engine.Use(middleware.Logging())

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout, importPath))
	}

	if cfg.Quotes != nil {
		cfg.Quotes.RegisterRoutes(apiV1)
	}

	if cfg.Sync != nil {
		cfg.Sync.RegisterRoutes(apiV1)
	}
}
