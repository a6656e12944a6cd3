package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single HTTP request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID tracks a whole transaction across services.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin.Context key holding the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin.Context key holding the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

type idMiddlewareConfig struct {
	header   string
	ginKey   string
	store    func(ctx context.Context, id string) context.Context
	logField func(ctx context.Context, id string) context.Context
}

// RequestID reads X-Request-ID or generates a UUID, echoes it on the response
// and makes it available to handlers, the context logger and outbound clients.
func RequestID() gin.HandlerFunc {
	return idMiddleware(idMiddlewareConfig{
		header:   HeaderRequestID,
		ginKey:   ContextKeyRequestID,
		store:    ContextWithRequestID,
		logField: logging.WithRequestID,
	})
}

// CorrelationID is RequestID for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return idMiddleware(idMiddlewareConfig{
		header:   HeaderCorrelationID,
		ginKey:   ContextKeyCorrelationID,
		store:    ContextWithCorrelationID,
		logField: logging.WithCorrelationID,
	})
}

func idMiddleware(cfg idMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(cfg.header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(cfg.ginKey, id)
		c.Header(cfg.header, id)

		ctx := cfg.store(c.Request.Context(), id)
		c.Request = c.Request.WithContext(cfg.logField(ctx, id))

		c.Next()
	}
}

// GetRequestID returns the request ID, or "" when the middleware did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetCorrelationID returns the correlation ID, or "" when the middleware did not run.
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ContextKeyCorrelationID)
}
