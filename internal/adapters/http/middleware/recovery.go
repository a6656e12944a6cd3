package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

// PanicHook observes a recovered panic and its stack.
type PanicHook func(recovered any, stack []byte)

// Recovery turns a handler panic into a 500 error envelope and logs the
// stack. It belongs first in the chain. Hooks run after logging.
func Recovery(hooks ...PanicHook) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			stack := debug.Stack()
			traceID := traceIDFrom(c)

			logging.FromContext(c.Request.Context()).Error("panic recovered",
				slog.String("error", fmt.Sprint(r)),
				slog.String("stack", string(stack)),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("trace_id", traceID),
			)

			for _, hook := range hooks {
				hook(r, stack)
			}

			abortWithError(c, http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(traceID))
		}()

		c.Next()
	}
}

func traceIDFrom(c *gin.Context) string {
	sc := trace.SpanContextFromContext(c.Request.Context())
	if !sc.HasTraceID() {
		return ""
	}

	return sc.TraceID().String()
}

// abortWithError writes resp unless the handler already started the response.
func abortWithError(c *gin.Context, status int, resp *dto.ErrorResponse) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(status, resp)
}
