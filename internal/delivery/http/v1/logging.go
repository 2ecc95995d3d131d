package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request. Server errors are logged at
// error level together with the errors attached to the context.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Int("status", status).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

func (h *handlerImpl) HandleRecovery(c *gin.Context, recovered any) {
	h.logger.Error().
		Interface("panic", recovered).
		Str("path", c.Request.URL.Path).
		Msg("recovered from panic")
	h.abortInternal(c, fmt.Errorf("panic: %v", recovered))
}

func (h *handlerImpl) HandleNotFound(c *gin.Context) {
	h.abort(c, newNotFoundError(msgRouteNotFound))
}
