package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/dto"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

// ErrorHandlerMiddleware turns a panicking handler into a 500 JSON response.
// It must be registered before LoggerMiddleware, whose accounting is skipped on panic.
func ErrorHandlerMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			route := c.FullPath()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, "500").Inc()

			zlog.Logger.Error().
				Interface("panic", rec).
				Str("request_id", c.GetString(requestIDKey)).
				Str("route", route).
				Bytes("stack", debug.Stack()).
				Msg("handler panicked")

			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error:   "internal_error",
				Message: "generation service failed unexpectedly",
				Code:    http.StatusInternalServerError,
			})
		}()

		c.Next()
	}
}
