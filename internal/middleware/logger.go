package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WithRequestLogger injects a request-scoped logger carrying request_id,
// method and path into the request context, then writes one access log
// line per request. Place it after RequestID.
func WithRequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			logger := base.With().
				Str("request_id", GetRequestID(c)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Logger()

			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the status is known.
				c.Error(err)
			}

			status := c.Response().Status
			event := logger.Info()
			if status >= 500 {
				event = logger.Error().Err(err)
			}
			event.
				Int("status", status).
				Int64("bytes", c.Response().Size).
				Dur("duration", time.Since(start)).
				Msg("request")

			return nil
		}
	}
}

// GetLogger retrieves the request-scoped logger. Falls back to a disabled
// logger outside a request.
func GetLogger(c echo.Context) *zerolog.Logger {
	return zerolog.Ctx(c.Request().Context())
}
