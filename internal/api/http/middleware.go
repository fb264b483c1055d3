package httpapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/city-explorer/internal/logger"
	"github.com/i474232898/city-explorer/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, then logs and measures it.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = logger.NewID()
		}
		c.Set(requestIDHeader, reqID)
		c.SetUserContext(logger.WithRequestID(c.UserContext(), reqID))

		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		// The app ErrorHandler has not run yet, so derive the status from err.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		route := c.Route().Path
		observability.ObserveHTTP(c.Method(), route, status, elapsed.Seconds())

		ev := log.Debug()
		if status >= fiber.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("request_id", reqID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Msg("http request")

		return err
	}
}
