package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs every request on entry and on exit. Exits at 5xx are logged
// at error level, 4xx at warn.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := GetTraceID(c)
		if traceID == "" {
			traceID = "no-trace-id"
		}
		method, path := c.Method(), c.Path()
		start := time.Now()
		log.Debug().Str("trace_id", traceID).Str("method", method).Str("path", path).Msg("request started")

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		var ev *zerolog.Event
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error().Err(err)
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		default:
			ev = log.Info()
		}
		ev.Str("trace_id", traceID).
			Str("method", method).
			Str("path", path).
			Int("status", status).
			Int64("ms", time.Since(start).Milliseconds()).
			Msg("request finished")
		return err
	}
}
