package middleware

import (
	"time"

	"ideanest-backend/internal/infrastructure/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request latency by route pattern.
func Metrics(m *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Method(), route, c.Response().StatusCode(), time.Since(start))
		return err
	}
}
