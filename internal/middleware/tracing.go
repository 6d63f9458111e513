package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	traceIDHeader = "X-Trace-Id"
	traceIDLocal  = "trace_id"
)

// Tracing tags the request with a trace id, reusing a well-formed inbound
// X-Trace-Id so front-end and API logs line up.
func Tracing() fiber.Handler {
	return func(c *fiber.Ctx) error {
		traceID := c.Get(traceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		c.Locals(traceIDLocal, traceID)
		c.Set(traceIDHeader, traceID)
		return c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" outside Tracing.
func GetTraceID(c *fiber.Ctx) string {
	id, _ := c.Locals(traceIDLocal).(string)
	return id
}
