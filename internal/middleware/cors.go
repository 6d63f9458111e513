package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CORSConfig selects which browser origins may call the API.
type CORSConfig struct {
	// AllowedSuffix matches production front ends, e.g. ".ideanest.app".
	AllowedSuffix string
	// DevPassword lets a tester call from any origin with a dev-password header.
	DevPassword string
}

const (
	corsAllowHeaders = "Content-Type, dev-password, X-Trace-Id"
	corsAllowMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
)

func isLocalOrigin(origin string) bool {
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}

// CORS admits requests without an Origin, local dev origins, origins ending in
// AllowedSuffix and requests carrying the dev password. Credentials are allowed
// so the session cookie travels. Preflights from admitted origins end here.
func CORS(cfg CORSConfig) fiber.Handler {
	suffix := strings.ToLower(cfg.AllowedSuffix)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" {
			return c.Next()
		}
		preflight := c.Method() == fiber.MethodOptions
		allowed := (suffix != "" && strings.HasSuffix(strings.ToLower(origin), suffix)) ||
			(preflight && isLocalOrigin(origin)) ||
			(cfg.DevPassword != "" && c.Get("dev-password") == cfg.DevPassword)
		if !allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"status": "error",
				"error": fiber.Map{
					"message":    "Not allowed by CORS",
					"statusCode": fiber.StatusForbidden,
					"details":    fiber.Map{"origin": origin},
				},
			})
		}
		c.Set(fiber.HeaderAccessControlAllowOrigin, origin)
		c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		c.Set(fiber.HeaderAccessControlAllowHeaders, corsAllowHeaders)
		c.Set(fiber.HeaderAccessControlExposeHeaders, traceIDHeader)
		c.Vary(fiber.HeaderOrigin)
		if preflight {
			c.Set(fiber.HeaderAccessControlAllowMethods, corsAllowMethods)
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
