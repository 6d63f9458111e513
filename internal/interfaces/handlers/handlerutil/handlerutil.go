// Package handlerutil holds the request plumbing shared by the HTTP handlers.
package handlerutil

import (
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ParamUUID parses the named path parameter.
func ParamUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.Validationf("%s must be a valid UUID", name)
	}
	return id, nil
}

// Actor returns the signed-in user's id, or an auth error.
func Actor(c *fiber.Ctx) (uuid.UUID, error) {
	id, _, ok := middleware.CurrentUser(c)
	if !ok {
		return uuid.Nil, domain.Errorf(domain.ErrAuthRequired, "Authentication required")
	}
	return id, nil
}

// Bind decodes the JSON body into out.
func Bind(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return domain.Validationf("Invalid request body")
	}
	return nil
}
