package middleware

import (
	"errors"

	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Fiber errors keep their code; domain
// errors that escape a handler are mapped through response.FromError. A body over
// the server limit can only be an oversize document.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code == fiber.StatusRequestEntityTooLarge {
		return response.FromError(c, &domain.Error{Kind: domain.ErrFileTooLarge, Message: domain.FileTooLargeMessage})
	}
	if errors.As(err, &fe) {
		return response.Error(c, fe.Message, fe.Code, nil)
	}
	return response.FromError(c, err)
}
