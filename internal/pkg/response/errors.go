package response

import (
	"errors"

	"ideanest-backend/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var statusByKind = map[error]int{
	domain.ErrValidation:         fiber.StatusBadRequest,
	domain.ErrIllegalTransition:  fiber.StatusBadRequest,
	domain.ErrInvalidFileType:    fiber.StatusBadRequest,
	domain.ErrAuthRequired:       fiber.StatusUnauthorized,
	domain.ErrForbidden:          fiber.StatusForbidden,
	domain.ErrNotFound:           fiber.StatusNotFound,
	domain.ErrFileTooLarge:       fiber.StatusRequestEntityTooLarge,
	domain.ErrWalletNotConnected: fiber.StatusConflict,
	domain.ErrNetworkMismatch:    fiber.StatusConflict,
	domain.ErrTransaction:        fiber.StatusBadGateway,
	domain.ErrUpload:             fiber.StatusBadGateway,
}

// StatusFor returns the HTTP status code for err.
func StatusFor(err error) int {
	if code, ok := statusByKind[domain.KindOf(err)]; ok {
		return code
	}
	return fiber.StatusInternalServerError
}

// FromError sends err in the error envelope. Errors outside the domain taxonomy are
// logged and reported as a generic 500.
func FromError(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled service error")
		return Error(c, "Internal Server Error", code, nil)
	}
	var details interface{}
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) && txErr.TxHash != "" {
		details = map[string]interface{}{"tx_hash": txErr.TxHash}
	}
	return Error(c, err.Error(), code, details)
}
