package chain

import (
	"context"

	"ideanest-backend/internal/application/settlement"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Wallet is the part of the settlement adapter these routes need.
type Wallet interface {
	Connect(ctx context.Context) bool
	Status() settlement.Status
}

type Handlers struct {
	Wallet Wallet
}

// Status GET /api/v1/chain/status. A disconnected adapter gets one connect attempt
// so a wallet that came up after boot is picked up.
func (h *Handlers) Status(c *fiber.Ctx) error {
	if !h.Wallet.Status().Connected {
		h.Wallet.Connect(c.UserContext())
	}
	return response.Success(c, "Chain status retrieved", fiber.Map{"chain": h.Wallet.Status()}, nil)
}

// Connect POST /api/v1/chain/connect forces a reconnect, e.g. after a network switch.
func (h *Handlers) Connect(c *fiber.Ctx) error {
	if !h.Wallet.Connect(c.UserContext()) {
		return response.Error(c, "Wallet could not be connected", fiber.StatusServiceUnavailable, fiber.Map{"chain": h.Wallet.Status()})
	}
	return response.Success(c, "Wallet connected", fiber.Map{"chain": h.Wallet.Status()}, nil)
}
