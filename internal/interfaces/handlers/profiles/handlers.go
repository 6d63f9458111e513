package profiles

import (
	profilesvc "ideanest-backend/internal/application/profiles"
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/interfaces/handlers/handlerutil"
	"ideanest-backend/internal/middleware"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// Handlers serves registration and the signed-in user's profile.
type Handlers struct {
	Service *profilesvc.Service
	Config  middleware.SessionConfig
}

func sessionUser(u *domain.User) middleware.SessionUser {
	return middleware.SessionUser{
		UserID:        u.UserID.String(),
		Fullname:      u.Fullname,
		Email:         u.Email,
		Role:          u.Role,
		WalletAddress: u.WalletAddress,
	}
}

// CreateProfile POST /api/v1/profiles/create-profile registers a user and signs them in.
func (h *Handlers) CreateProfile(c *fiber.Ctx) error {
	var in profilesvc.CreateProfileInput
	if err := handlerutil.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.CreateProfile(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err)
	}
	if err := middleware.StartSession(c, h.Service.Rdb, h.Config, sessionUser(u)); err != nil {
		// the account exists; the client can still log in
		log.Warn().Err(err).Str("user_id", u.UserID.String()).Msg("profile created without session")
	}
	return response.SuccessCreated(c, "Profile created successfully", fiber.Map{"user": u}, nil)
}

// ViewProfile GET /api/v1/profiles/view-profile
func (h *Handlers) ViewProfile(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.ViewProfile(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Profile retrieved successfully", fiber.Map{"user": u}, nil)
}

// UpdateProfile PUT /api/v1/profiles/update-profile. The session copy is refreshed so
// wallet and name changes are visible to /auth/me immediately.
func (h *Handlers) UpdateProfile(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var in profilesvc.UpdateProfileInput
	if err := handlerutil.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), userID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	middleware.SetSessionUser(c, sessionUser(u))
	return response.Success(c, "Profile updated successfully", fiber.Map{"user": u}, nil)
}
