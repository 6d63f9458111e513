package auth

import (
	authsvc "ideanest-backend/internal/application/auth"
	"ideanest-backend/internal/middleware"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	UserFinder authsvc.UserFinder
	Rdb        *redis.Client
	Config     middleware.SessionConfig
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /api/v1/auth/login: authenticate, start a session and return the user.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.UserFinder == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}
	if req.Email == "" || req.Password == "" {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}

	user, err := h.UserFinder.FindByEmailAndPassword(req.Email, req.Password)
	if err != nil {
		switch err {
		case authsvc.ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case authsvc.ErrInvalidEmail, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			log.Error().Err(err).Msg("login lookup failed")
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	if err := middleware.StartSession(c, h.Rdb, h.Config, middleware.SessionUser{
		UserID:        user.UserID.String(),
		Fullname:      user.Fullname,
		Email:         user.Email,
		Role:          user.Role,
		WalletAddress: user.WalletAddress,
	}); err != nil {
		log.Error().Err(err).Msg("session tracking failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	return response.Success(c, "Login successful", fiber.Map{
		"user": fiber.Map{
			"user_id":        user.UserID.String(),
			"fullname":       user.Fullname,
			"email":          user.Email,
			"role":           user.Role,
			"wallet_address": user.WalletAddress,
		},
	}, nil)
}

// Me GET /api/v1/auth/me: the current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	user, err := authsvc.VerifyUser(sessionUser)
	if err != nil {
		log.Debug().Str("path", c.Path()).
			Bool("session_id_present", middleware.GetSessionID(c) != "").
			Msg("auth/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := c.UserContext()

	if m, ok := middleware.GetUser(c).(map[string]interface{}); ok && sessionID != "" {
		if userID, _ := m["user_id"].(string); userID != "" {
			_ = h.Rdb.SRem(ctx, middleware.UserSessionsPrefix+userID, sessionID).Err()
		}
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}

	middleware.DestroySession(c)
	// the session middleware would otherwise persist the emptied map under the old id
	c.Locals("session_id", "")

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logged out successfully", nil, nil)
}

// LogoutAll DELETE /api/v1/auth/sessions: sign the user out on every device.
func (h *Handlers) LogoutAll(c *fiber.Ctx) error {
	m, _ := middleware.GetUser(c).(map[string]interface{})
	userID, _ := m["user_id"].(string)
	if userID == "" {
		return response.Unauthorized(c, "Authentication required")
	}
	if err := middleware.DestroyUserSessions(c.UserContext(), h.Rdb, userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("session invalidation failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	middleware.DestroySession(c)
	c.Locals("session_id", "")

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Signed out of all sessions", nil, nil)
}
