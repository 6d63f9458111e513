package health

import (
	"encoding/json"
	"strconv"
	"time"

	healthsvc "ideanest-backend/internal/application/health"
	"ideanest-backend/internal/middleware"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const errorLogLimit = 50

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	Checker        *healthsvc.Checker
	HealthAdminKey string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	ctx := c.UserContext()
	keys := []string{middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime, middleware.KeyResCount, middleware.KeyStartTime, middleware.KeyLastReq, middleware.KeyErrorLog}
	if err := h.Rdb.Del(ctx, keys...).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	if err := h.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns the health snapshot.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := h.Checker.Collect(c.UserContext())
	return c.JSON(fiber.Map{
		"service":      "ideanest-api",
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the most recent entries of the error log.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := h.Rdb.LRange(c.UserContext(), middleware.KeyErrorLog, 0, errorLogLimit-1).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			out = append(out, m)
		}
	}
	return c.JSON(out)
}

// Dashboard renders the HTML status page.
func (h *Handlers) Dashboard(c *fiber.Ctx) error {
	result := h.Checker.Collect(c.UserContext())
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.SendString(healthsvc.RenderDashboardHTML(result))
}
