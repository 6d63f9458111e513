package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Counters behind /health/json and the dashboard. Reset clears all of them.
const (
	KeyReqTotal  = "ideanest:health:req_total"
	KeyReqErrors = "ideanest:health:req_errors"
	KeyResTime   = "ideanest:health:res_time_ms"
	KeyResCount  = "ideanest:health:res_count"
	KeyStartTime = "ideanest:health:start_time"
	KeyLastReq   = "ideanest:health:last_request"
	KeyErrorLog  = "ideanest:health:error_log"
)

// errorLogSize caps the error log list.
const errorLogSize = 100

type errorLogEntry struct {
	Time    time.Time `json:"time"`
	Method  string    `json:"method"`
	Path    string    `json:"path"`
	Status  int       `json:"status"`
	TraceID string    `json:"trace_id,omitempty"`
}

func skipHealthMarker(path string) bool {
	return path == "/" || path == "/metrics" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon")
}

// HealthMarker counts requests, latency and 5xx responses in Redis and keeps
// the most recent server errors for /health/errors. Redis failures never fail
// the request.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipHealthMarker(c.Path()) {
			return c.Next()
		}
		start := time.Now()
		method, path := c.Method(), c.OriginalURL()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		last, _ := json.Marshal(fiber.Map{"time": start, "ip": c.IP(), "path": path, "method": method})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, KeyLastReq, last, 0)
			p.Incr(ctx, KeyReqTotal)
			p.Incr(ctx, KeyResCount)
			p.IncrByFloat(ctx, KeyResTime, float64(time.Since(start).Milliseconds()))
			if status >= fiber.StatusInternalServerError {
				entry, _ := json.Marshal(errorLogEntry{Time: start, Method: method, Path: path, Status: status, TraceID: GetTraceID(c)})
				p.Incr(ctx, KeyReqErrors)
				p.LPush(ctx, KeyErrorLog, entry)
				p.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
			}
			return nil
		})
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("health counters not recorded")
		}
		return nil
	}
}
