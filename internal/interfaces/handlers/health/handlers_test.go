package health

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	healthsvc "ideanest-backend/internal/application/health"
	"ideanest-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping() error { return p.err }

func setup(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	h := &Handlers{
		Rdb:            rdb,
		Checker:        &healthsvc.Checker{Rdb: rdb, DB: pinger{}},
		HealthAdminKey: "secret",
	}
	app := fiber.New()
	app.Get("/", h.Dashboard)
	app.Get("/health/json", h.JSON)
	app.Get("/health/errors", h.Errors)
	app.Get("/reset", h.Reset)
	return app, mr
}

func TestJSON(t *testing.T) {
	app, _ := setup(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ideanest-api", body["service"])
	assert.Equal(t, "ok", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Contains(t, deps, "database")
	assert.Contains(t, deps, "redis")
	assert.Contains(t, deps, "wallet")
}

func TestReset_RequiresKey(t *testing.T) {
	app, mr := setup(t)
	mr.Set(middleware.KeyReqTotal, "12")

	resp, err := app.Test(httptest.NewRequest("GET", "/reset?key=wrong", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.True(t, mr.Exists(middleware.KeyReqTotal))

	resp, err = app.Test(httptest.NewRequest("GET", "/reset?key=secret", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.False(t, mr.Exists(middleware.KeyReqTotal))
	assert.True(t, mr.Exists(middleware.KeyStartTime))
}

func TestErrors_SkipsMalformedEntries(t *testing.T) {
	app, mr := setup(t)
	_, err := mr.Lpush(middleware.KeyErrorLog, `{"path":"/api/v1/investments","status":500}`)
	require.NoError(t, err)
	_, err = mr.Lpush(middleware.KeyErrorLog, "not json")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var entries []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "/api/v1/investments", entries[0]["path"])
}

func TestDashboard(t *testing.T) {
	app, _ := setup(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "pill-database")
}
