package projects

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	projectsvc "ideanest-backend/internal/application/projects"
	"ideanest-backend/internal/domain"
	"ideanest-backend/internal/middleware"
	"ideanest-backend/internal/pkg/constants"
	"ideanest-backend/internal/pkg/testdb"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wallet = "0xcB693B3Fe7FB2C44921B3D43779f8040B2f53AbD"

// as signs every request in as the user named by the X-Test-User header.
func as(c *fiber.Ctx) error {
	if id := c.Get("X-Test-User"); id != "" {
		c.Locals("user", map[string]interface{}{"user_id": id, "role": c.Get("X-Test-Role")})
	}
	return c.Next()
}

func setup(t *testing.T) (*fiber.App, *domain.User, *domain.User) {
	db := testdb.Open(t)
	w := wallet
	creator := &domain.User{Fullname: "Creator", Email: "c@example.com", PasswordHash: "x", Role: constants.Creator, WalletAddress: &w}
	investor := &domain.User{Fullname: "Investor", Email: "i@example.com", PasswordHash: "x", Role: constants.Investor}
	require.NoError(t, db.Create(creator).Error)
	require.NoError(t, db.Create(investor).Error)

	h := &Handlers{Service: &projectsvc.Service{DB: db}}
	app := fiber.New()
	app.Use(as)
	g := app.Group("/projects", middleware.RequireAuth())
	g.Post("/", middleware.AuthorizePermission(constants.CreateProject), h.Create)
	g.Get("/active", h.ListActive)
	g.Get("/mine", h.ListMine)
	g.Get("/:id", h.Get)
	g.Put("/:id", middleware.AuthorizePermission(constants.ManageProject), h.Update)
	g.Patch("/:id/status", middleware.AuthorizePermission(constants.ManageProject), h.ChangeStatus)
	g.Delete("/:id", middleware.AuthorizePermission(constants.ManageProject), h.Delete)
	return app, creator, investor
}

func call(t *testing.T, app *fiber.App, u *domain.User, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if u != nil {
		req.Header.Set("X-Test-User", u.UserID.String())
		req.Header.Set("X-Test-Role", u.Role)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func projectOf(out map[string]interface{}) map[string]interface{} {
	return out["data"].(map[string]interface{})["project"].(map[string]interface{})
}

func create(t *testing.T, app *fiber.App, u *domain.User) string {
	resp, out := call(t, app, u, "POST", "/projects", map[string]interface{}{
		"name":           "Solar Kiosk",
		"description":    "Pay-as-you-go charging",
		"funding_amount": "2.5",
		"equity_offered": "10",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	return projectOf(out)["project_id"].(string)
}

func TestCreate_Lifecycle(t *testing.T) {
	app, creator, investor := setup(t)
	id := create(t, app, creator)

	resp, _ := call(t, app, investor, "GET", "/projects/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "drafts are private")

	resp, out := call(t, app, creator, "PATCH", "/projects/"+id+"/status", map[string]string{"status": "active"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "active", projectOf(out)["status"])
	assert.Equal(t, wallet, projectOf(out)["creator_wallet_address"])

	resp, out = call(t, app, investor, "GET", "/projects/active", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, out["metadata"].(map[string]interface{})["count"])

	resp, _ = call(t, app, creator, "DELETE", "/projects/"+id, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, "only drafts can be deleted")

	resp, _ = call(t, app, creator, "PATCH", "/projects/"+id+"/status", map[string]string{"status": "draft"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreate_RoleAndValidation(t *testing.T) {
	app, creator, investor := setup(t)

	resp, _ := call(t, app, investor, "POST", "/projects", map[string]interface{}{
		"name": "X", "description": "Y", "funding_amount": "1", "equity_offered": "5",
	})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, out := call(t, app, creator, "POST", "/projects", map[string]interface{}{
		"name": "X", "description": "Y", "funding_amount": "0", "equity_offered": "5",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", out["status"])

	resp, _ = call(t, app, nil, "GET", "/projects/mine", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdateAndDelete_OwnerOnly(t *testing.T) {
	app, creator, _ := setup(t)
	id := create(t, app, creator)

	other := &domain.User{UserID: uuid.New(), Role: constants.Creator}
	resp, _ := call(t, app, other, "PUT", "/projects/"+id, map[string]interface{}{"name": "Renamed"})
	assert.Contains(t, []int{fiber.StatusForbidden, fiber.StatusNotFound}, resp.StatusCode)

	resp, out := call(t, app, creator, "PUT", "/projects/"+id, map[string]interface{}{"name": "Renamed"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Renamed", projectOf(out)["name"])

	resp, _ = call(t, app, creator, "GET", "/projects/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, creator, "DELETE", "/projects/"+id, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, out = call(t, app, creator, "GET", "/projects/mine", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, out["metadata"].(map[string]interface{})["count"])
}
