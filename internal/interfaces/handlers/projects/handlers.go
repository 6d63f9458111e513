package projects

import (
	projectsvc "ideanest-backend/internal/application/projects"
	"ideanest-backend/internal/interfaces/handlers/handlerutil"
	"ideanest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *projectsvc.Service
}

type statusRequest struct {
	Status string `json:"status"`
}

// Create POST /api/v1/projects
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	var in projectsvc.CreateInput
	if err := handlerutil.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.Create(c.UserContext(), userID, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessCreated(c, "Project created successfully", fiber.Map{"project": p}, nil)
}

// Update PUT /api/v1/projects/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := handlerutil.ParamUUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var in projectsvc.UpdateInput
	if err := handlerutil.Bind(c, &in); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.Update(c.UserContext(), userID, id, in)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project updated successfully", fiber.Map{"project": p}, nil)
}

// Get GET /api/v1/projects/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := handlerutil.ParamUUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.Get(c.UserContext(), userID, id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project retrieved successfully", fiber.Map{"project": p}, nil)
}

// ListActive GET /api/v1/projects/active
func (h *Handlers) ListActive(c *fiber.Ctx) error {
	rows, err := h.Service.ListActive(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Projects retrieved successfully", fiber.Map{"projects": rows}, fiber.Map{"count": len(rows)})
}

// ListMine GET /api/v1/projects/mine
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	rows, err := h.Service.ListByCreator(c.UserContext(), userID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Projects retrieved successfully", fiber.Map{"projects": rows}, fiber.Map{"count": len(rows)})
}

// ChangeStatus PATCH /api/v1/projects/:id/status
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := handlerutil.ParamUUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	var req statusRequest
	if err := handlerutil.Bind(c, &req); err != nil {
		return response.FromError(c, err)
	}
	p, err := h.Service.ChangeStatus(c.UserContext(), userID, id, req.Status)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project status updated", fiber.Map{"project": p}, nil)
}

// Delete DELETE /api/v1/projects/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.Actor(c)
	if err != nil {
		return response.FromError(c, err)
	}
	id, err := handlerutil.ParamUUID(c, "id")
	if err != nil {
		return response.FromError(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), userID, id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, "Project deleted successfully", nil, nil)
}
