package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/service"
	"github.com/gurkanbulca/focusflow/internal/view"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthHandler)

	api := s.app.Group("/api/v1")

	tasks := api.Group("/tasks")
	tasks.Get("/", s.listTasks)
	tasks.Post("/", s.createTask)
	tasks.Get("/stats", s.stats)
	tasks.Get("/search", s.searchTasks)
	tasks.Get("/status/:status", s.tasksByStatus)
	tasks.Get("/priority/:priority", s.tasksByPriority)
	tasks.Get("/:id", s.getTask)
	tasks.Put("/:id", s.updateTask)
	tasks.Delete("/:id", s.deleteTask)
	tasks.Post("/:id/toggle", s.toggleTask)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: map[string]any{"backend": s.backend},
	})
}

// listTasks handles GET /api/v1/tasks?search=&filter=.
func (s *Server) listTasks(c *fiber.Ctx) error {
	state := view.State{
		SearchTerm:   c.Query("search"),
		ActiveFilter: view.ParseFilter(c.Query("filter", string(view.FilterAll))),
	}

	p, err := s.tasks.View(c.UserContext(), state)
	if err != nil {
		return s.respondError(c, service.OpLoad, err)
	}
	return c.JSON(ProjectionResponse{
		Tasks:  p.Visible,
		Counts: p.Counts,
		Search: strings.TrimSpace(state.SearchTerm),
		Filter: state.ActiveFilter,
	})
}

// stats handles GET /api/v1/tasks/stats.
func (s *Server) stats(c *fiber.Ctx) error {
	summary, err := s.tasks.Stats(c.UserContext())
	if err != nil {
		return s.respondError(c, service.OpLoad, err)
	}
	return c.JSON(summary)
}

// searchTasks handles GET /api/v1/tasks/search?q=.
func (s *Server) searchTasks(c *fiber.Ctx) error {
	return c.JSON(listResponse(s.tasks.SearchTasks(c.UserContext(), c.Query("q"))))
}

// tasksByStatus handles GET /api/v1/tasks/status/:status.
func (s *Server) tasksByStatus(c *fiber.Ctx) error {
	var completed bool
	switch strings.ToLower(c.Params("status")) {
	case string(view.FilterActive):
		completed = false
	case string(view.FilterCompleted):
		completed = true
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Status must be active or completed",
		})
	}
	return c.JSON(listResponse(s.tasks.TasksByStatus(c.UserContext(), completed)))
}

// tasksByPriority handles GET /api/v1/tasks/priority/:priority.
func (s *Server) tasksByPriority(c *fiber.Ctx) error {
	priority, err := models.ParsePriority(c.Params("priority"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: "Priority must be low, medium or high",
		})
	}
	return c.JSON(listResponse(s.tasks.TasksByPriority(c.UserContext(), priority)))
}

// createTask handles POST /api/v1/tasks.
func (s *Server) createTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	in, err := req.toInput()
	if err != nil {
		return s.respondError(c, service.OpCreate, err)
	}

	task, err := s.tasks.CreateTask(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, service.OpCreate, err)
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// getTask handles GET /api/v1/tasks/:id.
func (s *Server) getTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return s.respondError(c, service.OpGet, err)
	}

	task, err := s.tasks.GetTask(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, service.OpGet, err)
	}
	return c.JSON(task)
}

// updateTask handles PUT /api/v1/tasks/:id.
func (s *Server) updateTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return s.respondError(c, service.OpUpdate, err)
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	patch, err := req.toPatch()
	if err != nil {
		return s.respondError(c, service.OpUpdate, err)
	}

	task, err := s.tasks.UpdateTask(c.UserContext(), id, patch)
	if err != nil {
		return s.respondError(c, service.OpUpdate, err)
	}
	return c.JSON(task)
}

// toggleTask handles POST /api/v1/tasks/:id/toggle.
func (s *Server) toggleTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return s.respondError(c, service.OpToggle, err)
	}

	task, err := s.tasks.ToggleComplete(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, service.OpToggle, err)
	}
	return c.JSON(task)
}

// deleteTask handles DELETE /api/v1/tasks/:id.
func (s *Server) deleteTask(c *fiber.Ctx) error {
	id, err := taskID(c)
	if err != nil {
		return s.respondError(c, service.OpDelete, err)
	}

	if err := s.tasks.DeleteTask(c.UserContext(), id); err != nil {
		return s.respondError(c, service.OpDelete, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func taskID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, models.ErrValidationFailed
	}
	return int64(id), nil
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}
