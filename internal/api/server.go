// Package api exposes the task service over HTTP.
package api

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gurkanbulca/focusflow/internal/middleware"
	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/view"
)

// TaskService is the slice of service.TaskService the handlers call.
type TaskService interface {
	CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	ToggleComplete(ctx context.Context, id int64) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	View(ctx context.Context, state view.State) (view.Projection, error)
	Stats(ctx context.Context) (view.Summary, error)
	TasksByStatus(ctx context.Context, completed bool) []*models.Task
	TasksByPriority(ctx context.Context, priority models.Priority) []*models.Task
	SearchTasks(ctx context.Context, query string) []*models.Task
}

// Server owns the fiber app.
type Server struct {
	app     *fiber.App
	tasks   TaskService
	logger  *log.Logger
	backend string
}

func NewServer(tasks TaskService, logger *log.Logger, backend string) *Server {
	s := &Server{
		tasks:   tasks,
		logger:  logger,
		backend: backend,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "focusflow",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(middleware.RequestContext())
	s.app.Use(middleware.RequestLogger(logger))

	s.setupRoutes()
	return s
}

// App exposes the fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving on addr.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}
