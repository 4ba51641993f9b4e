package recordstore

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/gurkanbulca/focusflow/internal/middleware"
	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

// Credentials, when set, must be presented on every request.
type Credentials struct {
	ProjectID string
	PublicKey string
}

// Server exposes a Store over the record API.
type Server struct {
	app    *fiber.App
	store  *Store
	creds  Credentials
	logger *log.Logger
}

func NewServer(store *Store, creds Credentials, logger *log.Logger) *Server {
	s := &Server{store: store, creds: creds, logger: logger}

	s.app = fiber.New(fiber.Config{
		AppName:               "focusflow-recordstore",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(recordapi.Response{Success: false, Message: err.Error()})
		},
	})
	s.app.Use(recover.New())
	s.app.Use(middleware.RequestContext())
	s.app.Use(middleware.RequestLogger(logger))

	records := s.app.Group("/api/tables/:table/records")
	records.Post("/query", s.guard(s.fetch))
	records.Post("/:id/query", s.guard(s.getByID))
	records.Post("/", s.guard(s.create))
	records.Put("/", s.guard(s.update))
	records.Delete("/", s.guard(s.delete))

	return s
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("Record store listening", "addr", addr, "table", s.store.Table())
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// guard checks credentials and the table name before the handler runs.
func (s *Server) guard(next fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.creds.ProjectID != "" && c.Get(recordapi.HeaderProjectID) != s.creds.ProjectID {
			return fail(c, fiber.StatusUnauthorized, "invalid project id")
		}
		if s.creds.PublicKey != "" && c.Get(recordapi.HeaderPublicKey) != s.creds.PublicKey {
			return fail(c, fiber.StatusUnauthorized, "invalid public key")
		}
		if c.Params("table") != s.store.Table() {
			return fail(c, fiber.StatusNotFound, "table "+c.Params("table")+" not found")
		}
		return next(c)
	}
}

func (s *Server) fetch(c *fiber.Ctx) error {
	var params recordapi.FetchParams
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid query body")
		}
	}

	records, err := s.store.Query(c.UserContext(), params)
	if err != nil {
		return s.queryError(c, err)
	}
	return c.JSON(recordapi.Response{Success: true, Data: mustJSON(records)})
}

func (s *Server) getByID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return fail(c, fiber.StatusBadRequest, "invalid record id")
	}

	var params recordapi.FetchParams
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid query body")
		}
	}

	record, err := s.store.Get(c.UserContext(), id, params.Fields)
	if errors.Is(err, ErrRecordNotFound) {
		return fail(c, fiber.StatusNotFound, "record "+c.Params("id")+" not found")
	}
	if err != nil {
		return s.queryError(c, err)
	}
	return c.JSON(recordapi.Response{Success: true, Data: mustJSON(record)})
}

func (s *Server) create(c *fiber.Ctx) error {
	var req recordapi.WriteRequest
	if err := c.BodyParser(&req); err != nil || len(req.Records) == 0 {
		return fail(c, fiber.StatusBadRequest, "records are required")
	}
	return s.writeResults(c, "create", s.store.Create(c.UserContext(), req.Records))
}

func (s *Server) update(c *fiber.Ctx) error {
	var req recordapi.WriteRequest
	if err := c.BodyParser(&req); err != nil || len(req.Records) == 0 {
		return fail(c, fiber.StatusBadRequest, "records are required")
	}
	return s.writeResults(c, "update", s.store.Update(c.UserContext(), req.Records))
}

func (s *Server) delete(c *fiber.Ctx) error {
	var req recordapi.DeleteRequest
	if err := c.BodyParser(&req); err != nil || len(req.RecordIDs) == 0 {
		return fail(c, fiber.StatusBadRequest, "RecordIds are required")
	}
	return s.writeResults(c, "delete", s.store.Delete(c.UserContext(), req.RecordIDs))
}

// writeResults answers success=true with per-record outcomes; callers
// inspect each result.
func (s *Server) writeResults(c *fiber.Ctx, op string, results []recordapi.RecordResult) error {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		s.logger.Warn("Batch write had failures", "op", op, "failed", failed, "total", len(results))
	}
	return c.JSON(recordapi.Response{Success: true, Results: results})
}

func (s *Server) queryError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrInvalidQuery) {
		return fail(c, fiber.StatusBadRequest, err.Error())
	}
	s.logger.Error("Query failed", "err", err)
	return fail(c, fiber.StatusInternalServerError, "query failed")
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(recordapi.Response{Success: false, Message: msg})
}
