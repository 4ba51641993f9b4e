package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/focusflow/internal/models"
	"github.com/gurkanbulca/focusflow/internal/service"
)

// statusFor maps a store error to an HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrValidationFailed):
		return fiber.StatusBadRequest, "validation_error"
	case errors.Is(err, models.ErrPartialBatchFailure):
		return fiber.StatusBadGateway, "partial_failure"
	case errors.Is(err, models.ErrStorageUnavailable):
		return fiber.StatusServiceUnavailable, "storage_unavailable"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}

// respondError writes the notification text for err; backend detail is
// logged, never returned.
func (s *Server) respondError(c *fiber.Ctx, op string, err error) error {
	code, kind := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed", "op", op, "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(ErrorResponse{
		Error:   kind,
		Message: service.UserMessage(op, err),
	})
}

// errorHandler handles errors escaping the handlers, e.g. unknown routes.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
