package middleware

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"
)

// RequestLogger logs one line per HTTP request. Mount it after RequestContext.
func RequestLogger(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		info := GetClientInfoFromContext(c.UserContext())
		fields := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
			"request_id", info.RequestID,
			"ip", info.IPAddress,
		}

		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			logger.Error("Request failed", append(fields, "err", err)...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request completed", fields...)
		}
		return err
	}
}

// UnaryLogging logs gRPC calls. Chain it after UnaryMetadataExtractor.
func UnaryLogging(logger *log.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		client := GetClientInfoFromContext(ctx)
		fields := []interface{}{
			"method", info.FullMethod,
			"duration", time.Since(start),
			"request_id", client.RequestID,
			"ip", client.IPAddress,
		}
		if err != nil {
			logger.Error("gRPC call failed", append(fields, "err", err)...)
		} else {
			logger.Debug("gRPC call completed", fields...)
		}
		return resp, err
	}
}
