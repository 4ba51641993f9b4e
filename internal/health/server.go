// Package health serves the standard grpc.health.v1 protocol so load
// balancers and the smoke client can check on the process.
package health

import (
	"context"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/focusflow/internal/middleware"
)

// ServiceTasks is the health service name reported for the task store.
const ServiceTasks = "focusflow.v1.Tasks"

// Server wraps a gRPC server carrying only the health service.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	logger *log.Logger
}

// NewServer starts out NOT_SERVING; call MarkServing once the store is ready.
func NewServer(logger *log.Logger, enableReflection bool) *Server {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.UnaryMetadataExtractor(),
			middleware.UnaryLogging(logger),
		),
	)

	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceTasks, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if enableReflection {
		reflection.Register(gs)
		logger.Info("gRPC reflection enabled (disable in production)")
	}

	return &Server{grpc: gs, health: hs, logger: logger}
}

// MarkServing reports the process and the task store as healthy.
func (s *Server) MarkServing() {
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceTasks, grpc_health_v1.HealthCheckResponse_SERVING)
}

// MarkNotServing flips every service to NOT_SERVING, e.g. when draining.
func (s *Server) MarkNotServing() {
	s.health.Shutdown()
}

// Checker reports whether a dependency of the task store is reachable.
type Checker func(ctx context.Context) error

// Watch runs check every interval and mirrors the result onto ServiceTasks
// until ctx is done. Statuses set after MarkNotServing are ignored.
func (s *Server) Watch(ctx context.Context, interval time.Duration, check Checker) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := check(checkCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}

		switch {
		case err != nil && healthy:
			s.logger.Warn("Task store unreachable", "err", err)
			s.health.SetServingStatus(ServiceTasks, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		case err == nil && !healthy:
			s.logger.Info("Task store reachable again")
			s.health.SetServingStatus(ServiceTasks, grpc_health_v1.HealthCheckResponse_SERVING)
		}
		healthy = err == nil

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server listening", "addr", lis.Addr().String())
	return s.grpc.Serve(lis)
}

// Stop drains in-flight calls after marking the server NOT_SERVING.
func (s *Server) Stop() {
	s.MarkNotServing()
	s.grpc.GracefulStop()
}
