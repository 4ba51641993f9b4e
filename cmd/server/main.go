// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/focusflow/internal/api"
	"github.com/gurkanbulca/focusflow/internal/config"
	"github.com/gurkanbulca/focusflow/internal/health"
	"github.com/gurkanbulca/focusflow/internal/localstore"
	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/internal/repository"
	"github.com/gurkanbulca/focusflow/internal/service"
	"github.com/gurkanbulca/focusflow/pkg/recordapi"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	logger := logging.NewFromConfig(cfg.Log.Level, cfg.Log.Format, "focusflow")
	if envErr != nil {
		logger.Debug("No .env file found")
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", "err", err)
	}

	ctx := context.Background()

	store, err := newBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize task storage", "backend", cfg.Storage.Backend, "err", err)
	}
	defer store.cleanup()

	taskService := service.NewTaskService(store.repo, logger.WithPrefix("service"))
	httpServer := api.NewServer(taskService, logger.WithPrefix("http"), cfg.Storage.Backend)

	healthServer := health.NewServer(logger.WithPrefix("grpc"), cfg.Server.EnableReflection)
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
	if err != nil {
		logger.Fatal("Failed to listen", "port", cfg.Server.GRPCPort, "err", err)
	}

	go func() {
		logger.Info("Health server listening", "port", cfg.Server.GRPCPort)
		if err := healthServer.Serve(listener); err != nil {
			logger.Fatal("Failed to serve health checks", "err", err)
		}
	}()

	go func() {
		if err := httpServer.Listen(":" + cfg.Server.HTTPPort); err != nil {
			logger.Fatal("Failed to serve HTTP", "err", err)
		}
	}()
	healthServer.MarkServing()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if store.ping != nil {
		go healthServer.Watch(watchCtx, cfg.Server.HealthInterval, store.ping)
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWatch()
	healthServer.MarkNotServing()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "err", err)
	}
	healthServer.Stop()
	logger.Info("Server shutdown complete")
}

// backend is the task store selected by STORAGE_BACKEND. cleanup releases
// whatever connection it holds; ping is nil when there is nothing to watch.
type backend struct {
	repo    repository.TaskRepository
	ping    health.Checker
	cleanup func()
}

func newBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend, error) {
	b := &backend{cleanup: func() {}}

	if cfg.Storage.Backend == config.BackendRemote {
		client, err := recordapi.NewClient(recordapi.ClientConfig{
			BaseURL:   cfg.Remote.BaseURL,
			ProjectID: cfg.Remote.ProjectID,
			PublicKey: cfg.Remote.PublicKey,
			Timeout:   cfg.Remote.Timeout,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Using remote record storage", "url", cfg.Remote.BaseURL, "table", cfg.Remote.Table)
		b.repo = repository.NewRemoteTaskRepository(client, cfg.Remote.Table, cfg.Remote.FetchLimit, logger.WithPrefix("remote"))
		return b, nil
	}

	var store localstore.Store
	switch cfg.Storage.LocalDriver {
	case config.DriverRedis:
		client, err := localstore.NewRedisClient(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		if err != nil {
			return nil, err
		}
		redisStore := localstore.NewRedisStore(client, cfg.Storage.SnapshotKey)
		store = redisStore
		b.ping = redisStore.Ping
		b.cleanup = func() {
			if err := redisStore.Close(); err != nil {
				logger.Error("Failed to close redis connection", "err", err)
			}
		}
		logger.Info("Using redis snapshot storage", "addr", cfg.Storage.Redis.Addr, "key", cfg.Storage.SnapshotKey)
	case config.DriverMemory:
		store = localstore.NewMemoryStore()
		logger.Warn("Using in-memory snapshot storage, tasks are lost on exit")
	default:
		store = localstore.NewFileStore(cfg.Storage.FilePath)
		logger.Info("Using file snapshot storage", "path", cfg.Storage.FilePath)
	}

	repo, err := repository.NewLocalTaskRepository(ctx, store, logger.WithPrefix("local"))
	if err != nil {
		b.cleanup()
		return nil, err
	}
	b.repo = repo
	return b, nil
}
