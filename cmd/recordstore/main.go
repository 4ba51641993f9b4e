// cmd/recordstore/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/focusflow/internal/config"
	"github.com/gurkanbulca/focusflow/internal/database"
	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/internal/recordstore"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	logger := logging.NewFromConfig(cfg.Log.Level, cfg.Log.Format, "recordstore")
	if envErr != nil {
		logger.Debug("No .env file found")
	}

	ctx := context.Background()

	dialectName, err := database.Dialect(cfg.Database.Driver)
	if err != nil {
		logger.Fatal("Invalid database driver", "err", err)
	}

	logger.Info("Connecting to database", "driver", cfg.Database.Driver)
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", "err", err)
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := recordstore.Migrate(ctx, db, dialectName, cfg.Remote.Table); err != nil {
			logger.Fatal("Failed to run auto migration", "err", err)
		}
		logger.Info("Auto migration completed", "table", cfg.Remote.Table)
	}

	store, err := recordstore.NewStore(db, dialectName, cfg.Remote.Table)
	if err != nil {
		logger.Fatal("Failed to create record store", "err", err)
	}

	srv := recordstore.NewServer(store, recordstore.Credentials{
		ProjectID: cfg.Remote.ProjectID,
		PublicKey: cfg.Remote.PublicKey,
	}, logger.WithPrefix("http"))

	go func() {
		if err := srv.Listen(":" + cfg.Server.RecordStorePort); err != nil {
			logger.Fatal("Failed to serve", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down record store...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "err", err)
	}
}
