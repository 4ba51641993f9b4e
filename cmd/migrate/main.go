package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/gurkanbulca/focusflow/internal/config"
	"github.com/gurkanbulca/focusflow/internal/database"
	"github.com/gurkanbulca/focusflow/internal/logging"
	"github.com/gurkanbulca/focusflow/internal/recordstore"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	logger := logging.NewFromConfig(cfg.Log.Level, cfg.Log.Format, "migrate")

	dialectName, err := database.Dialect(cfg.Database.Driver)
	if err != nil {
		logger.Fatal("Invalid database driver", "err", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer db.Close()

	logger.Info("Running database migrations...", "table", cfg.Remote.Table)
	if err := recordstore.Migrate(ctx, db, dialectName, cfg.Remote.Table); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}
	logger.Info("Migrations completed successfully")
}
