package database

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gurkanbulca/focusflow/internal/config"
)

// Dialect returns the ent dialect for a database/sql driver name.
func Dialect(driver string) (string, error) {
	switch driver {
	case dialect.Postgres:
		return dialect.Postgres, nil
	case dialect.SQLite:
		return dialect.SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// DSN picks the connection string for the configured driver.
func DSN(cfg config.DatabaseConfig) string {
	if cfg.Driver == dialect.SQLite {
		if cfg.DSN != "" {
			return cfg.DSN
		}
		return "file:focusflow.db?_fk=1"
	}
	return cfg.PostgresDSN()
}

// Open connects, configures the pool and pings.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if _, err := Dialect(cfg.Driver); err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.Driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == dialect.SQLite {
		// SQLite allows one writer at a time
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
