// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// Local snapshot drivers
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Remote   RemoteConfig
	Database DatabaseConfig
	Log      LogConfig
}

type ServerConfig struct {
	HTTPPort         string
	GRPCPort         string
	RecordStorePort  string
	Environment      string
	EnableReflection bool
	HealthInterval   time.Duration
}

type StorageConfig struct {
	Backend     string
	LocalDriver string
	FilePath    string
	SnapshotKey string
	Redis       RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RemoteConfig addresses the record-storage API.
type RemoteConfig struct {
	BaseURL    string
	ProjectID  string
	PublicKey  string
	Table      string
	Timeout    time.Duration
	FetchLimit int
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			HTTPPort:         getEnv("HTTP_PORT", "8080"),
			GRPCPort:         getEnv("GRPC_PORT", "50051"),
			RecordStorePort:  getEnv("RECORDSTORE_PORT", "8090"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			EnableReflection: getEnvAsBool("GRPC_REFLECTION", false),
			HealthInterval:   getEnvAsDuration("HEALTH_CHECK_INTERVAL", 15*time.Second),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(getEnv("STORAGE_BACKEND", BackendLocal)),
			LocalDriver: strings.ToLower(getEnv("LOCAL_STORAGE_DRIVER", DriverFile)),
			FilePath:    getEnv("LOCAL_STORAGE_PATH", "focusflow-tasks.json"),
			SnapshotKey: getEnv("LOCAL_STORAGE_KEY", "focusflow.tasks"),
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       getEnvAsInt("REDIS_DB", 0),
			},
		},
		Remote: RemoteConfig{
			BaseURL:    getEnv("RECORD_API_URL", "http://localhost:8090"),
			ProjectID:  getEnv("RECORD_API_PROJECT_ID", ""),
			PublicKey:  getEnv("RECORD_API_PUBLIC_KEY", ""),
			Table:      getEnv("RECORD_API_TABLE", "task_c"),
			Timeout:    getEnvAsDuration("RECORD_API_TIMEOUT", 10*time.Second),
			FetchLimit: getEnvAsInt("RECORD_API_FETCH_LIMIT", 100),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "focusflow"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			DSN:          getEnv("DB_DSN", ""),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

// Validate checks the combinations Load can't reject on its own.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendLocal:
		switch c.Storage.LocalDriver {
		case DriverFile:
			if c.Storage.FilePath == "" {
				return fmt.Errorf("LOCAL_STORAGE_PATH is required for the file driver")
			}
		case DriverRedis, DriverMemory:
		default:
			return fmt.Errorf("unknown local storage driver %q", c.Storage.LocalDriver)
		}
		if c.Storage.SnapshotKey == "" {
			return fmt.Errorf("LOCAL_STORAGE_KEY must not be empty")
		}
		if c.Storage.LocalDriver == DriverRedis && c.Server.HealthInterval <= 0 {
			return fmt.Errorf("HEALTH_CHECK_INTERVAL must be positive, got %s", c.Server.HealthInterval)
		}
	case BackendRemote:
		if c.Remote.BaseURL == "" {
			return fmt.Errorf("RECORD_API_URL is required for the remote backend")
		}
		if c.Remote.Table == "" {
			return fmt.Errorf("RECORD_API_TABLE must not be empty")
		}
		if c.Remote.FetchLimit <= 0 {
			return fmt.Errorf("RECORD_API_FETCH_LIMIT must be positive, got %d", c.Remote.FetchLimit)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// PostgresDSN builds a lib/pq connection string unless DB_DSN overrides it.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Try parsing as duration string (e.g., "15m", "24h")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
