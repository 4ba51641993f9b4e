package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, BackendLocal, cfg.Storage.Backend)
	assert.Equal(t, DriverFile, cfg.Storage.LocalDriver)
	assert.Equal(t, "task_c", cfg.Remote.Table)
	assert.Equal(t, 100, cfg.Remote.FetchLimit)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Server.HealthInterval)
	assert.True(t, cfg.IsDevelopment())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "REMOTE")
	t.Setenv("RECORD_API_URL", "http://records.internal")
	t.Setenv("RECORD_API_FETCH_LIMIT", "50")
	t.Setenv("RECORD_API_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("GRPC_REFLECTION", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Storage.Backend)
	assert.Equal(t, "http://records.internal", cfg.Remote.BaseURL)
	assert.Equal(t, 50, cfg.Remote.FetchLimit)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 0, cfg.Storage.Redis.DB)
	assert.True(t, cfg.Server.EnableReflection)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "ftp" },
			wantErr: "unknown storage backend",
		},
		{
			name:    "unknown local driver",
			mutate:  func(c *Config) { c.Storage.LocalDriver = "sqlite" },
			wantErr: "unknown local storage driver",
		},
		{
			name: "remote without url",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRemote
				c.Remote.BaseURL = ""
			},
			wantErr: "RECORD_API_URL",
		},
		{
			name: "remote with zero fetch limit",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRemote
				c.Remote.FetchLimit = 0
			},
			wantErr: "must be positive",
		},
		{
			name: "redis without health interval",
			mutate: func(c *Config) {
				c.Storage.LocalDriver = DriverRedis
				c.Server.HealthInterval = 0
			},
			wantErr: "HEALTH_CHECK_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_PostgresDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "tasks", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tasks sslmode=disable", d.PostgresDSN())

	d.DSN = "postgres://override"
	assert.Equal(t, "postgres://override", d.PostgresDSN())
}
