package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.StandardModel)
	assert.Equal(t, "standard", cfg.LLM.Tier)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 90*time.Second, cfg.Bulk.CallTimeout)
	assert.Equal(t, "candidate", cfg.Bulk.DefaultRole)
	assert.Empty(t, cfg.Bulk.DefaultPassword)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, "intake.events", cfg.RabbitMQ.Exchange)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INTAKE_SERVER_PORT", "9090")
	t.Setenv("INTAKE_BULK_DEFAULT_PASSWORD", "ChangeMe123!")
	t.Setenv("INTAKE_BULK_CALL_TIMEOUT", "45s")
	t.Setenv("INTAKE_LLM_API_KEY", "key")
	t.Setenv("INTAKE_AUTH_BCRYPT_COST", "10")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "ChangeMe123!", cfg.Bulk.DefaultPassword)
	assert.Equal(t, 45*time.Second, cfg.Bulk.CallTimeout)
	assert.Equal(t, "key", cfg.LLM.APIKey)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
storage:
  backend: gcs
  bucket: resumes-bucket
bulk:
  max_files: 5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, StorageGCS, cfg.Storage.Backend)
	assert.Equal(t, "resumes-bucket", cfg.Storage.Bucket)
	assert.Equal(t, 5, cfg.Bulk.MaxFiles)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeout: time.Second, WriteTimeout: time.Second, Environment: EnvDevelopment},
		LLM:    LLMConfig{Tier: "standard", RequestsPerMinute: 60},
		Storage: StorageConfig{
			Backend: StorageMemory,
		},
		Bulk: BulkConfig{DefaultRole: "candidate", CallTimeout: time.Second, MaxFiles: 10, MaxFileBytes: 1024},
		Auth: AuthConfig{BcryptCost: 12, JWTExpirationHours: 24},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "zero read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "s3" }, wantErr: true},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Storage.Backend = StorageGCS }, wantErr: true},
		{name: "unknown tier", mutate: func(c *Config) { c.LLM.Tier = "huge" }, wantErr: true},
		{name: "negative rpm", mutate: func(c *Config) { c.LLM.RequestsPerMinute = -1 }, wantErr: true},
		{name: "zero call timeout", mutate: func(c *Config) { c.Bulk.CallTimeout = 0 }, wantErr: true},
		{name: "admin default role", mutate: func(c *Config) { c.Bulk.DefaultRole = "admin" }, wantErr: true},
		{name: "zero max files", mutate: func(c *Config) { c.Bulk.MaxFiles = 0 }, wantErr: true},
		{name: "bcrypt too low", mutate: func(c *Config) { c.Auth.BcryptCost = 9 }, wantErr: true},
		{name: "bcrypt too high", mutate: func(c *Config) { c.Auth.BcryptCost = 15 }, wantErr: true},
		{name: "jwt expiry", mutate: func(c *Config) { c.Auth.JWTExpirationHours = 0 }, wantErr: true},
		{
			name: "production without secret",
			mutate: func(c *Config) {
				c.Server.Environment = EnvProduction
				c.Database.URL = "postgres://db"
			},
			wantErr: true,
		},
		{
			name: "production without database",
			mutate: func(c *Config) {
				c.Server.Environment = EnvProduction
				c.Auth.JWTSecret = "s"
			},
			wantErr: true,
		},
		{
			name: "production complete",
			mutate: func(c *Config) {
				c.Server.Environment = EnvProduction
				c.Auth.JWTSecret = "s"
				c.Database.URL = "postgres://db"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
