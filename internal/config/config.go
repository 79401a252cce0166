// Package config loads service configuration from files and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage backends
const (
	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Bulk      BulkConfig      `mapstructure:"bulk"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RabbitMQ  RabbitMQConfig  `mapstructure:"rabbitmq"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds the PostgreSQL connection URL
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// LLMConfig configures the extraction service
type LLMConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	LiteModel         string  `mapstructure:"lite_model"`
	StandardModel     string  `mapstructure:"standard_model"`
	AdvancedModel     string  `mapstructure:"advanced_model"`
	Tier              string  `mapstructure:"tier"`
	Temperature       float32 `mapstructure:"temperature"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

// StorageConfig selects where uploaded documents are kept
type StorageConfig struct {
	Backend         string `mapstructure:"backend"`
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// BulkConfig configures bulk account provisioning.
// DefaultPassword is a shared placeholder that every provisioned account must rotate on first login.
type BulkConfig struct {
	DefaultPassword string        `mapstructure:"default_password"`
	DefaultRole     string        `mapstructure:"default_role"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	MaxFiles        int           `mapstructure:"max_files"`
	MaxFileBytes    int64         `mapstructure:"max_file_bytes"`
}

// AuthConfig holds token and password hashing settings
type AuthConfig struct {
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours"`
	BcryptCost         int    `mapstructure:"bcrypt_cost"`
	PasswordPepper     string `mapstructure:"password_pepper"`
}

// RabbitMQConfig holds the event bus connection. An empty URL disables publishing.
type RabbitMQConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// RateLimitConfig toggles per-client request limits
type RateLimitConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Whitelist []string `mapstructure:"whitelist"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// Load reads configuration from the optional YAML file at path and from
// INTAKE_* environment variables, which take precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("INTAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("intake")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.environment", EnvDevelopment)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("database.url", "")

	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.lite_model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.standard_model", "gemini-2.5-flash")
	v.SetDefault("llm.advanced_model", "gemini-2.5-pro")
	v.SetDefault("llm.tier", "standard")
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.requests_per_minute", 60)

	v.SetDefault("storage.backend", StorageMemory)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.credentials_file", "")

	v.SetDefault("bulk.default_password", "")
	v.SetDefault("bulk.default_role", "candidate")
	v.SetDefault("bulk.call_timeout", 90*time.Second)
	v.SetDefault("bulk.max_files", 100)
	v.SetDefault("bulk.max_file_bytes", 10<<20)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expiration_hours", 24)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.password_pepper", "")

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "intake.events")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.whitelist", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks ranges and production requirements
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.LLM.Tier {
	case "lite", "standard", "advanced":
	default:
		return fmt.Errorf("unknown llm tier: %q", c.LLM.Tier)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute cannot be negative")
	}

	if c.Bulk.CallTimeout <= 0 {
		return errors.New("bulk.call_timeout must be positive")
	}
	switch c.Bulk.DefaultRole {
	case "candidate", "recruiter":
	default:
		return fmt.Errorf("bulk.default_role must be candidate or recruiter, got: %q", c.Bulk.DefaultRole)
	}
	if c.Bulk.MaxFiles < 1 {
		return fmt.Errorf("bulk.max_files must be at least 1, got: %d", c.Bulk.MaxFiles)
	}
	if c.Bulk.MaxFileBytes < 1 {
		return fmt.Errorf("bulk.max_file_bytes must be at least 1, got: %d", c.Bulk.MaxFileBytes)
	}

	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.Auth.BcryptCost)
	}
	if c.Auth.JWTExpirationHours < 1 {
		return fmt.Errorf("auth.jwt_expiration_hours must be at least 1 hour, got: %d", c.Auth.JWTExpirationHours)
	}

	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return errors.New("INTAKE_AUTH_JWT_SECRET must be set in production")
		}
		if c.Database.URL == "" {
			return errors.New("INTAKE_DATABASE_URL must be set in production")
		}
	}
	return nil
}
