package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" matches by prefix)
	Method string        // HTTP method
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused client bucket is kept.
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the limits used by the service.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Routes that call
// the extraction service get the strictest ones.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Extraction
		{Path: "/api/v1/admin/bulk-uploads", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/api/v1/profile/import", Method: http.MethodPost, Limit: 30, Window: time.Hour, Burst: 5},

		// Credentials
		{Path: "/api/v1/auth/login", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/api/v1/auth/password", Method: http.MethodPut, Limit: 10, Window: time.Minute, Burst: 3},

		// Writes
		{Path: "/api/v1/profile/", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/v1/admin/users", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
	}
}

// WithWhitelist returns a copy of c that never limits the given client IDs.
func (c *Config) WithWhitelist(clients []string) *Config {
	cp := *c
	cp.Whitelist = make(map[string]bool, len(c.Whitelist)+len(clients))
	for k, v := range c.Whitelist {
		cp.Whitelist[k] = v
	}
	for _, id := range clients {
		if id != "" {
			cp.Whitelist[id] = true
		}
	}
	return &cp
}
