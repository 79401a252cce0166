package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

func testConfig(endpoints ...EndpointConfig) *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    5,
		DefaultWindow:   time.Minute,
		Whitelist:       map[string]bool{},
		EndpointConfigs: endpoints,
	}
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/api/v1/profile/import", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 3,
	}))
	defer l.Stop()

	for i := 0; i < 3; i++ {
		if allowed, _ := l.Allow("1.2.3.4", "/api/v1/profile/import", http.MethodPost); !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}

	allowed, info := l.Allow("1.2.3.4", "/api/v1/profile/import", http.MethodPost)
	if allowed {
		t.Fatal("Expected 4th request to be denied")
	}
	if info.Limit != 10 {
		t.Errorf("Expected limit 10, got %d", info.Limit)
	}
	if info.RetryAfter <= 0 {
		t.Errorf("Expected positive RetryAfter, got %v", info.RetryAfter)
	}
	if info.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", info.Remaining)
	}
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/api/v1/auth/login", Method: http.MethodPost, Limit: 1, Window: time.Hour, Burst: 1,
	}))
	defer l.Stop()

	if allowed, _ := l.Allow("a", "/api/v1/auth/login", http.MethodPost); !allowed {
		t.Fatal("Expected first request from a to be allowed")
	}
	if allowed, _ := l.Allow("a", "/api/v1/auth/login", http.MethodPost); allowed {
		t.Fatal("Expected second request from a to be denied")
	}
	if allowed, _ := l.Allow("b", "/api/v1/auth/login", http.MethodPost); !allowed {
		t.Fatal("Expected request from b to be allowed")
	}
}

func TestLimiter_DefaultLimitIsShared(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 5; i++ {
		path := "/api/v1/profile"
		if i%2 == 1 {
			path = "/api/v1/admin/bulk-uploads/x"
		}
		if allowed, _ := l.Allow("c", path, http.MethodGet); !allowed {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if allowed, _ := l.Allow("c", "/anything", http.MethodGet); allowed {
		t.Fatal("Expected default bucket to be exhausted")
	}
}

func TestLimiter_DisabledAndWhitelist(t *testing.T) {
	disabled := NewLimiter(&Config{Enabled: false})
	defer disabled.Stop()
	for i := 0; i < 100; i++ {
		if allowed, _ := disabled.Allow("x", "/", http.MethodGet); !allowed {
			t.Fatal("Expected disabled limiter to allow everything")
		}
	}

	cfg := testConfig(EndpointConfig{Path: "/login", Method: http.MethodPost, Limit: 1, Window: time.Hour})
	l := NewLimiter(cfg.WithWhitelist([]string{"10.0.0.1"}))
	defer l.Stop()
	for i := 0; i < 10; i++ {
		if allowed, _ := l.Allow("10.0.0.1", "/login", http.MethodPost); !allowed {
			t.Fatal("Expected whitelisted client to be allowed")
		}
	}
	if len(cfg.Whitelist) != 0 {
		t.Error("WithWhitelist must not modify the original config")
	}
}

func TestLimiter_HealthIsUnlimited(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, DefaultLimit: 1, DefaultWindow: time.Hour})
	defer l.Stop()
	for i := 0; i < 10; i++ {
		if allowed, _ := l.Allow("x", "/health", http.MethodGet); !allowed {
			t.Fatal("Expected /health to be unlimited")
		}
	}
}

func TestLimiter_EvictIdle(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	l.Allow("a", "/x", http.MethodGet)
	l.Allow("b", "/x", http.MethodGet)

	if n := l.evictIdle(time.Now().Add(-time.Minute)); n != 0 {
		t.Errorf("Expected no eviction of fresh buckets, got %d", n)
	}
	if n := l.evictIdle(time.Now().Add(time.Minute)); n != 2 {
		t.Errorf("Expected 2 evictions, got %d", n)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/bulk", Method: http.MethodPost, Limit: 50, Window: time.Hour, Burst: 50,
	}))
	defer l.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := l.Allow("same", "/bulk", http.MethodPost); allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowedCount != 50 {
		t.Errorf("Expected exactly 50 allowed requests, got %d", allowedCount)
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		path, method string
		wantPath     string
	}{
		{"/api/v1/admin/bulk-uploads", http.MethodPost, "/api/v1/admin/bulk-uploads"},
		{"/api/v1/profile/import", http.MethodPost, "/api/v1/profile/import"},
		{"/api/v1/profile/import/accept", http.MethodPost, "/api/v1/profile/"},
		{"/api/v1/profile/resume", http.MethodPost, "/api/v1/profile/"},
		{"/api/v1/profile", http.MethodGet, ""},
		{"/api/v1/admin/bulk-uploads", http.MethodGet, ""},
	}

	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		if tt.wantPath == "" {
			if got != nil {
				t.Errorf("%s %s: expected no match, got %s", tt.method, tt.path, got.Path)
			}
			continue
		}
		if got == nil || got.Path != tt.wantPath {
			t.Errorf("%s %s: expected %s, got %+v", tt.method, tt.path, tt.wantPath, got)
		}
	}

	if health := MatchEndpoint("/health", http.MethodGet, configs); health == nil || health.Limit != 0 {
		t.Error("Expected /health to match an unlimited config")
	}
}
