package llm

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// ThrottledClient spaces calls to the wrapped client so that a shared process
// never exceeds the provider's per-minute quota.
type ThrottledClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewThrottledClient wraps inner with a limiter allowing requestsPerMinute calls.
func NewThrottledClient(inner Client, requestsPerMinute int) *ThrottledClient {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &ThrottledClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// GenerateStructured waits for a slot and forwards the call.
// A context that expires while waiting is reported as an API call failure.
func (c *ThrottledClient) GenerateStructured(ctx context.Context, req *StructuredRequest, tier ModelTier) (*StructuredResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APICallError{Model: c.inner.GetModel(tier), Message: "rate limiter wait", Cause: err}
	}
	return c.inner.GenerateStructured(ctx, req, tier)
}

// GetModel returns the model name for a tier
func (c *ThrottledClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close releases resources held by the wrapped client
func (c *ThrottledClient) Close() error {
	return c.inner.Close()
}
