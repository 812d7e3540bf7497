// internal/llmclient/middleware.go
package llmclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
)

// -- Rate Limiting --

// RateLimitedClient waits on a token bucket before every call.
type RateLimitedClient struct {
	next    schemas.LLMClient
	limiter *rate.Limiter
}

// WithRateLimit wraps next. A non-positive rps disables limiting.
func WithRateLimit(next schemas.LLMClient, rps float64, burst int) schemas.LLMClient {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedClient{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (c *RateLimitedClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}
	return c.next.Generate(ctx, req)
}

func (c *RateLimitedClient) Close() error { return c.next.Close() }

// -- Response Cache --

// CachingClient memoizes successful responses keyed by the full request, so a
// repeated classification of the same page does not cost a second call.
type CachingClient struct {
	next   schemas.LLMClient
	cache  *lru.Cache[string, string]
	logger *zap.Logger
}

// WithCache wraps next with an LRU of the given size. A non-positive size
// disables caching.
func WithCache(next schemas.LLMClient, size int, logger *zap.Logger) (schemas.LLMClient, error) {
	if size <= 0 {
		return next, nil
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}
	return &CachingClient{next: next, cache: cache, logger: logger.Named("llm_cache")}, nil
}

func (c *CachingClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	key, err := requestKey(req)
	if err != nil {
		return c.next.Generate(ctx, req)
	}
	if v, ok := c.cache.Get(key); ok {
		c.logger.Debug("Serving oracle response from cache.")
		return v, nil
	}

	out, err := c.next.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, out)
	return out, nil
}

func (c *CachingClient) Close() error { return c.next.Close() }

func requestKey(req schemas.GenerationRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
