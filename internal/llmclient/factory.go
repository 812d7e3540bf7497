// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// NewClient creates the oracle client for the configured provider, wrapped in
// the rate limiting and caching layers.
func NewClient(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	var (
		base schemas.LLMClient
		err  error
	)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		base, err = NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		base, err = NewGeminiClient(ctx, cfg, logger)
	case config.ProviderAnthropic:
		base, err = NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s, %s]",
			cfg.Provider, config.ProviderOpenAI, config.ProviderGemini, config.ProviderAnthropic)
	}
	if err != nil {
		return nil, err
	}

	return WithCache(WithRateLimit(base, cfg.RateLimitRPS, cfg.RateLimitBurst), cfg.CacheSize, logger)
}
