package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/reachout-cli/internal/config"
	"github.com/xkilldash9x/reachout-cli/internal/mocks"
)

func TestWithCache(t *testing.T) {
	t.Run("serves repeated requests from cache", func(t *testing.T) {
		next := new(mocks.MockLLMClient)
		next.On("Generate", mock.Anything, createTestRequest()).Return(`{"form_index":0}`, nil).Once()

		c, err := WithCache(next, 4, zaptest.NewLogger(t))
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			out, err := c.Generate(context.Background(), createTestRequest())
			require.NoError(t, err)
			assert.Equal(t, `{"form_index":0}`, out)
		}
		next.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("does not cache failures", func(t *testing.T) {
		next := new(mocks.MockLLMClient)
		next.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("boom")).Twice()

		c, err := WithCache(next, 4, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = c.Generate(context.Background(), createTestRequest())
		assert.Error(t, err)
		_, err = c.Generate(context.Background(), createTestRequest())
		assert.Error(t, err)
		next.AssertExpectations(t)
	})

	t.Run("zero size disables caching", func(t *testing.T) {
		next := new(mocks.MockLLMClient)
		c, err := WithCache(next, 0, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Same(t, next, c)
	})
}

func TestWithRateLimit(t *testing.T) {
	t.Run("disabled when rps is zero", func(t *testing.T) {
		next := new(mocks.MockLLMClient)
		assert.Same(t, next, WithRateLimit(next, 0, 1))
	})

	t.Run("wait honors cancellation", func(t *testing.T) {
		next := new(mocks.MockLLMClient)
		next.On("Generate", mock.Anything, mock.Anything).Return("{}", nil)
		c := WithRateLimit(next, 0.001, 1)

		_, err := c.Generate(context.Background(), createTestRequest())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = c.Generate(ctx, createTestRequest())
		assert.Error(t, err)
		next.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("close reaches the wrapped client", func(t *testing.T) {
		next := new(mocks.MockLLMClient)
		next.On("Close").Return(nil).Once()
		require.NoError(t, WithRateLimit(next, 5, 1).Close())
		next.AssertExpectations(t)
	})
}

func TestNewClient(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewClient(context.Background(), getValidOracleConfig("cohere", ""), zaptest.NewLogger(t))
		assert.ErrorContains(t, err, "unsupported LLM provider")
	})

	t.Run("openai with decorators", func(t *testing.T) {
		cfg := getValidOracleConfig(config.ProviderOpenAI, "http://localhost:1/v1/chat/completions")
		cfg.RateLimitRPS = 1
		cfg.RateLimitBurst = 1
		cfg.CacheSize = 8

		c, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		cached, ok := c.(*CachingClient)
		require.True(t, ok)
		_, ok = cached.next.(*RateLimitedClient)
		assert.True(t, ok)
	})

	t.Run("anthropic without key", func(t *testing.T) {
		cfg := getValidOracleConfig(config.ProviderAnthropic, "")
		cfg.APIKey = ""
		_, err := NewClient(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}
