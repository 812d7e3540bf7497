package llmclient

import (
	"time"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// getValidOracleConfig returns an OracleConfig suitable for tests.
func getValidOracleConfig(provider, endpoint string) config.OracleConfig {
	return config.OracleConfig{
		Provider:   provider,
		Endpoint:   endpoint,
		APIKey:     "test-api-key",
		Model:      "test-model",
		MaxTokens:  256,
		APITimeout: 5 * time.Second,
		MaxElapsed: 3 * time.Second,
	}
}

// createTestRequest provides a standard generation request structure.
func createTestRequest() schemas.GenerationRequest {
	return schemas.GenerationRequest{
		SystemPrompt: "System prompt instructions.",
		UserPrompt:   "User query.",
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	}
}
