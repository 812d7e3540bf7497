// internal/llmclient/retry.go
package llmclient

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newBackOff returns the retry schedule shared by every provider.
func newBackOff(cfg config.OracleConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.MaxElapsed
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = 2 * time.Minute
	}
	b.MaxInterval = 30 * time.Second
	return b
}

func maxTokens(req schemas.GenerationRequest, cfg config.OracleConfig) int {
	if req.Options.MaxTokens > 0 {
		return req.Options.MaxTokens
	}
	return cfg.MaxTokens
}
