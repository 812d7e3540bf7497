// internal/llmclient/anthropic_client.go
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// AnthropicClient implements schemas.LLMClient with the Anthropic Messages API.
// Retries are left to the SDK.
type AnthropicClient struct {
	client sdk.Client
	logger *zap.Logger
	config config.OracleConfig
}

// NewAnthropicClient initializes the client.
func NewAnthropicClient(cfg config.OracleConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.APITimeout}),
		option.WithMaxRetries(3),
	}
	if cfg.Endpoint != "" && cfg.Endpoint != config.DefaultOpenAIEndpoint {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	return &AnthropicClient{
		client: sdk.NewClient(opts...),
		config: cfg,
		logger: logger.Named("llm_client.anthropic"),
	}, nil
}

// Generate sends one user message and concatenates the text blocks of the reply.
func (c *AnthropicClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(c.config.Model),
		MaxTokens:   int64(maxTokens(req, c.config)),
		Messages:    []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt))},
		Temperature: sdk.Float(req.Options.Temperature),
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	c.logger.Debug("LLM generation complete (Anthropic)",
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return b.String(), nil
}

// Close is a no-op.
func (c *AnthropicClient) Close() error { return nil }
