// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/reachout-cli/api/schemas"
	"github.com/xkilldash9x/reachout-cli/internal/config"
)

// GeminiClient implements schemas.LLMClient with the official genai SDK.
type GeminiClient struct {
	cli    *genai.Client
	model  string
	logger *zap.Logger
	config config.OracleConfig
}

// NewGeminiClient initializes the client. A configured endpoint other than the
// OpenAI default is treated as a base URL override.
func NewGeminiClient(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.APITimeout},
	}
	if cfg.Endpoint != "" && cfg.Endpoint != config.DefaultOpenAIEndpoint {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClient{
		cli:    cli,
		model:  cfg.Model,
		config: cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the prompts to Gemini and returns the first candidate's text.
func (g *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Options.Temperature)),
		MaxOutputTokens: int32(maxTokens(req, g.config)),
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemPrompt}}}
	}
	if req.Options.ForceJSONFormat {
		gc.ResponseMIMEType = "application/json"
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.UserPrompt}}}}

	var text string
	operation := func() error {
		startTime := time.Now()
		resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, gc)
		if err != nil {
			return classifyGeminiError(err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			g.logger.Warn("Gemini returned no content; treating it as no decision.")
			text = emptyReply
			return nil
		}

		var b strings.Builder
		for _, p := range resp.Candidates[0].Content.Parts {
			b.WriteString(p.Text)
		}
		text = b.String()

		g.logger.Debug("LLM generation complete (Gemini)", zap.Duration("duration", time.Since(startTime)))
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(newBackOff(g.config), ctx)); err != nil {
		return "", err
	}
	return text, nil
}

// Close is a no-op; the genai client has nothing to release.
func (g *GeminiClient) Close() error { return nil }

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return err
		}
		return backoff.Permanent(err)
	}
	return err
}
