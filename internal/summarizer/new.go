package summarizer

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"recapflow/internal/config"
	"recapflow/internal/logger"
	"recapflow/pkg/retry"
)

// generateFunc issues one text-generation call. Tests swap in a fake; the
// real one is bound to a genai client in New.
type generateFunc func(ctx context.Context, prompt string) (string, error)

type implSummarizer struct {
	generate generateFunc
	policy   retry.Policy
	logger   logger.Logger
}

// New creates a Summarizer backed by the Gemini API.
func New(ctx context.Context, apiKey string, cfg *config.Config, log logger.Logger) (Summarizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Gemini.Model
	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(cfg.Gemini.Temperature),
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}

	generate := func(ctx context.Context, prompt string) (string, error) {
		result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), genCfg)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			return "", nil
		}
		var text string
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
		return text, nil
	}

	return &implSummarizer{
		generate: generate,
		policy: retry.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   time.Duration(cfg.Retry.BaseDelayMS) * time.Millisecond,
			MaxJitter:   time.Duration(cfg.Retry.MaxJitterMS) * time.Millisecond,
		},
		logger: log,
	}, nil
}
