// Package llm talks to the generative text model used by the scene compiler.
// A call is a single request/response exchange: one system instruction, one
// user message, free text back.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StoryForge-server/config"
	"StoryForge-server/logger"
)

// ErrMissingAPIKey is returned when a request carries no credential.
var ErrMissingAPIKey = errors.New("llm: api key required")

type Request struct {
	APIKey string
	// Model overrides the client's configured model when non-empty.
	Model  string
	System string
	User   string
}

type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	// ModelName is the model used when a request does not name one.
	ModelName() string
}

// New builds the client for the configured provider.
func New(cfg *config.Config, log *logger.Logger) (Client, error) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "openai":
		opts := []Option{WithRetryMaxAttempts(cfg.LLM.MaxRetries + 1), WithLogger(log)}
		return NewOpenAIClient(OpenAIConfig{
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}, opts...), nil
	case "gemini":
		return NewGeminiClient(cfg.LLM.Model, time.Duration(cfg.LLM.TimeoutSeconds)*time.Second, log), nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLM.Provider)
	}
}

func validate(req Request) error {
	if strings.TrimSpace(req.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(req.System) == "" {
		return errors.New("llm: system prompt required")
	}
	if strings.TrimSpace(req.User) == "" {
		return errors.New("llm: user prompt required")
	}
	return nil
}

func pickModel(req Request, fallback string) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	return fallback
}
