package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"StoryForge-server/logger"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls Gemini through google.golang.org/genai. The API key
// arrives with each request, so one genai client is kept per key.
type GeminiClient struct {
	model   string
	timeout time.Duration
	baseURL string
	log     *logger.Logger

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiClient(model string, timeout time.Duration, log *logger.Logger) *GeminiClient {
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GeminiClient{
		model:   model,
		timeout: timeout,
		log:     log.With("component", "llm.gemini"),
		clients: make(map[string]*genai.Client),
	}
}

func (g *GeminiClient) ModelName() string { return g.model }

// WithBaseURL points the client at another Gemini API endpoint, e.g. a proxy.
func (g *GeminiClient) WithBaseURL(u string) *GeminiClient {
	g.baseURL = strings.TrimSpace(u)
	return g
}

func (g *GeminiClient) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	cfg := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if g.timeout > 0 {
		cfg.HTTPOptions.Timeout = &g.timeout
	}
	if g.baseURL != "" {
		cfg.HTTPOptions.BaseURL = g.baseURL
	}
	c, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.clients[apiKey] = c
	return c, nil
}

func (g *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}
	c, err := g.client(ctx, strings.TrimSpace(req.APIKey))
	if err != nil {
		return "", err
	}
	contents := []*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)}
	resp, err := c.Models.GenerateContent(ctx, pickModel(req, g.model), contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini generate: empty content")
	}
	return text, nil
}
