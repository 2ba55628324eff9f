package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"remindbot/internal/ports/output"
)

var _ output.TextGenerator = (*Generator)(nil)

const (
	DefaultModel   = "gemini-2.0-flash"
	defaultTimeout = 30 * time.Second
)

// Default request budget shared by all chats.
var (
	DefaultLimit = rate.Every(4 * time.Second)
	DefaultBurst = 3
)

var ErrEmptyResponse = errors.New("gemini: empty response")

// models is the subset of *genai.Models the generator calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey  string
	Model   string
	Limit   rate.Limit
	Burst   int
	Timeout time.Duration
}

// Generator calls the Gemini API. Requests beyond the rate limit wait for a
// token or fail when ctx ends first.
type Generator struct {
	models  models
	model   string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *slog.Logger
}

func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGenerator(client.Models, cfg, logger), nil
}

func newGenerator(m models, cfg Config, logger *slog.Logger) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Burst < 1 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Generator{
		models:  m,
		model:   cfg.Model,
		limiter: rate.NewLimiter(cfg.Limit, cfg.Burst),
		timeout: cfg.Timeout,
		logger:  logger.With("component", "gemini"),
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini rate limit: %w", err)
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug("generated", "model", g.model, "duration", time.Since(start), "chars", len(text))
	return text, nil
}
