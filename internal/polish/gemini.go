package polish

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// geminiModels is the fallback order when no model is pinned. Flash
// tiers first; the reply is short and latency matters more than depth.
var geminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-flash",
	"gemini-1.5-flash-8b",
	"gemini-1.5-pro",
}

// Gemini polishes drafts through the Google GenAI API, trying each
// candidate model in order until one answers.
type Gemini struct {
	apiKey string
	model  string
	logger *zap.Logger

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGemini builds a Gemini polisher. model may be empty to use the
// built-in fallback order. The API connection is established on first
// use, not here.
func NewGemini(apiKey, model string, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{apiKey: apiKey, model: model, logger: logger}
}

// Name identifies the provider in logs.
func (g *Gemini) Name() string { return "gemini" }

// Available reports whether an API key is configured.
func (g *Gemini) Available() bool { return g.apiKey != "" }

// Polish rewrites the draft, preserving its bullet lines. The first
// model that returns text wins; if all candidates fail the last error
// is returned.
func (g *Gemini) Polish(ctx context.Context, draft string, hint Hint) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("gemini polisher not configured")
	}
	g.initOnce.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{APIKey: g.apiKey})
	})
	if g.initErr != nil {
		return "", fmt.Errorf("creating genai client: %w", g.initErr)
	}

	prompt := buildPrompt(draft, hint)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var lastErr error
	for _, model := range g.candidates() {
		resp, err := g.client.Models.GenerateContent(ctx, model, contents, nil)
		if err != nil {
			g.logger.Debug("gemini model failed, trying next",
				zap.String("model", model), zap.Error(err))
			lastErr = err
			continue
		}
		out, err := validate(resp.Text())
		if err != nil {
			lastErr = fmt.Errorf("model %s: %w", model, err)
			continue
		}
		return out, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no gemini model candidates")
	}
	return "", fmt.Errorf("polishing with gemini: %w", lastErr)
}

func (g *Gemini) candidates() []string {
	if g.model != "" {
		return []string{g.model}
	}
	return geminiModels
}
