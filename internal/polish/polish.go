// Package polish optionally rewrites a composed reply draft for tone
// and clarity using a generative provider. Every provider preserves
// the draft's bullet facts; on any failure callers keep the draft.
package polish

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fernwell/caseflow/internal/models"
	"github.com/fernwell/caseflow/internal/tokens"
)

// TokenBudget caps the draft size sent to a provider. Larger drafts
// skip polish entirely.
const TokenBudget = 3000

// Hint steers the rewrite toward the customer's state of mind.
type Hint struct {
	Emotion models.EmotionLabel
	Intent  models.Intent
}

// Polisher rewrites a reply draft. Implementations must keep every
// line starting with "- " byte-for-byte.
type Polisher interface {
	// Name identifies the provider in logs.
	Name() string

	// Available reports whether the provider can be called at all
	// (credentials present). Cheap; no network.
	Available() bool

	// Polish returns the rewritten draft. An error or empty result
	// means the caller should keep the original.
	Polish(ctx context.Context, draft string, hint Hint) (string, error)
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string // "gemini", "openai", or "none"
	Model    string // optional model override
	APIKey   string
}

// FromSettings builds the configured Polisher. Unknown providers and
// missing credentials degrade to Noop.
func FromSettings(s Settings, logger *zap.Logger) Polisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(s.Provider) {
	case "gemini":
		if s.APIKey == "" {
			logger.Debug("polish disabled: gemini api key not set")
			return Noop{}
		}
		return NewGemini(s.APIKey, s.Model, logger)
	case "openai":
		if s.APIKey == "" {
			logger.Debug("polish disabled: openai api key not set")
			return Noop{}
		}
		return NewOpenAI(s.APIKey, s.Model, logger)
	case "", "none":
		return Noop{}
	default:
		logger.Warn("unknown polish provider, using none", zap.String("provider", s.Provider))
		return Noop{}
	}
}

// Eligible reports whether a draft should be polished at all. Praise
// and missing-part replies keep their fixed phrasing, and oversized
// drafts are not sent out.
func Eligible(intent models.Intent, draft string) bool {
	if intent == models.IntentPraise || intent == models.IntentMissingPart {
		return false
	}
	return tokens.WithinBudget(draft, TokenBudget)
}

// Noop returns drafts unchanged.
type Noop struct{}

func (Noop) Name() string    { return "none" }
func (Noop) Available() bool { return true }

func (Noop) Polish(_ context.Context, draft string, _ Hint) (string, error) {
	return draft, nil
}

// rewriteInstructions states the contract the provider must honor:
// bullet lines and numerals survive verbatim, tone adapts to the hint.
func rewriteInstructions(hint Hint) string {
	var b strings.Builder
	b.WriteString("Improve the clarity and empathy of this customer support reply WITHOUT changing facts. ")
	b.WriteString("Keep every line that starts with '- ' exactly as it is, each on its own line. ")
	b.WriteString("Do not invent dates, times, or amounts, and do not alter any IDs or numerals. ")
	b.WriteString("Open with one concise paragraph stating the completed actions and the next steps with timeframes, then show the bullet list unchanged.")

	if style := styleHint(hint.Emotion); style != "" {
		b.WriteString("\n\nSTYLE HINT: ")
		b.WriteString(style)
	}
	return b.String()
}

// buildPrompt frames the instructions and draft as a single message
// for providers without a separate instruction channel.
func buildPrompt(draft string, hint Hint) string {
	return rewriteInstructions(hint) + "\n\n" + draft
}

func styleHint(emotion models.EmotionLabel) string {
	switch emotion {
	case models.EmotionAngry:
		return "The customer is angry. Apologize once, then show decisive actions."
	case models.EmotionConfused:
		return "The customer is confused. Clarify simply and reassuringly."
	case models.EmotionPolite:
		return "The customer is polite. Keep the tone friendly and concise."
	}
	return ""
}

// validate rejects responses a provider should never produce.
func validate(out string) (string, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("provider returned empty text")
	}
	return out, nil
}
