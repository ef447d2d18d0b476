package polish

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fernwell/caseflow/internal/models"
)

func TestNoopPolish(t *testing.T) {
	p := Noop{}
	if p.Name() != "none" {
		t.Errorf("Name() = %q, want %q", p.Name(), "none")
	}
	if !p.Available() {
		t.Error("Noop should always be available")
	}
	draft := "Thanks for reaching out, let's get this resolved.\n- Ticket: TCK-2026-08-25-RE1001"
	got, err := p.Polish(context.Background(), draft, Hint{Emotion: models.EmotionAngry})
	if err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if got != draft {
		t.Errorf("Polish() = %q, want draft unchanged", got)
	}
}

func TestFromSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantName string
	}{
		{
			name:     "none provider",
			settings: Settings{Provider: "none"},
			wantName: "none",
		},
		{
			name:     "empty provider",
			settings: Settings{Provider: ""},
			wantName: "none",
		},
		{
			name:     "gemini with key",
			settings: Settings{Provider: "gemini", APIKey: "test-key"},
			wantName: "gemini",
		},
		{
			name:     "gemini without key falls back",
			settings: Settings{Provider: "gemini"},
			wantName: "none",
		},
		{
			name:     "openai with key",
			settings: Settings{Provider: "openai", APIKey: "test-key"},
			wantName: "openai",
		},
		{
			name:     "openai without key falls back",
			settings: Settings{Provider: "openai"},
			wantName: "none",
		},
		{
			name:     "provider name is case insensitive",
			settings: Settings{Provider: "Gemini", APIKey: "test-key"},
			wantName: "gemini",
		},
		{
			name:     "unknown provider falls back",
			settings: Settings{Provider: "carrier-pigeon", APIKey: "test-key"},
			wantName: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromSettings(tt.settings, zap.NewNop())
			if p == nil {
				t.Fatal("FromSettings() returned nil")
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
			if !p.Available() {
				t.Errorf("provider %q should report available", p.Name())
			}
		})
	}
}

func TestEligible(t *testing.T) {
	short := "Thanks for reaching out, let's get this resolved."
	oversized := strings.Repeat("customer wrote a very long message ", 400)

	tests := []struct {
		name   string
		intent models.Intent
		draft  string
		want   bool
	}{
		{"refund reply", models.IntentRefundRequest, short, true},
		{"generic reply", models.IntentGenericComplaint, short, true},
		{"praise keeps fixed phrasing", models.IntentPraise, short, false},
		{"missing part keeps fixed phrasing", models.IntentMissingPart, short, false},
		{"oversized draft skipped", models.IntentRefundRequest, oversized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.intent, tt.draft); got != tt.want {
				t.Errorf("Eligible(%s) = %v, want %v", tt.intent, got, tt.want)
			}
		})
	}
}

func TestRewriteInstructions(t *testing.T) {
	tests := []struct {
		name      string
		emotion   models.EmotionLabel
		wantHint  string
		wantsNone bool
	}{
		{"angry", models.EmotionAngry, "Apologize once", false},
		{"confused", models.EmotionConfused, "Clarify simply", false},
		{"polite", models.EmotionPolite, "friendly and concise", false},
		{"neutral has no style hint", models.EmotionNeutral, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rewriteInstructions(Hint{Emotion: tt.emotion})
			if !strings.Contains(got, "WITHOUT changing facts") {
				t.Error("instructions missing the fact-preservation clause")
			}
			if !strings.Contains(got, "starts with '- '") {
				t.Error("instructions missing the bullet-preservation clause")
			}
			if tt.wantsNone {
				if strings.Contains(got, "STYLE HINT") {
					t.Errorf("neutral emotion should carry no style hint, got %q", got)
				}
				return
			}
			if !strings.Contains(got, tt.wantHint) {
				t.Errorf("instructions = %q, want style hint containing %q", got, tt.wantHint)
			}
		})
	}
}

func TestBuildPromptEndsWithDraft(t *testing.T) {
	draft := "Here is what we did.\n- Refund ID: RF-20260825-0001 | ETA: Aug 28, 2026"
	got := buildPrompt(draft, Hint{Emotion: models.EmotionPolite})
	if !strings.HasSuffix(got, draft) {
		t.Errorf("buildPrompt() should end with the draft, got %q", got)
	}
	if !strings.Contains(got, "STYLE HINT") {
		t.Error("buildPrompt() dropped the style hint")
	}
}

func TestGeminiCandidates(t *testing.T) {
	pinned := NewGemini("key", "gemini-1.5-pro", zap.NewNop())
	if got := pinned.candidates(); len(got) != 1 || got[0] != "gemini-1.5-pro" {
		t.Errorf("pinned candidates = %v, want exactly the pinned model", got)
	}

	fallback := NewGemini("key", "", zap.NewNop())
	got := fallback.candidates()
	if len(got) != len(geminiModels) {
		t.Fatalf("fallback candidates = %d models, want %d", len(got), len(geminiModels))
	}
	if got[0] != "gemini-2.0-flash" {
		t.Errorf("first candidate = %q, want the fastest tier first", got[0])
	}
}

func TestGeminiUnconfigured(t *testing.T) {
	g := NewGemini("", "", nil)
	if g.Available() {
		t.Error("Gemini without a key should not report available")
	}
	if _, err := g.Polish(context.Background(), "draft", Hint{}); err == nil {
		t.Error("Polish() without a key should fail")
	}
}

func TestValidate(t *testing.T) {
	if _, err := validate(""); err == nil {
		t.Error("validate should reject empty text")
	}
	if _, err := validate("   \n\t"); err == nil {
		t.Error("validate should reject whitespace-only text")
	}
	got, err := validate("  polished reply  ")
	if err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	if got != "polished reply" {
		t.Errorf("validate() = %q, want trimmed text", got)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantRateLimit bool
		wantServer    bool
	}{
		{"429 status", errors.New("POST /responses: 429 Too Many Requests"), true, false},
		{"rate limit phrase", errors.New("Rate limit exceeded for requests"), true, false},
		{"500 status", errors.New("500 Internal Server Error"), false, true},
		{"server_error code", errors.New(`{"error":{"type":"server_error"}}`), false, true},
		{"auth failure is neither", errors.New("401 Unauthorized"), false, false},
		{"nil error", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRateLimitError(tt.err); got != tt.wantRateLimit {
				t.Errorf("isRateLimitError() = %v, want %v", got, tt.wantRateLimit)
			}
			if got := isServerError(tt.err); got != tt.wantServer {
				t.Errorf("isServerError() = %v, want %v", got, tt.wantServer)
			}
		})
	}
}
