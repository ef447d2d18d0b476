// Package emotion classifies the emotional tone of a customer message
// into angry, confused, polite, or neutral. A deterministic keyword and
// punctuation pass always decides first; an optional polarity analyzer
// can then upgrade the label, never downgrade it. Without an analyzer
// the classifier behaves identically to the base pass.
package emotion

import (
	"strings"

	"github.com/fernwell/caseflow/internal/models"
)

// Analyzer scores the overall polarity of a text in [-1, +1], negative
// meaning hostile and positive meaning warm. Implementations must be
// cheap enough to run on every message.
type Analyzer interface {
	Polarity(text string) (float64, error)
}

// Polarity thresholds for the refinement pass.
const (
	// AngryThreshold upgrades any non-angry label when polarity sinks this low.
	AngryThreshold = -0.5

	// PoliteThreshold upgrades neutral to polite when polarity climbs this high.
	PoliteThreshold = 0.5
)

// Signal lexicons for the base pass. Matching is case-insensitive
// substring search on the whole message.
var (
	angerKeywords = []string{
		"angry", "furious", "unacceptable", "terrible", "hate",
		"ridiculous", "fed up", "awful", "worst", "i'm done",
	}

	politeKeywords = []string{
		"please", "thank you", "thanks", "kindly", "appreciate",
	}

	confusionKeywords = []string{
		"don't understand", "confused", "explain", "what is",
		"why is", "how do", "how come", "what can",
	}
)

// Classifier detects message tone. The zero value runs the base pass
// only; attach an Analyzer with New to enable refinement.
type Classifier struct {
	analyzer Analyzer
}

// New returns a Classifier refined by the given analyzer. A nil
// analyzer is allowed and disables refinement.
func New(analyzer Analyzer) *Classifier {
	return &Classifier{analyzer: analyzer}
}

// Classify labels the text. Precedence is fixed: angry outranks
// confused, confused outranks polite, polite outranks neutral. A
// message that is both furious and question-laden is angry; urgency
// must not be masked by courtesy or uncertainty.
func (c *Classifier) Classify(text string) models.EmotionLabel {
	label := Base(text)

	if c == nil || c.analyzer == nil {
		return label
	}

	polarity, err := c.analyzer.Polarity(text)
	if err != nil {
		// Refinement is best effort; the base label stands.
		return label
	}

	switch {
	case polarity <= AngryThreshold && label != models.EmotionAngry:
		return models.EmotionAngry
	case polarity >= PoliteThreshold && label == models.EmotionNeutral:
		return models.EmotionPolite
	}
	return label
}

// Base runs the deterministic keyword and punctuation pass.
//
// Signals:
//   - anger: anger keyword, or an exclamation mark in a message without
//     courtesy markers ("Thank you!" is enthusiasm, not rage)
//   - confusion: confusion keyword plus at least one question mark
//   - politeness: courtesy keyword
func Base(text string) models.EmotionLabel {
	content := strings.ToLower(text)

	polite := containsAny(content, politeKeywords)
	anger := containsAny(content, angerKeywords) ||
		(strings.Contains(content, "!") && !polite)
	confusion := containsAny(content, confusionKeywords) && strings.Contains(content, "?")

	switch {
	case anger:
		return models.EmotionAngry
	case confusion:
		return models.EmotionConfused
	case polite:
		return models.EmotionPolite
	default:
		return models.EmotionNeutral
	}
}

func containsAny(content string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(content, k) {
			return true
		}
	}
	return false
}
