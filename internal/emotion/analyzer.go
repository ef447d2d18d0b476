package emotion

import (
	"math"
	"strings"
	"unicode"
)

// LexiconAnalyzer is a deterministic signed-wordlist polarity scorer.
// It counts positive and negative vocabulary, weights shouted
// (all-caps) tokens higher, amplifies by exclamation density, and
// squashes the raw score into [-1, +1]. It is the default refinement
// analyzer: no model files, no network, same text same score.
type LexiconAnalyzer struct{}

var (
	positiveTokens = map[string]bool{
		"great": true, "love": true, "loved": true, "perfect": true,
		"excellent": true, "amazing": true, "awesome": true,
		"wonderful": true, "fantastic": true, "helpful": true,
		"appreciate": true, "happy": true, "kudos": true, "fixed": true,
		"works": true, "best": true, "quick": true,
	}

	negativeTokens = map[string]bool{
		"terrible": true, "awful": true, "hate": true, "furious": true,
		"angry": true, "broken": true, "worst": true, "ridiculous": true,
		"unacceptable": true, "useless": true, "disappointed": true,
		"damaged": true, "cracked": true, "defective": true,
		"slow": true, "waste": true, "scam": true,
	}

	negativePhrases = []string{"fed up", "not working", "doesn't work"}
)

// Intensity weights.
const (
	shoutedWeight   = 1.5  // all-caps token counts this much instead of 1
	exclamBoost     = 0.25 // per exclamation mark, up to exclamCap
	exclamCap       = 3
	polarityDivisor = 15.0 // squash constant for score normalization
)

// Polarity never fails; the error return satisfies the Analyzer
// contract shared with remote scorers.
func (LexiconAnalyzer) Polarity(text string) (float64, error) {
	lowered := strings.ToLower(text)

	var score float64
	for _, token := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		key := strings.ToLower(token)
		weight := 1.0
		if len(token) >= 3 && token == strings.ToUpper(token) {
			weight = shoutedWeight
		}
		switch {
		case positiveTokens[key]:
			score += weight
		case negativeTokens[key]:
			score -= weight
		}
	}

	for _, phrase := range negativePhrases {
		if strings.Contains(lowered, phrase) {
			score -= 1
		}
	}

	exclaim := strings.Count(text, "!")
	if exclaim > exclamCap {
		exclaim = exclamCap
	}
	score *= 1 + float64(exclaim)*exclamBoost

	return score / math.Sqrt(score*score+polarityDivisor), nil
}
