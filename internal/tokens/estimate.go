// Package tokens provides rough token accounting for reply drafts sent
// to generative polish providers.
package tokens

// EstimateTokens provides a rough token count estimate for text.
// Uses the common heuristic of ~4 characters per token for English text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}

// WithinBudget reports whether text fits under the given token budget.
// A zero or negative budget means unlimited.
func WithinBudget(text string, budget int) bool {
	if budget <= 0 {
		return true
	}
	return EstimateTokens(text) <= budget
}
