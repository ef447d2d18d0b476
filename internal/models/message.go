package models

import (
	"time"
)

// Message represents a single inbound customer message to triage.
type Message struct {
	// Unique identifier assigned at intake (optional; empty for ad-hoc text)
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// The raw message body as received
	Text string `json:"text" yaml:"text"`

	// Where the message came from (email, chat, web-form)
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`

	// When the message arrived
	ReceivedAt time.Time `json:"received_at,omitempty" yaml:"received_at,omitempty"`
}

// TriageResult is the full outcome of running one message through the
// triage pipeline: what was understood, what was planned, and what the
// executor did about it.
type TriageResult struct {
	// The sanitized message that was triaged
	Message Message `json:"message" yaml:"message"`

	// Detected emotional tone
	Emotion EmotionLabel `json:"emotion" yaml:"emotion"`

	// Winning intent after weighted scoring
	Intent Intent `json:"intent" yaml:"intent"`

	// Entities pulled out of the text
	Entities EntityBag `json:"entities" yaml:"entities"`

	// Ordered actions the policy resolver selected
	Plan ActionPlan `json:"plan" yaml:"plan"`

	// Per-action execution outcomes, same order as Plan
	Executions []ExecutionResult `json:"executions,omitempty" yaml:"executions,omitempty"`
}

// Facts flattens all execution facts into a single map, later actions
// winning on key collisions. Convenient for response drafting.
func (r TriageResult) Facts() map[string]string {
	facts := make(map[string]string)
	for _, exec := range r.Executions {
		for k, v := range exec.Facts {
			facts[k] = v
		}
	}
	return facts
}
