// Package models defines the core domain types shared across the triage
// pipeline: messages, emotion and intent labels, extracted entities, and
// the actions the policy layer plans and executes.
package models

// EmotionLabel is the detected emotional tone of a message.
type EmotionLabel string

const (
	EmotionAngry    EmotionLabel = "angry"
	EmotionConfused EmotionLabel = "confused"
	EmotionPolite   EmotionLabel = "polite"
	EmotionNeutral  EmotionLabel = "neutral"
)

// Valid reports whether the label is one of the known emotions.
func (e EmotionLabel) Valid() bool {
	switch e {
	case EmotionAngry, EmotionConfused, EmotionPolite, EmotionNeutral:
		return true
	}
	return false
}

// Intent is the primary request category of a message.
type Intent string

const (
	IntentRefundRequest       Intent = "refund_request"
	IntentDefectReport        Intent = "defect_report"
	IntentBillingIssue        Intent = "billing_issue"
	IntentCancellationThreat  Intent = "cancellation_threat"
	IntentMissingPart         Intent = "missing_part"
	IntentCallbackRequest     Intent = "callback_request"
	IntentFollowupExisting    Intent = "followup_existing"
	IntentPraise              Intent = "praise"
	IntentGenericComplaint    Intent = "generic_complaint"
)

// IntentPrecedence orders intents from most to least urgent. The intent
// classifier breaks score ties by this order, and consumers can use it
// to sort mixed-intent work queues.
var IntentPrecedence = []Intent{
	IntentCancellationThreat,
	IntentRefundRequest,
	IntentDefectReport,
	IntentBillingIssue,
	IntentMissingPart,
	IntentCallbackRequest,
	IntentFollowupExisting,
	IntentGenericComplaint,
	IntentPraise,
}

// Valid reports whether the intent is one of the known categories.
func (i Intent) Valid() bool {
	for _, known := range IntentPrecedence {
		if i == known {
			return true
		}
	}
	return false
}
