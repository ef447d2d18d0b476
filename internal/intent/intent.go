// Package intent decides what a customer message is asking for. Every
// intent owns a set of weighted signal rules over the message text and
// the extracted entity bag; the highest aggregate weight wins and ties
// fall to a fixed urgency precedence. The classifier is total: text
// matching nothing classifies as generic_complaint.
package intent

import (
	"regexp"
	"sort"
	"strings"

	"github.com/fernwell/caseflow/internal/extract"
	"github.com/fernwell/caseflow/internal/models"
)

// Rule is one weighted signal for an intent. A rule matches when all
// its gates pass: entity requirement, absence-language requirement,
// and the text condition (phrase list or pattern). A rule with no text
// condition matches on its gates alone. Each matched rule contributes
// Weight exactly once regardless of how often its phrases occur.
type Rule struct {
	Intent models.Intent

	// Name identifies the signal in Explain output and tests
	Name string

	// Phrases match case-insensitively as substrings; any hit counts
	Phrases []string

	// Pattern is used instead of Phrases when word boundaries matter
	Pattern *regexp.Regexp

	// NeedsEntity gates the rule on an extracted entity kind
	NeedsEntity models.EntityKind

	// NeedsAbsenceLanguage gates the rule on delivery-absence phrasing
	NeedsAbsenceLanguage bool

	Weight int
}

// Word-boundary patterns for signals where plain substring search
// would misfire ("coffee" contains "fee", "chargeback" contains "charge").
var (
	reChargeWord = regexp.MustCompile(`\bcharge[sd]?\b`)
	reFeeWord    = regexp.MustCompile(`\bfees?\b`)
)

// rules is the full signal table. Weights are calibrated so that a
// direct ask ("refund", "cancel") outscores incidental vocabulary
// ("damaged", "switching to") and entity-backed signals sit between.
var rules = []Rule{
	{Intent: models.IntentRefundRequest, Name: "refund", Phrases: []string{"refund"}, Weight: 4},
	{Intent: models.IntentRefundRequest, Name: "money-back", Phrases: []string{"money back"}, Weight: 4},
	{Intent: models.IntentRefundRequest, Name: "chargeback", Phrases: []string{"chargeback"}, Weight: 4},
	{Intent: models.IntentRefundRequest, Name: "return", Phrases: []string{"return"}, Weight: 2},

	{Intent: models.IntentDefectReport, Name: "defective", Phrases: []string{"defect"}, Weight: 3},
	{Intent: models.IntentDefectReport, Name: "broken", Phrases: []string{"broken"}, Weight: 3},
	{Intent: models.IntentDefectReport, Name: "not-working", Phrases: []string{"not working", "doesn't work", "won't work", "stopped working"}, Weight: 3},
	{Intent: models.IntentDefectReport, Name: "cracked", Phrases: []string{"cracked"}, Weight: 2},
	{Intent: models.IntentDefectReport, Name: "damaged", Phrases: []string{"damaged"}, Weight: 2},
	{Intent: models.IntentDefectReport, Name: "dead-device", Phrases: []string{"dies", "died", "dying"}, Weight: 2},

	{Intent: models.IntentBillingIssue, Name: "billing", Phrases: []string{"bill"}, Weight: 2},
	{Intent: models.IntentBillingIssue, Name: "charge", Pattern: reChargeWord, Weight: 2},
	{Intent: models.IntentBillingIssue, Name: "invoice", Phrases: []string{"invoice"}, Weight: 2},
	{Intent: models.IntentBillingIssue, Name: "fee", Pattern: reFeeWord, Weight: 2},
	{Intent: models.IntentBillingIssue, Name: "renewal", Phrases: []string{"renewal"}, Weight: 2},
	{Intent: models.IntentBillingIssue, Name: "overcharged", Phrases: []string{"overcharged"}, Weight: 3},

	{Intent: models.IntentCancellationThreat, Name: "cancel", Phrases: []string{"cancel"}, Weight: 4},
	{Intent: models.IntentCancellationThreat, Name: "business-elsewhere", Phrases: []string{"take my business elsewhere"}, Weight: 4},
	{Intent: models.IntentCancellationThreat, Name: "switching-away", Phrases: []string{"switch to", "switching to"}, Weight: 2},
	{Intent: models.IntentCancellationThreat, Name: "unsubscribe", Phrases: []string{"unsubscribe"}, Weight: 3},
	{Intent: models.IntentCancellationThreat, Name: "close-account", Phrases: []string{"close my account"}, Weight: 4},

	// A missing-part claim needs both the absence phrasing and a named
	// part; either alone is too ambiguous to act on.
	{Intent: models.IntentMissingPart, Name: "absent-part", NeedsEntity: models.EntityMissingPartName, NeedsAbsenceLanguage: true, Weight: 5},

	{Intent: models.IntentCallbackRequest, Name: "call-request", Phrases: []string{"call me", "call back", "callback"}, Weight: 3},
	{Intent: models.IntentCallbackRequest, Name: "phone-word", Phrases: []string{"phone"}, Weight: 1},
	{Intent: models.IntentCallbackRequest, Name: "phone-on-file", NeedsEntity: models.EntityPhone, Weight: 1},

	{Intent: models.IntentFollowupExisting, Name: "ticket-reference", NeedsEntity: models.EntityTicketID, Weight: 3},
	{Intent: models.IntentFollowupExisting, Name: "followup-language", Phrases: []string{"existing ticket", "my ticket", "follow up", "following up"}, Weight: 2},
	{Intent: models.IntentFollowupExisting, Name: "still-waiting", Phrases: []string{"still waiting"}, Weight: 1},

	{Intent: models.IntentPraise, Name: "service-praise", Phrases: []string{"great service", "perfect service", "kudos"}, Weight: 2},
	{Intent: models.IntentPraise, Name: "appreciation", Phrases: []string{"appreciate", "amazing"}, Weight: 2},
	{Intent: models.IntentPraise, Name: "love", Phrases: []string{"love it", "love the"}, Weight: 2},
	{Intent: models.IntentPraise, Name: "thanks", Phrases: []string{"thank you", "thanks"}, Weight: 1},
}

// Score is one intent's aggregate weight with the signals that fired.
type Score struct {
	Intent  models.Intent `json:"intent"`
	Total   int           `json:"total"`
	Signals []string      `json:"signals,omitempty"`
}

// Classify returns the winning intent for the text and entity bag.
// Highest aggregate weight wins; equal scores fall to the precedence
// order in models.IntentPrecedence; all-zero means generic_complaint.
func Classify(text string, entities models.EntityBag) models.Intent {
	totals := tally(text, entities)

	winner := models.IntentGenericComplaint
	best := 0
	// Walking in precedence order makes ties resolve to the more
	// urgent intent without a separate comparison pass.
	for _, candidate := range models.IntentPrecedence {
		if totals[candidate] > best {
			winner = candidate
			best = totals[candidate]
		}
	}
	return winner
}

// Explain scores every intent and reports which signals fired, ordered
// by total descending with precedence breaking ties. Intents that
// scored zero are included so callers can render the full board.
func Explain(text string, entities models.EntityBag) []Score {
	lowered := strings.ToLower(text)

	byIntent := make(map[models.Intent]*Score, len(models.IntentPrecedence))
	scores := make([]Score, 0, len(models.IntentPrecedence))
	for _, i := range models.IntentPrecedence {
		byIntent[i] = &Score{Intent: i}
	}

	for _, r := range rules {
		if r.matches(lowered, entities) {
			s := byIntent[r.Intent]
			s.Total += r.Weight
			s.Signals = append(s.Signals, r.Name)
		}
	}

	for _, i := range models.IntentPrecedence {
		scores = append(scores, *byIntent[i])
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Total > scores[b].Total
	})
	return scores
}

func tally(text string, entities models.EntityBag) map[models.Intent]int {
	lowered := strings.ToLower(text)
	totals := make(map[models.Intent]int)
	for _, r := range rules {
		if r.matches(lowered, entities) {
			totals[r.Intent] += r.Weight
		}
	}
	return totals
}

func (r Rule) matches(lowered string, entities models.EntityBag) bool {
	if r.NeedsEntity != "" && !entities.Has(r.NeedsEntity) {
		return false
	}
	if r.NeedsAbsenceLanguage && !extract.HasMissingLanguage(lowered) {
		return false
	}
	if r.Pattern != nil {
		return r.Pattern.MatchString(lowered)
	}
	for _, p := range r.Phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	// No text condition: the gates alone decide.
	return len(r.Phrases) == 0
}
