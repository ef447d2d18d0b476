// Package compose renders the deterministic customer reply for a triage
// result: a tone-matched intro, a summary of completed actions, the
// timelines that follow, and a bullet block of reference facts. Pure
// string assembly; every number comes from execution facts.
package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fernwell/caseflow/internal/models"
)

// emptyInputReply is returned when there was no message text to triage.
const emptyInputReply = "Thanks for reaching out. How can we help? " +
	"Please share a few details about your issue so we can get started."

const closingLine = "If there's anything else you'd like us to address, please let me know."

// Compose builds the reply draft for one triage result.
func Compose(res models.TriageResult) string {
	if strings.TrimSpace(res.Message.Text) == "" {
		return emptyInputReply
	}

	var b strings.Builder
	b.WriteString(intro(res))

	// Praise with nothing planned stays a plain acknowledgment.
	if len(res.Plan) > 0 || res.Intent != models.IntentPraise {
		b.WriteString(" What we did: ")
		b.WriteString(strings.Join(doneLines(res), " "))
		b.WriteString(" Next steps & timelines: ")
		b.WriteString(strings.Join(nextLines(res), " "))
	}

	for _, fact := range bullets(res) {
		b.WriteString("\n- ")
		b.WriteString(fact)
	}

	b.WriteString("\n")
	b.WriteString(closingLine)
	return b.String()
}

func intro(res models.TriageResult) string {
	switch res.Intent {
	case models.IntentPraise:
		if agent := res.Entities.FirstValue(models.EntityAgentName); agent != "" {
			return fmt.Sprintf("Thanks so much for the shout-out. I'll make sure %s sees this.", agent)
		}
		return "Thanks so much for the shout-out, we really appreciate it."
	case models.IntentMissingPart:
		return "Thanks for flagging this, we've shipped the missing part."
	case models.IntentDefectReport:
		return "I know how frustrating hardware issues can be. Here's what we've done."
	}

	switch res.Emotion {
	case models.EmotionAngry:
		return "I'm truly sorry for the trouble you've experienced."
	case models.EmotionConfused:
		return "I'm happy to clarify this for you."
	case models.EmotionPolite:
		return "Thanks for reaching out, happy to help."
	default:
		return "Thanks for reaching out, let's get this resolved."
	}
}

// doneLines narrates applied actions in execution order. Skipped and
// failed actions claim nothing.
func doneLines(res models.TriageResult) []string {
	var lines []string
	for _, exec := range res.Executions {
		if exec.Status != models.StatusApplied {
			continue
		}
		if line := doneLine(exec); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "Documented your report and confirmed next steps.")
	}
	if res.Intent == models.IntentMissingPart {
		sortMissingPartLines(lines)
	}
	return lines
}

func doneLine(exec models.ExecutionResult) string {
	facts := exec.Facts
	switch exec.Action.Kind {
	case models.ActionCreateTicket:
		return fmt.Sprintf("Created support case %s and documented your issue.", facts["ticket_id"])
	case models.ActionIssueRefund:
		return fmt.Sprintf("Initiated a refund (ID %s).", facts["refund_id"])
	case models.ActionScheduleReplacement:
		return fmt.Sprintf("Queued a replacement shipment (ID %s).", facts["replacement_id"])
	case models.ActionShipMissingPart:
		return fmt.Sprintf("Dispatched the missing part (shipment %s).", facts["shipment_id"])
	case models.ActionIssueLoyaltyCredit:
		return fmt.Sprintf("Applied a credit (ID %s).", facts["credit_id"])
	case models.ActionScheduleCallback:
		if phone := facts["phone"]; phone != "" && phone != "(not provided)" {
			return fmt.Sprintf("Scheduled a callback to %s for %s.", phone, facts["callback_window"])
		}
		return fmt.Sprintf("Scheduled a callback for %s.", facts["callback_window"])
	case models.ActionEscalate:
		return fmt.Sprintf("Escalated your case internally (ID %s).", facts["escalation_id"])
	case models.ActionApplyRetentionOffer:
		return fmt.Sprintf("Applied a retention credit (ID %s).", facts["offer_id"])
	}
	return ""
}

// sortMissingPartLines leads with the dispatched part, then the case,
// then any courtesy credit.
func sortMissingPartLines(lines []string) {
	rank := func(s string) int {
		switch {
		case strings.HasPrefix(s, "Dispatched the missing part"):
			return 0
		case strings.HasPrefix(s, "Created support case"):
			return 1
		case strings.HasPrefix(s, "Applied a credit"):
			return 2
		}
		return 3
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return rank(lines[i]) < rank(lines[j])
	})
}

func nextLines(res models.TriageResult) []string {
	facts := res.Facts()

	var lines []string
	if eta := facts["refund_eta"]; eta != "" {
		lines = append(lines, fmt.Sprintf("Refund posts by %s.", eta))
	}
	if eta := facts["delivery_eta"]; eta != "" {
		lines = append(lines, fmt.Sprintf("Replacement delivery ETA %s.", eta))
	}
	if eta := facts["ship_eta"]; eta != "" {
		lines = append(lines, fmt.Sprintf("Missing part delivery ETA %s.", eta))
	}

	switch res.Intent {
	case models.IntentBillingIssue:
		lines = append(lines, "Billing audit update within 1-2 business days.")
	case models.IntentFollowupExisting:
		lines = append(lines, "We will summarize prior actions and outcomes today.")
	case models.IntentCancellationThreat:
		lines = append(lines, "Retention specialist will reach out today.")
	}

	if len(lines) == 0 {
		lines = append(lines, "We'll keep you posted.")
	}
	return lines
}

// bullets lists reference facts the customer may need later. Polish
// providers are instructed to keep these lines byte-for-byte.
func bullets(res models.TriageResult) []string {
	var facts []string

	if res.Intent == models.IntentFollowupExisting && len(res.Plan) == 0 {
		if tid := res.Entities.FirstValue(models.EntityTicketID); tid != "" {
			facts = append(facts, fmt.Sprintf("Continuing prior ticket: %s", tid))
		}
	}
	if res.Intent == models.IntentPraise {
		if agent := res.Entities.FirstValue(models.EntityAgentName); agent != "" {
			facts = append(facts, fmt.Sprintf("Kudos recorded for %s.", agent))
		}
	}

	for _, exec := range res.Executions {
		if exec.Status != models.StatusApplied {
			continue
		}
		f := exec.Facts
		switch exec.Action.Kind {
		case models.ActionCreateTicket:
			facts = append(facts, fmt.Sprintf("Ticket: %s", f["ticket_id"]))
			if amount := f["amount"]; amount != "" {
				facts = append(facts, fmt.Sprintf("Amount in question noted: $%s", amount))
			}
		case models.ActionIssueRefund:
			facts = append(facts, fmt.Sprintf("Refund ID: %s | ETA: %s", f["refund_id"], f["refund_eta"]))
		case models.ActionScheduleReplacement:
			facts = append(facts, fmt.Sprintf("Replacement ID: %s | Delivery ETA: %s", f["replacement_id"], f["delivery_eta"]))
			if serial := f["serial_number"]; serial != "" {
				facts = append(facts, fmt.Sprintf("Serial: %s", serial))
			}
		case models.ActionShipMissingPart:
			facts = append(facts, fmt.Sprintf("Missing part shipment: %s | %s | ETA: %s", f["shipment_id"], f["part"], f["ship_eta"]))
		case models.ActionIssueLoyaltyCredit:
			facts = append(facts, fmt.Sprintf("Loyalty credit: $%s (ID %s)", f["credit_amount"], f["credit_id"]))
		case models.ActionScheduleCallback:
			facts = append(facts, fmt.Sprintf("Callback: %s | %s", f["phone"], f["callback_window"]))
		case models.ActionEscalate:
			if reason := f["reason"]; reason != "" && reason != "unspecified" {
				facts = append(facts, fmt.Sprintf("Escalation: %s (%s)", f["escalation_id"], reason))
			} else {
				facts = append(facts, fmt.Sprintf("Escalation: %s", f["escalation_id"]))
			}
		case models.ActionApplyRetentionOffer:
			facts = append(facts, fmt.Sprintf("Retention credit: $%s (ID %s, expires %s)", f["offer_amount"], f["offer_id"], f["expires_on"]))
		}
	}

	return facts
}
