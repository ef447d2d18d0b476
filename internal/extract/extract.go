// Package extract pulls structured entities out of sanitized customer
// message text: order and ticket references, phone numbers, money
// amounts, serial numbers, missing-part names, and mentioned agents.
// Extraction is pure and regex-driven; the same text always yields the
// same bag, and every entity carries the byte span of its raw match.
package extract

import (
	"regexp"
	"strings"

	"github.com/fernwell/caseflow/internal/models"
)

// Pre-compiled entity patterns. Order rules require an explicit marker
// (order / ord / #) before the token so bare product codes elsewhere in
// the text are not mistaken for order references.
var (
	// reOrderCompact matches marker-prefixed compact order IDs like "order ORD12345".
	reOrderCompact = regexp.MustCompile(`(?i)(?:\border|\bord|#)\s*[:\-#]?\s*(ORD[A-Z0-9]{5,})`)

	// reOrderDashed matches marker-prefixed dashed order IDs like "# ORD-7842-CA".
	reOrderDashed = regexp.MustCompile(`(?i)(?:\border|\bord|#)\s*[:\-#]?\s*(ORD-[A-Z0-9\-]{5,})`)

	// reOrderRegional matches marker-prefixed regional IDs like "order US-55291".
	reOrderRegional = regexp.MustCompile(`(?i)(?:\border|\bord|#)\s*[:\-#]?\s*([A-Z]{2,3}-\d{4,})`)

	// reTicket matches support ticket references: dated TCK/RET IDs and short T-numbers.
	reTicket = regexp.MustCompile(`(TCK-\d{4}-\d{2}-\d{2}-[A-Z0-9]+|RET-\d{4}-\d{2}-\d{2}-[A-Z0-9]+|T\d{3,})`)

	// rePhone matches loosely formatted phone numbers with dash/space separators.
	rePhone = regexp.MustCompile(`\+?\d[\d\-\s]{7,}\d`)

	// reISODate matches YYYY-MM-DD dates. Dates are never entities, but
	// their digit groups would otherwise surface as phones or amounts.
	reISODate = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)

	// reAmount matches money amounts with optional currency symbol,
	// thousands grouping, and cents.
	reAmount = regexp.MustCompile(`\$?\s*([0-9]{1,3}(?:,[0-9]{3})*\.\d{1,2}|\d+(?:\.\d{1,2})?)`)

	// reSerial matches dash-separated uppercase serial numbers like "AS-X2-44121".
	reSerial = regexp.MustCompile(`\b([A-Z]{2,}-[A-Z0-9]{2,}-[A-Z0-9]{2,})\b`)

	// rePartName matches the shippable small-part lexicon.
	rePartName = regexp.MustCompile(`(?i)(hex key|allen key|screw|adapter|cable|charger|manual|tool)`)

	// reAgentMention matches "<Name> from support" style agent references.
	reAgentMention = regexp.MustCompile(`\b([A-Z][a-z]+)\b\s+(?:from|in|at)\s+support\b`)

	// reMissingLanguage matches delivery-absence phrasing.
	reMissingLanguage = regexp.MustCompile(`\b(missing|no|not included|did(?:n't| not) come with)\b`)

	// reDigits strips non-digits when counting phone number length.
	reDigits = regexp.MustCompile(`\D`)
)

// orderRules are tried in precedence order; an earlier rule's match
// claims its span so later rules cannot re-extract a fragment of it.
var orderRules = []*regexp.Regexp{reOrderCompact, reOrderDashed, reOrderRegional}

// orderTrailingPunct is stripped from the end of captured order IDs.
const orderTrailingPunct = ".,;:!?)]}"

// span is a half-open byte range [start, end) in the source text.
type span struct {
	start, end int
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// Extract runs every entity rule against the text and returns the bag.
// Spans already claimed by a higher-precedence kind are suppressed for
// lower ones, so a ticket ID never doubles as a serial number and the
// digits of an order ID never surface as an amount.
func Extract(text string) models.EntityBag {
	bag := models.EntityBag{}
	if text == "" {
		return bag
	}

	var claimed []span

	// Order IDs.
	for _, re := range orderRules {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2], m[3]
			if overlaps(claimed, start, end) {
				continue
			}
			claimed = append(claimed, span{start, end})
			value := strings.ToUpper(strings.TrimRight(text[start:end], orderTrailingPunct))
			bag.Add(models.EntityOrderID, models.Entity{Value: value, Start: start, End: end})
		}
	}

	// Ticket IDs. Dated tickets embed an ISO date, so they must claim
	// before the date pass or TCK-2025-10-06-C8 would lose its middle.
	for _, m := range reTicket.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if overlaps(claimed, start, end) {
			continue
		}
		claimed = append(claimed, span{start, end})
		bag.Add(models.EntityTicketID, models.Entity{Value: text[start:end], Start: start, End: end})
	}

	// ISO dates claim their spans, extraction emits nothing for them.
	for _, m := range reISODate.FindAllStringIndex(text, -1) {
		claimed = append(claimed, span{m[0], m[1]})
	}

	// Phone numbers. Raw ISO dates and implausible digit counts are
	// rejected rather than normalized away.
	for _, m := range rePhone.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if overlaps(claimed, start, end) {
			continue
		}
		raw := text[start:end]
		if reISODate.FindString(raw) == raw {
			continue
		}
		digits := reDigits.ReplaceAllString(raw, "")
		if len(digits) < 10 || len(digits) > 15 {
			continue
		}
		claimed = append(claimed, span{start, end})
		bag.Add(models.EntityPhone, models.Entity{Value: raw, Start: start, End: end})
	}

	// Serial numbers.
	for _, m := range reSerial.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if overlaps(claimed, start, end) {
			continue
		}
		claimed = append(claimed, span{start, end})
		bag.Add(models.EntitySerialNumber, models.Entity{Value: text[start:end], Start: start, End: end})
	}

	// Amounts, normalized to plain decimal strings.
	for _, m := range reAmount.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		if overlaps(claimed, start, end) {
			continue
		}
		claimed = append(claimed, span{start, end})
		value := strings.ReplaceAll(text[start:end], ",", "")
		bag.Add(models.EntityAmount, models.Entity{Value: value, Start: start, End: end})
	}

	// Missing-part names, lowercased for stable lookup.
	for _, m := range rePartName.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		bag.Add(models.EntityMissingPartName, models.Entity{Value: strings.ToLower(text[start:end]), Start: start, End: end})
	}

	// Agent mentions.
	for _, m := range reAgentMention.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		bag.Add(models.EntityAgentName, models.Entity{Value: text[start:end], Start: start, End: end})
	}

	return bag
}

// HasMissingLanguage reports whether the text contains phrases that
// signal something was absent from a delivery ("missing", "no X",
// "didn't come with"). The intent classifier pairs this with a
// missing_part_name entity before it will score the missing_part intent.
func HasMissingLanguage(text string) bool {
	return reMissingLanguage.MatchString(strings.ToLower(text))
}
