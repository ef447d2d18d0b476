// Package sanitize normalizes inbound customer message text before
// classification. Messages arrive through email gateways and chat
// bridges carrying ANSI escapes, control characters, zero-width runes,
// and unbounded length; sanitization strips the noise while preserving
// the words, punctuation, and casing the classifiers depend on.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the maximum message length kept for triage, in runes.
const MaxMessageLength = 4000

// Pre-compiled regular expressions for performance.
var (
	// reANSIEscape matches ANSI terminal escape sequences (CSI and two-byte forms).
	reANSIEscape = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[a-zA-Z]|[@-Z\\-_])`)

	// reZeroWidth matches zero-width and BOM runes that survive copy-paste
	// from rich-text clients.
	reZeroWidth = regexp.MustCompile("[\u200B\u200C\u200D\u2060\uFEFF]")

	// reExcessiveNewlines matches 3 or more consecutive newlines.
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

// Message sanitizes one inbound message body. Punctuation is preserved
// deliberately: exclamation and question marks are emotion signals.
//
// The pipeline runs in this order:
//  1. Strip ANSI escape sequences
//  2. Strip null bytes and ASCII control characters (except \n, \t)
//  3. Remove zero-width and BOM runes
//  4. Collapse excessive newlines (3+ -> 2)
//  5. Trim leading/trailing whitespace
//  6. Truncate to MaxMessageLength
func Message(input string) string {
	if input == "" {
		return ""
	}

	s := input

	// 1. Strip ANSI escape sequences before control-char removal so the
	// bracket payloads do not leak through as printable text.
	s = reANSIEscape.ReplaceAllString(s, "")

	// 2. Strip null bytes and ASCII control characters (0x00-0x1F) except \n (0x0A) and \t (0x09).
	s = stripControlChars(s)

	// 3. Remove zero-width and BOM runes.
	s = reZeroWidth.ReplaceAllString(s, "")

	// 4. Collapse excessive newlines (3+ -> 2).
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")

	// 5. Trim leading/trailing whitespace.
	s = strings.TrimSpace(s)

	// 6. Truncate to max length (rune-safe to avoid splitting multi-byte UTF-8 chars).
	if utf8.RuneCountInString(s) > MaxMessageLength {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:MaxMessageLength]))
	}

	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F) and DEL (0x7F) from
// the string, except for newline (0x0A) and tab (0x09) which are preserved.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 || r == 0x7F) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
