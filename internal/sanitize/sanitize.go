// Package sanitize prepares untrusted text for diagnostic output. Inputs to a
// comparison can be arbitrarily long and contain terminal control sequences,
// so anything echoed into logs, audit records or IDs passes through here.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxIDLength is the maximum allowed length for record IDs.
const MaxIDLength = 80

var (
	// reRepeatedHyphens matches 2 or more consecutive hyphens.
	reRepeatedHyphens = regexp.MustCompile(`-{2,}`)

	// reRepeatedUnderscores matches 2 or more consecutive underscores.
	reRepeatedUnderscores = regexp.MustCompile(`_{2,}`)
)

// ForLog returns s with control characters removed and, when longer than
// maxBytes, truncated on a rune boundary. A truncated result ends with a
// marker carrying the original byte length, e.g. "abc...(+120 bytes)".
// A non-positive maxBytes disables truncation.
func ForLog(s string, maxBytes int) string {
	if s == "" {
		return ""
	}

	orig := len(s)
	s = stripControlChars(s)

	if maxBytes <= 0 || len(s) <= maxBytes {
		return s
	}

	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s...(+%d bytes)", s[:cut], orig-cut)
}

// RecordID sanitizes a record identifier, keeping only [a-zA-Z0-9-_./:]
// and enforcing MaxIDLength. Repeated hyphens and underscores are collapsed.
func RecordID(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '/' || r == '.' || r == ':' {
			b.WriteRune(r)
		}
	}
	s := b.String()

	s = reRepeatedHyphens.ReplaceAllString(s, "-")
	s = reRepeatedUnderscores.ReplaceAllString(s, "_")

	if len(s) > MaxIDLength {
		s = s[:MaxIDLength]
	}

	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F).
// Newlines and tabs become spaces so a log record stays on one line.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
