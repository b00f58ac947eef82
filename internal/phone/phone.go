// Package phone canonicalizes phone numbers so AddressBook entries and
// archive handle identifiers key identically.
package phone

import (
	"strings"
	"unicode"
)

// Normalize strips formatting from a raw phone number and returns the
// +1-prefixed canonical form. Assumes a North American numbering plan;
// numbers already carrying a + prefix are left alone after stripping.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()

	// A bare leading 1 is the country code without the +; drop it so the
	// +1 prefix below doesn't double it.
	if strings.HasPrefix(s, "1") && len(s) > 1 {
		s = s[1:]
	}
	if s != "" && s[0] != '+' {
		s = "+1" + s
	}
	return s
}
