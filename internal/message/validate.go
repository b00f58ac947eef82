package message

import "unicode/utf8"

// ValidBody reports whether recovered text is a real message body. The
// archive leaves placeholder runes behind for attachments and rich
// content; anything in the private-use or specials blocks, bare control
// characters, or malformed UTF-8 marks the row as not-text.
func ValidBody(s string) bool {
	if s == "" || s == " " {
		return false
	}
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if r <= 0x1f && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
		// U+E000..U+F8FF: private use (attachment placeholder lives here).
		// U+FFF0..U+FFFF: specials, including U+FFFC and U+FFFD.
		if (r >= 0xe000 && r <= 0xf8ff) || (r >= 0xfff0 && r <= 0xffff) {
			return false
		}
	}
	return true
}
