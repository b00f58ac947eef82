package message

import (
	"bytes"
	"unicode/utf8"
)

// BodyDecoder recovers human-readable text from an opaque attributedBody
// payload. Decode reports ok=false when the payload cannot be interpreted;
// the caller skips the row.
type BodyDecoder interface {
	Decode(blob []byte) (text string, ok bool)
}

// StreamDecoder extracts the visible string from the typedstream blob the
// archive stores when the text column is NULL. This is a fixed empirical
// heuristic tuned to one producer's encoding, not a format decoder: the
// string sits between a 01 2B marker and an 86 84 marker, preceded by a
// short length/type prefix that is dropped blind.
type StreamDecoder struct{}

var (
	bodyStart = []byte{0x01, 0x2b}
	bodyEnd   = []byte{0x86, 0x84}
)

func (StreamDecoder) Decode(blob []byte) (string, bool) {
	i := bytes.Index(blob, bodyStart)
	if i < 0 {
		return "", false
	}
	rest := blob[i+len(bodyStart):]
	if j := bytes.Index(rest, bodyEnd); j >= 0 {
		rest = rest[:j]
	}

	text := trimGarbagePrefix(string(rest))
	if text == "" {
		return "", false
	}
	return text, true
}

// trimGarbagePrefix drops the length/type bytes that precede the string
// payload: one character when the prefix decoded as a control character,
// three when it was mangled into printables.
func trimGarbagePrefix(s string) string {
	if s == "" {
		return s
	}
	first, _ := utf8.DecodeRuneInString(s)
	if first == 0x06 || first < 0x20 {
		return dropRunes(s, 1)
	}
	if utf8.RuneCountInString(s) > 2 {
		return dropRunes(s, 3)
	}
	return s
}

func dropRunes(s string, n int) string {
	for i := 0; i < n && s != ""; i++ {
		_, size := utf8.DecodeRuneInString(s)
		s = s[size:]
	}
	return s
}
