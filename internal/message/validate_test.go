package message

import "testing"

func TestValidBody(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"plain", "Hello there", true},
		{"emoji", "on my way \U0001f44d", true},
		{"multiline", "line one\nline two\ttabbed\r", true},
		{"empty", "", false},
		{"single space", " ", false},
		{"two spaces", "  ", true},
		{"bare control", "a\x01b", false},
		{"escape", "\x1b[31m", false},
		{"attachment placeholder", "\uFFFC", false},
		{"replacement char", "before \uFFFD after", false},
		{"private use low", "\uE000", false},
		{"private use high", "note \uF8FF here", false},
		{"specials low", "\uFFF0", false},
		{"just past private use", "\uF900", true},
		{"just before specials", "\uFFEF", true},
		{"invalid utf8", string([]byte{0xff, 0xfe, 0xfd}), false},
		{"truncated sequence", string([]byte{'H', 'i', 0xe2, 0x82}), false},
	}
	for _, tc := range cases {
		if got := ValidBody(tc.in); got != tc.want {
			t.Errorf("%s: ValidBody(%q) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}
