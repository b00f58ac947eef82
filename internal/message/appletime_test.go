package message

import (
	"testing"
	"time"
)

func TestFromAppleNanos(t *testing.T) {
	cases := []struct {
		ns   int64
		want time.Time
	}{
		{0, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)},
		{1_000_000_000, time.Date(2001, 1, 1, 0, 0, 1, 0, time.UTC)},
		// Sub-second remainder is discarded, not rounded.
		{1_999_999_999, time.Date(2001, 1, 1, 0, 0, 1, 0, time.UTC)},
		// 63,072,000 whole seconds = 730 days = exactly two non-leap years.
		{63_072_000_000_000_000, time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := FromAppleNanos(tc.ns); !got.Equal(tc.want) {
			t.Errorf("FromAppleNanos(%d) = %v, want %v", tc.ns, got, tc.want)
		}
	}
}
