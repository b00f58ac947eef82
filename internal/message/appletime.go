package message

import "time"

// appleEpoch is 2001-01-01T00:00:00Z, the reference instant for every
// date column in the archive.
var appleEpoch = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// FromAppleNanos converts an archive date value, nanoseconds since the
// Apple epoch, to UTC. Sub-second precision is discarded.
func FromAppleNanos(ns int64) time.Time {
	return appleEpoch.Add(time.Duration(ns/1_000_000_000) * time.Second)
}
