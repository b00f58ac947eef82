// Package message turns raw archive message rows into validated Message
// values: body recovery (plain column or typedstream blob), the
// well-formed-body policy, and Apple-epoch timestamp conversion.
package message

import (
	"database/sql"
	"time"
)

// Row mirrors one row of the archive's message query. Null-able columns
// use sql.Null* so a missing body is distinguishable from an empty one.
type Row struct {
	Text                sql.NullString
	AttributedBody      []byte
	Date                int64
	IsFromMe            bool
	CacheHasAttachments bool
	IsAudioMessage      bool
	WasDataDetected     sql.NullInt64
	ItemType            int64
	EffectiveHandleID   sql.NullInt64
}

// SkipReason classifies why a row produced no Message. The empty value
// means the row was kept.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipAttachment  SkipReason = "attachment"
	SkipAudio       SkipReason = "audio"
	SkipItemType    SkipReason = "item_type"
	SkipDataFlag    SkipReason = "data_flag"
	SkipNoBody      SkipReason = "no_body"
	SkipInvalidBody SkipReason = "invalid_body"
)

// Structural reports whether the skip happened before body extraction was
// even attempted.
func (r SkipReason) Structural() bool {
	switch r {
	case SkipAttachment, SkipAudio, SkipItemType, SkipDataFlag:
		return true
	}
	return false
}

// Message is one exported chat message. Instances only come out of
// FromRow, so Text is always non-empty and passes ValidBody.
type Message struct {
	Text     string
	Date     time.Time
	HandleID int64
	IsFromMe bool
}

// FromRow is the only constructor for Message. It applies the structural
// exclusions, recovers the body (plain text column first, decoder
// fallback), validates it, and converts the timestamp. A non-empty
// SkipReason means the row yielded nothing; that is ordinary control
// flow, never an error.
func FromRow(r Row, dec BodyDecoder) (*Message, SkipReason) {
	switch {
	case r.CacheHasAttachments:
		return nil, SkipAttachment
	case r.IsAudioMessage:
		return nil, SkipAudio
	case r.ItemType != 0:
		return nil, SkipItemType
	case r.WasDataDetected.Valid && r.WasDataDetected.Int64 == 0:
		return nil, SkipDataFlag
	}

	var body string
	switch {
	case r.Text.Valid:
		body = r.Text.String
	case len(r.AttributedBody) > 0:
		text, ok := dec.Decode(r.AttributedBody)
		if !ok {
			return nil, SkipNoBody
		}
		body = text
	default:
		return nil, SkipNoBody
	}

	if !ValidBody(body) {
		return nil, SkipInvalidBody
	}

	return &Message{
		Text:     body,
		Date:     FromAppleNanos(r.Date),
		HandleID: r.EffectiveHandleID.Int64,
		IsFromMe: r.IsFromMe,
	}, SkipNone
}
