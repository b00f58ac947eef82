// Package archive reads the Messages archive (chat.db): the handle
// identity table and the two-party message query.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Napageneral/chatvault/internal/message"
)

// DB is a read-only view over one archive.
type DB struct {
	db *sql.DB
}

// Open opens the archive read-only. The mode=ro DSN keeps a live archive
// safe to read while its owning application holds the file.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying handle.
func (a *DB) Close() error {
	return a.db.Close()
}

// messageQuery recovers each message's body columns and attributes the
// row to the conversation partner: self-sent rows carry their own handle
// id (0 or self), so the chat's other participant is substituted via
// chat_handle_join. Chats with more than two handles are excluded, as are
// balloon app payloads.
const messageQuery = `
SELECT
    m.text,
    m.attributedBody,
    m.date,
    m.is_from_me,
    m.cache_has_attachments,
    m.is_audio_message,
    m.was_data_detected,
    m.item_type,
    CASE
        WHEN m.is_from_me = 1 THEN (
            SELECT chj.handle_id
            FROM chat_handle_join AS chj
            WHERE chj.chat_id = cmj.chat_id AND chj.handle_id != 0
            LIMIT 1
        )
        ELSE m.handle_id
    END AS effective_handle_id
FROM message AS m
JOIN chat_message_join AS cmj ON m.ROWID = cmj.message_id
JOIN (
    SELECT chat_id
    FROM chat_handle_join
    GROUP BY chat_id
    HAVING COUNT(handle_id) <= 2
) AS two_party ON cmj.chat_id = two_party.chat_id
WHERE m.balloon_bundle_id IS NULL`

// Messages runs the message query and invokes fn once per row in query
// order. A fn error aborts the scan.
func (a *DB) Messages(ctx context.Context, fn func(message.Row) error) error {
	rows, err := a.db.QueryContext(ctx, messageQuery)
	if err != nil {
		return fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                           message.Row
			date, isFromMe              sql.NullInt64
			hasAttach, isAudio, itemTyp sql.NullInt64
		)
		if err := rows.Scan(
			&r.Text,
			&r.AttributedBody,
			&date,
			&isFromMe,
			&hasAttach,
			&isAudio,
			&r.WasDataDetected,
			&itemTyp,
			&r.EffectiveHandleID,
		); err != nil {
			return fmt.Errorf("scan message row: %w", err)
		}
		r.Date = date.Int64
		r.IsFromMe = isFromMe.Int64 == 1
		r.CacheHasAttachments = hasAttach.Int64 != 0
		r.IsAudioMessage = isAudio.Int64 != 0
		r.ItemType = itemTyp.Int64
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query messages: %w", err)
	}
	return nil
}
