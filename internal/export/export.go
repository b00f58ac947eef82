// Package export writes the extracted collections to a fresh sqlite
// store: two denormalized tables rebuilt from scratch on every run.
package export

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Napageneral/chatvault/internal/contactcard"
	"github.com/Napageneral/chatvault/internal/message"
)

// TimeLayout is the exported timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// Write rebuilds the contacts and messages tables at path inside one
// transaction. Insertion order follows collection order. A failure
// anywhere rolls back and leaves a previous export, if any, intact.
func Write(path string, contacts []*contactcard.Contact, messages []*message.Message) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open export store: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("set busy_timeout: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin export transaction: %w", err)
	}
	defer tx.Rollback()

	schema := []string{
		`DROP TABLE IF EXISTS contacts`,
		`CREATE TABLE contacts (
			phone_number TEXT,
			email TEXT,
			first_name TEXT,
			last_name TEXT,
			imessage_handle_id INTEGER,
			sms_handle_id INTEGER
		)`,
		`DROP TABLE IF EXISTS messages`,
		`CREATE TABLE messages (
			text TEXT,
			date_time TEXT,
			handle_id INTEGER,
			is_from_me INTEGER
		)`,
	}
	for _, s := range schema {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("rebuild export schema: %w", err)
		}
	}

	insertContact, err := tx.Prepare(`INSERT INTO contacts VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare contact insert: %w", err)
	}
	defer insertContact.Close()
	for _, c := range contacts {
		_, err := insertContact.Exec(
			nullableString(c.PhoneNumber),
			nullableString(c.Email),
			nullableString(c.FirstName),
			nullableString(c.LastName),
			nullableInt(c.IMessageHandleID),
			nullableInt(c.SMSHandleID),
		)
		if err != nil {
			return fmt.Errorf("insert contact: %w", err)
		}
	}

	insertMessage, err := tx.Prepare(`INSERT INTO messages VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer insertMessage.Close()
	for _, m := range messages {
		_, err := insertMessage.Exec(m.Text, m.Date.UTC().Format(TimeLayout), m.HandleID, boolToInt(m.IsFromMe))
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(p *int64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
