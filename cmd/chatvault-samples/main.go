// chatvault-samples fabricates a miniature Messages archive and a
// contact-card directory so the exporter can be exercised without
// pointing it at a real chat.db.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"howett.net/plist"
)

func main() {
	outDir := flag.String("out", "sample", "directory to create the sample archive and cards in")
	flag.Parse()

	if err := run(*outDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(outDir string) error {
	cardsDir := filepath.Join(outDir, "cards")
	if err := os.MkdirAll(cardsDir, 0755); err != nil {
		return fmt.Errorf("create cards dir: %w", err)
	}

	cards := map[string]interface{}{
		"alice.abcdp": map[string]interface{}{
			"First": "Alice",
			"Last":  "Smith",
			"Phone": map[string]interface{}{
				"values": []interface{}{"(555) 123-4567"},
				"labels": []interface{}{"_$!<Mobile>!$_"},
			},
		},
		"bob.abcdp": map[string]interface{}{
			"First": "Bob",
			"Phone": map[string]interface{}{
				"values": []interface{}{"15559876543"},
				"labels": []interface{}{"_$!<Mobile>!$_"},
			},
		},
		// No phone entry: the extractor skips this card.
		"carol.abcdp": map[string]interface{}{
			"First": "Carol",
			"Last":  "Jones",
		},
	}
	for name, v := range cards {
		data, err := plist.Marshal(v, plist.BinaryFormat)
		if err != nil {
			return fmt.Errorf("marshal card %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(cardsDir, name), data, 0644); err != nil {
			return fmt.Errorf("write card %s: %w", name, err)
		}
	}

	dbPath := filepath.Join(outDir, "chat.db")
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("create sample archive: %w", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE handle (ROWID INTEGER PRIMARY KEY, id TEXT, service TEXT)`,
		`CREATE TABLE message (
			ROWID INTEGER PRIMARY KEY,
			text TEXT,
			attributedBody BLOB,
			date INTEGER NOT NULL DEFAULT 0,
			is_from_me INTEGER NOT NULL DEFAULT 0,
			cache_has_attachments INTEGER NOT NULL DEFAULT 0,
			is_audio_message INTEGER NOT NULL DEFAULT 0,
			was_data_detected INTEGER,
			item_type INTEGER NOT NULL DEFAULT 0,
			handle_id INTEGER NOT NULL DEFAULT 0,
			balloon_bundle_id TEXT
		)`,
		`CREATE TABLE chat_message_join (chat_id INTEGER, message_id INTEGER)`,
		`CREATE TABLE chat_handle_join (chat_id INTEGER, handle_id INTEGER)`,

		`INSERT INTO handle VALUES (1, '+15551234567', 'iMessage')`,
		`INSERT INTO handle VALUES (2, '+15551234567', 'SMS')`,
		`INSERT INTO handle VALUES (3, '+15559876543', 'iMessage')`,

		`INSERT INTO chat_handle_join VALUES (1, 1)`,
		`INSERT INTO chat_handle_join VALUES (2, 3)`,

		// Chat 1: Alice. 757382400s after the epoch is 2025-01-01.
		`INSERT INTO message (ROWID, text, date, is_from_me, handle_id) VALUES
			(1, 'Lunch tomorrow?', 757382400000000000, 0, 1)`,
		`INSERT INTO message (ROWID, text, date, is_from_me, handle_id) VALUES
			(2, 'Sure, noon works', 757382460000000000, 1, 0)`,
		`INSERT INTO message (ROWID, text, date, is_from_me, handle_id, cache_has_attachments) VALUES
			(3, 'photo incoming', 757382520000000000, 0, 1, 1)`,
		`INSERT INTO chat_message_join VALUES (1, 1)`,
		`INSERT INTO chat_message_join VALUES (1, 2)`,
		`INSERT INTO chat_message_join VALUES (1, 3)`,

		// Chat 2: Bob.
		`INSERT INTO message (ROWID, text, date, is_from_me, handle_id) VALUES
			(4, 'Running late, sorry', 757400000000000000, 0, 3)`,
		`INSERT INTO chat_message_join VALUES (2, 4)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("populate sample archive: %w", err)
		}
	}

	// A rich-formatted message: NULL text column, body in the blob.
	blob := append([]byte{0x04, 0x0b, 0x73, 0x74, 0x01, 0x2b, 0x10},
		[]byte("See you there \xf0\x9f\x91\x8d")...)
	blob = append(blob, 0x86, 0x84, 0x02, 0x69)
	if _, err := db.Exec(
		`INSERT INTO message (ROWID, text, attributedBody, date, is_from_me, handle_id) VALUES (5, NULL, ?, 757382580000000000, 0, 1)`,
		blob,
	); err != nil {
		return fmt.Errorf("insert blob message: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO chat_message_join VALUES (1, 5)`); err != nil {
		return err
	}

	fmt.Printf("Sample cards:   %s\n", cardsDir)
	fmt.Printf("Sample archive: %s\n", dbPath)
	fmt.Printf("Try: chatvault export --contacts %s --archive %s --out %s\n",
		cardsDir, dbPath, filepath.Join(outDir, "export.db"))
	return nil
}
