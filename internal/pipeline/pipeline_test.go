package pipeline

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"howett.net/plist"
	_ "modernc.org/sqlite"

	"github.com/Napageneral/chatvault/internal/message"
)

func buildCardsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cards := map[string]interface{}{
		"alice.abcdp": map[string]interface{}{
			"First": "Alice",
			"Last":  "Smith",
			"Phone": map[string]interface{}{"values": []interface{}{"(555) 123-4567"}},
		},
		"carol.abcdp": map[string]interface{}{
			"First": "Carol",
			"Phone": map[string]interface{}{"values": []interface{}{"5550001111"}},
		},
	}
	for name, v := range cards {
		data, err := plist.Marshal(v, plist.BinaryFormat)
		if err != nil {
			t.Fatalf("marshal card: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			t.Fatalf("write card: %v", err)
		}
	}
	return dir
}

func buildArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
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
		`INSERT INTO chat_handle_join VALUES (10, 1)`,

		`INSERT INTO message (ROWID, text, date, handle_id) VALUES (100, 'Hello', 1000000000, 1)`,
		`INSERT INTO message (ROWID, text, date, is_from_me, handle_id) VALUES (101, 'On my way', 2000000000, 1, 0)`,
		`INSERT INTO message (ROWID, text, date, handle_id, cache_has_attachments) VALUES (103, 'see photo', 0, 1, 1)`,
		`INSERT INTO message (ROWID, text, date, handle_id, is_audio_message) VALUES (104, 'voice note', 0, 1, 1)`,
		`INSERT INTO chat_message_join VALUES (10, 100)`,
		`INSERT INTO chat_message_join VALUES (10, 101)`,
		`INSERT INTO chat_message_join VALUES (10, 103)`,
		`INSERT INTO chat_message_join VALUES (10, 104)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("fixture stmt %s: %v", s, err)
		}
	}

	// Rich-text row: body only recoverable from the typedstream blob.
	blob := []byte{0x04, 0x0b, 0x01, 0x2b, 0x05, 'y', 'e', 'p', ' ', '!', 0x86, 0x84, 0xff}
	if _, err := db.Exec(`INSERT INTO message (ROWID, text, attributedBody, date, handle_id) VALUES (102, NULL, ?, 3000000000, 1)`, blob); err != nil {
		t.Fatal(err)
	}
	// Placeholder-only body: fails validation.
	if _, err := db.Exec(`INSERT INTO message (ROWID, text, date, handle_id) VALUES (105, ?, 0, 1)`, "\uFFFC"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []int{102, 105} {
		if _, err := db.Exec(`INSERT INTO chat_message_join VALUES (10, ?)`, id); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestRunAndExport(t *testing.T) {
	p := New(Options{
		ContactsDir: buildCardsDir(t),
		ArchivePath: buildArchive(t),
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Contacts != 2 || res.ContactsMatched != 1 {
		t.Errorf("contacts = %d matched = %d, want 2 and 1", res.Contacts, res.ContactsMatched)
	}
	if res.RowsSeen != 6 {
		t.Errorf("rows seen = %d, want 6", res.RowsSeen)
	}
	if res.Messages != 3 {
		t.Fatalf("messages = %d, want 3 (skipped: %v)", res.Messages, res.RowsSkipped)
	}
	if res.RowsSkipped[string(message.SkipAttachment)] != 1 ||
		res.RowsSkipped[string(message.SkipAudio)] != 1 ||
		res.RowsSkipped[string(message.SkipInvalidBody)] != 1 {
		t.Errorf("unexpected skip breakdown: %v", res.RowsSkipped)
	}

	var alice *int64
	for _, c := range p.Contacts() {
		if c.FirstName == "Alice" {
			alice = c.IMessageHandleID
		} else if c.IMessageHandleID != nil || c.SMSHandleID != nil {
			t.Errorf("contact %s should not have been enriched", c.DisplayName())
		}
	}
	if alice == nil || *alice != 1 {
		t.Errorf("Alice iMessage handle = %v, want 1", alice)
	}

	bodies := map[string]bool{}
	for _, m := range p.Messages() {
		bodies[m.Text] = true
	}
	for _, want := range []string{"Hello", "On my way", "yep !"} {
		if !bodies[want] {
			t.Errorf("missing message %q (have %v)", want, bodies)
		}
	}

	out := filepath.Join(t.TempDir(), "export.db")
	if err := p.ExportTo(out); err != nil {
		t.Fatalf("ExportTo: %v", err)
	}
	db, err := sql.Open("sqlite", out)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var nContacts, nMessages int
	if err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&nContacts); err != nil {
		t.Fatal(err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&nMessages); err != nil {
		t.Fatal(err)
	}
	if nContacts != 2 || nMessages != 3 {
		t.Errorf("export holds %d contacts / %d messages, want 2 / 3", nContacts, nMessages)
	}
}

func TestRunContactPhaseFailureIsIndependent(t *testing.T) {
	p := New(Options{
		ContactsDir: filepath.Join(t.TempDir(), "absent"),
		ArchivePath: buildArchive(t),
	})
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Contacts != 0 {
		t.Errorf("contacts = %d, want 0", res.Contacts)
	}
	if res.Messages != 3 {
		t.Errorf("messages = %d, want 3 despite contact-phase failure", res.Messages)
	}
}

func TestRunMissingArchiveKeepsContacts(t *testing.T) {
	p := New(Options{
		ContactsDir: buildCardsDir(t),
		ArchivePath: filepath.Join(t.TempDir(), "absent.db"),
	})
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected terminal error for missing archive")
	}
	if len(p.Contacts()) != 2 {
		t.Errorf("contacts = %d, want 2 retained after archive failure", len(p.Contacts()))
	}
}
