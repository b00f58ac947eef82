// Package pipeline sequences the extraction run: contact cards, handle
// reconciliation, the message query, and export.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Napageneral/chatvault/internal/archive"
	"github.com/Napageneral/chatvault/internal/contactcard"
	"github.com/Napageneral/chatvault/internal/export"
	"github.com/Napageneral/chatvault/internal/message"
)

// Options configures a single extraction run.
type Options struct {
	ContactsDir string
	ArchivePath string
	Logger      *zap.Logger
	Decoder     message.BodyDecoder
}

// RunResult reports what a run kept and what it skipped.
type RunResult struct {
	RunID           string         `json:"run_id"`
	Contacts        int            `json:"contacts"`
	ContactsMatched int            `json:"contacts_matched"`
	Messages        int            `json:"messages"`
	RowsSeen        int            `json:"rows_seen"`
	RowsSkipped     map[string]int `json:"rows_skipped,omitempty"`
	Duration        string         `json:"duration"`
}

// Pipeline runs the extract-normalize sequence over one archive. Build
// one per run; it is not safe for concurrent use.
type Pipeline struct {
	opts  Options
	runID string
	log   *zap.Logger

	contacts []*contactcard.Contact
	messages []*message.Message
}

// New builds a pipeline. A nil logger is replaced with a no-op one and a
// nil decoder with the standard stream heuristic.
func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Decoder == nil {
		opts.Decoder = message.StreamDecoder{}
	}
	runID := uuid.New().String()
	return &Pipeline{
		opts:  opts,
		runID: runID,
		log:   opts.Logger.With(zap.String("run", runID)),
	}
}

// Contacts returns the contact collection gathered by Run, enriched with
// handle ids where reconciliation found a match.
func (p *Pipeline) Contacts() []*contactcard.Contact { return p.contacts }

// Messages returns the message collection gathered by Run, in query
// order.
func (p *Pipeline) Messages() []*message.Message { return p.messages }

// Run executes the full pipeline. The contact phase and the message
// phase fail independently: a message-phase error still leaves the
// loaded (and, when possible, enriched) contacts accessible, and a
// contact-phase error does not stop message extraction. Per-row problems
// are logged and skipped, never escalated.
func (p *Pipeline) Run(ctx context.Context) (RunResult, error) {
	start := time.Now()
	res := RunResult{RunID: p.runID, RowsSkipped: map[string]int{}}

	contacts, err := contactcard.LoadDirectory(p.opts.ContactsDir, p.log)
	if err != nil {
		p.log.Error("contact phase failed", zap.String("dir", p.opts.ContactsDir), zap.Error(err))
	} else {
		p.contacts = contacts
		p.log.Info("contacts loaded", zap.Int("count", len(contacts)))
	}
	res.Contacts = len(p.contacts)

	db, err := archive.Open(p.opts.ArchivePath)
	if err != nil {
		res.Duration = time.Since(start).String()
		return res, fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()

	handles, err := db.ScanHandles(ctx)
	if err != nil {
		// Contacts stay unenriched; message extraction can still proceed.
		p.log.Error("handle reconciliation failed", zap.Error(err))
	} else {
		archive.EnrichContacts(handles, p.contacts)
		for _, c := range p.contacts {
			if c.IMessageHandleID != nil || c.SMSHandleID != nil {
				res.ContactsMatched++
			}
		}
		p.log.Info("contacts enriched",
			zap.Int("handles", len(handles)),
			zap.Int("matched", res.ContactsMatched))
	}

	err = db.Messages(ctx, func(r message.Row) error {
		res.RowsSeen++
		msg, skip := message.FromRow(r, p.opts.Decoder)
		if skip != message.SkipNone {
			res.RowsSkipped[string(skip)]++
			if skip.Structural() {
				p.log.Debug("row excluded", zap.String("reason", string(skip)))
			} else {
				p.log.Warn("row body unusable", zap.String("reason", string(skip)))
			}
			return nil
		}
		p.messages = append(p.messages, msg)
		return nil
	})
	res.Messages = len(p.messages)
	res.Duration = time.Since(start).String()
	if err != nil {
		p.log.Error("message phase failed", zap.Error(err))
		return res, fmt.Errorf("message phase: %w", err)
	}

	p.log.Info("extraction complete",
		zap.Int("messages", res.Messages),
		zap.Int("rows_seen", res.RowsSeen),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// ExportTo writes the collections gathered by Run to a fresh export
// store at path.
func (p *Pipeline) ExportTo(path string) error {
	if err := export.Write(path, p.contacts, p.messages); err != nil {
		return fmt.Errorf("export to %s: %w", path, err)
	}
	p.log.Info("export written",
		zap.String("path", path),
		zap.Int("contacts", len(p.contacts)),
		zap.Int("messages", len(p.messages)))
	return nil
}
