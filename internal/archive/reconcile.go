package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/Napageneral/chatvault/internal/contactcard"
	"github.com/Napageneral/chatvault/internal/phone"
)

// handleInfo accumulates the per-identifier handle ids found during the
// handle table scan.
type handleInfo struct {
	iMessageID *int64
	smsID      *int64
}

// HandleMap maps canonical identifiers (emails verbatim, phones
// normalized) to their archive handle ids. Built once per run, read-only
// afterwards.
type HandleMap map[string]*handleInfo

// ScanHandles reads the archive handle table and builds the
// reconciliation map. A duplicate (identifier, service) pair keeps the
// later row.
func (a *DB) ScanHandles(ctx context.Context) (HandleMap, error) {
	rows, err := a.db.QueryContext(ctx, "SELECT ROWID, id, service FROM handle")
	if err != nil {
		return nil, fmt.Errorf("scan handles: %w", err)
	}
	defer rows.Close()

	m := make(HandleMap)
	for rows.Next() {
		var (
			rowID      int64
			identifier string
			service    string
		)
		if err := rows.Scan(&rowID, &identifier, &service); err != nil {
			return nil, fmt.Errorf("scan handle row: %w", err)
		}

		// Emails key as-is; everything else is a phone number and must
		// be normalized so it matches the contacts' canonical form.
		if !strings.Contains(identifier, "@") {
			identifier = phone.Normalize(identifier)
		}

		info := m[identifier]
		if info == nil {
			info = &handleInfo{}
			m[identifier] = info
		}
		id := rowID
		switch service {
		case "iMessage":
			info.iMessageID = &id
		case "SMS":
			info.smsID = &id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan handles: %w", err)
	}
	return m, nil
}

// EnrichContacts copies handle ids onto contacts whose canonical phone
// number appears in the map. Contacts without a phone or without a match
// are left untouched; that is a no-op, not an error.
func EnrichContacts(m HandleMap, contacts []*contactcard.Contact) {
	for _, c := range contacts {
		if c.PhoneNumber == "" {
			continue
		}
		info, ok := m[c.PhoneNumber]
		if !ok {
			continue
		}
		c.IMessageHandleID = info.iMessageID
		c.SMSHandleID = info.smsID
	}
}
