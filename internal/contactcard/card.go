// Package contactcard reads per-contact AddressBook card files (.abcdp
// binary plists) into Contact records.
package contactcard

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"howett.net/plist"

	"github.com/Napageneral/chatvault/internal/phone"
)

// Extension is the per-contact card file suffix AddressBook writes.
const Extension = ".abcdp"

// Contact is one identity record built from a single card file. The two
// handle ids are absent at construction and filled exactly once during
// reconciliation against the archive's handle table.
type Contact struct {
	PhoneNumber string // canonical +1 form, never empty for a built contact
	Email       string
	FirstName   string
	LastName    string

	IMessageHandleID *int64
	SMSHandleID      *int64
}

// DisplayName returns the best human label for the contact.
func (c *Contact) DisplayName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	case c.PhoneNumber != "":
		return c.PhoneNumber
	case c.Email != "":
		return c.Email
	}
	return "Unknown"
}

// Parse builds a Contact from raw card bytes. Cards whose root is not a
// dictionary, or without a Phone.values[0] string, yield (nil, nil): a
// contact with no phone number can never be reconciled, so it is out of
// scope rather than an error. Undecodable bytes yield an error.
func Parse(data []byte) (*Contact, error) {
	var root interface{}
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode contact card: %w", err)
	}

	dict, ok := root.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	rawPhone, ok := cardPhone(dict)
	if !ok {
		return nil, nil
	}

	c := &Contact{PhoneNumber: phone.Normalize(rawPhone)}
	if s, ok := dict["First"].(string); ok {
		c.FirstName = s
	}
	if s, ok := dict["Last"].(string); ok {
		c.LastName = s
	}
	return c, nil
}

// cardPhone digs out Phone.values[0]. AddressBook stores multi-value
// properties as a dict of parallel "values" and "labels" arrays; only the
// first value matters here.
func cardPhone(dict map[string]interface{}) (string, bool) {
	phoneDict, ok := dict["Phone"].(map[string]interface{})
	if !ok {
		return "", false
	}
	values, ok := phoneDict["values"].([]interface{})
	if !ok || len(values) == 0 {
		return "", false
	}
	s, ok := values[0].(string)
	return s, ok
}

// ParseFile reads and parses a single card file.
func ParseFile(path string) (*Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contact card: %w", err)
	}
	return Parse(data)
}

// LoadDirectory recursively scans dir for card files and returns every
// contact that could be built. Malformed cards are logged and skipped;
// only a failed directory walk is terminal.
func LoadDirectory(dir string, log *zap.Logger) ([]*Contact, error) {
	var out []*Contact
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != Extension {
			return nil
		}
		c, perr := ParseFile(path)
		if perr != nil {
			log.Warn("skipping malformed contact card", zap.String("path", path), zap.Error(perr))
			return nil
		}
		if c == nil {
			log.Debug("contact card has no phone entry", zap.String("path", path))
			return nil
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan contact cards in %s: %w", dir, err)
	}
	return out, nil
}
