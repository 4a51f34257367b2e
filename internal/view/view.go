// Package view derives read models from a document version. Views never
// mutate the document and never consult the log; they are pure functions
// of one immutable document value, so they stay consistent even while
// the replica keeps applying.
package view

import (
	"slices"

	"github.com/rapportlabs/rapport/internal/doc"
)

// ContactsForAccount returns the contacts linked to an account, ordered
// primary-first, then by relation creation time, then by contact id.
// Returns an empty slice (not nil) when the account has no links.
func ContactsForAccount(d *doc.Document, accountID string) []doc.Contact {
	var rels []doc.AccountContact
	for _, rel := range d.Relations.AccountContacts {
		if rel.AccountID == accountID {
			rels = append(rels, rel)
		}
	}
	slices.SortFunc(rels, func(a, b doc.AccountContact) int {
		if a.Primary != b.Primary {
			if a.Primary {
				return -1
			}
			return 1
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmpString(a.ContactID, b.ContactID)
	})

	contacts := make([]doc.Contact, 0, len(rels))
	for _, rel := range rels {
		if c, ok := d.Contacts[rel.ContactID]; ok {
			contacts = append(contacts, c)
		}
	}
	return contacts
}

// AccountsForContact returns the accounts a contact is linked to,
// ordered by relation creation time then account id.
func AccountsForContact(d *doc.Document, contactID string) []doc.Account {
	var rels []doc.AccountContact
	for _, rel := range d.Relations.AccountContacts {
		if rel.ContactID == contactID {
			rels = append(rels, rel)
		}
	}
	slices.SortFunc(rels, func(a, b doc.AccountContact) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmpString(a.AccountID, b.AccountID)
	})

	accounts := make([]doc.Account, 0, len(rels))
	for _, rel := range rels {
		if a, ok := d.Accounts[rel.AccountID]; ok {
			accounts = append(accounts, a)
		}
	}
	return accounts
}

// NotesForEntity returns the notes linked to an entity, pinned notes
// first, then newest first.
func NotesForEntity(d *doc.Document, entityID string) []doc.Note {
	notes := make([]doc.Note, 0)
	for _, rel := range d.Relations.NoteLinks {
		if rel.EntityID != entityID {
			continue
		}
		if n, ok := d.Notes[rel.NoteID]; ok {
			notes = append(notes, n)
		}
	}
	slices.SortFunc(notes, func(a, b doc.Note) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return notes
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
