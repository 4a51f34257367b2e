package view

import (
	"slices"
	"time"

	"github.com/rapportlabs/rapport/internal/doc"
)

// Timeline entry kinds.
const (
	EntryInteraction = "interaction"
	EntryNote        = "note"
)

// Entry is one row in an entity timeline: an interaction that touched
// the entity or a note linked to it.
type Entry struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Headline  string    `json:"headline"`
}

// Timeline returns the chronological activity for one entity: its
// interactions (by occurrence time) interleaved with its linked notes
// (by creation time), oldest first, ties broken by entry id so every
// replica renders the same order.
func Timeline(d *doc.Document, entityID string) []Entry {
	entries := make([]Entry, 0)

	for _, i := range d.Interactions {
		if i.ContactID != entityID && i.AccountID != entityID {
			continue
		}
		headline := i.Kind
		if i.Summary != "" {
			headline = i.Kind + ": " + i.Summary
		}
		entries = append(entries, Entry{
			Kind:      EntryInteraction,
			ID:        i.ID,
			Timestamp: i.OccurredAt,
			Headline:  headline,
		})
	}

	for _, rel := range d.Relations.NoteLinks {
		if rel.EntityID != entityID {
			continue
		}
		n, ok := d.Notes[rel.NoteID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Kind:      EntryNote,
			ID:        n.ID,
			Timestamp: n.CreatedAt,
			Headline:  n.Title,
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return entries
}
