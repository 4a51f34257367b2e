package reducer

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// NoteReducers returns the note domain's reducer batch.
func NoteReducers() map[event.Type]engine.Reducer {
	return map[event.Type]engine.Reducer{
		event.NoteCreatedType: noteCreated,
		event.NoteUpdatedType: noteUpdated,
	}
}

func noteCreated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Notes[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.NoteCreated](evt)
	if err != nil {
		return nil, err
	}

	ts := evt.Timestamp.UTC()
	n := doc.Note{
		ID:        id,
		Title:     p.Title,
		Body:      p.Body,
		Pinned:    p.Pinned,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	st := engine.Stamp(evt)
	return d.WithNote(n).
		WithFieldStamps(id, doc.StampFields(st, "title", "body", "pinned")), nil
}

func noteUpdated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	n, exists := d.Notes[id]
	if !exists {
		return nil, engine.NewEntityNotFound(evt, id)
	}
	p, err := payloadAs[*event.NoteUpdated](evt)
	if err != nil {
		return nil, err
	}

	m := d.Merge(id, engine.Stamp(evt))
	m.String("title", &n.Title, p.Title)
	m.String("body", &n.Body, p.Body)
	m.Bool("pinned", &n.Pinned, p.Pinned)
	if !m.Changed() {
		return d, nil
	}
	n.UpdatedAt = doc.MaxTime(n.UpdatedAt, evt.Timestamp.UTC())
	return d.WithNote(n).WithFieldStamps(id, m.Stamps()), nil
}
