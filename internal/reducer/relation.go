package reducer

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// RelationReducers returns the link/unlink reducer batch. Relation
// reducers operate on the relations collections only: unlink removes the
// relation row by its own id and never touches either endpoint entity.
func RelationReducers() map[event.Type]engine.Reducer {
	return map[event.Type]engine.Reducer{
		event.AccountContactLinkedType:   accountContactLinked,
		event.AccountContactUnlinkedType: accountContactUnlinked,
		event.NoteLinkedType:             noteLinked,
		event.NoteUnlinkedType:           noteUnlinked,
	}
}

func accountContactLinked(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Relations.AccountContacts[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.AccountContactLinked](evt)
	if err != nil {
		return nil, err
	}

	return d.WithAccountContact(doc.AccountContact{
		ID:        id,
		AccountID: p.AccountID,
		ContactID: p.ContactID,
		Role:      p.Role,
		Primary:   p.Primary,
		CreatedAt: evt.Timestamp.UTC(),
	}), nil
}

func accountContactUnlinked(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Relations.AccountContacts[id]; !exists {
		return nil, engine.NewRelationNotFound(evt, id)
	}
	return d.WithoutAccountContact(id), nil
}

func noteLinked(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Relations.NoteLinks[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.NoteLinked](evt)
	if err != nil {
		return nil, err
	}

	return d.WithNoteLink(doc.NoteLink{
		ID:         id,
		NoteID:     p.NoteID,
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
		CreatedAt:  evt.Timestamp.UTC(),
	}), nil
}

func noteUnlinked(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Relations.NoteLinks[id]; !exists {
		return nil, engine.NewRelationNotFound(evt, id)
	}
	return d.WithoutNoteLink(id), nil
}
