package reducer

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// ContactReducers returns the contact domain's reducer batch.
func ContactReducers() map[event.Type]engine.Reducer {
	return map[event.Type]engine.Reducer{
		event.ContactCreatedType: contactCreated,
		event.ContactUpdatedType: contactUpdated,
	}
}

func contactCreated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Contacts[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.ContactCreated](evt)
	if err != nil {
		return nil, err
	}

	ts := evt.Timestamp.UTC()
	c := doc.Contact{
		ID:             id,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		Phone:          p.Phone,
		Title:          p.Title,
		OrganizationID: p.OrganizationID,
		Metadata:       copyMetadata(p.Metadata),
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	st := engine.Stamp(evt)
	return d.WithContact(c).
		WithFieldStamps(id, createStamps(st, p.Metadata,
			"firstName", "lastName", "email", "phone", "title", "organizationId")), nil
}

func contactUpdated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	c, exists := d.Contacts[id]
	if !exists {
		return nil, engine.NewEntityNotFound(evt, id)
	}
	p, err := payloadAs[*event.ContactUpdated](evt)
	if err != nil {
		return nil, err
	}

	m := d.Merge(id, engine.Stamp(evt))
	m.String("firstName", &c.FirstName, p.FirstName)
	m.String("lastName", &c.LastName, p.LastName)
	m.String("email", &c.Email, p.Email)
	m.String("phone", &c.Phone, p.Phone)
	m.String("title", &c.Title, p.Title)
	m.String("organizationId", &c.OrganizationID, p.OrganizationID)
	m.Metadata(&c.Metadata, p.Metadata)
	if !m.Changed() {
		return d, nil
	}
	c.UpdatedAt = doc.MaxTime(c.UpdatedAt, evt.Timestamp.UTC())
	return d.WithContact(c).WithFieldStamps(id, m.Stamps()), nil
}
