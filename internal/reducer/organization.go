package reducer

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// OrganizationReducers returns the organization domain's reducer batch.
func OrganizationReducers() map[event.Type]engine.Reducer {
	return map[event.Type]engine.Reducer{
		event.OrganizationCreatedType: organizationCreated,
		event.OrganizationUpdatedType: organizationUpdated,
	}
}

func organizationCreated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Organizations[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.OrganizationCreated](evt)
	if err != nil {
		return nil, err
	}

	ts := evt.Timestamp.UTC()
	org := doc.Organization{
		ID:        id,
		Name:      p.Name,
		Status:    p.Status,
		Metadata:  copyMetadata(p.Metadata),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	st := engine.Stamp(evt)
	return d.WithOrganization(org).
		WithFieldStamps(id, createStamps(st, p.Metadata, "name", "status")), nil
}

func organizationUpdated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	org, exists := d.Organizations[id]
	if !exists {
		return nil, engine.NewEntityNotFound(evt, id)
	}
	p, err := payloadAs[*event.OrganizationUpdated](evt)
	if err != nil {
		return nil, err
	}

	m := d.Merge(id, engine.Stamp(evt))
	m.String("name", &org.Name, p.Name)
	m.String("status", &org.Status, p.Status)
	m.Metadata(&org.Metadata, p.Metadata)
	if !m.Changed() {
		return d, nil
	}
	org.UpdatedAt = doc.MaxTime(org.UpdatedAt, evt.Timestamp.UTC())
	return d.WithOrganization(org).WithFieldStamps(id, m.Stamps()), nil
}
