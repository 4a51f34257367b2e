package reducer

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// AccountReducers returns the account domain's reducer batch.
func AccountReducers() map[event.Type]engine.Reducer {
	return map[event.Type]engine.Reducer{
		event.AccountCreatedType: accountCreated,
		event.AccountUpdatedType: accountUpdated,
	}
}

func accountCreated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Accounts[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.AccountCreated](evt)
	if err != nil {
		return nil, err
	}

	ts := evt.Timestamp.UTC()
	acct := doc.Account{
		ID:             id,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		Stage:          p.Stage,
		Metadata:       copyMetadata(p.Metadata),
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	st := engine.Stamp(evt)
	return d.WithAccount(acct).
		WithFieldStamps(id, createStamps(st, p.Metadata, "name", "organizationId", "stage")), nil
}

func accountUpdated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	acct, exists := d.Accounts[id]
	if !exists {
		return nil, engine.NewEntityNotFound(evt, id)
	}
	p, err := payloadAs[*event.AccountUpdated](evt)
	if err != nil {
		return nil, err
	}

	m := d.Merge(id, engine.Stamp(evt))
	m.String("name", &acct.Name, p.Name)
	m.String("organizationId", &acct.OrganizationID, p.OrganizationID)
	m.String("stage", &acct.Stage, p.Stage)
	m.Metadata(&acct.Metadata, p.Metadata)
	if !m.Changed() {
		return d, nil
	}
	acct.UpdatedAt = doc.MaxTime(acct.UpdatedAt, evt.Timestamp.UTC())
	return d.WithAccount(acct).WithFieldStamps(id, m.Stamps()), nil
}
