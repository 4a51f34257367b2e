package reducer

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// InteractionReducers returns the interaction domain's reducer batch.
func InteractionReducers() map[event.Type]engine.Reducer {
	return map[event.Type]engine.Reducer{
		event.InteractionLoggedType:  interactionLogged,
		event.InteractionUpdatedType: interactionUpdated,
	}
}

func interactionLogged(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	if _, exists := d.Interactions[id]; exists {
		return nil, engine.NewDuplicateEntity(evt, id)
	}
	p, err := payloadAs[*event.InteractionLogged](evt)
	if err != nil {
		return nil, err
	}

	ts := evt.Timestamp.UTC()
	i := doc.Interaction{
		ID:         id,
		Kind:       p.Kind,
		Summary:    p.Summary,
		OccurredAt: p.OccurredAt.UTC(),
		ContactID:  p.ContactID,
		AccountID:  p.AccountID,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	st := engine.Stamp(evt)
	return d.WithInteraction(i).
		WithFieldStamps(id, doc.StampFields(st, "kind", "summary", "occurredAt")), nil
}

func interactionUpdated(d *doc.Document, evt event.Event) (*doc.Document, error) {
	id, err := engine.ResolveEntityID(evt)
	if err != nil {
		return nil, err
	}
	i, exists := d.Interactions[id]
	if !exists {
		return nil, engine.NewEntityNotFound(evt, id)
	}
	p, err := payloadAs[*event.InteractionUpdated](evt)
	if err != nil {
		return nil, err
	}

	m := d.Merge(id, engine.Stamp(evt))
	m.String("kind", &i.Kind, p.Kind)
	m.String("summary", &i.Summary, p.Summary)
	m.Time("occurredAt", &i.OccurredAt, p.OccurredAt)
	if !m.Changed() {
		return d, nil
	}
	i.UpdatedAt = doc.MaxTime(i.UpdatedAt, evt.Timestamp.UTC())
	return d.WithInteraction(i).WithFieldStamps(id, m.Stamps()), nil
}
