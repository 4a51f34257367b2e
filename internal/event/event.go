// Package event defines the canonical event envelope and the closed
// catalogue of recognized event types.
//
// Events are the unit of the append-only log: immutable, timestamped
// descriptions of a single state change. Adding an event type is a
// coordinated release across devices, never a runtime registration -
// an unknown type on the wire means corrupted or future-incompatible
// data and is rejected by the apply engine.
package event

import (
	"fmt"
	"slices"
	"time"

	"github.com/rapportlabs/rapport/internal/ident"
)

// Type identifies an event kind within the closed catalogue.
type Type string

// The event catalogue. Every device ships the same set.
const (
	OrganizationCreatedType Type = "organization.created"
	OrganizationUpdatedType Type = "organization.updated"

	AccountCreatedType Type = "account.created"
	AccountUpdatedType Type = "account.updated"

	ContactCreatedType Type = "contact.created"
	ContactUpdatedType Type = "contact.updated"

	NoteCreatedType Type = "note.created"
	NoteUpdatedType Type = "note.updated"

	InteractionLoggedType  Type = "interaction.logged"
	InteractionUpdatedType Type = "interaction.updated"

	AccountContactLinkedType   Type = "account.contactLinked"
	AccountContactUnlinkedType Type = "account.contactUnlinked"

	NoteLinkedType   Type = "note.linked"
	NoteUnlinkedType Type = "note.unlinked"
)

// catalogue maps each recognized type to its payload factory.
// The map is never mutated after package init.
var catalogue = map[Type]func() Payload{
	OrganizationCreatedType:    func() Payload { return &OrganizationCreated{} },
	OrganizationUpdatedType:    func() Payload { return &OrganizationUpdated{} },
	AccountCreatedType:         func() Payload { return &AccountCreated{} },
	AccountUpdatedType:         func() Payload { return &AccountUpdated{} },
	ContactCreatedType:         func() Payload { return &ContactCreated{} },
	ContactUpdatedType:         func() Payload { return &ContactUpdated{} },
	NoteCreatedType:            func() Payload { return &NoteCreated{} },
	NoteUpdatedType:            func() Payload { return &NoteUpdated{} },
	InteractionLoggedType:      func() Payload { return &InteractionLogged{} },
	InteractionUpdatedType:     func() Payload { return &InteractionUpdated{} },
	AccountContactLinkedType:   func() Payload { return &AccountContactLinked{} },
	AccountContactUnlinkedType: func() Payload { return &AccountContactUnlinked{} },
	NoteLinkedType:             func() Payload { return &NoteLinked{} },
	NoteUnlinkedType:           func() Payload { return &NoteUnlinked{} },
}

// KnownType reports whether t is a member of the catalogue.
func KnownType(t Type) bool {
	_, ok := catalogue[t]
	return ok
}

// Types returns all catalogue members in sorted order.
func Types() []Type {
	out := make([]Type, 0, len(catalogue))
	for t := range catalogue {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// newPayload returns an empty payload value for t, or nil if t is unknown.
func newPayload(t Type) Payload {
	factory, ok := catalogue[t]
	if !ok {
		return nil
	}
	return factory()
}

// Event is the immutable envelope appended to the log. Once appended it is
// never mutated or deleted; replay may apply it arbitrarily many times.
type Event struct {
	// ID is the generator-assigned unique identifier ("evt_...").
	ID string
	// Type is a member of the catalogue.
	Type Type
	// EntityID is the target entity. Empty for creation events that carry
	// the new id in the payload.
	EntityID string
	// Payload is the type-specific body, opaque to the engine.
	Payload Payload
	// Timestamp is the origin device's wall clock at creation, UTC.
	Timestamp time.Time
	// DeviceID identifies the origin device.
	DeviceID string
}

// Option customizes event construction.
type Option func(*Event)

// WithID overrides the generator-assigned event id. Used by codecs and
// backfill tooling; domain actions should let the generator assign it.
func WithID(id string) Option {
	return func(e *Event) { e.ID = id }
}

// WithTimestamp overrides the creation timestamp. Used by tests and
// backfill; normalized to UTC.
func WithTimestamp(ts time.Time) Option {
	return func(e *Event) { e.Timestamp = ts.UTC() }
}

// New builds an event envelope. Pure construction: assigns a fresh id and
// the current UTC wall clock unless overridden, validates the payload
// against the catalogue and its schema, and performs no side effects.
func New(t Type, entityID string, p Payload, deviceID string, opts ...Option) (Event, error) {
	e := Event{
		Type:      t,
		EntityID:  entityID,
		Payload:   p,
		Timestamp: time.Now().UTC(),
		DeviceID:  deviceID,
	}
	for _, opt := range opts {
		opt(&e)
	}
	if e.ID == "" {
		e.ID = ident.New(ident.PrefixEvent)
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Validate checks the envelope's structural invariants: catalogue
// membership, payload kind agreement, schema validity, and presence of
// the origin fields. It does not resolve entity ids against a document -
// that is reducer territory.
func (e Event) Validate() error {
	if !KnownType(e.Type) {
		return fmt.Errorf("event %s: unknown type %q", e.ID, e.Type)
	}
	if e.DeviceID == "" {
		return fmt.Errorf("event %s: missing device id", e.ID)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("event %s: missing timestamp", e.ID)
	}
	if e.Payload == nil {
		return fmt.Errorf("event %s: missing payload", e.ID)
	}
	if e.Payload.Type() != e.Type {
		return fmt.Errorf("event %s: payload kind %q does not match envelope type %q",
			e.ID, e.Payload.Type(), e.Type)
	}
	if err := e.Payload.Validate(); err != nil {
		return fmt.Errorf("event %s: invalid payload: %w", e.ID, err)
	}
	if err := validateSchema(e.Type, e.Payload); err != nil {
		return fmt.Errorf("event %s: %w", e.ID, err)
	}
	return nil
}
