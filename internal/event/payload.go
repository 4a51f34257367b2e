package event

import (
	"fmt"
	"time"
)

// Payload is the sealed union of event bodies. Exactly one concrete type
// exists per catalogue member. Update payloads use pointer fields: nil
// means "field not touched", which is what makes field-level merge work.
type Payload interface {
	// Type returns the catalogue type this payload belongs to.
	Type() Type
	// Validate checks structural validity of the body (required fields,
	// discriminator membership). Entity existence is checked by reducers.
	Validate() error
}

// Identified is implemented by payloads that can carry the target entity
// id in the body. Creation events always do; the envelope EntityID may be
// empty for them.
type Identified interface {
	PayloadEntityID() string
}

// LinkedEntityTypes enumerates the entity kinds a note can link to.
var LinkedEntityTypes = []string{"organization", "account", "contact", "interaction"}

func validLinkedEntityType(s string) bool {
	for _, t := range LinkedEntityTypes {
		if s == t {
			return true
		}
	}
	return false
}

// InteractionKinds enumerates recognized interaction kinds.
var InteractionKinds = []string{"call", "email", "meeting", "message", "other"}

func validInteractionKind(s string) bool {
	for _, k := range InteractionKinds {
		if s == k {
			return true
		}
	}
	return false
}

// OrganizationCreated creates an organization record.
type OrganizationCreated struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (*OrganizationCreated) Type() Type { return OrganizationCreatedType }

func (p *OrganizationCreated) PayloadEntityID() string { return p.ID }

func (p *OrganizationCreated) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("organization.created: name is required")
	}
	return nil
}

// OrganizationUpdated carries only the changed fields.
type OrganizationUpdated struct {
	ID       string            `json:"id,omitempty"`
	Name     *string           `json:"name,omitempty"`
	Status   *string           `json:"status,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (*OrganizationUpdated) Type() Type { return OrganizationUpdatedType }

func (p *OrganizationUpdated) PayloadEntityID() string { return p.ID }

func (p *OrganizationUpdated) Validate() error { return nil }

// AccountCreated creates an account record.
type AccountCreated struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Stage          string            `json:"stage,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (*AccountCreated) Type() Type { return AccountCreatedType }

func (p *AccountCreated) PayloadEntityID() string { return p.ID }

func (p *AccountCreated) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("account.created: name is required")
	}
	return nil
}

// AccountUpdated carries only the changed fields.
type AccountUpdated struct {
	ID             string            `json:"id,omitempty"`
	Name           *string           `json:"name,omitempty"`
	OrganizationID *string           `json:"organizationId,omitempty"`
	Stage          *string           `json:"stage,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (*AccountUpdated) Type() Type { return AccountUpdatedType }

func (p *AccountUpdated) PayloadEntityID() string { return p.ID }

func (p *AccountUpdated) Validate() error { return nil }

// ContactCreated creates a contact record.
type ContactCreated struct {
	ID             string            `json:"id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Title          string            `json:"title,omitempty"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (*ContactCreated) Type() Type { return ContactCreatedType }

func (p *ContactCreated) PayloadEntityID() string { return p.ID }

func (p *ContactCreated) Validate() error {
	if p.FirstName == "" {
		return fmt.Errorf("contact.created: firstName is required")
	}
	return nil
}

// ContactUpdated carries only the changed fields.
type ContactUpdated struct {
	ID             string            `json:"id,omitempty"`
	FirstName      *string           `json:"firstName,omitempty"`
	LastName       *string           `json:"lastName,omitempty"`
	Email          *string           `json:"email,omitempty"`
	Phone          *string           `json:"phone,omitempty"`
	Title          *string           `json:"title,omitempty"`
	OrganizationID *string           `json:"organizationId,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

func (*ContactUpdated) Type() Type { return ContactUpdatedType }

func (p *ContactUpdated) PayloadEntityID() string { return p.ID }

func (p *ContactUpdated) Validate() error { return nil }

// NoteCreated creates a note record.
type NoteCreated struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
	Pinned bool   `json:"pinned,omitempty"`
}

func (*NoteCreated) Type() Type { return NoteCreatedType }

func (p *NoteCreated) PayloadEntityID() string { return p.ID }

func (p *NoteCreated) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("note.created: title is required")
	}
	return nil
}

// NoteUpdated carries only the changed fields.
type NoteUpdated struct {
	ID     string  `json:"id,omitempty"`
	Title  *string `json:"title,omitempty"`
	Body   *string `json:"body,omitempty"`
	Pinned *bool   `json:"pinned,omitempty"`
}

func (*NoteUpdated) Type() Type { return NoteUpdatedType }

func (p *NoteUpdated) PayloadEntityID() string { return p.ID }

func (p *NoteUpdated) Validate() error { return nil }

// InteractionLogged records a call, email, meeting or similar touchpoint.
type InteractionLogged struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Summary    string    `json:"summary,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	ContactID  string    `json:"contactId,omitempty"`
	AccountID  string    `json:"accountId,omitempty"`
}

func (*InteractionLogged) Type() Type { return InteractionLoggedType }

func (p *InteractionLogged) PayloadEntityID() string { return p.ID }

func (p *InteractionLogged) Validate() error {
	if !validInteractionKind(p.Kind) {
		return fmt.Errorf("interaction.logged: unknown kind %q", p.Kind)
	}
	if p.OccurredAt.IsZero() {
		return fmt.Errorf("interaction.logged: occurredAt is required")
	}
	return nil
}

// InteractionUpdated carries only the changed fields.
type InteractionUpdated struct {
	ID         string     `json:"id,omitempty"`
	Kind       *string    `json:"kind,omitempty"`
	Summary    *string    `json:"summary,omitempty"`
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
}

func (*InteractionUpdated) Type() Type { return InteractionUpdatedType }

func (p *InteractionUpdated) PayloadEntityID() string { return p.ID }

func (p *InteractionUpdated) Validate() error {
	if p.Kind != nil && !validInteractionKind(*p.Kind) {
		return fmt.Errorf("interaction.updated: unknown kind %q", *p.Kind)
	}
	return nil
}

// AccountContactLinked creates an account-contact relation row. The
// relation id is independent of both endpoints so the link can be removed
// without touching either entity.
type AccountContactLinked struct {
	ID        string `json:"id"`
	AccountID string `json:"accountId"`
	ContactID string `json:"contactId"`
	Role      string `json:"role,omitempty"`
	Primary   bool   `json:"primary,omitempty"`
}

func (*AccountContactLinked) Type() Type { return AccountContactLinkedType }

func (p *AccountContactLinked) PayloadEntityID() string { return p.ID }

func (p *AccountContactLinked) Validate() error {
	if p.AccountID == "" || p.ContactID == "" {
		return fmt.Errorf("account.contactLinked: accountId and contactId are required")
	}
	return nil
}

// AccountContactUnlinked removes an account-contact relation row by
// relation id. Neither endpoint entity is touched.
type AccountContactUnlinked struct {
	ID string `json:"id,omitempty"`
}

func (*AccountContactUnlinked) Type() Type { return AccountContactUnlinkedType }

func (p *AccountContactUnlinked) PayloadEntityID() string { return p.ID }

func (p *AccountContactUnlinked) Validate() error { return nil }

// NoteLinked creates a note-entity relation row with an entity type
// discriminator.
type NoteLinked struct {
	ID         string `json:"id"`
	NoteID     string `json:"noteId"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
}

func (*NoteLinked) Type() Type { return NoteLinkedType }

func (p *NoteLinked) PayloadEntityID() string { return p.ID }

func (p *NoteLinked) Validate() error {
	if p.NoteID == "" || p.EntityID == "" {
		return fmt.Errorf("note.linked: noteId and entityId are required")
	}
	if !validLinkedEntityType(p.EntityType) {
		return fmt.Errorf("note.linked: unknown entityType %q", p.EntityType)
	}
	return nil
}

// NoteUnlinked removes a note-entity relation row by relation id.
type NoteUnlinked struct {
	ID string `json:"id,omitempty"`
}

func (*NoteUnlinked) Type() Type { return NoteUnlinkedType }

func (p *NoteUnlinked) PayloadEntityID() string { return p.ID }

func (p *NoteUnlinked) Validate() error { return nil }
