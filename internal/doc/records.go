package doc

import "time"

// Entity records are value types. `id` is immutable once assigned.
// CreatedAt/UpdatedAt are audit fields stamped by reducers from event
// timestamps, never from wall clock at apply time, so replay on another
// device reproduces identical values.

// Organization is a company or institution the user relates to.
type Organization struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Account is a working relationship, optionally attached to an organization.
type Account struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Stage          string            `json:"stage,omitempty"`
	Metadata       map[string]string `json:"metadata"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Contact is a person.
type Contact struct {
	ID             string            `json:"id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName,omitempty"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Title          string            `json:"title,omitempty"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Metadata       map[string]string `json:"metadata"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Note is free-form text attachable to other entities via NoteLink rows.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Pinned    bool      `json:"pinned,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Interaction is a logged touchpoint (call, email, meeting, ...).
type Interaction struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Summary    string    `json:"summary,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	ContactID  string    `json:"contactId,omitempty"`
	AccountID  string    `json:"accountId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AccountContact links an account to a contact. The relation id is
// independent of both endpoints: removing the link never touches the
// account or the contact.
type AccountContact struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	ContactID string    `json:"contactId"`
	Role      string    `json:"role,omitempty"`
	Primary   bool      `json:"primary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteLink links a note to any entity, discriminated by EntityType.
type NoteLink struct {
	ID         string    `json:"id"`
	NoteID     string    `json:"noteId"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	CreatedAt  time.Time `json:"createdAt"`
}
