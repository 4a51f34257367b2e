// Package doc defines the mergeable document: the replica-local,
// conflict-resolved materialization of all entities and relations.
//
// The document is an immutable value. Every "mutation" helper returns a
// new *Document sharing all untouched collections with its parent and
// cloning only the collection it changes, so any number of readers can
// hold a prior version while the single writer advances. The document at
// any instant is fully determined by the set of events applied so far:
// two replicas that have seen the same event set converge to equal
// documents (see merge.go for the field-level rules).
package doc

import "maps"

// Document holds the entity collections and relation collections, plus
// the per-entity field version table that drives last-writer-wins merge.
type Document struct {
	Organizations map[string]Organization `json:"organizations"`
	Accounts      map[string]Account      `json:"accounts"`
	Contacts      map[string]Contact      `json:"contacts"`
	Notes         map[string]Note         `json:"notes"`
	Interactions  map[string]Interaction  `json:"interactions"`
	Relations     Relations               `json:"relations"`

	// Versions records, per entity id, the stamp of the event that last
	// wrote each field. It is part of the document (and its snapshots):
	// without it, LWW resolution would not survive a restart.
	Versions map[string]FieldClock `json:"versions,omitempty"`
}

// Relations holds the many-to-many join collections, keyed by relation id.
type Relations struct {
	AccountContacts map[string]AccountContact `json:"accountContacts"`
	NoteLinks       map[string]NoteLink       `json:"noteLinks"`
}

// New returns an empty document, the state of a replica at first boot.
func New() *Document {
	return &Document{
		Organizations: map[string]Organization{},
		Accounts:      map[string]Account{},
		Contacts:      map[string]Contact{},
		Notes:         map[string]Note{},
		Interactions:  map[string]Interaction{},
		Relations: Relations{
			AccountContacts: map[string]AccountContact{},
			NoteLinks:       map[string]NoteLink{},
		},
		Versions: map[string]FieldClock{},
	}
}

// clone returns a shallow copy. Collection maps are shared until a With*
// helper replaces one.
func (d *Document) clone() *Document {
	next := *d
	return &next
}

// WithOrganization returns a new document with org set, cloning only the
// organizations collection.
func (d *Document) WithOrganization(org Organization) *Document {
	next := d.clone()
	next.Organizations = maps.Clone(d.Organizations)
	next.Organizations[org.ID] = org
	return next
}

// WithAccount returns a new document with acct set.
func (d *Document) WithAccount(acct Account) *Document {
	next := d.clone()
	next.Accounts = maps.Clone(d.Accounts)
	next.Accounts[acct.ID] = acct
	return next
}

// WithContact returns a new document with c set.
func (d *Document) WithContact(c Contact) *Document {
	next := d.clone()
	next.Contacts = maps.Clone(d.Contacts)
	next.Contacts[c.ID] = c
	return next
}

// WithNote returns a new document with n set.
func (d *Document) WithNote(n Note) *Document {
	next := d.clone()
	next.Notes = maps.Clone(d.Notes)
	next.Notes[n.ID] = n
	return next
}

// WithInteraction returns a new document with i set.
func (d *Document) WithInteraction(i Interaction) *Document {
	next := d.clone()
	next.Interactions = maps.Clone(d.Interactions)
	next.Interactions[i.ID] = i
	return next
}

// WithAccountContact returns a new document with the relation row set.
func (d *Document) WithAccountContact(rel AccountContact) *Document {
	next := d.clone()
	next.Relations.AccountContacts = maps.Clone(d.Relations.AccountContacts)
	next.Relations.AccountContacts[rel.ID] = rel
	return next
}

// WithoutAccountContact returns a new document with the relation row
// removed. Neither endpoint entity is touched.
func (d *Document) WithoutAccountContact(id string) *Document {
	next := d.clone()
	next.Relations.AccountContacts = maps.Clone(d.Relations.AccountContacts)
	delete(next.Relations.AccountContacts, id)
	return next
}

// WithNoteLink returns a new document with the relation row set.
func (d *Document) WithNoteLink(rel NoteLink) *Document {
	next := d.clone()
	next.Relations.NoteLinks = maps.Clone(d.Relations.NoteLinks)
	next.Relations.NoteLinks[rel.ID] = rel
	return next
}

// WithoutNoteLink returns a new document with the relation row removed.
func (d *Document) WithoutNoteLink(id string) *Document {
	next := d.clone()
	next.Relations.NoteLinks = maps.Clone(d.Relations.NoteLinks)
	delete(next.Relations.NoteLinks, id)
	return next
}

// WithFieldStamps returns a new document with the entity's field clock
// advanced by stamps. Only the touched entity's clock is cloned.
func (d *Document) WithFieldStamps(entityID string, stamps map[string]Stamp) *Document {
	if len(stamps) == 0 {
		return d
	}
	next := d.clone()
	next.Versions = maps.Clone(d.Versions)
	clock := maps.Clone(d.Versions[entityID])
	if clock == nil {
		clock = FieldClock{}
	}
	for field, st := range stamps {
		clock[field] = st
	}
	next.Versions[entityID] = clock
	return next
}

// FieldStamp returns the stamp of the last write to an entity field, or
// the zero stamp if the field has never been written.
func (d *Document) FieldStamp(entityID, field string) Stamp {
	return d.Versions[entityID][field]
}
