package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapportlabs/rapport/internal/doc"
)

var viewBase = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func fixtureDoc() *doc.Document {
	return doc.New().
		WithAccount(doc.Account{ID: "acct_1", Name: "Acme"}).
		WithContact(doc.Contact{ID: "cont_1", FirstName: "Ada"}).
		WithContact(doc.Contact{ID: "cont_2", FirstName: "Grace"}).
		WithNote(doc.Note{ID: "note_1", Title: "Kickoff", CreatedAt: viewBase}).
		WithNote(doc.Note{ID: "note_2", Title: "Pinned summary", Pinned: true, CreatedAt: viewBase.Add(-time.Hour)}).
		WithInteraction(doc.Interaction{ID: "intr_1", Kind: "call", Summary: "Intro",
			OccurredAt: viewBase.Add(time.Hour), ContactID: "cont_1", AccountID: "acct_1"}).
		WithAccountContact(doc.AccountContact{ID: "rel_1", AccountID: "acct_1", ContactID: "cont_2",
			CreatedAt: viewBase}).
		WithAccountContact(doc.AccountContact{ID: "rel_2", AccountID: "acct_1", ContactID: "cont_1",
			Primary: true, CreatedAt: viewBase.Add(time.Minute)}).
		WithNoteLink(doc.NoteLink{ID: "rel_3", NoteID: "note_1", EntityType: "contact", EntityID: "cont_1"}).
		WithNoteLink(doc.NoteLink{ID: "rel_4", NoteID: "note_2", EntityType: "contact", EntityID: "cont_1"})
}

func TestContactsForAccount_PrimaryFirst(t *testing.T) {
	contacts := ContactsForAccount(fixtureDoc(), "acct_1")

	require.Len(t, contacts, 2)
	assert.Equal(t, "cont_1", contacts[0].ID, "primary contact must sort first")
	assert.Equal(t, "cont_2", contacts[1].ID)
}

func TestContactsForAccount_NoLinks(t *testing.T) {
	contacts := ContactsForAccount(fixtureDoc(), "acct_ghost")
	require.NotNil(t, contacts)
	assert.Empty(t, contacts)
}

func TestAccountsForContact(t *testing.T) {
	accounts := AccountsForContact(fixtureDoc(), "cont_1")
	require.Len(t, accounts, 1)
	assert.Equal(t, "acct_1", accounts[0].ID)
}

func TestNotesForEntity_PinnedFirstThenNewest(t *testing.T) {
	notes := NotesForEntity(fixtureDoc(), "cont_1")

	require.Len(t, notes, 2)
	assert.Equal(t, "note_2", notes[0].ID, "pinned note must sort first")
	assert.Equal(t, "note_1", notes[1].ID)
}

func TestTimeline_InterleavesAndSorts(t *testing.T) {
	entries := Timeline(fixtureDoc(), "cont_1")

	require.Len(t, entries, 3)
	// Notes by creation time, interaction by occurrence time.
	assert.Equal(t, "note_2", entries[0].ID)
	assert.Equal(t, EntryNote, entries[0].Kind)
	assert.Equal(t, "note_1", entries[1].ID)
	assert.Equal(t, "intr_1", entries[2].ID)
	assert.Equal(t, EntryInteraction, entries[2].Kind)
	assert.Equal(t, "call: Intro", entries[2].Headline)
}

func TestTimeline_AccountSeesItsInteractions(t *testing.T) {
	entries := Timeline(fixtureDoc(), "acct_1")

	require.Len(t, entries, 1)
	assert.Equal(t, "intr_1", entries[0].ID)
}

func TestTimeline_UnknownEntityEmpty(t *testing.T) {
	entries := Timeline(fixtureDoc(), "org_ghost")
	require.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestTimeline_DanglingNoteLinkSkipped(t *testing.T) {
	d := doc.New().
		WithNoteLink(doc.NoteLink{ID: "rel_1", NoteID: "note_ghost", EntityType: "contact", EntityID: "cont_1"})

	assert.Empty(t, Timeline(d, "cont_1"))
}
