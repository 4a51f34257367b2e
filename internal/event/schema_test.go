package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema_AcceptsCatalogue(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	payloads := []Payload{
		&OrganizationCreated{ID: "org_1", Name: "Acme", Status: "active"},
		&AccountCreated{ID: "acct_1", Name: "Acme EU"},
		&ContactCreated{ID: "cont_1", FirstName: "Ada"},
		&NoteCreated{ID: "note_1", Title: "Kickoff"},
		&InteractionLogged{ID: "intr_1", Kind: "call", OccurredAt: occurred},
		&AccountContactLinked{ID: "rel_1", AccountID: "acct_1", ContactID: "cont_1"},
		&NoteLinked{ID: "rel_2", NoteID: "note_1", EntityType: "contact", EntityID: "cont_1"},
	}
	for _, p := range payloads {
		assert.NoError(t, validateSchema(p.Type(), p), "%s", p.Type())
	}
}

func TestValidateSchema_RejectsBadEnum(t *testing.T) {
	// Bypass Payload.Validate to prove the schema catches it independently.
	err := validateSchema(InteractionLoggedType, &InteractionLogged{
		ID:         "intr_1",
		Kind:       "seance",
		OccurredAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#InteractionLogged")
}

func TestValidateSchema_EveryTypeHasDefinition(t *testing.T) {
	for _, typ := range Types() {
		_, ok := schemaDefs[typ]
		assert.True(t, ok, "no schema definition for %s", typ)
	}
}
