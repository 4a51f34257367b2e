package event

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestNew_AssignsIDAndTimestamp(t *testing.T) {
	evt, err := New(ContactCreatedType, "", &ContactCreated{
		ID:        "cont_1",
		FirstName: "Ada",
	}, "device-a")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(evt.ID, "evt_"), "id = %q", evt.ID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, time.UTC, evt.Timestamp.Location())
	assert.Equal(t, "device-a", evt.DeviceID)
}

func TestNew_Overrides(t *testing.T) {
	evt, err := New(NoteCreatedType, "", &NoteCreated{
		ID:    "note_1",
		Title: "Kickoff",
	}, "device-a",
		WithID("evt_fixed"),
		WithTimestamp(testTime),
	)
	require.NoError(t, err)

	assert.Equal(t, "evt_fixed", evt.ID)
	assert.True(t, evt.Timestamp.Equal(testTime))
}

func TestNew_RejectsUnknownType(t *testing.T) {
	_, err := New(Type("contact.archived"), "cont_1", &ContactUpdated{}, "device-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestNew_RejectsKindMismatch(t *testing.T) {
	// note.updated envelope carrying a note.created body
	_, err := New(NoteUpdatedType, "note_1", &NoteCreated{ID: "note_1", Title: "x"}, "device-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match envelope type")
}

func TestNew_RejectsInvalidPayload(t *testing.T) {
	_, err := New(ContactCreatedType, "", &ContactCreated{ID: "cont_1"}, "device-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firstName is required")
}

func TestNew_RejectsMissingDevice(t *testing.T) {
	_, err := New(NoteCreatedType, "", &NoteCreated{ID: "note_1", Title: "x"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing device id")
}

func TestValidate_InteractionKinds(t *testing.T) {
	for _, kind := range InteractionKinds {
		_, err := New(InteractionLoggedType, "", &InteractionLogged{
			ID:         "intr_1",
			Kind:       kind,
			OccurredAt: testTime,
		}, "device-a")
		assert.NoError(t, err, "kind %q", kind)
	}

	_, err := New(InteractionLoggedType, "", &InteractionLogged{
		ID:         "intr_1",
		Kind:       "telepathy",
		OccurredAt: testTime,
	}, "device-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown kind")
}

func TestValidate_NoteLinkEntityTypes(t *testing.T) {
	for _, et := range LinkedEntityTypes {
		_, err := New(NoteLinkedType, "", &NoteLinked{
			ID:         "rel_1",
			NoteID:     "note_1",
			EntityType: et,
			EntityID:   "cont_1",
		}, "device-a")
		assert.NoError(t, err, "entityType %q", et)
	}

	_, err := New(NoteLinkedType, "", &NoteLinked{
		ID:         "rel_1",
		NoteID:     "note_1",
		EntityType: "note", // notes cannot link to notes
		EntityID:   "note_2",
	}, "device-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entityType")
}

func TestTypes_CoversCatalogue(t *testing.T) {
	types := Types()
	assert.Len(t, types, 14)
	for _, typ := range types {
		assert.True(t, KnownType(typ))
	}
	// Sorted output
	for i := 1; i < len(types); i++ {
		assert.Less(t, string(types[i-1]), string(types[i]))
	}
}
