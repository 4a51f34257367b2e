package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/event"
)

func TestSortCanonical(t *testing.T) {
	early := testTime
	late := testTime.Add(time.Minute)

	events := []event.Event{
		{ID: "evt_c", Timestamp: late, DeviceID: "device-a"},
		{ID: "evt_b", Timestamp: early, DeviceID: "device-b"},
		{ID: "evt_a", Timestamp: early, DeviceID: "device-a"},
		{ID: "evt_d", Timestamp: early, DeviceID: "device-a"},
	}

	sorted := SortCanonical(events)

	got := make([]string, len(sorted))
	for i, evt := range sorted {
		got[i] = evt.ID
	}
	// timestamp, then device, then id
	assert.Equal(t, []string{"evt_a", "evt_d", "evt_b", "evt_c"}, got)

	// Input order is preserved.
	assert.Equal(t, "evt_c", events[0].ID)
}

func TestReplay_AppliesInCanonicalOrder(t *testing.T) {
	registry := NewRegistry()
	var order []string
	require.NoError(t, registry.Register(event.NoteCreatedType,
		func(d *doc.Document, evt event.Event) (*doc.Document, error) {
			order = append(order, evt.ID)
			return d, nil
		}))
	eng := New(registry)

	events := []event.Event{
		noteCreatedEvent(t, "evt_2", "device-a", testTime.Add(time.Second)),
		noteCreatedEvent(t, "evt_1", "device-a", testTime),
	}

	_, err := eng.Replay(doc.New(), events)
	require.NoError(t, err)
	assert.Equal(t, []string{"evt_1", "evt_2"}, order)
}

func TestReplay_SkipsDuplicateIDs(t *testing.T) {
	registry := NewRegistry()
	applied := 0
	require.NoError(t, registry.Register(event.NoteCreatedType,
		func(d *doc.Document, evt event.Event) (*doc.Document, error) {
			applied++
			return d, nil
		}))
	eng := New(registry)

	evt := noteCreatedEvent(t, "evt_1", "device-a", testTime)
	_, err := eng.Replay(doc.New(), []event.Event{evt, evt, evt})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}

func TestReplay_AbortsOnFirstError(t *testing.T) {
	eng := New(NewRegistry()) // no reducers: every apply fails

	events := []event.Event{noteCreatedEvent(t, "evt_1", "device-a", testTime)}
	_, err := eng.Replay(doc.New(), events)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replay event evt_1")
	assert.Equal(t, ErrCodeNoReducerRegistered, CodeOf(err))
}

func TestReplay_EmptyBatch(t *testing.T) {
	eng := New(NewRegistry())
	base := doc.New()
	d, err := eng.Replay(base, nil)
	require.NoError(t, err)
	assert.Same(t, base, d)
}
