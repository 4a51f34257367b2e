package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/event"
)

var storeBase = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeEvent(t *testing.T, id, device string, ts time.Time) event.Event {
	t.Helper()
	evt, err := event.New(event.NoteCreatedType, "",
		&event.NoteCreated{ID: "note_" + id, Title: "Note " + id},
		device, event.WithID("evt_"+id), event.WithTimestamp(ts))
	if err != nil {
		t.Fatalf("event.New() failed: %v", err)
	}
	return evt
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"events", "snapshots"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := setupStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestAppendEvents_RoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	evt := makeEvent(t, "1", "device-a", storeBase)
	if err := s.AppendEvents(ctx, []event.Event{evt}); err != nil {
		t.Fatalf("AppendEvents() failed: %v", err)
	}

	events, err := s.ReadAllEvents(ctx)
	if err != nil {
		t.Fatalf("ReadAllEvents() failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	got := events[0]
	if got.ID != evt.ID || got.Type != evt.Type || got.DeviceID != evt.DeviceID {
		t.Errorf("envelope mismatch: got %+v", got)
	}
	if !got.Timestamp.Equal(evt.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, evt.Timestamp)
	}
	p, ok := got.Payload.(*event.NoteCreated)
	if !ok {
		t.Fatalf("payload decoded as %T", got.Payload)
	}
	if p.Title != "Note 1" {
		t.Errorf("payload title = %q", p.Title)
	}
}

func TestAppendEvents_DuplicateIgnored(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	evt := makeEvent(t, "1", "device-a", storeBase)
	for i := 0; i < 3; i++ {
		if err := s.AppendEvents(ctx, []event.Event{evt}); err != nil {
			t.Fatalf("AppendEvents() iteration %d failed: %v", i, err)
		}
	}

	count, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountEvents() = %d, want 1 (duplicate appends must be ignored)", count)
	}
}

func TestReadAllEvents_CanonicalOrder(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Insert deliberately out of canonical order.
	events := []event.Event{
		makeEvent(t, "c", "device-a", storeBase.Add(time.Minute)),
		makeEvent(t, "b", "device-b", storeBase),
		makeEvent(t, "a", "device-a", storeBase),
	}
	if err := s.AppendEvents(ctx, events); err != nil {
		t.Fatalf("AppendEvents() failed: %v", err)
	}

	got, err := s.ReadAllEvents(ctx)
	if err != nil {
		t.Fatalf("ReadAllEvents() failed: %v", err)
	}

	want := []string{"evt_a", "evt_b", "evt_c"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("events[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestReadAllEvents_EmptyLogReturnsEmptySlice(t *testing.T) {
	s := setupStore(t)

	events, err := s.ReadAllEvents(context.Background())
	if err != nil {
		t.Fatalf("ReadAllEvents() failed: %v", err)
	}
	if events == nil {
		t.Error("ReadAllEvents() returned nil, want empty slice")
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestReadEventsSince_StrictlyAfter(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	events := []event.Event{
		makeEvent(t, "a", "device-a", storeBase),
		makeEvent(t, "b", "device-a", storeBase.Add(time.Minute)),
		makeEvent(t, "c", "device-a", storeBase.Add(2*time.Minute)),
	}
	if err := s.AppendEvents(ctx, events); err != nil {
		t.Fatalf("AppendEvents() failed: %v", err)
	}

	got, err := s.ReadEventsSince(ctx, storeBase.Add(time.Minute))
	if err != nil {
		t.Fatalf("ReadEventsSince() failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "evt_c" {
		t.Errorf("ReadEventsSince() = %v, want only evt_c", ids(got))
	}
}

func TestReadEventsForEntity(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	title := "Renamed"
	upd, err := event.New(event.NoteUpdatedType, "note_a",
		&event.NoteUpdated{Title: &title},
		"device-a", event.WithID("evt_upd"), event.WithTimestamp(storeBase.Add(time.Minute)))
	if err != nil {
		t.Fatalf("event.New() failed: %v", err)
	}

	if err := s.AppendEvents(ctx, []event.Event{
		makeEvent(t, "a", "device-a", storeBase),
		upd,
	}); err != nil {
		t.Fatalf("AppendEvents() failed: %v", err)
	}

	got, err := s.ReadEventsForEntity(ctx, "note_a")
	if err != nil {
		t.Fatalf("ReadEventsForEntity() failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "evt_upd" {
		t.Errorf("ReadEventsForEntity() = %v, want only evt_upd", ids(got))
	}
}

func TestHasEvent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	evt := makeEvent(t, "1", "device-a", storeBase)
	if err := s.AppendEvents(ctx, []event.Event{evt}); err != nil {
		t.Fatalf("AppendEvents() failed: %v", err)
	}

	ok, err := s.HasEvent(ctx, "evt_1")
	if err != nil {
		t.Fatalf("HasEvent() failed: %v", err)
	}
	if !ok {
		t.Error("HasEvent(evt_1) = false, want true")
	}

	ok, err = s.HasEvent(ctx, "evt_ghost")
	if err != nil {
		t.Fatalf("HasEvent() failed: %v", err)
	}
	if ok {
		t.Error("HasEvent(evt_ghost) = true, want false")
	}
}

func TestLastEventTimestamp(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, ok, err := s.LastEventTimestamp(ctx)
	if err != nil {
		t.Fatalf("LastEventTimestamp() failed: %v", err)
	}
	if ok {
		t.Error("LastEventTimestamp() on empty log reported ok")
	}

	last := storeBase.Add(5 * time.Minute)
	if err := s.AppendEvents(ctx, []event.Event{
		makeEvent(t, "a", "device-a", storeBase),
		makeEvent(t, "b", "device-a", last),
	}); err != nil {
		t.Fatalf("AppendEvents() failed: %v", err)
	}

	ts, ok, err := s.LastEventTimestamp(ctx)
	if err != nil {
		t.Fatalf("LastEventTimestamp() failed: %v", err)
	}
	if !ok || !ts.Equal(last) {
		t.Errorf("LastEventTimestamp() = (%v, %v), want (%v, true)", ts, ok, last)
	}
}

func TestSnapshot_SaveAndLoadLatest(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	d := doc.New().WithNote(doc.Note{ID: "note_1", Title: "Kickoff"})

	older, err := NewSnapshot(doc.New(), storeBase)
	if err != nil {
		t.Fatalf("NewSnapshot() failed: %v", err)
	}
	newer, err := NewSnapshot(d, storeBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("NewSnapshot() failed: %v", err)
	}

	if err := s.SaveSnapshot(ctx, older); err != nil {
		t.Fatalf("SaveSnapshot(older) failed: %v", err)
	}
	if err := s.SaveSnapshot(ctx, newer); err != nil {
		t.Fatalf("SaveSnapshot(newer) failed: %v", err)
	}

	snap, ok, err := s.LoadLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadLatestSnapshot() failed: %v", err)
	}
	if !ok {
		t.Fatal("LoadLatestSnapshot() reported no snapshot")
	}
	if snap.ID != newer.ID {
		t.Errorf("loaded snapshot %s, want newest %s", snap.ID, newer.ID)
	}

	decoded, err := snap.Document()
	if err != nil {
		t.Fatalf("Snapshot.Document() failed: %v", err)
	}
	if decoded.Notes["note_1"].Title != "Kickoff" {
		t.Errorf("decoded document missing note: %+v", decoded.Notes)
	}
}

func TestLoadLatestSnapshot_EqualTimestampsPicksNewestRow(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// A merge can write a second snapshot at the same cutoff as the
	// first; the later-inserted row holds the merged events and must
	// win regardless of how the random ids compare.
	stale, err := NewSnapshot(doc.New(), storeBase)
	if err != nil {
		t.Fatalf("NewSnapshot() failed: %v", err)
	}
	merged, err := NewSnapshot(doc.New().WithNote(doc.Note{ID: "note_1", Title: "Merged"}), storeBase)
	if err != nil {
		t.Fatalf("NewSnapshot() failed: %v", err)
	}

	if err := s.SaveSnapshot(ctx, stale); err != nil {
		t.Fatalf("SaveSnapshot(stale) failed: %v", err)
	}
	if err := s.SaveSnapshot(ctx, merged); err != nil {
		t.Fatalf("SaveSnapshot(merged) failed: %v", err)
	}

	snap, ok, err := s.LoadLatestSnapshot(ctx)
	if err != nil {
		t.Fatalf("LoadLatestSnapshot() failed: %v", err)
	}
	if !ok {
		t.Fatal("LoadLatestSnapshot() reported no snapshot")
	}
	if snap.ID != merged.ID {
		t.Errorf("loaded snapshot %s, want later-inserted %s", snap.ID, merged.ID)
	}
}

func TestLoadLatestSnapshot_Empty(t *testing.T) {
	s := setupStore(t)

	_, ok, err := s.LoadLatestSnapshot(context.Background())
	if err != nil {
		t.Fatalf("LoadLatestSnapshot() failed: %v", err)
	}
	if ok {
		t.Error("LoadLatestSnapshot() on empty table reported ok")
	}
}

func TestPersistSnapshotAndEvents_OneTransaction(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	d := doc.New().WithNote(doc.Note{ID: "note_1", Title: "Kickoff"})
	snap, err := NewSnapshot(d, storeBase)
	if err != nil {
		t.Fatalf("NewSnapshot() failed: %v", err)
	}

	events := []event.Event{makeEvent(t, "1", "device-a", storeBase)}
	if err := s.PersistSnapshotAndEvents(ctx, snap, events); err != nil {
		t.Fatalf("PersistSnapshotAndEvents() failed: %v", err)
	}

	eventCount, err := s.CountEvents(ctx)
	if err != nil {
		t.Fatalf("CountEvents() failed: %v", err)
	}
	snapCount, err := s.CountSnapshots(ctx)
	if err != nil {
		t.Fatalf("CountSnapshots() failed: %v", err)
	}
	if eventCount != 1 || snapCount != 1 {
		t.Errorf("got %d events, %d snapshots, want 1 and 1", eventCount, snapCount)
	}
}

func TestCanonicalJSON_ByteIdenticalSnapshots(t *testing.T) {
	// Two documents built in different insertion orders must serialize
	// to identical snapshot bodies.
	a := doc.New().
		WithNote(doc.Note{ID: "note_1", Title: "One"}).
		WithNote(doc.Note{ID: "note_2", Title: "Two"})
	b := doc.New().
		WithNote(doc.Note{ID: "note_2", Title: "Two"}).
		WithNote(doc.Note{ID: "note_1", Title: "One"})

	sa, err := NewSnapshot(a, storeBase)
	if err != nil {
		t.Fatalf("NewSnapshot(a) failed: %v", err)
	}
	sb, err := NewSnapshot(b, storeBase)
	if err != nil {
		t.Fatalf("NewSnapshot(b) failed: %v", err)
	}

	if string(sa.Doc) != string(sb.Doc) {
		t.Errorf("snapshot bodies differ:\n%s\n%s", sa.Doc, sb.Doc)
	}
}

func ids(events []event.Event) []string {
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.ID
	}
	return out
}
