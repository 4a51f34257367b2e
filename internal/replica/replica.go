// Package replica composes the apply engine and the store into one
// device's local copy of the log and document.
//
// A replica is the single logical writer for its device: Apply and Merge
// serialize through one mutex, the engine itself stays synchronization-
// free, and the document is an immutable value so readers may keep any
// version they were handed.
package replica

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
	"github.com/rapportlabs/rapport/internal/store"
)

// DefaultSnapshotEvery is the number of applied events between automatic
// snapshots.
const DefaultSnapshotEvery = 100

// Replica is one device's view: the open store, the engine, and the
// current document version.
type Replica struct {
	mu            sync.Mutex
	deviceID      string
	store         *store.Store
	engine        *engine.Engine
	doc           *doc.Document
	snapshotEvery int
	sinceSnapshot int
	snapshotTS    time.Time
}

// Option customizes a replica.
type Option func(*Replica)

// WithSnapshotEvery sets the automatic snapshot interval in events.
// n <= 0 disables automatic snapshots.
func WithSnapshotEvery(n int) Option {
	return func(r *Replica) { r.snapshotEvery = n }
}

// Open opens the store at path and reconstructs the current document:
// latest snapshot plus replay of the log tail after it. A registry gap
// is fatal here, before any event is applied - an incomplete build must
// not touch the log.
func Open(ctx context.Context, path, deviceID string, registry *engine.Registry, opts ...Option) (*Replica, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("open replica: device id is required")
	}
	if err := registry.CheckComplete(); err != nil {
		return nil, fmt.Errorf("open replica: %w", err)
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replica: %w", err)
	}

	eng := engine.New(registry)
	r := &Replica{
		deviceID:      deviceID,
		store:         st,
		engine:        eng,
		snapshotEvery: DefaultSnapshotEvery,
	}
	for _, opt := range opts {
		opt(r)
	}

	d, snapTS, err := LoadDocument(ctx, st, eng)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open replica: %w", err)
	}
	r.doc = d
	r.snapshotTS = snapTS

	return r, nil
}

// LoadDocument reconstructs the document from a store: decode the latest
// snapshot (or start empty), then replay every event after its
// timestamp. Returns the snapshot timestamp (zero when none existed).
func LoadDocument(ctx context.Context, st *store.Store, eng *engine.Engine) (*doc.Document, time.Time, error) {
	d := doc.New()
	var snapTS time.Time

	snap, ok, err := st.LoadLatestSnapshot(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if ok {
		d, err = snap.Document()
		if err != nil {
			return nil, time.Time{}, err
		}
		snapTS = snap.Timestamp
	}

	tail, err := st.ReadEventsSince(ctx, snapTS)
	if err != nil {
		return nil, time.Time{}, err
	}
	d, err = eng.Replay(d, tail)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("replay log tail: %w", err)
	}

	return d, snapTS, nil
}

// Close closes the underlying store.
func (r *Replica) Close() error {
	return r.store.Close()
}

// DeviceID returns the device this replica writes as.
func (r *Replica) DeviceID() string {
	return r.deviceID
}

// Document returns the current document version. The value is immutable;
// callers may hold it across later applies.
func (r *Replica) Document() *doc.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc
}

// Store exposes the underlying store for read-only projection queries.
func (r *Replica) Store() *store.Store {
	return r.store
}

// Apply folds one locally generated event into the document and appends
// it to the log. The in-memory document only advances once the append
// succeeded, so the log remains the minimal reconstructable truth. Every
// snapshotEvery applied events a snapshot bounds future replay cost.
func (r *Replica) Apply(ctx context.Context, evt event.Event) (*doc.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, err := r.engine.Apply(r.doc, evt)
	if err != nil {
		return nil, err
	}
	if err := r.store.AppendEvents(ctx, []event.Event{evt}); err != nil {
		return nil, fmt.Errorf("apply %s: %w", evt.ID, err)
	}
	r.doc = next
	r.sinceSnapshot++

	if r.snapshotEvery > 0 && r.sinceSnapshot >= r.snapshotEvery {
		if err := r.snapshotLocked(ctx); err != nil {
			return nil, err
		}
	}

	return r.doc, nil
}

// Merge folds a batch of remote events into the document. Events the log
// already holds are skipped (idempotent replay); the rest are applied in
// canonical order and appended.
//
// If the batch reaches behind the latest snapshot (an event timestamped
// at or before it), the append and a fresh snapshot are committed in one
// transaction: otherwise a boot from that snapshot would never replay
// the late event and its effect would be lost.
func (r *Replica) Merge(ctx context.Context, events []event.Event) (*doc.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make([]event.Event, 0, len(events))
	for _, evt := range events {
		ok, err := r.store.HasEvent(ctx, evt.ID)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		if !ok {
			fresh = append(fresh, evt)
		}
	}
	if len(fresh) == 0 {
		return r.doc, nil
	}

	next, err := r.engine.Replay(r.doc, fresh)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	reachesBehindSnapshot := false
	for _, evt := range fresh {
		if !evt.Timestamp.After(r.snapshotTS) {
			reachesBehindSnapshot = true
			break
		}
	}

	if reachesBehindSnapshot {
		// The snapshot is built before the batch is inserted, so its
		// cutoff must also cover the batch: without the floor, a batch
		// event newer than the log max would sit inside the snapshot
		// yet after its cutoff, and boot would re-replay it.
		snap, ts, err := r.buildSnapshot(ctx, next, maxEventTimestamp(fresh))
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		if err := r.store.PersistSnapshotAndEvents(ctx, snap, fresh); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		r.snapshotTS = ts
		r.sinceSnapshot = 0
	} else {
		if err := r.store.AppendEvents(ctx, fresh); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		r.sinceSnapshot += len(fresh)
	}

	r.doc = next

	if !reachesBehindSnapshot && r.snapshotEvery > 0 && r.sinceSnapshot >= r.snapshotEvery {
		if err := r.snapshotLocked(ctx); err != nil {
			return nil, err
		}
	}

	return r.doc, nil
}

// Snapshot forces a snapshot of the current document.
func (r *Replica) Snapshot(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(ctx)
}

func (r *Replica) snapshotLocked(ctx context.Context) error {
	snap, ts, err := r.buildSnapshot(ctx, r.doc, time.Time{})
	if err != nil {
		return err
	}
	if err := r.store.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	r.snapshotTS = ts
	r.sinceSnapshot = 0
	return nil
}

// buildSnapshot materializes d stamped at the newest event timestamp in
// the log, so a boot replays exactly the events the snapshot has not
// seen. atLeast raises the cutoff when d already contains events the log
// does not hold yet (the merge path snapshots before inserting the
// batch). Does not write.
func (r *Replica) buildSnapshot(ctx context.Context, d *doc.Document, atLeast time.Time) (store.Snapshot, time.Time, error) {
	ts, ok, err := r.store.LastEventTimestamp(ctx)
	if err != nil {
		return store.Snapshot{}, time.Time{}, err
	}
	if !ok {
		ts = r.snapshotTS
	}
	if atLeast.After(ts) {
		ts = atLeast
	}
	snap, err := store.NewSnapshot(d, ts)
	if err != nil {
		return store.Snapshot{}, time.Time{}, err
	}
	return snap, ts, nil
}

// maxEventTimestamp returns the latest timestamp in a batch, or the zero
// time for an empty batch.
func maxEventTimestamp(events []event.Event) time.Time {
	var max time.Time
	for _, evt := range events {
		if evt.Timestamp.After(max) {
			max = evt.Timestamp
		}
	}
	return max
}
