package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rapportlabs/rapport/internal/event"
)

// AppendEvents inserts one row per event into the append-only log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - an event the log
// already holds (duplicate delivery, replayed batch) is silently ignored.
// Existing rows are never updated or deleted.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append events: commit: %w", err)
	}

	return nil
}

// SaveSnapshot inserts a new snapshot row. Old snapshots are not removed
// here; retention is an external concern.
func (s *Store) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, doc, timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		snap.ID,
		string(snap.Doc),
		snap.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// PersistSnapshotAndEvents appends the events and saves the snapshot as
// one transaction. The events are inserted first: if the composition
// ever has to degrade to two steps, a crash between them leaves the log
// complete and the snapshot merely stale, which replay fixes.
func (s *Store) PersistSnapshotAndEvents(ctx context.Context, snap Snapshot, events []event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persist snapshot and events: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := insertEvents(ctx, tx, events); err != nil {
		return fmt.Errorf("persist snapshot and events: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, doc, timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		snap.ID,
		string(snap.Doc),
		snap.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("persist snapshot and events: snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("persist snapshot and events: commit: %w", err)
	}

	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, events []event.Event) error {
	for _, evt := range events {
		payload, err := event.MarshalPayload(evt.Payload)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", evt.ID, err)
		}

		var entityID any
		if evt.EntityID != "" {
			entityID = evt.EntityID
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events (id, type, entity_id, payload, timestamp, device_id)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`,
			evt.ID,
			string(evt.Type),
			entityID,
			payload,
			evt.Timestamp.UTC().Format(timeLayout),
			evt.DeviceID,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", evt.ID, err)
		}
	}
	return nil
}
