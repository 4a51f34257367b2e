package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rapportlabs/rapport/internal/event"
)

// eventOrder is the canonical read order: timestamp first, then origin
// device, then event id. Every replica reading the same event set in
// this order replays it identically.
const eventOrder = "ORDER BY timestamp ASC, device_id ASC, id COLLATE BINARY ASC"

// ReadAllEvents returns the full log in canonical order.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ReadAllEvents(ctx context.Context) ([]event.Event, error) {
	return s.readEvents(ctx, `
		SELECT id, type, entity_id, payload, timestamp, device_id
		FROM events `+eventOrder)
}

// ReadEventsSince returns all events with timestamp strictly after ts in
// canonical order. Boot logic calls this with the latest snapshot's
// timestamp to replay only the tail.
func (s *Store) ReadEventsSince(ctx context.Context, ts time.Time) ([]event.Event, error) {
	return s.readEvents(ctx, `
		SELECT id, type, entity_id, payload, timestamp, device_id
		FROM events
		WHERE timestamp > ? `+eventOrder,
		ts.UTC().Format(timeLayout))
}

// ReadEventsForEntity returns the events targeting one entity in
// canonical order. Projection input; creation events store their target
// in entity_id via the envelope when present, so callers that need
// payload-carried ids should filter ReadAllEvents instead.
func (s *Store) ReadEventsForEntity(ctx context.Context, entityID string) ([]event.Event, error) {
	return s.readEvents(ctx, `
		SELECT id, type, entity_id, payload, timestamp, device_id
		FROM events
		WHERE entity_id = ? `+eventOrder,
		entityID)
}

// HasEvent reports whether the log already holds an event id.
func (s *Store) HasEvent(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events WHERE id = ?
	`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check event: %w", err)
	}
	return count > 0, nil
}

// CountEvents returns the number of rows in the log.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// LastEventTimestamp returns the maximum event timestamp, or ok=false on
// an empty log. Used to position snapshots.
func (s *Store) LastEventTimestamp(ctx context.Context) (time.Time, bool, error) {
	var raw sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM events`).Scan(&raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last event timestamp: %w", err)
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}
	ts, err := time.Parse(timeLayout, raw.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last event timestamp %q: %w", raw.String, err)
	}
	return ts, true, nil
}

// LoadLatestSnapshot returns the snapshot with the maximum timestamp, or
// ok=false if the table is empty. Boot logic then replays the log tail
// after the snapshot's timestamp to reach current state. Equal
// timestamps break the tie by insertion recency (rowid): a merge can
// write a snapshot at the same cutoff as its predecessor, and the newer
// one is the one that folded the merged events in.
func (s *Store) LoadLatestSnapshot(ctx context.Context) (Snapshot, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, doc, timestamp
		FROM snapshots
		ORDER BY timestamp DESC, rowid DESC
		LIMIT 1
	`)

	var snap Snapshot
	var docBody, rawTS string
	if err := row.Scan(&snap.ID, &docBody, &rawTS); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("load latest snapshot: %w", err)
	}

	ts, err := time.Parse(timeLayout, rawTS)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parse snapshot timestamp %q: %w", rawTS, err)
	}
	snap.Doc = []byte(docBody)
	snap.Timestamp = ts
	return snap, true, nil
}

// CountSnapshots returns the number of snapshot rows.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return count, nil
}

func (s *Store) readEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	// Return empty slice instead of nil
	if events == nil {
		events = []event.Event{}
	}

	return events, nil
}

// scanEvent scans a log row back into an Event, decoding the payload via
// the catalogue.
func scanEvent(rows *sql.Rows) (event.Event, error) {
	var (
		evt      event.Event
		typ      string
		entityID sql.NullString
		payload  string
		rawTS    string
	)
	if err := rows.Scan(&evt.ID, &typ, &entityID, &payload, &rawTS, &evt.DeviceID); err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}

	evt.Type = event.Type(typ)
	if entityID.Valid {
		evt.EntityID = entityID.String
	}

	p, err := event.UnmarshalPayload(evt.Type, []byte(payload))
	if err != nil {
		return event.Event{}, fmt.Errorf("event %s: %w", evt.ID, err)
	}
	evt.Payload = p

	ts, err := time.Parse(timeLayout, rawTS)
	if err != nil {
		return event.Event{}, fmt.Errorf("event %s: parse timestamp %q: %w", evt.ID, rawTS, err)
	}
	evt.Timestamp = ts

	return evt, nil
}
