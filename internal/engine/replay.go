package engine

import (
	"fmt"
	"slices"

	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/event"
)

// SortCanonical orders events by (timestamp, deviceID, id) - the one
// replay order every replica agrees on. Within a device this matches
// generation order; across devices it is the deterministic interleaving
// that makes full-history replay reproduce identical documents.
func SortCanonical(events []event.Event) []event.Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b event.Event) int {
		if !a.Timestamp.Equal(b.Timestamp) {
			if a.Timestamp.Before(b.Timestamp) {
				return -1
			}
			return 1
		}
		if a.DeviceID != b.DeviceID {
			if a.DeviceID < b.DeviceID {
				return -1
			}
			return 1
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// Replay folds a batch of events into the document in canonical order.
//
// Duplicate event ids are applied once: the log layer already rejects
// duplicate appends, and skipping here makes replay of an event set that
// overlaps the current history idempotent. Any apply failure aborts the
// replay - in a batch context a failing event means either a missing
// domain module (fatal) or data that requires operator attention; replay
// never drops an event silently.
func (e *Engine) Replay(d *doc.Document, events []event.Event) (*doc.Document, error) {
	seen := make(map[string]struct{}, len(events))
	for _, evt := range SortCanonical(events) {
		if _, dup := seen[evt.ID]; dup {
			continue
		}
		seen[evt.ID] = struct{}{}

		next, err := e.Apply(d, evt)
		if err != nil {
			return nil, fmt.Errorf("replay event %s (%s): %w", evt.ID, evt.Type, err)
		}
		d = next
	}
	return d, nil
}
