package doc

import (
	"maps"
	"time"
)

// Stamp identifies the event that last wrote a field: its origin-device
// wall-clock timestamp, with the device id as a deterministic tie-break
// for equal timestamps. Stamps order writes across devices without a
// shared clock - the core conflict-resolution primitive.
type Stamp struct {
	Timestamp time.Time `json:"ts"`
	DeviceID  string    `json:"device"`
}

// IsZero reports whether the stamp is unset (field never written).
func (s Stamp) IsZero() bool {
	return s.Timestamp.IsZero() && s.DeviceID == ""
}

// Before reports whether s orders strictly before o: earlier timestamp
// wins; equal timestamps compare device ids by byte order.
func (s Stamp) Before(o Stamp) bool {
	if !s.Timestamp.Equal(o.Timestamp) {
		return s.Timestamp.Before(o.Timestamp)
	}
	return s.DeviceID < o.DeviceID
}

// Supersedes reports whether a write stamped s wins over the current
// stamp cur. The zero stamp loses to everything; an identical stamp does
// not supersede itself, which makes re-applying the same event a no-op.
func (s Stamp) Supersedes(cur Stamp) bool {
	return cur.IsZero() || cur.Before(s)
}

// FieldClock maps field names to the stamp of their last write.
type FieldClock map[string]Stamp

// StampFields returns a stamp map covering the named fields, all at st.
// Creation reducers use it to claim every field they initialize.
func StampFields(st Stamp, fields ...string) map[string]Stamp {
	out := make(map[string]Stamp, len(fields))
	for _, f := range fields {
		out[f] = st
	}
	return out
}

// FieldMerge accumulates partial-update field writes against one entity
// under last-writer-wins. Each setter applies the incoming value only if
// the event's stamp supersedes the field's current stamp; concurrent
// updates to different fields therefore both survive in either replay
// order, and updates to the same field resolve identically everywhere.
type FieldMerge struct {
	doc      *Document
	entityID string
	stamp    Stamp
	applied  map[string]Stamp
}

// Merge starts a field-merge for entityID under the given event stamp.
func (d *Document) Merge(entityID string, st Stamp) *FieldMerge {
	return &FieldMerge{
		doc:      d,
		entityID: entityID,
		stamp:    st,
		applied:  map[string]Stamp{},
	}
}

// String merges an optional string field. next == nil means the update
// did not touch the field.
func (m *FieldMerge) String(field string, cur *string, next *string) {
	if next == nil || !m.wins(field) {
		return
	}
	*cur = *next
	m.applied[field] = m.stamp
}

// Bool merges an optional bool field.
func (m *FieldMerge) Bool(field string, cur *bool, next *bool) {
	if next == nil || !m.wins(field) {
		return
	}
	*cur = *next
	m.applied[field] = m.stamp
}

// Time merges an optional time field.
func (m *FieldMerge) Time(field string, cur *time.Time, next *time.Time) {
	if next == nil || !m.wins(field) {
		return
	}
	*cur = next.UTC()
	m.applied[field] = m.stamp
}

// Metadata merges metadata key-by-key under the field names
// "metadata.<key>", so concurrent writes to different metadata keys both
// survive. An empty or nil next map touches nothing.
func (m *FieldMerge) Metadata(cur *map[string]string, next map[string]string) {
	if len(next) == 0 {
		return
	}
	merged := maps.Clone(*cur)
	if merged == nil {
		merged = map[string]string{}
	}
	changed := false
	for k, v := range next {
		field := "metadata." + k
		if !m.wins(field) {
			continue
		}
		merged[k] = v
		m.applied[field] = m.stamp
		changed = true
	}
	if changed {
		*cur = merged
	}
}

// Changed reports whether any field write won.
func (m *FieldMerge) Changed() bool {
	return len(m.applied) > 0
}

// Stamps returns the stamps for the fields that were applied.
func (m *FieldMerge) Stamps() map[string]Stamp {
	return m.applied
}

func (m *FieldMerge) wins(field string) bool {
	return m.stamp.Supersedes(m.doc.FieldStamp(m.entityID, field))
}

// MaxTime returns the later of a and b. Audit fields use it so a stale
// replayed event can never move UpdatedAt backwards.
func MaxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
