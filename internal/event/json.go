package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelopeJSON is the wire shape of an event. The replication transport
// must preserve these fields exactly; payload decoding dispatches on type.
type envelopeJSON struct {
	ID        string          `json:"id"`
	Type      Type            `json:"type"`
	EntityID  string          `json:"entityId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	DeviceID  string          `json:"deviceId"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s payload: %w", e.ID, err)
	}
	return json.Marshal(envelopeJSON{
		ID:        e.ID,
		Type:      e.Type,
		EntityID:  e.EntityID,
		Payload:   raw,
		Timestamp: e.Timestamp.UTC(),
		DeviceID:  e.DeviceID,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The payload is decoded into
// the concrete type selected by the envelope's type field. Unknown types
// fail here so malformed data never reaches a reducer.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env envelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	payload, err := UnmarshalPayload(env.Type, env.Payload)
	if err != nil {
		return fmt.Errorf("unmarshal event %s: %w", env.ID, err)
	}
	e.ID = env.ID
	e.Type = env.Type
	e.EntityID = env.EntityID
	e.Payload = payload
	e.Timestamp = env.Timestamp.UTC()
	e.DeviceID = env.DeviceID
	return nil
}

// MarshalPayload serializes a payload body to its portable text encoding.
// This is what the store writes into the event log's payload column.
func MarshalPayload(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", p.Type(), err)
	}
	return string(raw), nil
}

// UnmarshalPayload decodes a payload body for the given catalogue type.
func UnmarshalPayload(t Type, raw []byte) (Payload, error) {
	p := newPayload(t)
	if p == nil {
		return nil, fmt.Errorf("unknown event type %q", t)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty payload for type %q", t)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", t, err)
	}
	return p, nil
}
