// Package engine implements the apply engine: the single chokepoint all
// document mutation passes through.
//
// ARCHITECTURE:
//
// Single-writer per replica. Apply performs no internal synchronization;
// the caller (one logical timeline per device) serializes calls. Cross-
// device concurrency is resolved at the data-model level by field-stamp
// merge, never by locking - devices share neither a clock nor a lock.
//
// Apply is pure: it computes a new document value and nothing else.
// Persistence and log-appending stay with the caller so the function is
// testable by direct input/output comparison.
package engine

import (
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/event"
)

// Engine validates events against the catalogue and delegates to the
// registered reducer.
type Engine struct {
	registry *Registry
}

// New creates an engine over an explicit registry.
func New(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Apply folds one event into the document and returns the new version.
//
// Contract:
//  1. InvalidEventType if the envelope type is outside the catalogue.
//  2. NoReducerRegistered if no handler is installed - a deployment
//     error, fatal in batch replay.
//  3. Otherwise delegate to the reducer. The input document is never
//     mutated in place.
func (e *Engine) Apply(d *doc.Document, evt event.Event) (*doc.Document, error) {
	if !event.KnownType(evt.Type) {
		return nil, NewInvalidEventType(evt)
	}
	if err := evt.Validate(); err != nil {
		return nil, NewInvalidPayload(evt, err)
	}
	reducer := e.registry.Lookup(evt.Type)
	if reducer == nil {
		return nil, NewNoReducerRegistered(evt)
	}
	return reducer(d, evt)
}

// ResolveEntityID implements the shared entity-id resolution rule: when
// both the envelope and the payload carry an id they must agree; when
// only one does, that one is used; when neither does, the event is
// malformed.
func ResolveEntityID(evt event.Event) (string, error) {
	payloadID := ""
	if p, ok := evt.Payload.(event.Identified); ok {
		payloadID = p.PayloadEntityID()
	}
	switch {
	case evt.EntityID != "" && payloadID != "":
		if evt.EntityID != payloadID {
			return "", NewEntityIDMismatch(evt, payloadID)
		}
		return evt.EntityID, nil
	case evt.EntityID != "":
		return evt.EntityID, nil
	case payloadID != "":
		return payloadID, nil
	default:
		return "", NewMissingEntityID(evt)
	}
}

// Stamp returns the LWW stamp of an event: its origin timestamp with the
// device id as tie-break.
func Stamp(evt event.Event) doc.Stamp {
	return doc.Stamp{Timestamp: evt.Timestamp.UTC(), DeviceID: evt.DeviceID}
}
