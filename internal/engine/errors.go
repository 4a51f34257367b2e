package engine

import (
	"errors"
	"fmt"

	"github.com/rapportlabs/rapport/internal/event"
)

// ApplyError reports why an event could not be folded into the document.
//
// All apply errors are surfaced synchronously to the caller; an event that
// fails to apply is never silently dropped, and never persisted. Structured
// fields support diagnostics and recovery decisions at the call site.
type ApplyError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// EventID identifies the offending event.
	EventID string

	// EventType is the envelope type, when known.
	EventType event.Type

	// EntityID is the resolved target entity, when known.
	EntityID string
}

// ErrorCode categorizes apply errors.
type ErrorCode string

const (
	// ErrCodeInvalidEventType indicates a type outside the catalogue.
	// Never retried - it means corrupted or future-incompatible data.
	ErrCodeInvalidEventType ErrorCode = "INVALID_EVENT_TYPE"

	// ErrCodeNoReducerRegistered indicates missing domain wiring. Fatal
	// in a batch-replay context: the running build is incomplete.
	ErrCodeNoReducerRegistered ErrorCode = "NO_REDUCER_REGISTERED"

	// ErrCodeEntityIDMismatch indicates envelope and payload disagree on
	// the target entity id.
	ErrCodeEntityIDMismatch ErrorCode = "ENTITY_ID_MISMATCH"

	// ErrCodeMissingEntityID indicates neither envelope nor payload names
	// a target entity.
	ErrCodeMissingEntityID ErrorCode = "MISSING_ENTITY_ID"

	// ErrCodeDuplicateEntity indicates a creation collision at the target id.
	ErrCodeDuplicateEntity ErrorCode = "DUPLICATE_ENTITY"

	// ErrCodeEntityNotFound indicates an update against a missing entity.
	// Updates never implicitly create.
	ErrCodeEntityNotFound ErrorCode = "ENTITY_NOT_FOUND"

	// ErrCodeRelationNotFound indicates an unlink against a missing
	// relation row.
	ErrCodeRelationNotFound ErrorCode = "RELATION_NOT_FOUND"

	// ErrCodeInvalidPayload indicates a malformed event body.
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"
)

// Error implements the error interface.
func (e *ApplyError) Error() string {
	if e.EntityID != "" {
		return fmt.Sprintf("%s: %s (event=%s, entity=%s)", e.Code, e.Message, e.EventID, e.EntityID)
	}
	if e.EventID != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from err, or "" if err is not an ApplyError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var ae *ApplyError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// IsNotFound reports whether err is an entity- or relation-not-found error.
func IsNotFound(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeEntityNotFound || code == ErrCodeRelationNotFound
}

// IsDuplicate reports whether err is a creation collision.
func IsDuplicate(err error) bool {
	return CodeOf(err) == ErrCodeDuplicateEntity
}

// NewInvalidEventType builds the error for a type outside the catalogue.
func NewInvalidEventType(e event.Event) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeInvalidEventType,
		Message:   fmt.Sprintf("event type %q is not in the catalogue", e.Type),
		EventID:   e.ID,
		EventType: e.Type,
	}
}

// NewNoReducerRegistered builds the error for missing domain wiring.
func NewNoReducerRegistered(e event.Event) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeNoReducerRegistered,
		Message:   fmt.Sprintf("no reducer registered for %q", e.Type),
		EventID:   e.ID,
		EventType: e.Type,
	}
}

// NewEntityIDMismatch builds the error for disagreeing envelope/payload ids.
func NewEntityIDMismatch(e event.Event, payloadID string) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeEntityIDMismatch,
		Message:   fmt.Sprintf("envelope entity id %q does not match payload id %q", e.EntityID, payloadID),
		EventID:   e.ID,
		EventType: e.Type,
	}
}

// NewMissingEntityID builds the error for an event with no target id.
func NewMissingEntityID(e event.Event) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeMissingEntityID,
		Message:   "neither envelope nor payload carries an entity id",
		EventID:   e.ID,
		EventType: e.Type,
	}
}

// NewDuplicateEntity builds the error for a creation collision.
func NewDuplicateEntity(e event.Event, entityID string) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeDuplicateEntity,
		Message:   "entity already exists at target id",
		EventID:   e.ID,
		EventType: e.Type,
		EntityID:  entityID,
	}
}

// NewEntityNotFound builds the error for an update against a missing entity.
func NewEntityNotFound(e event.Event, entityID string) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeEntityNotFound,
		Message:   "update target does not exist",
		EventID:   e.ID,
		EventType: e.Type,
		EntityID:  entityID,
	}
}

// NewRelationNotFound builds the error for an unlink against a missing row.
func NewRelationNotFound(e event.Event, relationID string) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeRelationNotFound,
		Message:   "relation row does not exist",
		EventID:   e.ID,
		EventType: e.Type,
		EntityID:  relationID,
	}
}

// NewInvalidPayload builds the error for a malformed event body.
func NewInvalidPayload(e event.Event, err error) *ApplyError {
	return &ApplyError{
		Code:      ErrCodeInvalidPayload,
		Message:   err.Error(),
		EventID:   e.ID,
		EventType: e.Type,
	}
}
