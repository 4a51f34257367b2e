package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rapportlabs/rapport/internal/event"
)

// Scenario defines a conformance scenario: a sequence of events applied
// through the reducer set, with assertions on the resulting document.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Events are applied in listed order. Listed order is the delivery
	// order; replay-order scenarios list the events out of timestamp
	// order and assert convergence anyway.
	Events []EventStep `yaml:"events"`

	// Assertions validate the final document.
	Assertions []Assertion `yaml:"assertions"`
}

// EventStep describes one event to build and apply.
type EventStep struct {
	// Type is the catalogue event type (e.g. "note.created").
	Type string `yaml:"type"`

	// ID is an optional fixed event id. Defaults to a deterministic id
	// derived from the step index, keeping golden files stable.
	ID string `yaml:"id,omitempty"`

	// EntityID is the optional envelope target.
	EntityID string `yaml:"entityId,omitempty"`

	// Device is the originating device id.
	Device string `yaml:"device"`

	// At is an optional RFC 3339 timestamp. Defaults to the scenario
	// clock, which ticks once per step.
	At string `yaml:"at,omitempty"`

	// Payload holds the event body as parsed YAML; it is re-encoded to
	// JSON and decoded through the payload catalogue.
	Payload map[string]interface{} `yaml:"payload"`

	// Expect, when set, asserts that applying this event fails. The
	// document must be left unchanged by the failed apply.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies an expected apply failure.
type ExpectClause struct {
	// Error is the expected apply error code (e.g. "ENTITY_NOT_FOUND").
	Error string `yaml:"error"`
}

// Assertion validates the final document.
type Assertion struct {
	// Type specifies the assertion type:
	// - "entity_exists": the collection holds the id
	// - "entity_absent": the collection does not hold the id
	// - "field_equals": a field of one entity has an exact value
	// - "count": the collection has exactly Count entries
	Type string `yaml:"type"`

	// Collection is the document collection name: organizations,
	// accounts, contacts, notes, interactions, accountContacts, noteLinks.
	Collection string `yaml:"collection"`

	// ID is the entity or relation id (entity_exists, entity_absent,
	// field_equals).
	ID string `yaml:"id,omitempty"`

	// Field is the JSON field name (field_equals).
	Field string `yaml:"field,omitempty"`

	// Value is the expected field value (field_equals).
	Value interface{} `yaml:"value,omitempty"`

	// Count is the expected number of entries (count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertEntityExists = "entity_exists"
	AssertEntityAbsent = "entity_absent"
	AssertFieldEquals  = "field_equals"
	AssertCount        = "count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo fails loudly instead of silently dropping a step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Events {
		if step.Type == "" {
			return fmt.Errorf("events[%d]: type is required", i)
		}
		if !event.KnownType(event.Type(step.Type)) {
			return fmt.Errorf("events[%d]: unknown event type %q", i, step.Type)
		}
		if step.Device == "" {
			return fmt.Errorf("events[%d]: device is required", i)
		}
		if step.Payload == nil {
			return fmt.Errorf("events[%d]: payload is required", i)
		}
		if step.At != "" {
			if _, err := time.Parse(time.RFC3339Nano, step.At); err != nil {
				return fmt.Errorf("events[%d]: bad timestamp %q: %w", i, step.At, err)
			}
		}
		if step.Expect != nil && step.Expect.Error == "" {
			return fmt.Errorf("events[%d].expect: error is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Collection == "" {
		return fmt.Errorf("assertions[%d]: collection is required", index)
	}

	switch a.Type {
	case AssertEntityExists, AssertEntityAbsent:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
	case AssertFieldEquals:
		if a.ID == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: id and field are required for field_equals", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
