// Package harness provides a conformance harness for the event engine.
//
// A scenario is a YAML file listing events to apply in delivery order
// plus assertions on the resulting document. The harness builds real
// events (deterministic ids and timestamps unless the scenario pins
// them), folds them through the full reducer set, and evaluates the
// assertions against the document's canonical JSON form. Golden files
// (golden.go) then pin the entire document, so an unintended change to
// any reducer or merge rule shows up as a diff, not just a failed spot
// check.
package harness

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rapportlabs/rapport/internal/canonical"
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
	"github.com/rapportlabs/rapport/internal/reducer"
	"github.com/rapportlabs/rapport/internal/testutil"
)

// Result holds the outcome of a scenario run.
type Result struct {
	// Doc is the final document after all events.
	Doc *doc.Document

	// Applied are the events that were successfully folded in, in
	// delivery order.
	Applied []event.Event

	// Errors are assertion failures and unexpected apply outcomes.
	Errors []string
}

// Passed reports whether the run produced no errors.
func (r *Result) Passed() bool {
	return len(r.Errors) == 0
}

func (r *Result) addErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Run executes a scenario: build each event, apply it through the full
// reducer set, honor per-step failure expectations, then evaluate the
// assertions. A scenario runs entirely in memory; persistence has its
// own tests.
func Run(scenario *Scenario) (*Result, error) {
	registry, err := reducer.Default()
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	eng := engine.New(registry)
	clock := testutil.NewClock()

	result := &Result{
		Doc:     doc.New(),
		Applied: []event.Event{},
	}

	for i, step := range scenario.Events {
		evt, err := buildEvent(i, step, clock)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}

		next, applyErr := eng.Apply(result.Doc, evt)

		if step.Expect != nil {
			if applyErr == nil {
				result.addErrorf("events[%d] (%s): expected error %s, got success",
					i, step.Type, step.Expect.Error)
				result.Doc = next
				result.Applied = append(result.Applied, evt)
				continue
			}
			if code := engine.CodeOf(applyErr); string(code) != step.Expect.Error {
				result.addErrorf("events[%d] (%s): expected error %s, got %s: %v",
					i, step.Type, step.Expect.Error, code, applyErr)
			}
			// Failed apply must leave the document untouched.
			continue
		}

		if applyErr != nil {
			result.addErrorf("events[%d] (%s): unexpected apply error: %v", i, step.Type, applyErr)
			continue
		}
		result.Doc = next
		result.Applied = append(result.Applied, evt)
	}

	if err := evaluateAssertions(result, scenario.Assertions); err != nil {
		return nil, err
	}

	return result, nil
}

// buildEvent turns a scenario step into a validated event. Missing ids
// and timestamps get deterministic defaults so repeated runs and golden
// files agree byte for byte.
func buildEvent(index int, step EventStep, clock *testutil.DeterministicClock) (event.Event, error) {
	t := event.Type(step.Type)

	body, err := json.Marshal(step.Payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("encode payload: %w", err)
	}
	payload, err := event.UnmarshalPayload(t, body)
	if err != nil {
		return event.Event{}, err
	}

	ts := clock.Next()
	if step.At != "" {
		parsed, err := time.Parse(time.RFC3339Nano, step.At)
		if err != nil {
			return event.Event{}, fmt.Errorf("parse at %q: %w", step.At, err)
		}
		ts = parsed
	}

	id := step.ID
	if id == "" {
		id = fmt.Sprintf("evt_%032x", index+1)
	}

	return event.New(t, step.EntityID, payload, step.Device,
		event.WithID(id), event.WithTimestamp(ts))
}

// evaluateAssertions checks each assertion against the final document's
// canonical JSON form. Working on the JSON rendering rather than the
// typed records keeps assertions aligned with what snapshots and sync
// actually carry.
func evaluateAssertions(result *Result, assertions []Assertion) error {
	root, err := documentJSON(result.Doc)
	if err != nil {
		return err
	}

	for i, a := range assertions {
		collection, ok := lookupCollection(root, a.Collection)
		if !ok {
			result.addErrorf("assertions[%d]: unknown collection %q", i, a.Collection)
			continue
		}

		switch a.Type {
		case AssertEntityExists:
			if _, ok := collection[a.ID]; !ok {
				result.addErrorf("assertions[%d]: %s/%s does not exist", i, a.Collection, a.ID)
			}
		case AssertEntityAbsent:
			if _, ok := collection[a.ID]; ok {
				result.addErrorf("assertions[%d]: %s/%s exists, expected absent", i, a.Collection, a.ID)
			}
		case AssertCount:
			if len(collection) != a.Count {
				result.addErrorf("assertions[%d]: %s has %d entries, expected %d",
					i, a.Collection, len(collection), a.Count)
			}
		case AssertFieldEquals:
			entity, ok := collection[a.ID].(map[string]interface{})
			if !ok {
				result.addErrorf("assertions[%d]: %s/%s does not exist", i, a.Collection, a.ID)
				continue
			}
			got := entity[a.Field]
			if !jsonEqual(got, a.Value) {
				result.addErrorf("assertions[%d]: %s/%s.%s = %v, expected %v",
					i, a.Collection, a.ID, a.Field, got, a.Value)
			}
		}
	}

	return nil
}

// documentJSON renders the document to a generic JSON tree.
func documentJSON(d *doc.Document) (map[string]interface{}, error) {
	body, err := canonical.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	var root map[string]interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return root, nil
}

// lookupCollection resolves a scenario collection name to its map in the
// document JSON. Relation collections live under "relations".
func lookupCollection(root map[string]interface{}, name string) (map[string]interface{}, bool) {
	switch name {
	case "organizations", "accounts", "contacts", "notes", "interactions":
		m, ok := root[name].(map[string]interface{})
		return m, ok
	case "accountContacts", "noteLinks":
		rels, ok := root["relations"].(map[string]interface{})
		if !ok {
			return nil, false
		}
		m, ok := rels[name].(map[string]interface{})
		return m, ok
	default:
		return nil, false
	}
}

// jsonEqual compares a document value with a YAML-parsed expectation by
// canonical JSON form, so 1 and 1.0 or differently-ordered maps compare
// equal.
func jsonEqual(got, want interface{}) bool {
	equal, err := canonical.Equal(got, want)
	return err == nil && equal
}
