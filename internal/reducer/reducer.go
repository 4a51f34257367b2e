// Package reducer contains the per-domain state-transition logic. Each
// domain contributes a batch of pure reducers keyed by event type;
// Default wires every domain into one registry at process start.
//
// Shared rules (every reducer follows these):
//   - entity id resolution via engine.ResolveEntityID
//   - creation fails with DuplicateEntity if the id is taken
//   - updates fail with EntityNotFound; they never implicitly create
//   - update payloads carry only changed fields; merge is per-field LWW
//   - UpdatedAt comes from the event timestamp, never wall clock
package reducer

import (
	"fmt"

	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
)

// Default builds the production registry with every domain registered.
// Fails if the wiring leaves any catalogue member without a reducer.
func Default() (*engine.Registry, error) {
	r := engine.NewRegistry()
	batches := []map[event.Type]engine.Reducer{
		OrganizationReducers(),
		AccountReducers(),
		ContactReducers(),
		NoteReducers(),
		InteractionReducers(),
		RelationReducers(),
	}
	for _, batch := range batches {
		if err := r.RegisterMany(batch); err != nil {
			return nil, fmt.Errorf("build default registry: %w", err)
		}
	}
	if err := r.CheckComplete(); err != nil {
		return nil, fmt.Errorf("build default registry: %w", err)
	}
	return r, nil
}

// payloadAs asserts the payload's concrete type. The engine has already
// checked kind agreement, so a failure here is a catalogue wiring bug.
func payloadAs[P event.Payload](evt event.Event) (P, error) {
	p, ok := evt.Payload.(P)
	if !ok {
		var zero P
		return zero, engine.NewInvalidPayload(evt,
			fmt.Errorf("payload is %T, want %T", evt.Payload, zero))
	}
	return p, nil
}

// copyMetadata returns a fresh, non-nil metadata map. Records always
// carry a materialized (possibly empty) metadata object.
func copyMetadata(md map[string]string) map[string]string {
	out := make(map[string]string, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}

// createStamps claims the named fields plus one "metadata.<key>" entry
// per provided metadata key, all at the creation event's stamp.
func createStamps(st doc.Stamp, md map[string]string, fields ...string) map[string]doc.Stamp {
	stamps := doc.StampFields(st, fields...)
	for k := range md {
		stamps["metadata."+k] = st
	}
	return stamps
}
