package engine

import (
	"fmt"
	"slices"

	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/event"
)

// Reducer is a pure state-transition function folding one event into the
// document. It must return a new document value (or the input unchanged)
// and never mutate its input.
type Reducer func(*doc.Document, event.Event) (*doc.Document, error)

// Registry maps event types to reducers. It is built once at process
// start and passed into the engine constructor - there is no global
// mutable registry, so a test can fabricate a registry with exactly the
// handlers it wants.
type Registry struct {
	handlers map[event.Type]Reducer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[event.Type]Reducer{}}
}

// Register installs the reducer for an event type. Re-registering a type
// overwrites the previous handler: this is startup wiring for independent
// domains, not a data-merge mechanism. Registering a type outside the
// catalogue is a programming error and fails.
func (r *Registry) Register(t event.Type, fn Reducer) error {
	if !event.KnownType(t) {
		return fmt.Errorf("register: %q is not in the event catalogue", t)
	}
	if fn == nil {
		return fmt.Errorf("register: nil reducer for %q", t)
	}
	r.handlers[t] = fn
	return nil
}

// RegisterMany installs a batch of reducers. The first failure aborts.
func (r *Registry) RegisterMany(batch map[event.Type]Reducer) error {
	types := make([]event.Type, 0, len(batch))
	for t := range batch {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		if err := r.Register(t, batch[t]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the reducer for t, or nil if none is installed.
func (r *Registry) Lookup(t event.Type) Reducer {
	return r.handlers[t]
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []event.Type {
	out := make([]event.Type, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// CheckComplete verifies that every catalogue member has a reducer.
// Called at startup: a gap means the running build is missing a domain
// module, which must fail loudly before any event is applied.
func (r *Registry) CheckComplete() error {
	var missing []event.Type
	for _, t := range event.Types() {
		if r.handlers[t] == nil {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("registry incomplete: no reducer for %v", missing)
	}
	return nil
}
