package event

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// schemaDefs maps catalogue types to their CUE definitions.
var schemaDefs = map[Type]string{
	OrganizationCreatedType:    "#OrganizationCreated",
	OrganizationUpdatedType:    "#OrganizationUpdated",
	AccountCreatedType:         "#AccountCreated",
	AccountUpdatedType:         "#AccountUpdated",
	ContactCreatedType:         "#ContactCreated",
	ContactUpdatedType:         "#ContactUpdated",
	NoteCreatedType:            "#NoteCreated",
	NoteUpdatedType:            "#NoteUpdated",
	InteractionLoggedType:      "#InteractionLogged",
	InteractionUpdatedType:     "#InteractionUpdated",
	AccountContactLinkedType:   "#AccountContactLinked",
	AccountContactUnlinkedType: "#AccountContactUnlinked",
	NoteLinkedType:             "#NoteLinked",
	NoteUnlinkedType:           "#NoteUnlinked",
}

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaRoot cue.Value
	schemaErr  error
)

func compileSchema() {
	schemaCtx = cuecontext.New()
	schemaRoot = schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
	schemaErr = schemaRoot.Err()
}

// validateSchema checks a payload's JSON form against its CUE definition.
// Definitions are closed, so a payload smuggling extra fields (a symptom
// of version skew between devices) is rejected at construction time
// instead of reaching domain logic.
func validateSchema(t Type, p Payload) error {
	schemaOnce.Do(compileSchema)
	if schemaErr != nil {
		return fmt.Errorf("compile payload schema: %w", schemaErr)
	}
	defName, ok := schemaDefs[t]
	if !ok {
		return fmt.Errorf("no payload schema for type %q", t)
	}
	def := schemaRoot.LookupPath(cue.ParsePath(defName))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup schema %s: %w", defName, err)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload for validation: %w", err)
	}
	expr, err := cuejson.Extract("payload.json", raw)
	if err != nil {
		return fmt.Errorf("parse payload for validation: %w", err)
	}
	data := schemaCtx.BuildExpr(expr)
	if err := data.Err(); err != nil {
		return fmt.Errorf("build payload value: %w", err)
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("payload does not satisfy %s: %w", defName, err)
	}
	return nil
}
