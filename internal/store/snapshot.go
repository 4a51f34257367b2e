package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rapportlabs/rapport/internal/canonical"
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/ident"
)

// Snapshot is a point-in-time materialization of the mergeable document,
// used to bound replay cost on boot. Multiple snapshots may coexist; only
// the one with the maximum timestamp is authoritative on load. Snapshots
// are a cache of the log, never the unique source of truth.
type Snapshot struct {
	ID        string
	Doc       []byte
	Timestamp time.Time
}

// NewSnapshot materializes the document at ts into a snapshot. The body
// is canonical JSON so two replicas holding equal documents produce
// byte-identical snapshots.
func NewSnapshot(d *doc.Document, ts time.Time) (Snapshot, error) {
	body, err := canonical.Marshal(d)
	if err != nil {
		return Snapshot{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return Snapshot{
		ID:        ident.New(ident.PrefixSnapshot),
		Doc:       body,
		Timestamp: ts.UTC(),
	}, nil
}

// Document decodes the snapshot body back into a document.
func (s Snapshot) Document() (*doc.Document, error) {
	d := doc.New()
	if err := json.Unmarshal(s.Doc, d); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", s.ID, err)
	}
	return d, nil
}
