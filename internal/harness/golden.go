package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rapportlabs/rapport/internal/canonical"
)

// RunWithGolden executes a scenario and compares the final document's
// canonical JSON against a golden file at
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// The golden file pins the whole document, field clocks included, so a
// change to any reducer or merge rule surfaces as a diff even when the
// scenario's spot assertions still pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	body, err := canonical.Marshal(result.Doc)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, body)

	return result, nil
}
