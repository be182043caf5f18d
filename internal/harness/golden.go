package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/emend/internal/engine"
)

// Snapshot is the golden-file form of a scenario run: the run report plus
// the final state table, serialized as indented JSON.
type Snapshot struct {
	ScenarioName string            `json:"scenario_name"`
	Report       *engine.RunReport `json:"report"`
	FinalState   []StateRow        `json:"final_state"`
}

// RunWithGolden executes the scenario, verifies its expectations, and
// compares the run snapshot against testdata/golden/{name}.golden.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, h *Harness, s *Scenario) *Result {
	t.Helper()

	result, err := h.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("scenario %s failed to run: %v", s.Name, err)
	}
	if err := Verify(s, result); err != nil {
		t.Fatalf("scenario %s expectations failed:\n%v", s.Name, err)
	}

	AssertGolden(t, s.Name, result)
	return result
}

// AssertGolden compares an already obtained result against the named golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: name,
		Report:       result.Report,
		FinalState:   result.FinalState,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
