package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/t3ns/internal/ir"
)

// GoldenBytes renders a result in the canonical golden file form.
func GoldenBytes(name string, result *Result) ([]byte, error) {
	return ir.MarshalCanonical(goldenDocument(name, result))
}

// goldenDocument converts a result to the canonical form stored in golden
// files: the scenario name, the step trace and the final structure.
func goldenDocument(name string, result *Result) map[string]any {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		trace[i] = map[string]any{
			"step":    event.Step,
			"action":  event.Action,
			"outcome": event.Outcome,
		}
	}
	doc := map[string]any{
		"scenario": name,
		"trace":    trace,
	}
	if result.Structure != nil {
		doc["state"] = result.Structure
	}
	return doc
}

// RunWithGolden executes a scenario and compares its trace and final
// structure against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
