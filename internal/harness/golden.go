package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/studiodesk/internal/doc"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot for doc.MarshalCanonical, which
// only handles records, slices and primitives.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":     event.Seq,
			"agent":   event.Agent,
			"prompt":  event.Prompt,
			"kind":    event.Kind,
			"payload": event.Payload,
		}
		if event.Intent != "" {
			eventMap["intent"] = event.Intent
		}
		traceList[i] = eventMap
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
}

// Snapshot renders the canonical golden bytes for a result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
	return doc.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
