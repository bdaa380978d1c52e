package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/support_order_lifecycle.yaml")
	require.NoError(t, err)

	assert.Equal(t, "support_order_lifecycle", scenario.Name)
	assert.Equal(t, "single", scenario.PaymentPolicy)
	assert.Len(t, scenario.Steps, 8)
	assert.Len(t, scenario.Fixtures["clients"], 2)
	require.NotNil(t, scenario.Steps[0].Expect)
	assert.Equal(t, "create_order", scenario.Steps[0].Expect.Intent)
}

func TestLoadScenario_SeedRelativeToFile(t *testing.T) {
	path := writeScenario(t, `
name: rel
description: relative seed
now: "2026-03-10T09:00:00"
seed: fixtures.yaml
steps:
  - {agent: dashboard, prompt: "total revenue"}
`)
	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "fixtures.yaml"), scenario.Seed)
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\nflow: []\nsteps: [{agent: support, prompt: hi}]\n",
			wantErr: "field flow not found",
		},
		{
			name:    "missing name",
			content: "description: y\nnow: \"2026-03-10T09:00:00\"\nsteps: [{agent: support, prompt: hi}]\n",
			wantErr: "name is required",
		},
		{
			name:    "bad now",
			content: "name: x\ndescription: y\nnow: yesterday\nsteps: [{agent: support, prompt: hi}]\n",
			wantErr: "now must be",
		},
		{
			name:    "no steps",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\n",
			wantErr: "steps list is required",
		},
		{
			name:    "unknown agent",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\nsteps: [{agent: billing, prompt: hi}]\n",
			wantErr: `agent must be "support" or "dashboard"`,
		},
		{
			name:    "bad policy",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\npayment_policy: avg\nsteps: [{agent: support, prompt: hi}]\n",
			wantErr: "unknown payment policy",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\nsteps: [{agent: support, prompt: hi}]\nassertions: [{type: eventually}]\n",
			wantErr: `unknown type "eventually"`,
		},
		{
			name:    "short trace_order",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\nsteps: [{agent: support, prompt: hi}]\nassertions: [{type: trace_order, intents: [a]}]\n",
			wantErr: "at least 2 intents",
		},
		{
			name:    "final_state without expect",
			content: "name: x\ndescription: y\nnow: \"2026-03-10T09:00:00\"\nsteps: [{agent: support, prompt: hi}]\nassertions: [{type: final_state, collection: orders}]\n",
			wantErr: "final_state requires expect",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
