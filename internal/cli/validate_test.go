package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "studiodesk.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate_Valid(t *testing.T) {
	path := writeConfig(t, `
store: driver: "memory"
server: addr: ":9000"
payments: policy: "sum"
`)

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid (store: memory, addr: :9000, payments: sum)")
}

func TestValidate_ValidJSON(t *testing.T) {
	path := writeConfig(t, "")

	out, _, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Config)
	assert.Equal(t, "sqlite", resp.Data.Config.Store.Driver)
	assert.Equal(t, ":8000", resp.Data.Config.Server.Addr)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", `store: driver: "oracle"`},
		{"unknown policy", `payments: policy: "average"`},
		{"postgres without dsn", `store: driver: "postgres"`},
		{"syntax error", `store: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "validate", writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "Error [E201]")
		})
	}
}

func TestValidate_MissingFile(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
