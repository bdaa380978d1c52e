package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]any{"total_revenue": 5300}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"total_revenue": float64(5300)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("not_found", "No order found with ID X", map[string]string{"intent": "order_status"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "No order found with ID X", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error(ErrCodeInvalidConf, "bad config", map[string]string{"file": "studiodesk.cue"}))
			assert.Contains(t, buf.String(), "Error [E201]: bad config")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details:")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("seeded %d records", 3)
	assert.Empty(t, out.String())
	assert.Equal(t, "seeded 3 records\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.Equal(t, "seeded 3 records\n", errOut.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "scenarios failed", errors.New("2 failed")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, "outer: scenarios failed: 2 failed", wrapped.Error())
}

func TestOutputFormatter_TextPayloadIsCanonical(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(map[string]any{"order_id": "ORD001", "due_amount": 1500.0, "amount_paid": 1500}))
	assert.Equal(t, "{\"amount_paid\":1500,\"due_amount\":1500,\"order_id\":\"ORD001\"}\n", buf.String())
}
