package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/studiodesk/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Config *config.Config `json:"config,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.cue>",
		Short: "Validate a config file",
		Long: `Validate a CUE config file against the embedded #Config schema.

Checks types, enumerations and the cross-field rules (for example a DSN
for the postgres driver). Environment overrides are not applied.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read config", err)
	}

	formatter.VerboseLog("Validating %s (%d bytes)", path, len(data))
	cfg, err := config.Parse(data, path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidConf, err.Error(), map[string]string{"file": path})
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (store: %s, addr: %s, payments: %s)\n",
		path, cfg.Store.Driver, cfg.Server.Addr, cfg.Payments.Policy)
	return nil
}
