package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/studiodesk/internal/app"
	"github.com/roach88/studiodesk/internal/domain"
	"github.com/roach88/studiodesk/internal/seed"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Fixtures string // YAML fixtures file; empty uses the embedded set
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo fixtures into the store",
		Long: `Load fixtures into the configured store.

Each seeded collection is cleared first, so seeding is repeatable.
Relative values ("@now-3d", "@date+2d", "@dob:1990") are resolved
against the current time.

Examples:
  studiodesk seed
  studiodesk seed --config studiodesk.cue --fixtures ./fixtures.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "YAML fixtures file (default: embedded demo set)")

	return cmd
}

func runSeed(opts *SeedOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())

	var fixtures seed.Fixtures
	if opts.Fixtures == "" {
		fixtures, err = seed.Default()
	} else {
		fixtures, err = seed.Load(opts.Fixtures)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load fixtures", err)
	}

	gw, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := gw.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	counts, err := seed.Apply(ctx, gw, fixtures, time.Now(), logger)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), counts)
		return WrapExitError(ExitFailure, "failed to seed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"driver": cfg.Store.Driver, "seeded": counts})
	}
	w := cmd.OutOrStdout()
	for _, collection := range domain.AllCollections {
		if n, ok := counts[collection]; ok {
			fmt.Fprintf(w, "%-12s %d\n", collection, n)
		}
	}
	fmt.Fprintf(w, "Seeded %d collection(s) into %s store.\n", len(counts), cfg.Store.Driver)
	return nil
}
