package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/studiodesk/internal/app"
	"github.com/roach88/studiodesk/internal/router"
	"github.com/roach88/studiodesk/internal/seed"
)

// AskOptions holds flags for the ask command.
type AskOptions struct {
	*RootOptions
	Seed bool // seed the embedded fixtures before asking
}

// NewAskCommand creates the ask command.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AskOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ask <support|dashboard> <prompt...>",
		Short: "Send one prompt to an agent",
		Long: `Send one prompt to an agent and print its payload.

The payload is printed as canonical JSON. Failed prompts (missing
parameter, not found, store failure) exit with code 1.

Examples:
  studiodesk ask support "Has order ORD001 been paid?"
  studiodesk ask dashboard what is the total revenue
  studiodesk ask --seed --config mem.cue dashboard "top services"`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(opts, args[0], strings.Join(args[1:], " "), cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Seed, "seed", false, "load the embedded fixtures first")

	return cmd
}

func runAsk(opts *AskOptions, agent, prompt string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	ctx := commandContext(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())

	a, err := app.New(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to assemble", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	if opts.Seed {
		fixtures, err := seed.Default()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load fixtures", err)
		}
		counts, err := seed.Apply(ctx, a.Store, fixtures, time.Now(), logger)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to seed", err)
		}
		formatter.VerboseLog("seeded %v", counts)
	}

	res, err := a.Router.Handle(ctx, agent, prompt)
	if errors.Is(err, router.ErrUnknownAgent) {
		_ = formatter.Error(ErrCodeUnknownAgent, err.Error(), map[string]any{"agents": a.Router.Agents()})
		return WrapExitError(ExitCommandError, "unknown agent", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to handle prompt", err)
	}
	formatter.VerboseLog("agent=%s intent=%s kind=%s", agent, res.Intent, res.Kind)

	if res.Failed() {
		_ = formatter.Error(string(res.Kind), res.Message, map[string]any{"intent": res.Intent})
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", res.Kind, res.Message))
	}

	return formatter.Success(res.Payload())
}
