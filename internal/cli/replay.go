package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rotbake/internal/engine"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Object   string // optional - one object only
}

// ReplayRunResult holds the replay result for a single archived run.
type ReplayRunResult struct {
	RunID      string  `json:"run_id"`
	Object     string  `json:"object"`
	Source     string  `json:"source,omitempty"`
	Rotation   float64 `json:"rotation"`
	Complete   bool    `json:"complete"`
	ArchivedID string  `json:"archived_id,omitempty"`
	ReplayedID string  `json:"replayed_id,omitempty"`
	Reproduced bool    `json:"reproduced"`
	Error      string  `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs          []ReplayRunResult `json:"runs"`
	TotalRuns     int               `json:"total_runs"`
	AllReproduced bool              `json:"all_reproduced"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-bake archived runs and verify they reproduce",
		Long: `Re-bake every archived run from its stored original action and skeleton
snapshot, and check that the result has the content ID of the archived
rotated action.

Exit codes:
  0 - Every run reproduced
  1 - A run did not reproduce or is incomplete
  2 - Command error (database not found, etc.)

Examples:
  rotbake replay --db ./rotbake.db
  rotbake replay --db ./rotbake.db --object Armature-updated
  rotbake replay --db ./rotbake.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive (default from config)")
	cmd.Flags().StringVar(&opts.Object, "object", "", "replay one object's runs only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)
	if !cmd.Flags().Changed("db") {
		opts.Database = opts.config().Database
	}

	st, err := openExisting(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	states, err := st.RunStates(ctx, opts.Object)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read runs", err)
	}

	result := ReplayResult{
		Runs:          make([]ReplayRunResult, 0, len(states)),
		TotalRuns:     len(states),
		AllReproduced: true,
	}
	engineOpts := []engine.Option{
		engine.WithLogger(opts.logger()),
		engine.WithWorkers(opts.config().Workers),
	}
	for _, state := range states {
		formatter.VerboseLog("Replaying run %s (%s)", state.Run.ID, state.Run.Object)
		rr := replayRun(ctx, state, engineOpts)
		if !rr.Reproduced {
			result.AllReproduced = false
		}
		result.Runs = append(result.Runs, rr)
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayRun re-bakes one archived run.
func replayRun(ctx context.Context, state store.RunState, opts []engine.Option) ReplayRunResult {
	rr := ReplayRunResult{
		RunID:    state.Run.ID,
		Object:   state.Run.Object,
		Source:   state.Run.Source,
		Rotation: state.Run.Rotation,
		Complete: state.Complete,
	}
	if !state.Complete {
		rr.Error = fmt.Sprintf("run archived %d track(s) without a complete skeleton snapshot", len(state.Run.Tracks))
		if state.Skeleton != nil {
			rr.Error = fmt.Sprintf("run archived %d track(s), expected 2", len(state.Run.Tracks))
		}
		return rr
	}

	archived, err := ir.AnimationID(state.Rotated.Strip.Animation)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.ArchivedID = archived

	again, err := engine.Rebake(ctx, state.Original.Strip.Animation, state.Skeleton, state.Run.Rotation, scene.Solver{}, opts...)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	replayed, err := ir.AnimationID(again)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.ReplayedID = replayed
	rr.Reproduced = replayed == archived
	return rr
}

func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllReproduced {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_REPLAY",
			Message: "replay verification failed",
		}
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}
	if !result.AllReproduced {
		return reportedExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n\n", result.TotalRuns)
	for _, run := range result.Runs {
		status := "✓"
		if !run.Reproduced {
			status = "✗"
		}
		object := run.Object
		if run.Source != "" {
			object += " from " + run.Source
		}
		fmt.Fprintf(w, "%s Run: %s (%s, %s°)\n", status, run.RunID, object, engine.FormatRotation(run.Rotation))
		switch {
		case run.Error != "":
			fmt.Fprintf(w, "  Error: %s\n", run.Error)
		case !run.Reproduced:
			fmt.Fprintf(w, "  Archived %s, replayed %s\n", shortID(run.ArchivedID), shortID(run.ReplayedID))
		case formatter.Verbose:
			fmt.Fprintf(w, "  Content ID %s\n", run.ArchivedID)
		}
	}
	fmt.Fprintln(w)

	if result.AllReproduced {
		fmt.Fprintln(w, "✓ All runs reproduced")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return reportedExitError(ExitFailure, "replay verification failed")
}
