package cli

import (
	"context"
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/rotbake/internal/engine"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/store"
	"github.com/roach88/rotbake/internal/telemetry"
)

// RebakeOptions holds flags for the rebake command.
type RebakeOptions struct {
	*RootOptions
	Database    string
	Rotation    float64
	Object      string // overrides the rig's active object
	Workers     int
	MaxFrames   int
	MetricsFile string
}

// RebakeResult summarizes one rebake run.
type RebakeResult struct {
	RunID      string         `json:"run_id"`
	Object     string         `json:"object"`
	Output     string         `json:"output"`
	Rotation   float64        `json:"rotation"`
	FrameStart int            `json:"frame_start"`
	FrameEnd   int            `json:"frame_end"`
	Tracks     []TrackSummary `json:"tracks"`
}

// TrackSummary describes one archived track.
type TrackSummary struct {
	Position    int    `json:"position"`
	Name        string `json:"name"`
	Strip       string `json:"strip"`
	Start       int    `json:"start"`
	FrameStart  int    `json:"frame_start"`
	FrameEnd    int    `json:"frame_end"`
	AnimationID string `json:"animation_id"`
}

// NewRebakeCommand creates the rebake command.
func NewRebakeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RebakeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rebake <rig-dir>",
		Short: "Rebake the selected skeleton's action for a rotated placement",
		Long: `Rebake the active object's action so that a copy of its skeleton placed
with the given rotation about Z reproduces the original world-space motion.

The original action and the rotated one are archived, in that order, as
tracks of a new object named <object>-updated (numbered .001, .002, ...
when earlier runs already used the name). The source object is not
modified, so the same rig can be rebaked at several rotations.

Exit codes:
  0 - Rebake succeeded
  1 - Rebake failed (not a skeleton, empty range, archive error, etc.)
  2 - Command error (invalid rig, invalid flags, database error, etc.)

Examples:
  rotbake rebake ./rig --db ./rotbake.db
  rotbake rebake ./rig --db ./rotbake.db --rotation 90 --object Armature
  rotbake rebake ./rig --db ./rotbake.db --workers 4 --metrics-file rotbake.prom`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRebake(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite archive (default from config)")
	cmd.Flags().Float64Var(&opts.Rotation, "rotation", engine.DefaultRotation, "placement rotation about Z in degrees")
	cmd.Flags().StringVar(&opts.Object, "object", "", "object to rebake (default: the rig's active object)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "frames sampled concurrently")
	cmd.Flags().IntVar(&opts.MaxFrames, "max-frames", 0, "reject bakes over this many frames (default from config)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	return cmd
}

// resolve merges flags over the loaded configuration and checks the
// result. Explicit flags win.
func (o *RebakeOptions) resolve(cmd *cobra.Command) error {
	cfg := o.config()
	flags := cmd.Flags()
	if !flags.Changed("db") {
		o.Database = cfg.Database
	}
	if !flags.Changed("rotation") {
		o.Rotation = cfg.Rotation
	}
	if !flags.Changed("workers") {
		o.Workers = cfg.Workers
	}
	if !flags.Changed("max-frames") {
		o.MaxFrames = cfg.MaxFrames
	}
	if !flags.Changed("metrics-file") {
		o.MetricsFile = cfg.MetricsFile
	}

	if math.IsNaN(o.Rotation) || math.IsInf(o.Rotation, 0) {
		return fmt.Errorf("rotation must be finite, got %v", o.Rotation)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", o.Workers)
	}
	return nil
}

func runRebake(opts *RebakeOptions, rigDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if err := opts.resolve(cmd); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	loadResult, loadErrors := LoadRig(rigDir, LoadModeFailFast)
	if loadResult == nil || len(loadErrors) > 0 {
		return outputLoadFailure(formatter, loadErrors[0])
	}

	host, err := loadResult.Rig.Host()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeActive, err.Error(), nil)
	}
	if opts.Object != "" {
		if err := host.Select(opts.Object); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeObject, err.Error(), nil)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	// Outputs of earlier runs live only in the archive; reserve their
	// names so this run archives on a fresh object.
	archived, err := st.Objects(ctx)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	host.Reserve(archived...)

	// The run ID is fixed up front so the container and the operator
	// record the same one.
	runID := engine.UUIDv7Generator{}.Generate()
	host.NewContainer = func(obj *scene.Object) scene.TrackContainer {
		return st.Container(obj.Name, store.Run{
			ID:       runID,
			Source:   obj.Source,
			Skeleton: obj.Skeleton,
			Rotation: opts.Rotation,
		})
	}

	reg := prometheus.NewRegistry()
	op := engine.NewOperator(host, scene.Solver{},
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
		engine.WithLogger(logger),
		engine.WithWorkers(opts.Workers),
		engine.WithMaxFrames(opts.MaxFrames),
		engine.WithMetrics(telemetry.NewMetrics(reg)),
	)
	formatter.VerboseLog("Run %s: rotation %s°, %d worker(s)", runID, engine.FormatRotation(opts.Rotation), opts.Workers)

	res, runErr := op.Run(ctx, opts.Rotation)

	if opts.MetricsFile != "" {
		if err := telemetry.WriteTextfile(opts.MetricsFile, reg); err != nil {
			logger.Warn("failed to write metrics", "path", opts.MetricsFile, "error", err)
		}
	}
	for _, note := range host.Notifications() {
		fmt.Fprintln(formatter.GetErrWriter(), note)
	}

	if runErr != nil {
		code := string(engine.Code(runErr))
		if code == "" {
			code = ErrCodeGeneric
		}
		return formatter.fail(ExitFailure, code, runErr.Error(), map[string]string{"run_id": runID})
	}

	result := RebakeResult{
		RunID:      res.RunID,
		Object:     res.Object,
		Output:     res.Output,
		Rotation:   res.Rotation,
		FrameStart: res.Rotated.FrameStart,
		FrameEnd:   res.Rotated.FrameEnd,
	}
	tracks, err := st.ReadTracks(ctx, res.Output)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	if result.Tracks, err = summarizeTracks(tracks); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}

	if formatter.JSON() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: result, RunID: res.RunID})
	}

	fmt.Fprintf(formatter.Writer, "✓ Rebaked %s by %s° (frames %d..%d)\n",
		result.Object, engine.FormatRotation(result.Rotation), result.FrameStart, result.FrameEnd)
	fmt.Fprintf(formatter.Writer, "  run %s\n", result.RunID)
	fmt.Fprintf(formatter.Writer, "  archived on %s\n", result.Output)
	for _, t := range res.Tracks {
		fmt.Fprintf(formatter.Writer, "  + %s\n", t.Name)
	}
	return nil
}

// summarizeTracks describes tracks in archive order.
func summarizeTracks(tracks []ir.Track) ([]TrackSummary, error) {
	out := make([]TrackSummary, len(tracks))
	for i, t := range tracks {
		ts := TrackSummary{Position: i, Name: t.Name, Strip: t.Strip.Name, Start: t.Strip.Start}
		if anim := t.Strip.Animation; anim != nil {
			id, err := ir.AnimationID(anim)
			if err != nil {
				return nil, fmt.Errorf("track %q: %w", t.Name, err)
			}
			ts.FrameStart, ts.FrameEnd, ts.AnimationID = anim.FrameStart, anim.FrameEnd, id
		}
		out[i] = ts
	}
	return out, nil
}
