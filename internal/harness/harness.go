package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/rotbake/internal/compiler"
	"github.com/roach88/rotbake/internal/engine"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/store"
	"github.com/roach88/rotbake/internal/testutil"
)

// Run loads the scenario's rig and executes the scenario.
//
// Each scenario runs in a fresh in-memory archive for isolation.
// The returned error reports infrastructure failures (an unreadable rig,
// an unknown object); rebake failures are checked against the scenario's
// expect clause and reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	rig, err := compiler.LoadRig(scenario.Rig)
	if err != nil {
		return nil, fmt.Errorf("failed to load rig %s: %w", scenario.Rig, err)
	}
	return RunRig(scenario, rig)
}

// RunRig executes a scenario against an already compiled rig.
//
// Execution flow:
// 1. Create fresh in-memory archive
// 2. Select the scenario's object
// 3. Run the operator with a fixed run ID
// 4. Check the expect clause
// 5. Evaluate assertions
// 6. Build the canonical snapshot
func RunRig(scenario *Scenario, rig *compiler.Rig) (*Result, error) {
	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	host, err := rig.Host()
	if err != nil {
		return nil, err
	}
	if scenario.Object != "" {
		sel := scenario.Object
		if sel == NoSelection {
			sel = ""
		}
		if err := host.Select(sel); err != nil {
			return nil, fmt.Errorf("failed to select object: %w", err)
		}
	}

	ctx := context.Background()
	runID := scenario.runID()
	rotation := scenario.rotation()
	host.NewContainer = func(obj *scene.Object) scene.TrackContainer {
		return st.Container(obj.Name, store.Run{ID: runID, Source: obj.Source, Skeleton: obj.Skeleton, Rotation: rotation})
	}

	selected, err := host.ActiveSelection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}
	before := copySource(selected)

	opts := []engine.Option{
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(runID)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		engine.WithWorkers(max(1, scenario.Workers)),
	}
	if scenario.MaxFrames > 0 {
		opts = append(opts, engine.WithMaxFrames(scenario.MaxFrames))
	}
	op := engine.NewOperator(host, scene.Solver{}, opts...)
	run, runErr := op.Run(ctx, rotation)

	result := NewResult()
	result.RunID = runID
	result.Notifications = append(result.Notifications, host.Notifications()...)
	if runErr != nil {
		result.ErrorCode = string(engine.Code(runErr))
	}

	if run != nil {
		result.Output = run.Output
		tracks, err := st.ReadTracks(ctx, run.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to read tracks: %w", err)
		}
		result.Tracks = tracks
	}

	checkExpect(scenario.Expect, run, runErr, result)

	actx := &AssertionContext{
		Ctx:      ctx,
		Store:    st,
		Object:   selected,
		Run:      run,
		RunID:    runID,
		Rotation: rotation,
		Tracks:   result.Tracks,
		before:   before,
	}
	for _, aerr := range EvaluateAssertions(scenario.Assertions, actx) {
		result.AddError(aerr.Error())
	}

	var rotated *ir.Animation
	if run != nil {
		rotated = run.Rotated
	}
	snapshot, err := BuildSnapshot(scenario.Name, result, rotated)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}
	result.Snapshot = snapshot

	return result, nil
}

// checkExpect compares the run outcome against the expect clause.
func checkExpect(expect Expect, run *engine.Result, runErr error, result *Result) {
	switch {
	case runErr != nil && expect.Error == "":
		result.AddError(fmt.Sprintf("run failed: %v", runErr))
	case expect.Error != "" && result.ErrorCode != expect.Error:
		got := result.ErrorCode
		if runErr == nil {
			got = "success"
		} else if got == "" {
			got = runErr.Error()
		}
		result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, got))
	}

	if expect.FrameRange != nil {
		if run == nil {
			result.AddError(fmt.Sprintf("expected frame range %v, but no animation was baked", expect.FrameRange))
		} else if got := []int{run.Rotated.FrameStart, run.Rotated.FrameEnd}; got[0] != expect.FrameRange[0] || got[1] != expect.FrameRange[1] {
			result.AddError(fmt.Sprintf("expected frame range %v, got %v", expect.FrameRange, got))
		}
	}

	if expect.Tracks != nil {
		got := trackNames(result.Tracks)
		if !slices.Equal(got, expect.Tracks) {
			result.AddError(fmt.Sprintf("expected tracks %v, got %v", expect.Tracks, got))
		}
	}
}

// sourceCopy is a deep copy of an object's source data, taken before a run.
type sourceCopy struct {
	action   *ir.Animation
	skeleton *ir.Skeleton
}

func copySource(obj *scene.Object) sourceCopy {
	if obj == nil {
		return sourceCopy{}
	}
	return sourceCopy{action: obj.Action.Clone(), skeleton: obj.Skeleton.Clone()}
}

func trackNames(tracks []ir.Track) []string {
	names := make([]string, len(tracks))
	for i, t := range tracks {
		names[i] = t.Name
	}
	return names
}

// errNoRun is reported by assertions that need a baked animation.
var errNoRun = errors.New("run produced no animation")
