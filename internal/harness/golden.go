package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rotbake/internal/ir"
)

// BuildSnapshot renders a result as canonical JSON for golden comparison.
//
// The snapshot holds the run ID, the error code (if any), notifications,
// the archived tracks (names and frame ranges) and, when the bake
// succeeded, every rotated pose quantised to micro-units.
func BuildSnapshot(scenarioName string, result *Result, rotated *ir.Animation) ([]byte, error) {
	notes := make(ir.List, len(result.Notifications))
	for i, n := range result.Notifications {
		notes[i] = ir.Str(n)
	}

	tracks := make(ir.List, len(result.Tracks))
	for i, t := range result.Tracks {
		tracks[i] = ir.Map{
			"name":        ir.Str(t.Name),
			"strip":       ir.Str(t.Strip.Name),
			"start":       ir.Int(t.Strip.Start),
			"frame_start": ir.Int(t.Strip.Animation.FrameStart),
			"frame_end":   ir.Int(t.Strip.Animation.FrameEnd),
		}
	}

	snapshot := ir.Map{
		"scenario":      ir.Str(scenarioName),
		"run_id":        ir.Str(result.RunID),
		"notifications": notes,
		"tracks":        tracks,
	}
	if result.ErrorCode != "" {
		snapshot["error"] = ir.Str(result.ErrorCode)
	}
	if rotated != nil {
		poses := make(ir.List, len(rotated.Poses))
		for i, p := range rotated.Poses {
			poses[i] = ir.CanonicalPose(p)
		}
		snapshot["rotated"] = poses
	}

	return ir.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result's snapshot against a
// golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, result.Snapshot)
}
