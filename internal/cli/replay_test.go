package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rotbake/internal/engine"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/store"
	"github.com/roach88/rotbake/internal/testutil"
)

func TestReplayReproduces(t *testing.T) {
	db := rebakedDB(t)

	out, _, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 1 run(s)")
	assert.Contains(t, out, "(Armature-updated from Armature, 90°)")
	assert.Contains(t, out, "✓ All runs reproduced")
}

func TestReplayJSON(t *testing.T) {
	db := rebakedDB(t)

	out, _, err := execute(t, "--format", "json", "replay", "--db", db, "--object", "Armature-updated")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllReproduced)
	require.Len(t, resp.Data.Runs, 1)

	run := resp.Data.Runs[0]
	assert.True(t, run.Complete)
	assert.True(t, run.Reproduced)
	assert.Equal(t, run.ArchivedID, run.ReplayedID)
	assert.Equal(t, 90.0, run.Rotation)
	assert.Equal(t, "Armature-updated", run.Object)
	assert.Equal(t, "Armature", run.Source)
}

func TestReplayNoRuns(t *testing.T) {
	db := rebakedDB(t)

	out, _, err := execute(t, "replay", "--db", db, "--object", "Lamp")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

// archive appends tracks to db under a fresh run without going through the
// operator.
func archive(t *testing.T, db, runID string, rotation float64, tracks ...ir.Track) {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	skel := testutil.TwoBoneSkeleton()
	c := st.Container("Armature-updated", store.Run{ID: runID, Source: "Armature", Skeleton: skel, Rotation: rotation})
	require.NoError(t, c.AppendTracks(context.Background(), tracks...))
}

func TestReplayDetectsTamperedRun(t *testing.T) {
	skel := testutil.TwoBoneSkeleton()
	original := testutil.Swirl(skel, "Dance", 1, 4)
	at180, err := engine.Rebake(context.Background(), original, skel, 180, scene.Solver{})
	require.NoError(t, err)

	// Archived as a 90° run, but the rotated track was baked for 180°.
	db := tempDB(t)
	archive(t, db, "run-tampered", 90, engine.ArchiveTracks("Armature", original, at180, 90)...)

	out, _, err := execute(t, "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: run-tampered")
	assert.Contains(t, out, "✗ Replay verification failed")
}

func TestReplayIncompleteRun(t *testing.T) {
	skel := testutil.TwoBoneSkeleton()
	original := testutil.Swirl(skel, "Dance", 1, 4)

	db := tempDB(t)
	archive(t, db, "run-partial", 180, ir.Track{
		Name:  "Armature-original",
		Strip: ir.Strip{Name: "original", Start: 1, Animation: original},
	})

	out, _, err := execute(t, "--format", "json", "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
		Error  *CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_REPLAY", resp.Error.Code)
	require.Len(t, resp.Data.Runs, 1)
	assert.False(t, resp.Data.Runs[0].Complete)
	assert.Contains(t, resp.Data.Runs[0].Error, "expected 2")
}

func TestReplayMissingDatabase(t *testing.T) {
	_, _, err := execute(t, "replay", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
