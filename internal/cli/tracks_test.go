package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rotbake/internal/store"
)

func rebakedDB(t *testing.T) string {
	t.Helper()
	db := tempDB(t)
	_, _, err := execute(t, "rebake", rigDir, "--db", db, "--rotation", "90")
	require.NoError(t, err)
	return db
}

func TestTracksText(t *testing.T) {
	out, _, err := execute(t, "tracks", "--db", rebakedDB(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Armature-updated from Armature (2 track(s))")
	assert.Contains(t, out, "1. Armature-original  strip original @1  frames 1..5")
	assert.Contains(t, out, "2. Armature-90  strip 90 @1  frames 1..5")
}

func TestTracksJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "tracks", "--db", rebakedDB(t), "--object", "Armature-updated")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   []ObjectTracks `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Armature-updated", resp.Data[0].Object)
	assert.Equal(t, "Armature", resp.Data[0].Source)
	require.Len(t, resp.Data[0].Tracks, 2)
	assert.Equal(t, 0, resp.Data[0].Tracks[0].Position)
	assert.Len(t, resp.Data[0].Tracks[1].AnimationID, 64)
}

func TestTracksUnknownObject(t *testing.T) {
	out, _, err := execute(t, "tracks", "--db", rebakedDB(t), "--object", "Lamp")
	require.NoError(t, err)
	assert.Contains(t, out, "Lamp (0 track(s))")
}

func TestTracksEmptyArchive(t *testing.T) {
	db := tempDB(t)
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "tracks", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No tracks archived.")
}

func TestTracksMissingDatabase(t *testing.T) {
	out, _, err := execute(t, "tracks", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "database not found")
}
