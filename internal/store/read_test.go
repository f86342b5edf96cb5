package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/testutil"
)

func TestReadTracks_UnknownObject(t *testing.T) {
	s := createTestStore(t)

	tracks, err := s.ReadTracks(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, tracks)
	assert.Empty(t, tracks)
}

func TestReadSkeleton_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadSkeleton(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadAnimation_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadAnimation(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRuns_GroupedAndOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	skel := testutil.TwoBoneSkeleton()

	require.NoError(t, s.Container("A", Run{ID: "run-b", Source: "Hero", Skeleton: skel, Rotation: 90}).AppendTracks(ctx,
		createTestTrack("A-original", "original", 1, 3), createTestTrack("A-90", "90", 1, 3)))
	require.NoError(t, s.Container("B", Run{ID: "run-a", Rotation: -45.5}).AppendTracks(ctx,
		createTestTrack("B-original", "original", 1, 3)))

	runs, err := s.Runs(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, "run-b", first.ID, "runs come back in recording order, not by ID")
	assert.Equal(t, "A", first.Object)
	assert.Equal(t, "Hero", first.Source)
	assert.Equal(t, ir.MustSkeletonID(skel), first.SkeletonID)
	assert.Equal(t, 90.0, first.Rotation)
	assert.Equal(t, ir.IRVersion, first.IRVersion)
	assert.Equal(t, ir.ToolVersion, first.ToolVersion)
	require.Len(t, first.Tracks, 2)
	assert.Equal(t, "A-original", first.Tracks[0].Name)
	assert.Equal(t, "A-90", first.Tracks[1].Name)

	second := runs[1]
	assert.Empty(t, second.SkeletonID)
	assert.Equal(t, -45.5, second.Rotation)
	assert.Len(t, second.Tracks, 1)

	onlyB, err := s.Runs(ctx, "B")
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "run-a", onlyB[0].ID)
}

func TestObjectSource(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Container("Hero-updated", Run{ID: "run-1", Source: "Hero"}).AppendTracks(ctx,
		createTestTrack("Hero-original", "original", 1, 2)))

	source, err := s.ObjectSource(ctx, "Hero-updated")
	require.NoError(t, err)
	assert.Equal(t, "Hero", source)

	source, err = s.ObjectSource(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, source)
}

func TestRuns_Empty(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.Runs(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}
