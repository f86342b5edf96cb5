package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rotbake/internal/engine"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/testutil"
)

// runOperator archives one operator run of obj into s. Objects already in
// the archive are reserved so each run gets a fresh output object.
func runOperator(t *testing.T, s *Store, obj *scene.Object, runID string, deg float64) *engine.Result {
	t.Helper()
	host := scene.NewMemoryHost(obj)
	require.NoError(t, host.Select(obj.Name))
	archived, err := s.Objects(context.Background())
	require.NoError(t, err)
	host.Reserve(archived...)
	host.NewContainer = func(o *scene.Object) scene.TrackContainer {
		return s.Container(o.Name, Run{ID: runID, Source: o.Source, Skeleton: o.Skeleton, Rotation: deg})
	}

	op := engine.NewOperator(host, scene.Solver{}, engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)))
	res, err := op.Run(context.Background(), deg)
	require.NoError(t, err)
	return res
}

func TestRunStates_OperatorRun(t *testing.T) {
	s := createTestStore(t)
	skel := testutil.ChainSkeleton()
	obj := testutil.SkeletonObject("Hero", skel, testutil.Swirl(skel, "Walk", 1, 6))

	res := runOperator(t, s, obj, "run-1", 180)
	assert.Equal(t, "Hero-updated", res.Output)

	states, err := s.RunStates(context.Background(), res.Output)
	require.NoError(t, err)
	require.Len(t, states, 1)

	st := states[0]
	assert.True(t, st.Complete)
	assert.Equal(t, "Hero-updated", st.Run.Object)
	assert.Equal(t, "Hero", st.Run.Source)
	assert.Equal(t, skel, st.Skeleton)
	assert.Equal(t, 180.0, st.Run.Rotation)
	require.NotNil(t, st.Original)
	require.NotNil(t, st.Rotated)
	assert.Equal(t, "Hero-original", st.Original.Name)
	assert.Equal(t, "Hero-180", st.Rotated.Name)
	assert.Equal(t, ir.MustAnimationID(res.Rotated), ir.MustAnimationID(st.Rotated.Strip.Animation))

	// Re-baking the stored original reproduces the stored rotated motion.
	again, err := engine.Rebake(context.Background(), st.Original.Strip.Animation, st.Skeleton, st.Run.Rotation, scene.Solver{})
	require.NoError(t, err)
	assert.Equal(t, ir.MustAnimationID(st.Rotated.Strip.Animation), ir.MustAnimationID(again))
}

func TestRunStates_TwoRotationsOfOneObject(t *testing.T) {
	s := createTestStore(t)
	skel := testutil.TwoBoneSkeleton()
	obj := testutil.SkeletonObject("Hero", skel, testutil.RootTranslation(skel, "Walk", 1, 4, ir.Vec3{2, 0, 0}))

	first := runOperator(t, s, obj, "run-1", 180)
	second := runOperator(t, s, obj, "run-2", 90)
	assert.Equal(t, "Hero-updated", first.Output)
	assert.Equal(t, "Hero-updated.001", second.Output)

	states, err := s.RunStates(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, states, 2)
	for _, st := range states {
		assert.True(t, st.Complete)
		assert.Equal(t, "Hero", st.Run.Source)
	}
	assert.Equal(t, "Hero-180", states[0].Rotated.Name)
	assert.Equal(t, "Hero-90", states[1].Rotated.Name)

	objects, err := s.Objects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hero-updated", "Hero-updated.001"}, objects)
}

func TestRunStates_Incomplete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Container("A", Run{ID: "partial", Skeleton: testutil.TwoBoneSkeleton()}).AppendTracks(ctx,
		createTestTrack("A-original", "original", 1, 2)))
	require.NoError(t, s.Container("B", Run{ID: "no-skeleton"}).AppendTracks(ctx,
		createTestTrack("B-original", "original", 1, 2), createTestTrack("B-90", "90", 1, 2)))

	states, err := s.RunStates(ctx, "")
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.False(t, states[0].Complete)
	assert.Nil(t, states[0].Rotated)
	assert.False(t, states[1].Complete)
	assert.Nil(t, states[1].Skeleton)
}
