package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootTranslation(t *testing.T) {
	skel := TwoBoneSkeleton()
	a := RootTranslation(skel, "walk", 1, 10, [3]float64{0, 10, 0})

	require.NoError(t, a.Validate())
	assert.Equal(t, 10, a.Frames())
	assert.InDelta(t, 0.0, a.Poses[0]["root"].Translation[1], 1e-12)
	assert.InDelta(t, 10.0, a.Poses[9]["root"].Translation[1], 1e-12)
	assert.Contains(t, a.Poses[4], "hip")
}

func TestSwirlCoversEveryBone(t *testing.T) {
	skel := ChainSkeleton()
	a := Swirl(skel, "swirl", 3, 6)

	require.NoError(t, a.Validate())
	for _, p := range a.Poses {
		assert.Len(t, p, len(skel.Bones))
	}
}

func TestFixedRunIDGenerator(t *testing.T) {
	g := NewFixedRunIDGenerator("")
	assert.Equal(t, "test-run-default", g.Generate())
	assert.Equal(t, "test-run-default", g.Generate())
	assert.Equal(t, "run-1", NewFixedRunIDGenerator("run-1").Generate())
}

func TestAssertSameMotionIdentity(t *testing.T) {
	skel := ChainSkeleton()
	a := Swirl(skel, "swirl", 1, 4)
	AssertSameMotion(t, skel, a, 0, a, 0, 1, 4, DefaultTolerance)
}
