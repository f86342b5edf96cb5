package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnimation() *Animation {
	return &Animation{
		Name:       "walk",
		FrameStart: 1,
		FrameEnd:   2,
		Poses: []Pose{
			{"root": IdentityTransform()},
			{"root": {Translation: Vec3{0, 1, 0}, Rotation: IdentityQuat()}},
		},
	}
}

func TestAnimationIDDeterminism(t *testing.T) {
	id1, err := AnimationID(sampleAnimation())
	require.NoError(t, err)

	id2, err := AnimationID(sampleAnimation())
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "AnimationID must be deterministic")
	assert.Len(t, id1, 64, "SHA-256 hex is 64 characters")
}

func TestAnimationIDIgnoresName(t *testing.T) {
	a := sampleAnimation()
	b := sampleAnimation()
	b.Name = "walk-180"

	assert.Equal(t, MustAnimationID(a), MustAnimationID(b))
}

func TestAnimationIDChangesWithMotion(t *testing.T) {
	a := sampleAnimation()
	b := sampleAnimation()
	b.Poses[1]["root"] = Transform{Translation: Vec3{0, 2, 0}, Rotation: IdentityQuat()}

	assert.NotEqual(t, MustAnimationID(a), MustAnimationID(b))
}

func TestAnimationIDQuaternionSign(t *testing.T) {
	a := sampleAnimation()
	b := sampleAnimation()
	b.Poses[0]["root"] = Transform{Rotation: Quat{0, 0, 0, -1}}

	assert.Equal(t, MustAnimationID(a), MustAnimationID(b), "q and -q are the same rotation")
}

func TestSkeletonIDDomainSeparation(t *testing.T) {
	s := &Skeleton{Name: "rig", Bones: []Bone{{Name: "root", Rest: IdentityTransform()}}}

	id := MustSkeletonID(s)
	assert.Len(t, id, 64)
	assert.NotEqual(t, id, MustAnimationID(sampleAnimation()))

	_, err := SkeletonID(nil)
	require.Error(t, err)
	_, err = AnimationID(nil)
	require.Error(t, err)
}
