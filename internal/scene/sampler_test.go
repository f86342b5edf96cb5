package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/xform"
)

const tol = 1e-9

func twoBone() *ir.Skeleton {
	return &ir.Skeleton{
		Name: "rig",
		Bones: []ir.Bone{
			{Name: "root", Rest: ir.IdentityTransform()},
			{Name: "hip", Parent: "root", Rest: ir.Transform{Translation: ir.Vec3{0, 0, 1}, Rotation: ir.IdentityQuat()}},
		},
	}
}

func walk() *ir.Animation {
	a := &ir.Animation{Name: "walk", FrameStart: 1, FrameEnd: 3}
	for f := 1; f <= 3; f++ {
		a.Poses = append(a.Poses, ir.Pose{
			"root": {Translation: ir.Vec3{0, float64(f), 0}, Rotation: ir.IdentityQuat()},
			"hip":  ir.IdentityTransform(),
		})
	}
	return a
}

func TestSolverPlaysAction(t *testing.T) {
	inst := Duplicate(twoBone())
	require.NoError(t, inst.SetAction(walk()))

	pose, err := Solver{}.Resolve(context.Background(), inst, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, pose["root"].Translation[1], tol)
	assert.InDelta(t, 0.0, pose["hip"].Translation[1], tol)
}

func TestSolverRestPoseWithoutAction(t *testing.T) {
	pose, err := Solver{}.Resolve(context.Background(), Duplicate(twoBone()), 7)
	require.NoError(t, err)
	assert.True(t, xform.ApproxEqual(xform.Identity(), xform.FromIR(pose["root"]), tol))
}

func TestSolverHoldsEndPoses(t *testing.T) {
	inst := Duplicate(twoBone())
	require.NoError(t, inst.SetAction(walk()))

	pose, err := Solver{}.Resolve(context.Background(), inst, 10)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, pose["root"].Translation[1], tol)
}

func TestSolverPinsTargetToSource(t *testing.T) {
	skel := twoBone()
	source := Duplicate(skel)
	require.NoError(t, source.SetAction(walk()))

	target := Duplicate(skel)
	require.NoError(t, target.SetPlacementZ(180))
	for _, b := range skel.Bones {
		require.NoError(t, target.AddConstraint(CopyRotation(b.Name, source, b.Name)))
		require.NoError(t, target.AddConstraint(CopyLocation(b.Name, source, b.Name)))
	}

	solver := Solver{}
	local, err := solver.Resolve(context.Background(), target, 3)
	require.NoError(t, err)
	// The root is re-expressed in the rotated frame.
	assert.InDelta(t, -3.0, local["root"].Translation[1], tol)
	assert.InDelta(t, 0.0, local["hip"].Translation[1], tol)

	sw, err := solver.World(context.Background(), source, 3)
	require.NoError(t, err)
	tw, err := solver.World(context.Background(), target, 3)
	require.NoError(t, err)
	for name := range sw {
		assert.True(t, xform.ApproxEqual(sw[name], tw[name], tol), "bone %s", name)
	}
}

func TestSolverPartialInfluence(t *testing.T) {
	skel := twoBone()
	source := Duplicate(skel)
	require.NoError(t, source.SetAction(walk()))

	target := Duplicate(skel)
	c := CopyLocation("root", source, "root")
	c.Influence = 0.5
	require.NoError(t, target.AddConstraint(c))

	world, err := Solver{}.World(context.Background(), target, 2)
	require.NoError(t, err)
	assert.True(t, xform.VecApproxEqual(r3.Vec{Y: 1}, world["root"].T, tol), "got %v", world["root"].T)
}

func TestSolverFailures(t *testing.T) {
	ctx := context.Background()
	skel := twoBone()

	t.Run("released", func(t *testing.T) {
		inst := Duplicate(skel)
		inst.Release()
		_, err := Solver{}.Resolve(ctx, inst, 1)
		require.ErrorIs(t, err, ErrReleased)
	})

	t.Run("released target", func(t *testing.T) {
		source := Duplicate(skel)
		target := Duplicate(skel)
		require.NoError(t, target.AddConstraint(CopyRotation("root", source, "root")))
		source.Release()
		_, err := Solver{}.Resolve(ctx, target, 1)
		require.ErrorIs(t, err, ErrReleased)
	})

	t.Run("unknown subtarget", func(t *testing.T) {
		source := Duplicate(skel)
		target := Duplicate(skel)
		require.NoError(t, target.AddConstraint(CopyRotation("root", source, "pelvis")))
		_, err := Solver{}.Resolve(ctx, target, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `target has no bone "pelvis"`)
	})

	t.Run("action missing a bone", func(t *testing.T) {
		inst := Duplicate(skel)
		require.NoError(t, inst.SetAction(&ir.Animation{
			Name: "partial", FrameStart: 1, FrameEnd: 1,
			Poses: []ir.Pose{{"root": ir.IdentityTransform()}},
		}))
		_, err := Solver{}.Resolve(ctx, inst, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no channel for bone "hip"`)
	})

	t.Run("instance cycle", func(t *testing.T) {
		a := Duplicate(skel)
		b := Duplicate(skel)
		require.NoError(t, a.AddConstraint(CopyLocation("root", b, "root")))
		require.NoError(t, b.AddConstraint(CopyLocation("root", a, "root")))
		_, err := Solver{}.Resolve(ctx, a, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Solver{}.Resolve(cctx, Duplicate(skel), 1)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSolverDoesNotMutateAction(t *testing.T) {
	skel := twoBone()
	original := walk()
	before := ir.MustAnimationID(original)

	source := Duplicate(skel)
	require.NoError(t, source.SetAction(original))
	target := Duplicate(skel)
	require.NoError(t, target.SetPlacementZ(90))
	require.NoError(t, target.AddConstraint(CopyLocation("root", source, "root")))

	for f := 1; f <= 3; f++ {
		_, err := Solver{}.Resolve(context.Background(), target, f)
		require.NoError(t, err)
	}
	assert.Equal(t, before, ir.MustAnimationID(original))
}
