package compiler

import (
	"fmt"
	"math"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
)

const walkRig = `
active: "Armature"

object: Armature: {
	skeleton: bones: [
		{name: "root"},
		{name: "hip", parent: "root", head: [0, 0, 1]},
	]
	action: {
		frame_start: 1
		frame_end:   5
		channels: root: [
			{frame: 1, location: [0, 0, 0]},
			{frame: 5, location: [4, 0, 0]},
		]
	}
}

object: Camera: kind: "CAMERA"
`

func compileObject(t *testing.T, src, path string) (*scene.Object, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileObject(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileRigBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(walkRig)
	require.NoError(t, v.Err())

	rig, errs := CompileRig(v)
	require.Empty(t, errs)

	assert.Equal(t, "Armature", rig.Active)
	require.Len(t, rig.Objects, 2)

	arm, ok := rig.Object("Armature")
	require.True(t, ok)
	assert.True(t, arm.IsSkeleton())
	assert.Equal(t, "Armature", arm.Skeleton.Name)
	assert.Equal(t, []string{"root", "hip"}, arm.Skeleton.Names())

	hip, ok := arm.Skeleton.Bone("hip")
	require.True(t, ok)
	assert.Equal(t, ir.Vec3{0, 0, 1}, hip.Rest.Translation)
	assert.Equal(t, ir.IdentityQuat(), hip.Rest.Rotation)

	cam, ok := rig.Object("Camera")
	require.True(t, ok)
	assert.Equal(t, scene.KindCamera, cam.Kind)
	assert.False(t, cam.IsSkeleton())
}

func TestCompileRigHostSelectsActive(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(walkRig)
	require.NoError(t, v.Err())

	rig, errs := CompileRig(v)
	require.Empty(t, errs)

	host, err := rig.Host()
	require.NoError(t, err)

	obj, err := host.ActiveSelection(t.Context())
	require.NoError(t, err)
	require.NotNil(t, obj)
	assert.Equal(t, "Armature", obj.Name)
}

func TestCompileRigUnknownActive(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		active: "Ghost"
		object: Armature: skeleton: bones: [{name: "root"}]
	`)
	require.NoError(t, v.Err())

	_, errs := CompileRig(v)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), `"Ghost"`)
}

func TestCompileRigCollectsAllErrors(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		object: A: skeleton: bones: []
		object: B: skeleton: bones: [{name: "root"}]
		object: C: {}
	`)
	require.NoError(t, v.Err())

	rig, errs := CompileRig(v)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "object A")
	assert.Contains(t, errs[1].Error(), "object C")

	require.Len(t, rig.Objects, 1)
	assert.Equal(t, "B", rig.Objects[0].Name)
}

func TestCompileRigNoObjects(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`active: ""`)
	require.NoError(t, v.Err())

	_, errs := CompileRig(v)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no objects")
}

func TestCompileObjectDensifiesLocation(t *testing.T) {
	obj, err := compileObject(t, walkRig, "object.Armature")
	require.NoError(t, err)
	require.NotNil(t, obj.Action)

	anim := obj.Action
	assert.Equal(t, "ArmatureAction", anim.Name)
	assert.Equal(t, 1, anim.FrameStart)
	assert.Equal(t, 5, anim.FrameEnd)
	require.Len(t, anim.Poses, 5)
	require.NoError(t, anim.Validate())

	for i, pose := range anim.Poses {
		root := pose["root"]
		assert.InDelta(t, float64(i), root.Translation[0], 1e-12, "frame %d", i+1)
		assert.Equal(t, ir.IdentityTransform(), pose["hip"], "unkeyed bone holds rest")
	}
}

func TestCompileObjectHoldsOutsideKeys(t *testing.T) {
	obj, err := compileObject(t, `
		object: Arm: {
			skeleton: bones: [{name: "root"}]
			action: {
				name:        "Hold"
				frame_start: 0
				frame_end:   6
				channels: root: [
					{frame: 4, location: [2, 0, 0]},
					{frame: 2, location: [1, 0, 0]},
				]
			}
		}
	`, "object.Arm")
	require.NoError(t, err)

	anim := obj.Action
	assert.Equal(t, "Hold", anim.Name)
	want := []float64{1, 1, 1, 1.5, 2, 2, 2}
	require.Len(t, anim.Poses, len(want))
	for i, x := range want {
		assert.InDelta(t, x, anim.Poses[i]["root"].Translation[0], 1e-12, "frame %d", i)
	}
}

func TestCompileObjectSlerpsRotation(t *testing.T) {
	obj, err := compileObject(t, `
		object: Arm: {
			skeleton: bones: [{name: "root"}]
			action: {
				frame_start: 1
				frame_end:   3
				channels: root: [
					{frame: 1, euler: [0, 0, 0]},
					{frame: 3, euler: [0, 0, 90]},
				]
			}
		}
	`, "object.Arm")
	require.NoError(t, err)

	mid := obj.Action.Poses[1]["root"].Rotation
	half := math.Sin(math.Pi / 8)
	assert.InDelta(t, 0, mid[0], 1e-9)
	assert.InDelta(t, 0, mid[1], 1e-9)
	assert.InDelta(t, half, mid[2], 1e-9)
	assert.InDelta(t, math.Cos(math.Pi/8), mid[3], 1e-9)
}

func TestCompileObjectRestRotation(t *testing.T) {
	obj, err := compileObject(t, `
		object: Arm: skeleton: bones: [
			{name: "root", rest_rotation: [0, 0, 2, 0]},
			{name: "tail", parent: "root", rest_euler: [90, 0, 0]},
		]
	`, "object.Arm")
	require.NoError(t, err)

	root, _ := obj.Skeleton.Bone("root")
	assert.InDelta(t, 1, root.Rest.Rotation[2], 1e-12, "quaternions are normalised")

	tail, _ := obj.Skeleton.Bone("tail")
	s := math.Sqrt2 / 2
	assert.InDelta(t, s, tail.Rest.Rotation[0], 1e-9)
	assert.InDelta(t, s, tail.Rest.Rotation[3], 1e-9)
	assert.Nil(t, obj.Action)
}

func TestCompileObjectErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing skeleton",
			src:  `object: Arm: {}`,
			want: "skeleton objects require a skeleton",
		},
		{
			name: "short head",
			src:  `object: Arm: skeleton: bones: [{name: "root", head: [0, 1]}]`,
			want: "must have 3 components, got 2",
		},
		{
			name: "rotation and euler",
			src:  `object: Arm: skeleton: bones: [{name: "root", rest_rotation: [0, 0, 0, 1], rest_euler: [0, 0, 0]}]`,
			want: "mutually exclusive",
		},
		{
			name: "zero quaternion",
			src:  `object: Arm: skeleton: bones: [{name: "root", rest_rotation: [0, 0, 0, 0]}]`,
			want: "zero quaternion",
		},
		{
			name: "missing frame_end",
			src: `object: Arm: {
				skeleton: bones: [{name: "root"}]
				action: frame_start: 1
			}`,
			want: "frame_end is required",
		},
		{
			name: "inverted range",
			src: `object: Arm: {
				skeleton: bones: [{name: "root"}]
				action: {frame_start: 5, frame_end: 1}
			}`,
			want: "frame_end 1 < frame_start 5",
		},
		{
			name: "oversized range",
			src: `object: Arm: {
				skeleton: bones: [{name: "root"}]
				action: {frame_start: 1, frame_end: 2000000000}
			}`,
			want: "spans 2000000000 frames, limit is 1048576",
		},
		{
			name: "unknown channel bone",
			src: `object: Arm: {
				skeleton: bones: [{name: "root"}]
				action: {
					frame_start: 1
					frame_end:   2
					channels: tail: [{frame: 1, location: [0, 0, 0]}]
				}
			}`,
			want: `channel for unknown bone "tail"`,
		},
		{
			name: "duplicate key frame",
			src: `object: Arm: {
				skeleton: bones: [{name: "root"}]
				action: {
					frame_start: 1
					frame_end:   2
					channels: root: [
						{frame: 1, location: [0, 0, 0]},
						{frame: 1, location: [1, 0, 0]},
					]
				}
			}`,
			want: "duplicate key at frame 1",
		},
		{
			name: "fractional frame",
			src: `object: Arm: {
				skeleton: bones: [{name: "root"}]
				action: {frame_start: 1.5, frame_end: 2}
			}`,
			want: "must be an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileObject(t, tt.src, "object.Arm")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileObjectValidationErrors(t *testing.T) {
	_, err := compileObject(t, `
		object: Arm: skeleton: bones: [
			{name: "a", parent: "b"},
			{name: "b", parent: "a"},
		]
	`, "object.Arm")
	require.Error(t, err)

	verrs, ok := IsValidationError(err)
	require.True(t, ok)
	codes := make([]string, len(verrs))
	for i, e := range verrs {
		codes[i] = e.Code
	}
	assert.Equal(t, []string{ErrParentCycle, ErrNoRootBone}, codes)
}

func TestCompileObjectQuotedName(t *testing.T) {
	obj, err := compileObject(t, `
		object: "Hero Rig": skeleton: bones: [{name: "root"}]
	`, `object."Hero Rig"`)
	require.NoError(t, err)
	assert.Equal(t, "Hero Rig", obj.Name)
	assert.Equal(t, "Hero Rig", obj.Skeleton.Name)
}

func TestCompileObjectRangeLimit(t *testing.T) {
	_, err := compileObject(t, fmt.Sprintf(`object: Arm: {
		skeleton: bones: [{name: "root"}]
		action: {frame_start: 0, frame_end: %d}
	}`, MaxActionFrames), "object.Arm")

	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "action.frame_end", cerr.Field)
	assert.Contains(t, cerr.Message, "spans 1048577 frames")
}
