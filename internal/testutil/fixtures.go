package testutil

import (
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/xform"
)

// TwoBoneSkeleton returns a skeleton with a root at the origin and a hip one
// unit above it.
func TwoBoneSkeleton() *ir.Skeleton {
	return &ir.Skeleton{
		Name: "rig",
		Bones: []ir.Bone{
			{Name: "root", Rest: ir.IdentityTransform()},
			{Name: "hip", Parent: "root", Rest: ir.Transform{Translation: ir.Vec3{0, 0, 1}, Rotation: ir.IdentityQuat()}},
		},
	}
}

// ChainSkeleton returns root -> spine -> head with rest offsets and a rest
// rotation on spine, for exercising non-trivial hierarchies.
func ChainSkeleton() *ir.Skeleton {
	return &ir.Skeleton{
		Name: "chain",
		Bones: []ir.Bone{
			{Name: "root", Rest: ir.IdentityTransform()},
			{Name: "spine", Parent: "root", Rest: ir.Transform{
				Translation: ir.Vec3{0, 0, 1},
				Rotation:    xform.ToIR(xform.RotationZ(30)).Rotation,
			}},
			{Name: "head", Parent: "spine", Rest: ir.Transform{Translation: ir.Vec3{0.5, 0, 1}, Rotation: ir.IdentityQuat()}},
		},
	}
}

// RootTranslation animates the root of skel linearly from the origin to `to`
// over [start, end]. Every other bone holds its rest pose.
func RootTranslation(skel *ir.Skeleton, name string, start, end int, to ir.Vec3) *ir.Animation {
	a := &ir.Animation{Name: name, FrameStart: start, FrameEnd: end}
	span := float64(end - start)
	for f := start; f <= end; f++ {
		t := 0.0
		if span > 0 {
			t = float64(f-start) / span
		}
		pose := ir.RestPose(skel)
		pose[skel.Roots()[0]] = ir.Transform{
			Translation: ir.Vec3{to[0] * t, to[1] * t, to[2] * t},
			Rotation:    ir.IdentityQuat(),
		}
		a.Poses = append(a.Poses, pose)
	}
	return a
}

// Swirl animates every bone of skel with frame-dependent translations and Z/X
// rotations over [start, end].
func Swirl(skel *ir.Skeleton, name string, start, end int) *ir.Animation {
	a := &ir.Animation{Name: name, FrameStart: start, FrameEnd: end}
	for f := start; f <= end; f++ {
		pose := make(ir.Pose, len(skel.Bones))
		for i, b := range skel.Bones {
			k := float64(f*(i+1)) / 7
			tilt := xform.FromIR(ir.Transform{Rotation: ir.Quat{0.1 * k, 0, 0, 1}})
			r := xform.Compose(xform.RotationZ(11*k), tilt)
			r.T.X, r.T.Y, r.T.Z = 0.1*k, -0.2*k, 0.05*float64(i)
			pose[b.Name] = xform.ToIR(r)
		}
		a.Poses = append(a.Poses, pose)
	}
	return a
}

// SkeletonObject wraps skel and action in a selectable skeleton object.
func SkeletonObject(name string, skel *ir.Skeleton, action *ir.Animation) *scene.Object {
	return &scene.Object{Name: name, Kind: scene.KindSkeleton, Skeleton: skel, Action: action}
}
