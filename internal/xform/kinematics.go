package xform

import (
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
)

// WorldPose runs forward kinematics for one frame.
//
// World transforms are W(root) = placement·Rest(root)·Pose(root) and
// W(b) = W(parent)·Rest(b)·Pose(b). Every bone of skel must be present in
// pose.
func WorldPose(placement Rigid, skel *ir.Skeleton, pose ir.Pose) (map[string]Rigid, error) {
	ordered, err := skel.Ordered()
	if err != nil {
		return nil, err
	}

	world := make(map[string]Rigid, len(ordered))
	for _, b := range ordered {
		local, ok := pose[b.Name]
		if !ok {
			return nil, fmt.Errorf("pose has no transform for bone %q", b.Name)
		}
		parent := placement
		if b.Parent != "" {
			parent = world[b.Parent]
		}
		world[b.Name] = Chain(parent, FromIR(b.Rest), FromIR(local))
	}
	return world, nil
}

// LocalFromWorld solves the local pose transform that places a bone at the
// given world transform: Pose(b) = (W(parent)·Rest(b))^-1 · W(b).
func LocalFromWorld(parentWorld Rigid, rest ir.Transform, world Rigid) Rigid {
	return Compose(Inverse(Compose(parentWorld, FromIR(rest))), world)
}
