package scene

import (
	"context"
	"fmt"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/xform"
)

// Sampler evaluates an instance at a frame, honouring its constraints, and
// returns the resolved local pose of every bone.
type Sampler interface {
	Resolve(ctx context.Context, inst *Instance, frame int) (ir.Pose, error)
}

// SamplerFunc adapts a function to the Sampler interface.
type SamplerFunc func(ctx context.Context, inst *Instance, frame int) (ir.Pose, error)

// Resolve calls f(ctx, inst, frame).
func (f SamplerFunc) Resolve(ctx context.Context, inst *Instance, frame int) (ir.Pose, error) {
	return f(ctx, inst, frame)
}

// Solver is the reference Sampler.
//
// For each bone, parents first, it plays the instance's action (rest pose
// when there is none; frames outside the action hold the nearest end pose),
// composes the world transform, applies the bone's constraints in
// insertion order against the target instances evaluated at the same frame,
// and solves the constrained world transform back to a local pose.
//
// Solver never mutates instances, so concurrent Resolve calls are safe.
type Solver struct{}

// Resolve implements Sampler.
func (Solver) Resolve(ctx context.Context, inst *Instance, frame int) (ir.Pose, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev := &evaluation{frame: frame, world: make(map[*Instance]map[string]xform.Rigid)}
	local, _, err := ev.evaluate(inst)
	if err != nil {
		return nil, err
	}
	return local, nil
}

// World resolves inst at frame and returns world transforms by bone name.
func (Solver) World(ctx context.Context, inst *Instance, frame int) (map[string]xform.Rigid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev := &evaluation{frame: frame, world: make(map[*Instance]map[string]xform.Rigid)}
	_, world, err := ev.evaluate(inst)
	return world, err
}

// evaluation memoises world transforms of every instance touched while
// resolving one frame. A nil entry marks an instance under evaluation.
type evaluation struct {
	frame int
	world map[*Instance]map[string]xform.Rigid
}

func (ev *evaluation) evaluate(inst *Instance) (ir.Pose, map[string]xform.Rigid, error) {
	if inst == nil {
		return nil, nil, fmt.Errorf("resolve: nil instance")
	}
	placementZ, action, cons, released := inst.snapshot()
	if released {
		return nil, nil, ErrReleased
	}
	if w, seen := ev.world[inst]; seen && w == nil {
		return nil, nil, fmt.Errorf("resolve frame %d: constraint cycle between instances", ev.frame)
	}
	ev.world[inst] = nil

	skel := inst.skeleton
	ordered, err := skel.Ordered()
	if err != nil {
		return nil, nil, err
	}

	var played ir.Pose
	if action != nil {
		played = action.PoseAt(ev.frame)
	}

	byBone := make(map[string][]Constraint, len(cons))
	for _, c := range cons {
		byBone[c.Bone] = append(byBone[c.Bone], c)
	}

	placement := xform.RotationZ(placementZ)
	world := make(map[string]xform.Rigid, len(ordered))
	local := make(ir.Pose, len(ordered))
	for _, b := range ordered {
		parent := placement
		if b.Parent != "" {
			parent = world[b.Parent]
		}

		pose := xform.Identity()
		if played != nil {
			t, ok := played[b.Name]
			if !ok {
				return nil, nil, fmt.Errorf("resolve frame %d: action %q has no channel for bone %q",
					ev.frame, action.Name, b.Name)
			}
			pose = xform.FromIR(t)
		}

		w := xform.Chain(parent, xform.FromIR(b.Rest), pose)
		for _, c := range byBone[b.Name] {
			tw, err := ev.targetWorld(c)
			if err != nil {
				return nil, nil, err
			}
			switch c.Kind {
			case KindCopyRotation:
				w.R = xform.Slerp(w.R, tw.R, c.Influence)
			case KindCopyLocation:
				w.T = xform.Lerp(w.T, tw.T, c.Influence)
			default:
				return nil, nil, fmt.Errorf("resolve frame %d: bone %q: unsupported constraint %q",
					ev.frame, b.Name, c.Kind)
			}
		}

		world[b.Name] = w
		local[b.Name] = xform.ToIR(xform.LocalFromWorld(parent, b.Rest, w))
	}

	ev.world[inst] = world
	return local, world, nil
}

func (ev *evaluation) targetWorld(c Constraint) (xform.Rigid, error) {
	if c.Target == nil {
		return xform.Rigid{}, fmt.Errorf("resolve frame %d: %s on %q has no target", ev.frame, c.Kind, c.Bone)
	}
	if _, ok := c.Target.skeleton.Bone(c.Subtarget); !ok {
		return xform.Rigid{}, fmt.Errorf("resolve frame %d: %s on %q: target has no bone %q",
			ev.frame, c.Kind, c.Bone, c.Subtarget)
	}

	world, ok := ev.world[c.Target]
	if !ok {
		var err error
		_, world, err = ev.evaluate(c.Target)
		if err != nil {
			return xform.Rigid{}, fmt.Errorf("%s on %q: target: %w", c.Kind, c.Bone, err)
		}
	}
	if world == nil {
		return xform.Rigid{}, fmt.Errorf("resolve frame %d: constraint cycle between instances", ev.frame)
	}
	return world[c.Subtarget], nil
}
