package scene

import (
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/rotbake/internal/ir"
)

// ErrReleased is returned when a released instance is used.
var ErrReleased = errors.New("instance released")

// Instance is a skeleton placed in the world. Only the rotation about the
// vertical Z axis is variable; all other placement is identity.
//
// Instance is safe for concurrent use. Resolving poses only reads it.
type Instance struct {
	mu          sync.RWMutex
	skeleton    *ir.Skeleton
	placementZ  float64
	action      *ir.Animation
	constraints []Constraint
	released    bool
}

// Duplicator creates independent skeleton instances.
type Duplicator interface {
	Duplicate(skel *ir.Skeleton) *Instance
}

// DuplicatorFunc adapts a function to the Duplicator interface.
type DuplicatorFunc func(skel *ir.Skeleton) *Instance

// Duplicate calls f(skel).
func (f DuplicatorFunc) Duplicate(skel *ir.Skeleton) *Instance {
	return f(skel)
}

// Duplicate deep-copies skel into a new instance at placement 0 with no
// action and no constraints. Later changes to skel do not affect the
// instance.
func Duplicate(skel *ir.Skeleton) *Instance {
	return &Instance{skeleton: skel.Clone()}
}

// DefaultDuplicator uses Duplicate.
var DefaultDuplicator Duplicator = DuplicatorFunc(Duplicate)

// Skeleton returns the instance's skeleton. Callers must not modify it.
func (i *Instance) Skeleton() *ir.Skeleton {
	return i.skeleton
}

// PlacementZ returns the placement rotation in degrees.
func (i *Instance) PlacementZ() float64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.placementZ
}

// SetPlacementZ sets the placement rotation about Z, in degrees.
func (i *Instance) SetPlacementZ(deg float64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return ErrReleased
	}
	i.placementZ = deg
	return nil
}

// Action returns the animation the instance plays, or nil.
func (i *Instance) Action() *ir.Animation {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.action
}

// SetAction makes the instance play a. The animation is referenced, not
// copied; the sampler never writes to it.
func (i *Instance) SetAction(a *ir.Animation) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return ErrReleased
	}
	i.action = a
	return nil
}

// AddConstraint appends c to the constraint stack. Constraints are
// evaluated in insertion order.
func (i *Instance) AddConstraint(c Constraint) error {
	if _, ok := i.skeleton.Bone(c.Bone); !ok {
		return fmt.Errorf("constraint %s: unknown bone %q", c.Kind, c.Bone)
	}
	if c.Influence < 0 || c.Influence > 1 {
		return fmt.Errorf("constraint %s on %q: influence %v outside [0, 1]", c.Kind, c.Bone, c.Influence)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.released {
		return ErrReleased
	}
	i.constraints = append(i.constraints, c)
	return nil
}

// Constraints returns a copy of the constraint stack.
func (i *Instance) Constraints() []Constraint {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]Constraint, len(i.constraints))
	copy(out, i.constraints)
	return out
}

// ClearConstraints removes every constraint. It is safe to call on a
// released instance.
func (i *Instance) ClearConstraints() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.constraints = nil
}

// Release discards the instance. Further mutation returns ErrReleased and
// resolving it fails. Release is idempotent.
func (i *Instance) Release() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.released = true
	i.constraints = nil
	i.action = nil
}

// Released reports whether Release has been called.
func (i *Instance) Released() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.released
}

// snapshot returns a consistent view for one evaluation.
func (i *Instance) snapshot() (placementZ float64, action *ir.Animation, cons []Constraint, released bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.placementZ, i.action, i.constraints, i.released
}
