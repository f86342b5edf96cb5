package scene

// ConstraintKind identifies a constraint type.
type ConstraintKind string

const (
	KindCopyRotation ConstraintKind = "COPY_ROTATION"
	KindCopyLocation ConstraintKind = "COPY_LOCATION"
)

// Constraint forces one component of a bone's world transform toward the
// world transform of a bone on another instance. Both sides are evaluated
// in world space.
type Constraint struct {
	Kind ConstraintKind

	// Bone is the constrained bone on the owning instance.
	Bone string

	// Target is the instance whose bone is copied.
	Target *Instance

	// Subtarget names the bone on Target.
	Subtarget string

	// Influence blends between the unconstrained (0) and copied (1) value.
	Influence float64
}

// CopyRotation returns a full-influence copy-rotation constraint.
func CopyRotation(bone string, target *Instance, subtarget string) Constraint {
	return Constraint{Kind: KindCopyRotation, Bone: bone, Target: target, Subtarget: subtarget, Influence: 1}
}

// CopyLocation returns a full-influence copy-location constraint.
func CopyLocation(bone string, target *Instance, subtarget string) Constraint {
	return Constraint{Kind: KindCopyLocation, Bone: bone, Target: target, Subtarget: subtarget, Influence: 1}
}
