package scene

import "github.com/roach88/rotbake/internal/ir"

// Kind is an object's type tag.
type Kind string

// Object kinds. Only KindSkeleton objects can be rebaked.
const (
	KindSkeleton Kind = "ARMATURE"
	KindMesh     Kind = "MESH"
	KindEmpty    Kind = "EMPTY"
	KindCamera   Kind = "CAMERA"
)

// Object is a selectable scene object.
type Object struct {
	Name     string
	Kind     Kind
	Skeleton *ir.Skeleton

	// Action is the object's single active animation. Nil when the
	// object has never been animated.
	Action *ir.Animation

	// Source names the object this one was duplicated from. Empty for
	// authored objects.
	Source string
}

// IsSkeleton reports whether o is a skeleton object with a skeleton attached.
func (o *Object) IsSkeleton() bool {
	return o != nil && o.Kind == KindSkeleton && o.Skeleton != nil
}
