package ir

import (
	"fmt"
	"math"
)

// Vec3 is a 3D vector (x, y, z).
type Vec3 [3]float64

// Quat is a rotation quaternion stored as (x, y, z, w), glTF order.
type Quat [4]float64

// IdentityQuat returns the identity rotation.
func IdentityQuat() Quat {
	return Quat{0, 0, 0, 1}
}

// Canonical returns the representative of q's rotation class with a
// non-negative w. When w is zero the first non-zero component is made positive.
// q and -q encode the same rotation; hashing and comparison use this form.
func (q Quat) Canonical() Quat {
	for _, i := range [4]int{3, 0, 1, 2} {
		if q[i] > 0 {
			return q
		}
		if q[i] < 0 {
			return Quat{-q[0], -q[1], -q[2], -q[3]}
		}
	}
	return q
}

// Transform is a rigid transform: rotation followed by translation.
// Scale is not modelled; rigs are assumed to carry unit scale.
type Transform struct {
	// Translation is the position offset.
	Translation Vec3 `json:"translation"`

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation Quat `json:"rotation"`
}

// IdentityTransform returns the transform that leaves every point in place.
func IdentityTransform() Transform {
	return Transform{Rotation: IdentityQuat()}
}

// Bone is a single joint in a skeleton hierarchy.
type Bone struct {
	// Name identifies the bone. Unique within a skeleton.
	Name string `json:"name"`

	// Parent is the name of the parent bone, empty for roots.
	Parent string `json:"parent,omitempty"`

	// Rest is the bind transform relative to the parent bone (or to the
	// skeleton placement for roots).
	Rest Transform `json:"rest"`
}

// Skeleton is a rooted tree of named bones.
type Skeleton struct {
	Name  string `json:"name"`
	Bones []Bone `json:"bones"`
}

// Bone returns the bone with the given name.
func (s *Skeleton) Bone(name string) (Bone, bool) {
	for _, b := range s.Bones {
		if b.Name == name {
			return b, true
		}
	}
	return Bone{}, false
}

// Names returns the bone names in declaration order.
func (s *Skeleton) Names() []string {
	names := make([]string, len(s.Bones))
	for i, b := range s.Bones {
		names[i] = b.Name
	}
	return names
}

// Index maps bone names to their position in Bones.
func (s *Skeleton) Index() map[string]int {
	idx := make(map[string]int, len(s.Bones))
	for i, b := range s.Bones {
		idx[b.Name] = i
	}
	return idx
}

// Roots returns the names of bones without a parent, in declaration order.
func (s *Skeleton) Roots() []string {
	var roots []string
	for _, b := range s.Bones {
		if b.Parent == "" {
			roots = append(roots, b.Name)
		}
	}
	return roots
}

// Ordered returns the bones sorted so that every parent precedes its
// children. Siblings keep declaration order.
//
// Returns an error if a bone names an unknown parent or if some bones are
// unreachable from a root (a parent cycle).
func (s *Skeleton) Ordered() ([]Bone, error) {
	idx := s.Index()
	if len(idx) != len(s.Bones) {
		return nil, fmt.Errorf("skeleton %q: duplicate bone names", s.Name)
	}

	children := make(map[string][]int, len(s.Bones))
	var queue []int
	for i, b := range s.Bones {
		if b.Parent == "" {
			queue = append(queue, i)
			continue
		}
		if _, ok := idx[b.Parent]; !ok {
			return nil, fmt.Errorf("skeleton %q: bone %q has unknown parent %q", s.Name, b.Name, b.Parent)
		}
		children[b.Parent] = append(children[b.Parent], i)
	}

	ordered := make([]Bone, 0, len(s.Bones))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		ordered = append(ordered, s.Bones[i])
		queue = append(queue, children[s.Bones[i].Name]...)
	}

	if len(ordered) != len(s.Bones) {
		return nil, fmt.Errorf("skeleton %q: %d bone(s) unreachable from a root (parent cycle)",
			s.Name, len(s.Bones)-len(ordered))
	}
	return ordered, nil
}

// Clone returns a deep copy of the skeleton.
func (s *Skeleton) Clone() *Skeleton {
	if s == nil {
		return nil
	}
	bones := make([]Bone, len(s.Bones))
	copy(bones, s.Bones)
	return &Skeleton{Name: s.Name, Bones: bones}
}

// Pose maps bone names to local transforms for one frame.
// Each transform is relative to the bone's rest transform.
type Pose map[string]Transform

// Clone returns a copy of the pose.
func (p Pose) Clone() Pose {
	out := make(Pose, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// RestPose returns a pose with every bone at its rest transform.
func RestPose(s *Skeleton) Pose {
	p := make(Pose, len(s.Bones))
	for _, b := range s.Bones {
		p[b.Name] = IdentityTransform()
	}
	return p
}

// Animation is an ordered sequence of poses over the closed frame range
// [FrameStart, FrameEnd]. Poses[i] is the pose for frame FrameStart+i.
type Animation struct {
	Name       string `json:"name"`
	FrameStart int    `json:"frame_start"`
	FrameEnd   int    `json:"frame_end"`
	Poses      []Pose `json:"poses"`
}

// Frames returns the number of frames in the animation's range.
func (a *Animation) Frames() int {
	return a.FrameEnd - a.FrameStart + 1
}

// Validate checks the frame range and pose count invariants.
func (a *Animation) Validate() error {
	if a.FrameEnd < a.FrameStart {
		return fmt.Errorf("animation %q: frame_end %d < frame_start %d", a.Name, a.FrameEnd, a.FrameStart)
	}
	if len(a.Poses) != a.Frames() {
		return fmt.Errorf("animation %q: %d pose(s) for %d frame(s)", a.Name, len(a.Poses), a.Frames())
	}
	return nil
}

// PoseAt returns the pose for the given frame. Frames outside the range
// hold the nearest end pose (constant extrapolation).
func (a *Animation) PoseAt(frame int) Pose {
	if len(a.Poses) == 0 {
		return nil
	}
	i := frame - a.FrameStart
	if i < 0 {
		i = 0
	}
	if i >= len(a.Poses) {
		i = len(a.Poses) - 1
	}
	return a.Poses[i]
}

// Clone returns a deep copy of the animation.
func (a *Animation) Clone() *Animation {
	if a == nil {
		return nil
	}
	poses := make([]Pose, len(a.Poses))
	for i, p := range a.Poses {
		poses[i] = p.Clone()
	}
	return &Animation{Name: a.Name, FrameStart: a.FrameStart, FrameEnd: a.FrameEnd, Poses: poses}
}

// Strip places one animation in a track.
type Strip struct {
	Name      string     `json:"name"`
	Start     int        `json:"start"`
	Animation *Animation `json:"animation"`
}

// Track is a named slot in an animation track container. It holds exactly
// one strip.
type Track struct {
	Name  string `json:"name"`
	Strip Strip  `json:"strip"`
}

// Quantize converts a float to int64 micro-units for canonical encoding.
// The result is sign-stable around zero: -1e-9 and 1e-9 both map to 0.
func Quantize(v float64) int64 {
	return int64(math.Round(v * 1e6))
}
