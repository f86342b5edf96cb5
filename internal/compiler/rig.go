package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"cuelang.org/go/cue"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/xform"
)

// MaxActionFrames bounds the frame range of a compiled action. Actions are
// densified to one pose per frame, so the range is checked before any pose
// is built.
const MaxActionFrames = 1 << 20

// Rig is a compiled rig document.
type Rig struct {
	// Active is the object selected when the rig is opened. May be empty.
	Active string

	// Objects in declaration order.
	Objects []*scene.Object
}

// Object returns the named object.
func (r *Rig) Object(name string) (*scene.Object, bool) {
	for _, o := range r.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// Host returns an in-memory host holding the rig's objects with the
// active object selected.
func (r *Rig) Host() (*scene.MemoryHost, error) {
	h := scene.NewMemoryHost(r.Objects...)
	if err := h.Select(r.Active); err != nil {
		return nil, &CompileError{Field: "active", Message: err.Error()}
	}
	return h, nil
}

// CompileRig compiles every object under `object` and reads `active`.
//
// All objects are compiled even when some fail; the returned errors are in
// declaration order. The rig holds only the objects that compiled.
func CompileRig(v cue.Value) (*Rig, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	rig := &Rig{}
	var errs []error

	if activeVal := v.LookupPath(cue.ParsePath("active")); activeVal.Exists() {
		active, err := activeVal.String()
		if err != nil {
			errs = append(errs, formatCUEError(err))
		}
		rig.Active = active
	}

	objectsVal := v.LookupPath(cue.ParsePath("object"))
	if !objectsVal.Exists() {
		return rig, append(errs, &CompileError{Field: "object", Message: "no objects defined", Pos: v.Pos()})
	}
	iter, err := objectsVal.Fields()
	if err != nil {
		return rig, append(errs, formatCUEError(err))
	}
	for iter.Next() {
		obj, err := CompileObject(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("object %s: %w", iter.Label(), err))
			continue
		}
		rig.Objects = append(rig.Objects, obj)
	}

	if rig.Active != "" {
		if _, ok := rig.Object(rig.Active); !ok && len(errs) == 0 {
			errs = append(errs, &CompileError{
				Field:   "active",
				Message: fmt.Sprintf("active object %q is not defined", rig.Active),
				Pos:     v.LookupPath(cue.ParsePath("active")).Pos(),
			})
		}
	}
	return rig, errs
}

// CompileObject parses a CUE value into a scene object.
//
// The CUE value should be the object struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`object: Armature: { skeleton: bones: [...] }`)
//	obj, err := CompileObject(v.LookupPath(cue.ParsePath("object.Armature")))
//
// Sparse action keys are densified into one pose per frame: translations
// interpolate linearly, rotations by slerp, frames outside a channel's keys
// hold the nearest key, and bones without keys hold their rest pose.
func CompileObject(v cue.Value) (*scene.Object, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	obj := &scene.Object{Kind: scene.KindSkeleton}
	if labels := v.Path().Selectors(); len(labels) > 0 {
		obj.Name = unquote(labels[len(labels)-1].String())
	}
	if obj.Name == "" {
		return nil, &CompileError{Field: "object", Message: "object name is required", Pos: v.Pos()}
	}

	if kindVal := v.LookupPath(cue.ParsePath("kind")); kindVal.Exists() {
		kind, err := kindVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj.Kind = scene.Kind(kind)
	}

	skelVal := v.LookupPath(cue.ParsePath("skeleton"))
	if !skelVal.Exists() {
		if obj.Kind == scene.KindSkeleton {
			return nil, &CompileError{Field: "skeleton", Message: "skeleton objects require a skeleton", Pos: v.Pos()}
		}
		return obj, nil
	}

	skel, err := compileSkeleton(obj.Name, skelVal)
	if err != nil {
		return nil, err
	}
	if errs := ValidateSkeleton(skel); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	obj.Skeleton = skel

	if actionVal := v.LookupPath(cue.ParsePath("action")); actionVal.Exists() {
		action, err := compileAction(obj.Name, skel, actionVal)
		if err != nil {
			return nil, err
		}
		obj.Action = action
	}
	return obj, nil
}

func compileSkeleton(name string, v cue.Value) (*ir.Skeleton, error) {
	bonesVal := v.LookupPath(cue.ParsePath("bones"))
	if !bonesVal.Exists() {
		return nil, &CompileError{Field: "skeleton.bones", Message: "bones are required", Pos: v.Pos()}
	}
	iter, err := bonesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	skel := &ir.Skeleton{Name: name, Bones: []ir.Bone{}}
	for i := 0; iter.Next(); i++ {
		field := fmt.Sprintf("skeleton.bones[%d]", i)
		bv := iter.Value()

		b := ir.Bone{Rest: ir.IdentityTransform()}
		if b.Name, err = optionalString(bv, "name"); err != nil {
			return nil, err
		}
		if b.Parent, err = optionalString(bv, "parent"); err != nil {
			return nil, err
		}
		if head, ok, err := optionalFloats(bv, "head", 3, field); err != nil {
			return nil, err
		} else if ok {
			b.Rest.Translation = ir.Vec3{head[0], head[1], head[2]}
		}
		rot, err := optionalRotation(bv, "rest_rotation", "rest_euler", field)
		if err != nil {
			return nil, err
		}
		if rot != nil {
			b.Rest.Rotation = quatToIR(*rot)
		}
		skel.Bones = append(skel.Bones, b)
	}
	return skel, nil
}

// key is one keyframe of one channel.
type key[T any] struct {
	frame int
	value T
}

func compileAction(object string, skel *ir.Skeleton, v cue.Value) (*ir.Animation, error) {
	name, err := optionalString(v, "name")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = object + "Action"
	}

	start, err := requiredInt(v, "frame_start", "action")
	if err != nil {
		return nil, err
	}
	end, err := requiredInt(v, "frame_end", "action")
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, &CompileError{
			Field:   "action.frame_end",
			Message: fmt.Sprintf("frame_end %d < frame_start %d", end, start),
			Pos:     v.LookupPath(cue.ParsePath("frame_end")).Pos(),
		}
	}

	if frames := int64(end) - int64(start) + 1; frames > MaxActionFrames {
		return nil, &CompileError{
			Field:   "action.frame_end",
			Message: fmt.Sprintf("frame range %d..%d spans %d frames, limit is %d", start, end, frames, MaxActionFrames),
			Pos:     v.LookupPath(cue.ParsePath("frame_end")).Pos(),
		}
	}

	locKeys := make(map[string][]key[r3.Vec])
	rotKeys := make(map[string][]key[quat.Number])

	if channelsVal := v.LookupPath(cue.ParsePath("channels")); channelsVal.Exists() {
		iter, err := channelsVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			bone := iter.Label()
			field := "action.channels." + bone
			if _, ok := skel.Bone(bone); !ok {
				return nil, &CompileError{
					Field:   field,
					Message: fmt.Sprintf("channel for unknown bone %q", bone),
					Pos:     iter.Value().Pos(),
				}
			}
			locs, rots, err := compileChannel(iter.Value(), field)
			if err != nil {
				return nil, err
			}
			locKeys[bone], rotKeys[bone] = locs, rots
		}
	}

	anim := &ir.Animation{Name: name, FrameStart: start, FrameEnd: end}
	for f := start; f <= end; f++ {
		pose := make(ir.Pose, len(skel.Bones))
		for _, b := range skel.Bones {
			pose[b.Name] = xform.ToIR(xform.Rigid{
				T: sampleKeys(locKeys[b.Name], f, r3.Vec{}, xform.Lerp),
				R: sampleKeys(rotKeys[b.Name], f, quat.Number{Real: 1}, xform.Slerp),
			})
		}
		anim.Poses = append(anim.Poses, pose)
	}
	return anim, nil
}

func compileChannel(v cue.Value, field string) ([]key[r3.Vec], []key[quat.Number], error) {
	iter, err := v.List()
	if err != nil {
		return nil, nil, formatCUEError(err)
	}

	var locs []key[r3.Vec]
	var rots []key[quat.Number]
	frames := make(map[int]bool)
	for i := 0; iter.Next(); i++ {
		kv := iter.Value()
		kfield := fmt.Sprintf("%s[%d]", field, i)

		frame, err := requiredInt(kv, "frame", kfield)
		if err != nil {
			return nil, nil, err
		}
		if frames[frame] {
			return nil, nil, &CompileError{
				Field:   kfield + ".frame",
				Message: fmt.Sprintf("duplicate key at frame %d", frame),
				Pos:     kv.Pos(),
			}
		}
		frames[frame] = true

		loc, ok, err := optionalFloats(kv, "location", 3, kfield)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			locs = append(locs, key[r3.Vec]{frame: frame, value: r3.Vec{X: loc[0], Y: loc[1], Z: loc[2]}})
		}

		rot, err := optionalRotation(kv, "rotation", "euler", kfield)
		if err != nil {
			return nil, nil, err
		}
		if rot != nil {
			rots = append(rots, key[quat.Number]{frame: frame, value: *rot})
		}
	}

	sort.Slice(locs, func(i, j int) bool { return locs[i].frame < locs[j].frame })
	sort.Slice(rots, func(i, j int) bool { return rots[i].frame < rots[j].frame })
	return locs, rots, nil
}

// sampleKeys evaluates a channel at frame. No keys yields def; frames
// outside the keyed span hold the nearest key.
func sampleKeys[T any](keys []key[T], frame int, def T, interp func(a, b T, t float64) T) T {
	if len(keys) == 0 {
		return def
	}
	if frame <= keys[0].frame {
		return keys[0].value
	}
	last := keys[len(keys)-1]
	if frame >= last.frame {
		return last.value
	}
	i := sort.Search(len(keys), func(i int) bool { return keys[i].frame > frame }) - 1
	a, b := keys[i], keys[i+1]
	t := float64(frame-a.frame) / float64(b.frame-a.frame)
	return interp(a.value, b.value, t)
}

func quatToIR(q quat.Number) ir.Quat {
	return ir.Quat{q.Imag, q.Jmag, q.Kmag, q.Real}
}

func unquote(label string) string {
	if s, err := strconv.Unquote(label); err == nil {
		return s
	}
	return label
}

func optionalString(v cue.Value, name string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func requiredInt(v cue.Value, name, parent string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return 0, &CompileError{Field: parent + "." + name, Message: name + " is required", Pos: v.Pos()}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, &CompileError{Field: parent + "." + name, Message: "must be an integer", Pos: fv.Pos()}
	}
	return int(n), nil
}

func optionalFloats(v cue.Value, name string, n int, parent string) ([]float64, bool, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		return nil, false, nil
	}
	field := parent + "." + name
	iter, err := fv.List()
	if err != nil {
		return nil, false, &CompileError{Field: field, Message: fmt.Sprintf("must be a list of %d numbers", n), Pos: fv.Pos()}
	}
	var out []float64
	for iter.Next() {
		f, err := iter.Value().Float64()
		if err != nil {
			return nil, false, &CompileError{Field: field, Message: "components must be numbers", Pos: iter.Value().Pos()}
		}
		out = append(out, f)
	}
	if len(out) != n {
		return nil, false, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must have %d components, got %d", n, len(out)),
			Pos:     fv.Pos(),
		}
	}
	return out, true, nil
}

// optionalRotation reads a quaternion (x, y, z, w) field or an XYZ Euler
// field in degrees. Setting both is an error.
func optionalRotation(v cue.Value, quatField, eulerField, parent string) (*quat.Number, error) {
	q, hasQuat, err := optionalFloats(v, quatField, 4, parent)
	if err != nil {
		return nil, err
	}
	e, hasEuler, err := optionalFloats(v, eulerField, 3, parent)
	if err != nil {
		return nil, err
	}
	switch {
	case hasQuat && hasEuler:
		return nil, &CompileError{
			Field:   parent,
			Message: fmt.Sprintf("%s and %s are mutually exclusive", quatField, eulerField),
			Pos:     v.Pos(),
		}
	case hasQuat:
		n := quat.Number{Real: q[3], Imag: q[0], Jmag: q[1], Kmag: q[2]}
		if quat.Abs(n) == 0 {
			return nil, &CompileError{Field: parent + "." + quatField, Message: "zero quaternion", Pos: v.Pos()}
		}
		n = xform.Normalize(n)
		return &n, nil
	case hasEuler:
		n := xform.EulerXYZ(e[0], e[1], e[2])
		return &n, nil
	}
	return nil, nil
}

// IsValidationError reports whether err carries skeleton validation errors
// and returns them.
func IsValidationError(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
