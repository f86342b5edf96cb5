package harness

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/rotbake/internal/engine"
	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/scene"
	"github.com/roach88/rotbake/internal/store"
	"github.com/roach88/rotbake/internal/xform"
)

// AssertionContext provides what assertions evaluate against.
type AssertionContext struct {
	Ctx    context.Context
	Store  *store.Store
	Object *scene.Object

	// Run is nil when the operator failed.
	Run      *engine.Result
	RunID    string
	Rotation float64

	// Tracks are the tracks archived on the run's output object.
	Tracks []ir.Track

	before sourceCopy
}

// EvaluateAssertions runs every assertion and returns the failures in
// assertion order.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []*AssertionError {
	var errs []*AssertionError
	for i, a := range assertions {
		if err := evaluateAssertion(a, actx); err != nil {
			errs = append(errs, &AssertionError{Index: i, Type: a.Type, Message: err.Error()})
		}
	}
	return errs
}

func evaluateAssertion(a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertWorldPosition:
		return assertWorldPosition(a, actx)
	case AssertLocalTranslation:
		return assertLocalTranslation(a, actx)
	case AssertFrameRange:
		return assertFrameRange(a, actx)
	case AssertTrackOrder:
		return assertTrackOrder(a, actx)
	case AssertNonDestructive:
		return assertNonDestructive(actx)
	case AssertWorldMatchesOriginal:
		return assertWorldMatchesOriginal(a, actx)
	case AssertRoundTrip:
		return assertRoundTrip(actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// animation returns the animation an assertion targets and its default
// placement.
func animation(a Assertion, actx *AssertionContext) (*ir.Animation, float64, error) {
	if a.Animation == AnimationOriginal {
		if actx.Object == nil || actx.Object.Action == nil {
			return nil, 0, fmt.Errorf("selected object has no action")
		}
		return actx.Object.Action, 0, nil
	}
	if actx.Run == nil {
		return nil, 0, errNoRun
	}
	return actx.Run.Rotated, actx.Rotation, nil
}

func tolerance(a Assertion) float64 {
	if a.Tolerance == 0 {
		return DefaultTolerance
	}
	return a.Tolerance
}

func expectVec(a Assertion) r3.Vec {
	return r3.Vec{X: a.Expect[0], Y: a.Expect[1], Z: a.Expect[2]}
}

func assertWorldPosition(a Assertion, actx *AssertionContext) error {
	anim, placement, err := animation(a, actx)
	if err != nil {
		return err
	}
	if a.Placement != nil {
		placement = *a.Placement
	}

	world, err := xform.WorldPose(xform.RotationZ(placement), actx.Object.Skeleton, anim.PoseAt(a.Frame))
	if err != nil {
		return err
	}
	w, ok := world[a.Bone]
	if !ok {
		return fmt.Errorf("unknown bone %q", a.Bone)
	}
	if want := expectVec(a); !xform.VecApproxEqual(w.T, want, tolerance(a)) {
		return fmt.Errorf("bone %q frame %d at %v°: expected %v, got %v", a.Bone, a.Frame, placement, want, w.T)
	}
	return nil
}

func assertLocalTranslation(a Assertion, actx *AssertionContext) error {
	anim, _, err := animation(a, actx)
	if err != nil {
		return err
	}
	local, ok := anim.PoseAt(a.Frame)[a.Bone]
	if !ok {
		return fmt.Errorf("unknown bone %q", a.Bone)
	}
	got := r3.Vec{X: local.Translation[0], Y: local.Translation[1], Z: local.Translation[2]}
	if want := expectVec(a); !xform.VecApproxEqual(got, want, tolerance(a)) {
		return fmt.Errorf("bone %q frame %d: expected %v, got %v", a.Bone, a.Frame, want, got)
	}
	return nil
}

func assertFrameRange(a Assertion, actx *AssertionContext) error {
	anim, _, err := animation(a, actx)
	if err != nil {
		return err
	}
	for _, e := range a.Expect {
		if e != math.Trunc(e) {
			return fmt.Errorf("expect must hold whole frames, got %v", a.Expect)
		}
	}
	want := []int{int(a.Expect[0]), int(a.Expect[1])}
	got := []int{anim.FrameStart, anim.FrameEnd}
	if !slices.Equal(want, got) {
		return fmt.Errorf("expected %v, got %v", want, got)
	}
	return nil
}

func assertTrackOrder(a Assertion, actx *AssertionContext) error {
	got := trackNames(actx.Tracks)
	if !slices.Equal(got, a.Tracks) {
		return fmt.Errorf("expected %v, got %v", a.Tracks, got)
	}
	return nil
}

func assertNonDestructive(actx *AssertionContext) error {
	after := copySource(actx.Object)
	if !reflect.DeepEqual(after.action, actx.before.action) {
		return fmt.Errorf("source action changed")
	}
	if !reflect.DeepEqual(after.skeleton, actx.before.skeleton) {
		return fmt.Errorf("source skeleton changed")
	}
	if actx.Run != nil && actx.Run.Original != actx.Object.Action {
		return fmt.Errorf("operator replaced the source action")
	}
	if len(actx.Tracks) > 0 {
		archived := actx.Tracks[0].Strip.Animation.Clone()
		if !reflect.DeepEqual(archived, actx.before.action) {
			return fmt.Errorf("archived original differs from the source action")
		}
	}
	return nil
}

func assertWorldMatchesOriginal(a Assertion, actx *AssertionContext) error {
	if actx.Run == nil {
		return errNoRun
	}
	theta := actx.Rotation
	if a.Theta != nil {
		theta = *a.Theta
	}
	skel := actx.Object.Skeleton
	original, rotated := actx.Run.Original, actx.Run.Rotated
	tol := tolerance(a)

	for f := rotated.FrameStart; f <= rotated.FrameEnd; f++ {
		want, err := xform.WorldPose(xform.Identity(), skel, original.PoseAt(f))
		if err != nil {
			return err
		}
		got, err := xform.WorldPose(xform.RotationZ(theta), skel, rotated.PoseAt(f))
		if err != nil {
			return err
		}
		for _, b := range skel.Bones {
			if !xform.ApproxEqual(want[b.Name], got[b.Name], tol) {
				return fmt.Errorf("bone %q frame %d at %v°: expected %v, got %v", b.Name, f, theta, want[b.Name], got[b.Name])
			}
		}
	}
	return nil
}

func assertRoundTrip(actx *AssertionContext) error {
	if actx.Run == nil {
		return errNoRun
	}
	states, err := actx.Store.RunStates(actx.Ctx, actx.Run.Output)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(states, func(s store.RunState) bool { return s.Run.ID == actx.RunID })
	if idx < 0 {
		return fmt.Errorf("run %s not archived", actx.RunID)
	}
	st := states[idx]
	if !st.Complete {
		return fmt.Errorf("run %s archived incompletely", actx.RunID)
	}

	if err := sameMotion("archived original", actx.Run.Original, st.Original.Strip.Animation); err != nil {
		return err
	}
	if err := sameMotion("archived rotation", actx.Run.Rotated, st.Rotated.Strip.Animation); err != nil {
		return err
	}

	again, err := engine.Rebake(actx.Ctx, st.Original.Strip.Animation, st.Skeleton, st.Run.Rotation, scene.Solver{})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	return sameMotion("replayed rotation", actx.Run.Rotated, again)
}

func sameMotion(what string, want, got *ir.Animation) error {
	wantID, err := ir.AnimationID(want)
	if err != nil {
		return err
	}
	gotID, err := ir.AnimationID(got)
	if err != nil {
		return err
	}
	if wantID != gotID {
		return fmt.Errorf("%s: content ID %s, expected %s", what, gotID[:12], wantID[:12])
	}
	return nil
}
