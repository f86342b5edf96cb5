package testutil

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/rotbake/internal/ir"
	"github.com/roach88/rotbake/internal/xform"
)

// DefaultTolerance is the world-space agreement expected after a bake.
const DefaultTolerance = 1e-5

// World returns the world transforms of anim at frame, played on skel at a
// placement rotated placementDeg about Z.
func World(t testing.TB, skel *ir.Skeleton, anim *ir.Animation, placementDeg float64, frame int) map[string]xform.Rigid {
	t.Helper()
	world, err := xform.WorldPose(xform.RotationZ(placementDeg), skel, anim.PoseAt(frame))
	if err != nil {
		t.Fatalf("world pose at frame %d: %v", frame, err)
	}
	return world
}

// AssertSameMotion fails unless want (at wantDeg) and got (at gotDeg) put
// every bone at the same world transform on every frame in [from, to].
func AssertSameMotion(t testing.TB, skel *ir.Skeleton, want *ir.Animation, wantDeg float64, got *ir.Animation, gotDeg float64, from, to int, tol float64) {
	t.Helper()
	for f := from; f <= to; f++ {
		w := World(t, skel, want, wantDeg, f)
		g := World(t, skel, got, gotDeg, f)
		for _, b := range skel.Bones {
			if !xform.ApproxEqual(w[b.Name], g[b.Name], tol) {
				t.Errorf("frame %d bone %q: world %v, want %v", f, b.Name, g[b.Name], w[b.Name])
			}
		}
	}
}

// AssertVec fails unless got is within tol of want on every component.
func AssertVec(t testing.TB, want, got r3.Vec, tol float64, msgAndArgs ...any) {
	t.Helper()
	if !xform.VecApproxEqual(want, got, tol) {
		t.Errorf("vector %v, want %v %v", got, want, msgAndArgs)
	}
}
