// Package xform implements rigid transform algebra for skeleton poses.
//
// A Rigid is a rotation followed by a translation. Composition follows the
// matrix convention: Compose(a, b) applies b first, then a, so a world
// transform is built as Compose(parentWorld, Compose(rest, pose)).
//
// Vector and quaternion arithmetic is delegated to gonum's spatial/r3 and
// num/quat packages. Rotations are unit quaternions; callers that build
// quaternions by hand should pass them through Normalize.
package xform

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/roach88/rotbake/internal/ir"
)

// Rigid is a rigid transform over gonum types.
type Rigid struct {
	T r3.Vec
	R quat.Number
}

// Identity returns the identity transform.
func Identity() Rigid {
	return Rigid{R: quat.Number{Real: 1}}
}

// FromIR converts an ir.Transform. The rotation is normalised; a zero
// quaternion becomes the identity.
func FromIR(t ir.Transform) Rigid {
	return Rigid{
		T: r3.Vec{X: t.Translation[0], Y: t.Translation[1], Z: t.Translation[2]},
		R: Normalize(quat.Number{
			Real: t.Rotation[3],
			Imag: t.Rotation[0],
			Jmag: t.Rotation[1],
			Kmag: t.Rotation[2],
		}),
	}
}

// ToIR converts back to an ir.Transform.
func ToIR(r Rigid) ir.Transform {
	return ir.Transform{
		Translation: ir.Vec3{r.T.X, r.T.Y, r.T.Z},
		Rotation:    ir.Quat{r.R.Imag, r.R.Jmag, r.R.Kmag, r.R.Real},
	}
}

// Compose returns a·b: b is applied first, then a.
func Compose(a, b Rigid) Rigid {
	return Rigid{
		T: r3.Add(a.T, Rotate(a.R, b.T)),
		R: Normalize(quat.Mul(a.R, b.R)),
	}
}

// Chain composes transforms left to right: Chain(a, b, c) = a·b·c.
func Chain(ts ...Rigid) Rigid {
	out := Identity()
	for _, t := range ts {
		out = Compose(out, t)
	}
	return out
}

// Inverse returns the transform that undoes t.
func Inverse(t Rigid) Rigid {
	inv := quat.Conj(t.R)
	return Rigid{
		T: r3.Scale(-1, Rotate(inv, t.T)),
		R: inv,
	}
}

// Apply transforms a point.
func Apply(t Rigid, v r3.Vec) r3.Vec {
	return r3.Add(t.T, Rotate(t.R, v))
}

// Rotate rotates v by the unit quaternion q.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	return r3.Rotation(q).Rotate(v)
}

// RotationZ returns a pure rotation of deg degrees about the vertical Z axis.
// Positive angles are counter-clockwise seen from +Z.
func RotationZ(deg float64) Rigid {
	return RotationAxis(deg, r3.Vec{Z: 1})
}

// RotationAxis returns a pure rotation of deg degrees about axis.
func RotationAxis(deg float64, axis r3.Vec) Rigid {
	rot := r3.NewRotation(deg*math.Pi/180, axis)
	return Rigid{R: quat.Number(rot)}
}

// EulerXYZ converts XYZ Euler angles in degrees to a rotation: X is applied
// first, then Y, then Z.
func EulerXYZ(x, y, z float64) quat.Number {
	qx := RotationAxis(x, r3.Vec{X: 1}).R
	qy := RotationAxis(y, r3.Vec{Y: 1}).R
	qz := RotationAxis(z, r3.Vec{Z: 1}).R
	return Normalize(quat.Mul(qz, quat.Mul(qy, qx)))
}

// Normalize scales q to unit length. The zero quaternion maps to identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// Canonical picks the sign of q with a non-negative real part. When the
// real part is zero the first non-zero imaginary component is made positive.
func Canonical(q quat.Number) quat.Number {
	for _, c := range [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag} {
		if c > 0 {
			return q
		}
		if c < 0 {
			return quat.Scale(-1, q)
		}
	}
	return q
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Slerp interpolates along the shortest arc between unit quaternions a and b.
func Slerp(a, b quat.Number, t float64) quat.Number {
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	// Nearly parallel: fall back to normalised lerp.
	if dot > 0.9995 {
		return Normalize(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(dot)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return Normalize(quat.Add(quat.Scale(wa, a), quat.Scale(wb, b)))
}

// ApproxEqual reports whether a and b agree within tol on every translation
// component and every rotation component, treating q and -q as equal.
func ApproxEqual(a, b Rigid, tol float64) bool {
	if !VecApproxEqual(a.T, b.T, tol) {
		return false
	}
	return QuatApproxEqual(a.R, b.R, tol)
}

// VecApproxEqual compares vectors componentwise.
func VecApproxEqual(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// QuatApproxEqual compares rotations up to quaternion sign.
func QuatApproxEqual(a, b quat.Number, tol float64) bool {
	a, b = Canonical(a), Canonical(b)
	if quatClose(a, b, tol) {
		return true
	}
	// Canonical can disagree when the real part is within noise of zero.
	return quatClose(a, quat.Scale(-1, b), tol)
}

func quatClose(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) <= tol &&
		math.Abs(a.Imag-b.Imag) <= tol &&
		math.Abs(a.Jmag-b.Jmag) <= tol &&
		math.Abs(a.Kmag-b.Kmag) <= tol
}
