// Package vecmath holds the 3D helpers the steering and vehicle code shares.
//
// Conventions follow the engine the behaviours were tuned in: +Z is forward,
// +Y is up, +X is right, and Euler angles are in degrees applied Z, X, then Y.
package vecmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	normalizeEpsilon = 1e-9
	parallelEpsilon  = 1e-9
)

var (
	Zero    = mgl64.Vec3{0, 0, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Up      = mgl64.Vec3{0, 1, 0}
	Right   = mgl64.Vec3{1, 0, 0}
)

// Clamp01 clamps t to [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// SafeNormalize returns the unit vector along v, or false when v is too short
// (or not finite) to have a direction.
func SafeNormalize(v mgl64.Vec3) (mgl64.Vec3, bool) {
	l := v.Len()
	if l < normalizeEpsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}, false
	}
	if l == 1 {
		return v, true
	}
	return v.Mul(1 / l), true
}

// Lerp interpolates linearly from a to b with t clamped to [0, 1].
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = Clamp01(t)
	return a.Add(b.Sub(a).Mul(t))
}

// LerpScalar interpolates linearly from a to b with t clamped to [0, 1].
func LerpScalar(a, b, t float64) float64 {
	t = Clamp01(t)
	return a + (b-a)*t
}

// Slerp rotates a toward b by the fraction t of the angle between them and
// interpolates the magnitude linearly. t is clamped; at the ends a or b is
// returned unchanged.
func Slerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = Clamp01(t)
	if t == 0 {
		return a
	}
	if t == 1 {
		return b
	}

	na, okA := SafeNormalize(a)
	nb, okB := SafeNormalize(b)
	if !okA || !okB {
		return Lerp(a, b, t)
	}
	length := LerpScalar(a.Len(), b.Len(), t)

	dot := mgl64.Clamp(na.Dot(nb), -1, 1)
	if dot > 1-parallelEpsilon {
		dir, ok := SafeNormalize(Lerp(na, nb, t))
		if !ok {
			return Lerp(a, b, t)
		}
		return dir.Mul(length)
	}

	var rel mgl64.Vec3
	if dot < -1+parallelEpsilon {
		rel = Perpendicular(na)
	} else {
		rel, _ = SafeNormalize(nb.Sub(na.Mul(dot)))
	}

	theta := math.Acos(dot) * t
	dir := na.Mul(math.Cos(theta)).Add(rel.Mul(math.Sin(theta)))
	return dir.Mul(length)
}

// Perpendicular returns some unit vector orthogonal to v.
func Perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	p, ok := SafeNormalize(v.Cross(Up))
	if ok {
		return p
	}
	p, _ = SafeNormalize(v.Cross(Right))
	return p
}

// AngleAxis is a rotation of deg degrees about axis. A zero axis yields the
// identity.
func AngleAxis(deg float64, axis mgl64.Vec3) mgl64.Quat {
	n, ok := SafeNormalize(axis)
	if !ok {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(mgl64.DegToRad(deg), n)
}

// Euler builds a rotation from angles in degrees, applied about Z, then X,
// then Y.
func Euler(x, y, z float64) mgl64.Quat {
	qx := AngleAxis(x, Right)
	qy := AngleAxis(y, Up)
	qz := AngleAxis(z, Forward)
	return qy.Mul(qx).Mul(qz)
}

// Yaw returns the heading angle of q about the up axis, in degrees.
func Yaw(q mgl64.Quat) float64 {
	f := q.Rotate(Forward)
	if math.Abs(f.X()) < normalizeEpsilon && math.Abs(f.Z()) < normalizeEpsilon {
		return 0
	}
	return mgl64.RadToDeg(math.Atan2(f.X(), f.Z()))
}

// EulerAngles decomposes q into the degrees Euler would take to rebuild it:
// pitch about X, yaw about Y and roll about Z.
func EulerAngles(q mgl64.Quat) mgl64.Vec3 {
	f := q.Rotate(Forward)
	r := q.Rotate(Right)
	u := q.Rotate(Up)
	pitch := math.Asin(mgl64.Clamp(-f.Y(), -1, 1))
	return mgl64.Vec3{
		mgl64.RadToDeg(pitch),
		Yaw(q),
		mgl64.RadToDeg(math.Atan2(r.Y(), u.Y())),
	}
}

// LookRotation returns the rotation whose forward axis is forward and whose
// up axis is as close to up as possible.
func LookRotation(forward, up mgl64.Vec3) mgl64.Quat {
	f, ok := SafeNormalize(forward)
	if !ok {
		return mgl64.QuatIdent()
	}
	r, ok := SafeNormalize(up.Cross(f))
	if !ok {
		return mgl64.QuatBetweenVectors(Forward, f)
	}
	u := f.Cross(r)
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(r, u, f).Mat4()).Normalize()
}

// QuatSlerp interpolates rotations along the shortest arc with t clamped.
func QuatSlerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	t = Clamp01(t)
	if t == 0 {
		return a
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	if t == 1 {
		return b.Normalize()
	}
	return mgl64.QuatSlerp(a, b, t).Normalize()
}

func ForwardOf(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(Forward) }
func RightOf(q mgl64.Quat) mgl64.Vec3   { return q.Rotate(Right) }
func UpOf(q mgl64.Quat) mgl64.Vec3      { return q.Rotate(Up) }

// IsFinite reports whether every component of v is a real number.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// IsFiniteQuat reports whether every component of q is a real number.
func IsFiniteQuat(q mgl64.Quat) bool {
	if math.IsNaN(q.W) || math.IsInf(q.W, 0) {
		return false
	}
	return IsFinite(q.V)
}
