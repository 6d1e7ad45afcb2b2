package vecmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	assert.InDelta(t, 0, want.Sub(got).Len(), 1e-6, "want %v, got %v", want, got)
}

func TestSafeNormalize(t *testing.T) {
	v, ok := SafeNormalize(mgl64.Vec3{3, 0, 4})
	assert.True(t, ok)
	assertVec(t, mgl64.Vec3{0.6, 0, 0.8}, v)

	_, ok = SafeNormalize(mgl64.Vec3{})
	assert.False(t, ok)

	_, ok = SafeNormalize(mgl64.Vec3{math.NaN(), 0, 1})
	assert.False(t, ok)
}

func TestSlerpEndpointsAreExact(t *testing.T) {
	a := mgl64.Vec3{1, 0, 0}
	b := mgl64.Vec3{0, 1, 0}

	assert.Equal(t, b, Slerp(a, b, 1))
	assert.Equal(t, b, Slerp(a, b, 7.5))
	assert.Equal(t, a, Slerp(a, b, 0))
	assert.Equal(t, a, Slerp(a, b, -1))
}

func TestSlerpKeepsUnitLength(t *testing.T) {
	a := mgl64.Vec3{1, 0, 0}
	b := mgl64.Vec3{0, 0, 1}
	for _, step := range []float64{0.1, 0.25, 0.5, 0.9} {
		v := Slerp(a, b, step)
		assert.InDelta(t, 1, v.Len(), tol)
	}
	assertVec(t, mgl64.Vec3{math.Sqrt2 / 2, 0, math.Sqrt2 / 2}, Slerp(a, b, 0.5))
}

func TestSlerpOppositeVectors(t *testing.T) {
	a := mgl64.Vec3{0, 0, 1}
	b := mgl64.Vec3{0, 0, -1}
	v := Slerp(a, b, 0.5)
	assert.InDelta(t, 1, v.Len(), tol)
	assert.InDelta(t, 0, v.Dot(a), 1e-6)
}

func TestLookRotationMapsForward(t *testing.T) {
	dirs := []mgl64.Vec3{
		{0, 0, 1},
		{1, 0, 0},
		{0, 0, -1},
		{1, 1, 1},
		{0, 1, 0},
	}
	for _, d := range dirs {
		q := LookRotation(d, Up)
		want, _ := SafeNormalize(d)
		assertVec(t, want, ForwardOf(q))
	}

	q := LookRotation(mgl64.Vec3{1, 0, 0}, Up)
	assertVec(t, Up, UpOf(q))
	assertVec(t, mgl64.Vec3{0, 0, -1}, RightOf(q))
}

func TestAngleAxisTurnsForwardRight(t *testing.T) {
	got := AngleAxis(90, Up).Rotate(Forward)
	assertVec(t, Right, got)

	got = AngleAxis(45, mgl64.Vec3{}).Rotate(Forward)
	assertVec(t, Forward, got)
}

func TestEulerAndYaw(t *testing.T) {
	q := Euler(20, 135, 10)
	assert.InDelta(t, 135, Yaw(q), 1e-6)
	assert.InDelta(t, -90, Yaw(Euler(0, -90, 0)), 1e-6)
}

func TestQuatSlerpShortestPath(t *testing.T) {
	a := mgl64.QuatIdent()
	b := AngleAxis(90, Up).Scale(-1)
	mid := QuatSlerp(a, b, 0.5)
	assertVec(t, ForwardOf(AngleAxis(45, Up)), ForwardOf(mid))

	end := QuatSlerp(a, b, 1)
	assertVec(t, Right, ForwardOf(end))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(mgl64.Vec3{1, 2, 3}))
	assert.False(t, IsFinite(mgl64.Vec3{1, math.Inf(1), 3}))
	assert.True(t, IsFiniteQuat(mgl64.QuatIdent()))
	assert.False(t, IsFiniteQuat(mgl64.Quat{W: math.NaN()}))
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	angles := EulerAngles(Euler(20, 135, 10))
	assert.InDelta(t, 20, angles.X(), 1e-6)
	assert.InDelta(t, 135, angles.Y(), 1e-6)
	assert.InDelta(t, 10, angles.Z(), 1e-6)

	flat := EulerAngles(Euler(0, -45, 0))
	assert.InDelta(t, 0, flat.X(), 1e-9)
	assert.InDelta(t, -45, flat.Y(), 1e-6)
	assert.InDelta(t, 0, flat.Z(), 1e-9)
}
