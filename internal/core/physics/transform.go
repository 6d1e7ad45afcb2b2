package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// Transform is a placement in world space.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewTransform places an object at position facing yaw degrees about up.
func NewTransform(position mgl64.Vec3, yaw float64) Transform {
	return Transform{Position: position, Rotation: vecmath.Euler(0, yaw, 0)}
}

func (t Transform) Forward() mgl64.Vec3 { return vecmath.ForwardOf(t.Rotation) }
func (t Transform) Right() mgl64.Vec3   { return vecmath.RightOf(t.Rotation) }
func (t Transform) Up() mgl64.Vec3      { return vecmath.UpOf(t.Rotation) }

// TransformPoint maps a point from local space into world space.
func (t Transform) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Rotation.Rotate(local))
}

// Valid reports whether position and rotation are finite.
func (t Transform) Valid() bool {
	return vecmath.IsFinite(t.Position) && vecmath.IsFiniteQuat(t.Rotation)
}

// Distance computes the Euclidean distance between two transforms.
func Distance(a, b Transform) float64 {
	return a.Position.Sub(b.Position).Len()
}
