package physics

// Narrow host capabilities the behaviours depend on. The steering and
// vehicle code only ever see these interfaces, so tests can script them.

import "github.com/go-gl/mathgl/mgl64"

// Hit is the nearest surface a probe ray touched.
type Hit struct {
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
}

// RayCaster answers bounded ray queries against scene geometry.
// Implementations normalize direction; a zero direction never hits.
type RayCaster interface {
	Raycast(origin, direction mgl64.Vec3, maxDistance float64) (Hit, bool)
}

// ForceMode selects how AddForce and AddTorque interpret their argument.
type ForceMode uint8

const (
	// ForceModeForce accumulates a continuous force scaled by mass and step.
	ForceModeForce ForceMode = iota
	// ForceModeVelocityChange applies an immediate change of velocity.
	ForceModeVelocityChange
)

// ForceApplier is the rigid-body surface a vehicle drives.
type ForceApplier interface {
	Mass() float64
	SetMass(mass float64)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	AddForce(f mgl64.Vec3, mode ForceMode)
	AddTorque(t mgl64.Vec3, mode ForceMode)
}
