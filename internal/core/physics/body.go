package physics

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/vecmath"
)

var _ ForceApplier = (*Body)(nil)

// DefaultGravity matches the engine the submarine was tuned in.
var DefaultGravity = mgl64.Vec3{0, -9.81, 0}

// Body is a minimal rigid body: linear motion under accumulated forces plus
// angular velocity treated with unit inertia per unit mass. It stands in for
// the host engine's integrator.
type Body struct {
	mu sync.RWMutex

	mass     float64
	position mgl64.Vec3
	rotation mgl64.Quat
	velocity mgl64.Vec3
	// radians per second
	angularVelocity mgl64.Vec3

	force  mgl64.Vec3
	torque mgl64.Vec3

	Gravity        mgl64.Vec3
	AngularDamping float64
	// MaxAngularSpeed caps the spin in radians per second; zero disables it.
	MaxAngularSpeed float64
}

// NewBody creates a body at the given placement.
func NewBody(mass float64, placement Transform) (*Body, error) {
	if !(mass > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMass, mass)
	}
	rot := placement.Rotation
	if rot.Len() == 0 {
		rot = mgl64.QuatIdent()
	}
	return &Body{
		mass:            mass,
		position:        placement.Position,
		rotation:        rot.Normalize(),
		Gravity:         DefaultGravity,
		AngularDamping:  0.05,
		MaxAngularSpeed: 7,
	}, nil
}

func (b *Body) Mass() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mass
}

func (b *Body) SetMass(mass float64) {
	if !(mass > 0) {
		return
	}
	b.mu.Lock()
	b.mass = mass
	b.mu.Unlock()
}

func (b *Body) Velocity() mgl64.Vec3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.velocity
}

func (b *Body) SetVelocity(v mgl64.Vec3) {
	b.mu.Lock()
	b.velocity = v
	b.mu.Unlock()
}

func (b *Body) AngularVelocity() mgl64.Vec3 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.angularVelocity
}

func (b *Body) AddForce(f mgl64.Vec3, mode ForceMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch mode {
	case ForceModeVelocityChange:
		b.velocity = b.velocity.Add(f)
	default:
		b.force = b.force.Add(f)
	}
}

func (b *Body) AddTorque(t mgl64.Vec3, mode ForceMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch mode {
	case ForceModeVelocityChange:
		b.angularVelocity = b.angularVelocity.Add(t)
	default:
		b.torque = b.torque.Add(t)
	}
}

// Transform returns the current placement.
func (b *Body) Transform() Transform {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Transform{Position: b.position, Rotation: b.rotation}
}

// SetRotation overrides the orientation, e.g. to strip pitch and roll.
func (b *Body) SetRotation(q mgl64.Quat) {
	b.mu.Lock()
	b.rotation = q
	b.mu.Unlock()
}

// SetPosition teleports the body.
func (b *Body) SetPosition(p mgl64.Vec3) {
	b.mu.Lock()
	b.position = p
	b.mu.Unlock()
}

// Integrate advances the body by dt seconds and clears accumulated forces.
func (b *Body) Integrate(dt float64) {
	if !(dt > 0) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	accel := b.force.Mul(1 / b.mass).Add(b.Gravity)
	b.velocity = b.velocity.Add(accel.Mul(dt))
	b.position = b.position.Add(b.velocity.Mul(dt))

	b.angularVelocity = b.angularVelocity.Add(b.torque.Mul(dt / b.mass))
	if limit := b.MaxAngularSpeed; limit > 0 {
		if speed := b.angularVelocity.Len(); speed > limit {
			b.angularVelocity = b.angularVelocity.Mul(limit / speed)
		}
	}
	if speed := b.angularVelocity.Len(); speed > 0 {
		step := vecmath.AngleAxis(mgl64.RadToDeg(speed*dt), b.angularVelocity)
		b.rotation = step.Mul(b.rotation).Normalize()
	}
	damping := 1 - b.AngularDamping*dt
	if damping < 0 {
		damping = 0
	}
	b.angularVelocity = b.angularVelocity.Mul(damping)

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}
