package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// State is everything one fish mutates per tick. Heading and TargetHeading
// are unit vectors after every update.
type State struct {
	Position      mgl64.Vec3
	Rotation      mgl64.Quat
	Heading       mgl64.Vec3
	TargetHeading mgl64.Vec3
	Waypoint      mgl64.Vec3
	// Timer counts down to the next target selection.
	Timer     float64
	Idle      bool
	IdleTimer float64
	// Elapsed is the agent's age and drives the sine wobble.
	Elapsed float64
}

// Transform returns the placement of the agent.
func (s State) Transform() physics.Transform {
	return physics.Transform{Position: s.Position, Rotation: s.Rotation}
}

func (s State) Forward() mgl64.Vec3 { return vecmath.ForwardOf(s.Rotation) }

// DistanceToWaypoint is the straight-line distance to the current waypoint.
func (s State) DistanceToWaypoint() float64 {
	return s.Waypoint.Sub(s.Position).Len()
}
