package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/vecmath"
)

const (
	waypointProbeFactor    = 3
	waypointFallbackFactor = 2
)

// Selection is the outcome of choosing a new target.
type Selection struct {
	TargetHeading mgl64.Vec3
	Waypoint      mgl64.Vec3
	Timer         float64
	// Idle is set when the idle roll succeeded.
	Idle bool
}

// JitterDirection adds a forward-biased random offset to open and
// renormalizes. The offset is drawn per world axis within the jitter bounds,
// normalized and scaled by JitterScale.
func JitterDirection(open mgl64.Vec3, p Params, rnd Random) mgl64.Vec3 {
	jitter := mgl64.Vec3{
		rnd.Range(p.JitterMin.X(), p.JitterMax.X()),
		rnd.Range(p.JitterMin.Y(), p.JitterMax.Y()),
		rnd.Range(p.JitterMin.Z(), p.JitterMax.Z()),
	}
	dir := open
	if n, ok := vecmath.SafeNormalize(jitter); ok {
		dir = dir.Add(n.Mul(p.JitterScale))
	}
	if n, ok := vecmath.SafeNormalize(dir); ok {
		return n
	}
	return open
}

// WanderDirection perturbs open by a random point inside a sphere of radius
// JitterScale and renormalizes.
func WanderDirection(open mgl64.Vec3, p Params, rnd Random) mgl64.Vec3 {
	dir := open.Add(rnd.InsideUnitSphere().Mul(p.JitterScale))
	if n, ok := vecmath.SafeNormalize(dir); ok {
		return n
	}
	return open
}

// PlaceWaypoint casts a long probe along dir. On a hit the waypoint sits off
// the surface by MinDistanceToWall, otherwise a fixed distance ahead.
func PlaceWaypoint(caster physics.RayCaster, position, dir mgl64.Vec3, p Params) mgl64.Vec3 {
	if caster != nil {
		if hit, ok := caster.Raycast(position, dir, p.LookAheadDistance*waypointProbeFactor); ok {
			return hit.Point.Add(hit.Normal.Mul(p.MinDistanceToWall))
		}
	}
	return position.Add(dir.Mul(p.LookAheadDistance * waypointFallbackFactor))
}

// SelectTarget chooses a new target heading and waypoint for s and draws the
// next swim timer.
func SelectTarget(caster physics.RayCaster, s State, p Params, rnd Random) Selection {
	var sel Selection
	if p.IdleChance > 0 && rnd.Value() < p.IdleChance {
		sel.Idle = true
	}

	open := SampleDirection(caster, s.Position, s.Rotation, p)
	switch p.Mode {
	case ModeWander:
		sel.TargetHeading = WanderDirection(open, p, rnd)
		sel.Waypoint = s.Position.Add(sel.TargetHeading.Mul(p.LookAheadDistance * waypointFallbackFactor))
	default:
		dir := JitterDirection(open, p, rnd)
		sel.Waypoint = PlaceWaypoint(caster, s.Position, dir, p)
		if n, ok := vecmath.SafeNormalize(sel.Waypoint.Sub(s.Position)); ok {
			sel.TargetHeading = n
		} else {
			sel.TargetHeading = dir
		}
	}

	sel.Timer = rnd.Range(p.MinSwimTime, p.MaxSwimTime)
	return sel
}

// Seed builds the starting state of an agent placed at spawn: heading along
// the spawn forward, a wandering target and a first waypoint.
func Seed(caster physics.RayCaster, spawn physics.Transform, p Params, rnd Random) State {
	s := State{
		Position: spawn.Position,
		Rotation: spawn.Rotation,
		Heading:  spawn.Forward(),
	}
	open := SampleDirection(caster, s.Position, s.Rotation, p)
	s.TargetHeading = WanderDirection(open, p, rnd)

	switch p.Mode {
	case ModeWander:
		s.Waypoint = s.Position.Add(s.TargetHeading.Mul(p.LookAheadDistance * waypointFallbackFactor))
	default:
		s.Waypoint = PlaceWaypoint(caster, s.Position, JitterDirection(open, p, rnd), p)
	}
	s.Timer = rnd.Range(p.MinSwimTime, p.MaxSwimTime)
	return s
}
