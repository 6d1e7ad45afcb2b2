package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// ProbeDirections is the sampler scan order for a body with the given
// rotation: forward, then forward turned by +angle and -angle about the
// body's up axis, then by +angle and -angle about its right axis.
func ProbeDirections(rotation mgl64.Quat, angle float64) []mgl64.Vec3 {
	forward := vecmath.ForwardOf(rotation)
	up := vecmath.UpOf(rotation)
	right := vecmath.RightOf(rotation)
	return []mgl64.Vec3{
		forward,
		vecmath.AngleAxis(angle, up).Rotate(forward),
		vecmath.AngleAxis(-angle, up).Rotate(forward),
		vecmath.AngleAxis(angle, right).Rotate(forward),
		vecmath.AngleAxis(-angle, right).Rotate(forward),
	}
}

// PickDirection returns the first probe that is open within lookAhead, or
// the probe whose hit is farthest when every probe is blocked. Ties keep the
// earlier probe. A nil caster or empty probe set yields the first probe (or
// world forward).
func PickDirection(caster physics.RayCaster, origin mgl64.Vec3, probes []mgl64.Vec3, lookAhead float64) mgl64.Vec3 {
	if len(probes) == 0 {
		return vecmath.Forward
	}
	if caster == nil {
		return probes[0]
	}

	best, bestDistance := probes[0], 0.0
	for _, dir := range probes {
		hit, ok := caster.Raycast(origin, dir, lookAhead)
		if !ok || hit.Distance >= lookAhead {
			return dir
		}
		if hit.Distance > bestDistance {
			best, bestDistance = dir, hit.Distance
		}
	}
	return best
}

// SampleDirection picks the most open heading around the agent.
func SampleDirection(caster physics.RayCaster, position mgl64.Vec3, rotation mgl64.Quat, p Params) mgl64.Vec3 {
	return PickDirection(caster, position, ProbeDirections(rotation, p.SideCastAngle), p.LookAheadDistance)
}
