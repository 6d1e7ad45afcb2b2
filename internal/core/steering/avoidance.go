package steering

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// AvoidanceProbes is the fixed constellation cast every tick. Offsets are
// not normalized; the caster does that.
func AvoidanceProbes(rotation mgl64.Quat) []mgl64.Vec3 {
	forward := vecmath.ForwardOf(rotation)
	right := vecmath.RightOf(rotation)
	up := vecmath.UpOf(rotation)
	return []mgl64.Vec3{
		forward,
		forward.Add(right.Mul(0.5)),
		forward.Sub(right.Mul(0.5)),
		forward.Add(up.Mul(0.3)),
		forward.Sub(up.Mul(0.3)),
	}
}

// Repulsion is the weighted sum of hit normals from one round of probes.
type Repulsion struct {
	Sum       mgl64.Vec3
	WeightSum float64
	Hits      int
}

// Avoid casts the avoidance probes and accumulates each hit normal weighted
// by 1 - distance/lookAhead.
func Avoid(caster physics.RayCaster, position mgl64.Vec3, rotation mgl64.Quat, lookAhead float64) Repulsion {
	var r Repulsion
	if caster == nil || !(lookAhead > 0) {
		return r
	}
	for _, dir := range AvoidanceProbes(rotation) {
		hit, ok := caster.Raycast(position, dir, lookAhead)
		if !ok {
			continue
		}
		w := vecmath.Clamp01(1 - hit.Distance/lookAhead)
		r.Sum = r.Sum.Add(hit.Normal.Mul(w))
		r.WeightSum += w
		r.Hits++
	}
	return r
}

// BlendAvoidance lerps target toward the averaged repulsion by rate and
// renormalizes. target is returned untouched when there is nothing to blend
// or the result would be degenerate.
func BlendAvoidance(target mgl64.Vec3, r Repulsion, rate float64) mgl64.Vec3 {
	if !(r.WeightSum > 0) {
		return target
	}
	away, ok := vecmath.SafeNormalize(r.Sum.Mul(1 / r.WeightSum))
	if !ok {
		return target
	}
	blended, ok := vecmath.SafeNormalize(vecmath.Lerp(target, away, rate))
	if !ok {
		return target
	}
	return blended
}
