package steering

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// Integrate turns the heading toward the target, advances the position and
// eases the rotation toward the heading plus wobble. rnd is only consulted by
// the tilt wobble.
func Integrate(s State, p Params, dt float64, rnd Random) State {
	rate := p.TurnSpeed * dt

	heading := vecmath.Slerp(s.Heading, s.TargetHeading, rate)
	n, ok := vecmath.SafeNormalize(heading)
	if !ok {
		s.Heading = heading
		return s
	}
	s.Heading = n
	s.Position = s.Position.Add(s.Heading.Mul(p.SwimSpeed * dt))

	look := vecmath.LookRotation(s.Heading, vecmath.Up).Mul(wobble(s.Elapsed, p, rnd))
	s.Rotation = vecmath.QuatSlerp(s.Rotation, look, rate)
	return s
}

func wobble(elapsed float64, p Params, rnd Random) mgl64.Quat {
	switch p.Wobble {
	case WobbleSine:
		return vecmath.Euler(0, 0, math.Sin(elapsed*p.WobbleFrequency)*p.WobbleAmplitude)
	case WobbleTilt:
		if rnd == nil {
			return mgl64.QuatIdent()
		}
		a := p.WobbleAmplitude
		return vecmath.Euler(rnd.Range(-a, a), 0, rnd.Range(-a, a))
	default:
		return mgl64.QuatIdent()
	}
}
