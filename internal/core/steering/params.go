package steering

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode selects how a new target is produced when the swim timer elapses.
type Mode string

const (
	// ModeWaypoint jitters the open direction and places a concrete waypoint
	// with a long probe ray.
	ModeWaypoint Mode = "waypoint"
	// ModeWander perturbs the open direction by a random point in a sphere.
	ModeWander Mode = "wander"
)

// Wobble selects the cosmetic oscillation composed onto the look rotation.
type Wobble string

const (
	WobbleSine Wobble = "sine"
	WobbleTilt Wobble = "tilt"
	WobbleNone Wobble = "none"
)

// Params are the per-agent tunables. Times are seconds, angles degrees.
type Params struct {
	SwimSpeed   float64
	TurnSpeed   float64
	MinSwimTime float64
	MaxSwimTime float64
	IdleTime    float64
	// IdleChance is the probability of pausing when a new target is chosen.
	IdleChance float64

	LookAheadDistance float64
	SideCastAngle     float64
	AvoidanceForce    float64
	MinDistanceToWall float64

	WaypointRadius float64
	// DepthVariation is carried for scene files but not read by the steering.
	DepthVariation float64

	// JitterMin and JitterMax bound the per-axis jitter in world axes.
	JitterMin   mgl64.Vec3
	JitterMax   mgl64.Vec3
	JitterScale float64

	WobbleAmplitude float64
	WobbleFrequency float64

	Mode   Mode
	Wobble Wobble
}

// DefaultParams returns the tuning of the cave fish.
func DefaultParams() Params {
	return Params{
		SwimSpeed:         3,
		TurnSpeed:         3,
		MinSwimTime:       1,
		MaxSwimTime:       4,
		IdleTime:          0.5,
		IdleChance:        0,
		LookAheadDistance: 3,
		SideCastAngle:     30,
		AvoidanceForce:    5,
		MinDistanceToWall: 0.5,
		WaypointRadius:    5,
		DepthVariation:    2,
		JitterMin:         mgl64.Vec3{-1, -0.5, -0.5},
		JitterMax:         mgl64.Vec3{1, 0.5, 1},
		JitterScale:       0.3,
		WobbleAmplitude:   5,
		WobbleFrequency:   2,
		Mode:              ModeWaypoint,
		Wobble:            WobbleSine,
	}
}

// Validate reports every out-of-range field at once.
func (p Params) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...))
		}
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

	check(finite(p.SwimSpeed) && p.SwimSpeed >= 0, "swim speed %v", p.SwimSpeed)
	check(finite(p.TurnSpeed) && p.TurnSpeed > 0, "turn speed %v", p.TurnSpeed)
	check(finite(p.MinSwimTime) && p.MinSwimTime >= 0, "min swim time %v", p.MinSwimTime)
	check(finite(p.MaxSwimTime) && p.MaxSwimTime >= p.MinSwimTime, "max swim time %v below min %v", p.MaxSwimTime, p.MinSwimTime)
	check(finite(p.IdleTime) && p.IdleTime >= 0, "idle time %v", p.IdleTime)
	check(p.IdleChance >= 0 && p.IdleChance <= 1, "idle chance %v", p.IdleChance)
	check(finite(p.LookAheadDistance) && p.LookAheadDistance > 0, "look ahead distance %v", p.LookAheadDistance)
	check(p.SideCastAngle >= 0 && p.SideCastAngle <= 180, "side cast angle %v", p.SideCastAngle)
	check(finite(p.AvoidanceForce) && p.AvoidanceForce >= 0, "avoidance force %v", p.AvoidanceForce)
	check(finite(p.MinDistanceToWall) && p.MinDistanceToWall >= 0, "min distance to wall %v", p.MinDistanceToWall)
	check(finite(p.WaypointRadius) && p.WaypointRadius >= 0, "waypoint radius %v", p.WaypointRadius)
	check(finite(p.JitterScale) && p.JitterScale >= 0, "jitter scale %v", p.JitterScale)
	for i := 0; i < 3; i++ {
		check(p.JitterMin[i] <= p.JitterMax[i], "jitter axis %d range %v..%v", i, p.JitterMin[i], p.JitterMax[i])
	}
	check(finite(p.WobbleAmplitude) && p.WobbleAmplitude >= 0, "wobble amplitude %v", p.WobbleAmplitude)
	check(finite(p.WobbleFrequency), "wobble frequency %v", p.WobbleFrequency)

	switch p.Mode {
	case ModeWaypoint, ModeWander:
	default:
		check(false, "unknown mode %q", p.Mode)
	}
	switch p.Wobble {
	case WobbleSine, WobbleTilt, WobbleNone:
	default:
		check(false, "unknown wobble %q", p.Wobble)
	}

	return errors.Join(errs...)
}
