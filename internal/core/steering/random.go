package steering

import (
	"math/rand/v2"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// Random is the source of uniform scalars and vectors the behaviours draw from.
type Random interface {
	// Range returns a value in [min, max]. When max <= min it returns min.
	Range(min, max float64) float64
	// Value returns a value in [0, 1).
	Value() float64
	// InsideUnitSphere returns a point uniformly distributed in the unit ball.
	InsideUnitSphere() mgl64.Vec3
}

type pcgRandom struct {
	r *rand.Rand
}

// NewRandom returns a deterministic source for the given seed. It is not safe
// for concurrent use; every agent owns its own.
func NewRandom(seed uint64) Random {
	return &pcgRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// SeedFor derives a stable seed for one agent of a scope, so a scene replays
// the same way regardless of spawn order.
func SeedFor(scope string, id string) uint64 {
	return xxhash.Sum64String(scope + "/" + id)
}

func (p *pcgRandom) Range(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + p.r.Float64()*(max-min)
}

func (p *pcgRandom) Value() float64 { return p.r.Float64() }

func (p *pcgRandom) InsideUnitSphere() mgl64.Vec3 {
	for {
		v := mgl64.Vec3{p.Range(-1, 1), p.Range(-1, 1), p.Range(-1, 1)}
		if v.Dot(v) <= 1 {
			return v
		}
	}
}
