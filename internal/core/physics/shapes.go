package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/vecmath"
)

const axisEpsilon = 1e-12

// Shape is a solid obstacle rays can hit from outside.
type Shape interface {
	// Extent returns the axis-aligned bounds of the shape.
	Extent() (min, max mgl64.Vec3)
	// Intersect casts a ray with a unit direction. Rays that start inside
	// the shape do not hit it.
	Intersect(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool)
	Validate() error
}

// Sphere is a round obstacle such as a boulder.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (s Sphere) Extent() (mgl64.Vec3, mgl64.Vec3) {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return s.Center.Sub(r), s.Center.Add(r)
}

func (s Sphere) Validate() error {
	if !(s.Radius > 0) || !vecmath.IsFinite(s.Center) {
		return fmt.Errorf("%w: sphere at %v radius %v", ErrInvalidShape, s.Center, s.Radius)
	}
	return nil
}

func (s Sphere) Intersect(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool) {
	oc := origin.Sub(s.Center)
	c := oc.Dot(oc) - s.Radius*s.Radius
	if c <= 0 {
		return Hit{}, false
	}
	b := oc.Dot(dir)
	disc := b*b - c
	if disc < 0 {
		return Hit{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 || t > maxDistance {
		return Hit{}, false
	}
	p := origin.Add(dir.Mul(t))
	n, ok := vecmath.SafeNormalize(p.Sub(s.Center))
	if !ok {
		return Hit{}, false
	}
	return Hit{Distance: t, Point: p, Normal: n}, true
}

// Box is an axis-aligned solid block such as a rock shelf.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func (b Box) Extent() (mgl64.Vec3, mgl64.Vec3) { return b.Min, b.Max }

func (b Box) Validate() error {
	if !vecmath.IsFinite(b.Min) || !vecmath.IsFinite(b.Max) {
		return fmt.Errorf("%w: box %v..%v", ErrInvalidShape, b.Min, b.Max)
	}
	for i := 0; i < 3; i++ {
		if b.Min[i] >= b.Max[i] {
			return fmt.Errorf("%w: box %v..%v", ErrInvalidShape, b.Min, b.Max)
		}
	}
	return nil
}

// Contains reports whether p lies inside or on the box.
func (b Box) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b Box) Intersect(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool) {
	tEnter, tExit := math.Inf(-1), math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < axisEpsilon {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return Hit{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (b.Min[i] - origin[i]) * inv
		t2 := (b.Max[i] - origin[i]) * inv
		n := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			n = 1
		}
		if t1 > tEnter {
			tEnter, axis, sign = t1, i, n
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return Hit{}, false
		}
	}
	if axis < 0 || tEnter < 0 || tEnter > maxDistance {
		return Hit{}, false
	}
	var normal mgl64.Vec3
	normal[axis] = sign
	return Hit{Distance: tEnter, Point: origin.Add(dir.Mul(tEnter)), Normal: normal}, true
}

// Bounds is the hollow tank the agents swim in. Rays cast from inside hit
// its walls with normals pointing back into the tank.
type Bounds struct {
	Box
}

func (b Bounds) Intersect(origin, dir mgl64.Vec3, maxDistance float64) (Hit, bool) {
	if !b.Contains(origin) {
		return Hit{}, false
	}
	best := math.Inf(1)
	axis, sign := -1, 0.0
	for i := 0; i < 3; i++ {
		var t, n float64
		switch {
		case dir[i] > axisEpsilon:
			t, n = (b.Max[i]-origin[i])/dir[i], -1
		case dir[i] < -axisEpsilon:
			t, n = (b.Min[i]-origin[i])/dir[i], 1
		default:
			continue
		}
		if t < best {
			best, axis, sign = t, i, n
		}
	}
	if axis < 0 || best > maxDistance {
		return Hit{}, false
	}
	var normal mgl64.Vec3
	normal[axis] = sign
	return Hit{Distance: best, Point: origin.Add(dir.Mul(best)), Normal: normal}, true
}
