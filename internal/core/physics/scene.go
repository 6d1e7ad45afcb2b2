package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/vecmath"
)

const (
	treeMinChildren = 4
	treeMaxChildren = 16
	// broadphase boxes need a strictly positive extent on every axis
	rectPadding = 1e-3
)

var _ RayCaster = (*Scene)(nil)

// indexedShape wraps a Shape with the R-tree rectangle computed once at build time.
type indexedShape struct {
	shape Shape
	rect  rtreego.Rect
}

func (s *indexedShape) Bounds() rtreego.Rect { return s.rect }

// Scene is static cave geometry: an optional tank boundary plus solid
// obstacles indexed in an R-tree. It is read-only after construction and
// safe for concurrent ray queries.
type Scene struct {
	bounds *Bounds
	shapes []Shape
	tree   *rtreego.Rtree
}

// NewScene validates the geometry and builds the spatial index.
func NewScene(bounds *Bounds, shapes ...Shape) (*Scene, error) {
	var errs []error
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidBounds, err))
		}
	}

	spatials := make([]rtreego.Spatial, 0, len(shapes))
	for i, sh := range shapes {
		if sh == nil {
			errs = append(errs, fmt.Errorf("%w: obstacle %d is nil", ErrInvalidShape, i))
			continue
		}
		if err := sh.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("obstacle %d: %w", i, err))
			continue
		}
		min, max := sh.Extent()
		rect, err := rectFromExtent(min, max)
		if err != nil {
			errs = append(errs, fmt.Errorf("obstacle %d: %w", i, err))
			continue
		}
		spatials = append(spatials, &indexedShape{shape: sh, rect: rect})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Scene{
		bounds: bounds,
		shapes: shapes,
		tree:   rtreego.NewTree(3, treeMinChildren, treeMaxChildren, spatials...),
	}, nil
}

// Bounds returns the tank boundary, or nil for an open scene.
func (s *Scene) Bounds() *Bounds { return s.bounds }

// Shapes returns the obstacles in insertion order.
func (s *Scene) Shapes() []Shape {
	out := make([]Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

// Raycast returns the nearest surface along the ray within maxDistance.
func (s *Scene) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (Hit, bool) {
	dir, ok := vecmath.SafeNormalize(direction)
	if !ok || !(maxDistance > 0) || !vecmath.IsFinite(origin) {
		return Hit{}, false
	}

	best := Hit{Distance: math.Inf(1)}
	found := false

	if s.bounds != nil {
		if hit, ok := s.bounds.Intersect(origin, dir, maxDistance); ok {
			best, found = hit, true
		}
	}

	if s.tree.Size() == 0 {
		return best, found
	}

	query, err := rectFromExtent(componentMin(origin, origin.Add(dir.Mul(maxDistance))), componentMax(origin, origin.Add(dir.Mul(maxDistance))))
	if err != nil {
		return best, found
	}
	for _, candidate := range s.tree.SearchIntersect(query) {
		is, ok := candidate.(*indexedShape)
		if !ok {
			continue
		}
		hit, ok := is.shape.Intersect(origin, dir, maxDistance)
		if ok && hit.Distance < best.Distance {
			best, found = hit, true
		}
	}
	return best, found
}

func rectFromExtent(min, max mgl64.Vec3) (rtreego.Rect, error) {
	lengths := make([]float64, 3)
	point := rtreego.Point{min[0] - rectPadding, min[1] - rectPadding, min[2] - rectPadding}
	for i := 0; i < 3; i++ {
		lengths[i] = max[i] - min[i] + 2*rectPadding
	}
	return rtreego.NewRect(point, lengths)
}

func componentMin(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])}
}

func componentMax(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])}
}
