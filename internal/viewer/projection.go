package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/world"
)

// Projection maps the tank's x/z plane onto terminal cells, +Z pointing up
// the screen.
type Projection struct {
	Min, Max      mgl64.Vec2
	Left, Top     int
	Width, Height int
}

// Project fits frame into a width x height area starting at (left, top). The
// tank is used when present, otherwise the extent of everything drawn.
func Project(frame world.Frame, left, top, width, height int) Projection {
	p := Projection{Left: left, Top: top, Width: max(width, 1), Height: max(height, 1)}
	if frame.Bounds != nil {
		p.Min = mgl64.Vec2{frame.Bounds.Min.X(), frame.Bounds.Min.Z()}
		p.Max = mgl64.Vec2{frame.Bounds.Max.X(), frame.Bounds.Max.Z()}
		return p
	}

	p.Min = mgl64.Vec2{math.Inf(1), math.Inf(1)}
	p.Max = mgl64.Vec2{math.Inf(-1), math.Inf(-1)}
	grow := func(v mgl64.Vec3) {
		p.Min = mgl64.Vec2{math.Min(p.Min.X(), v.X()), math.Min(p.Min.Y(), v.Z())}
		p.Max = mgl64.Vec2{math.Max(p.Max.X(), v.X()), math.Max(p.Max.Y(), v.Z())}
	}
	for _, o := range frame.Obstacles {
		grow(o.Min)
		grow(o.Max)
	}
	for _, f := range frame.Fish {
		grow(f.Position)
	}
	for _, s := range frame.Submarines {
		grow(s.Position)
	}
	if math.IsInf(p.Min.X(), 1) {
		p.Min, p.Max = mgl64.Vec2{-1, -1}, mgl64.Vec2{1, 1}
	}
	// pad so nothing sits on the border
	pad := math.Max(1, 0.05*math.Max(p.Max.X()-p.Min.X(), p.Max.Y()-p.Min.Y()))
	p.Min = p.Min.Sub(mgl64.Vec2{pad, pad})
	p.Max = p.Max.Add(mgl64.Vec2{pad, pad})
	return p
}

// Cell returns the terminal cell for a world position and whether it falls
// inside the projected area.
func (p Projection) Cell(pos mgl64.Vec3) (int, int, bool) {
	spanX := p.Max.X() - p.Min.X()
	spanZ := p.Max.Y() - p.Min.Y()
	if !(spanX > 0) || !(spanZ > 0) {
		return 0, 0, false
	}
	u := (pos.X() - p.Min.X()) / spanX
	v := (pos.Z() - p.Min.Y()) / spanZ
	if u < 0 || u > 1 || v < 0 || v > 1 || math.IsNaN(u) || math.IsNaN(v) {
		return 0, 0, false
	}
	col := int(math.Min(u*float64(p.Width), float64(p.Width-1)))
	row := int(math.Min((1-v)*float64(p.Height), float64(p.Height-1)))
	return p.Left + col, p.Top + row, true
}

func (p Projection) clamp(x, z float64) mgl64.Vec3 {
	return mgl64.Vec3{mgl64.Clamp(x, p.Min.X(), p.Max.X()), 0, mgl64.Clamp(z, p.Min.Y(), p.Max.Y())}
}

var arrows = [8]rune{'↑', '↗', '→', '↘', '↓', '↙', '←', '↖'}

// HeadingGlyph picks the arrow closest to the heading's x/z direction.
func HeadingGlyph(heading mgl64.Vec3) rune {
	if math.Abs(heading.X()) < 1e-9 && math.Abs(heading.Z()) < 1e-9 {
		return '•'
	}
	angle := math.Atan2(heading.X(), heading.Z())
	sector := int(math.Round(angle/(math.Pi/4))) % 8
	if sector < 0 {
		sector += 8
	}
	return arrows[sector]
}
