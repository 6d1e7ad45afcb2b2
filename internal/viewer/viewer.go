// Package viewer draws a top-down view of the world in the terminal.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/world"
)

// ErrQuit is returned from Run when the user closes the view.
var ErrQuit = errors.New("viewer closed")

var (
	styleDefault   = tcell.StyleDefault
	styleStatus    = tcell.StyleDefault.Reverse(true)
	styleWall      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleObstacle  = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleWaypoint  = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	styleSubmarine = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleIdle      = tcell.StyleDefault.Foreground(tcell.ColorSilver)

	schoolColors = []tcell.Color{
		tcell.ColorGreen, tcell.ColorAqua, tcell.ColorFuchsia,
		tcell.ColorLime, tcell.ColorOrange, tcell.ColorTeal,
	}
)

type Viewer struct {
	screen tcell.Screen
	frames chan world.Frame
	logger log.Log

	// ShowWaypoints draws each fish's current waypoint.
	ShowWaypoints bool
}

func New(screen tcell.Screen, logger log.Log) *Viewer {
	if logger == nil {
		logger = log.Nop()
	}
	return &Viewer{
		screen:        screen,
		frames:        make(chan world.Frame, 1),
		logger:        logger.With(log.String("component", "viewer")),
		ShowWaypoints: true,
	}
}

// OnEvent keeps the newest frame from world.tick events, replacing one the
// viewer has not drawn yet.
func (v *Viewer) OnEvent(e bus.Event) error {
	if e.Type != world.EventTick {
		return nil
	}
	frame, ok := e.Data.(world.Frame)
	if !ok {
		return fmt.Errorf("viewer: unexpected %T in %s", e.Data, e.Type)
	}
	for {
		select {
		case v.frames <- frame:
			return nil
		default:
		}
		select {
		case <-v.frames:
		default:
		}
	}
}

// Run redraws on every new frame until ctx is done or the user quits with q
// or Esc. The screen must already be initialised; Run finalises it.
func (v *Viewer) Run(ctx context.Context) error {
	defer v.screen.Fini()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	var last world.Frame
	v.Draw(last)
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-v.frames:
			last = frame
			v.Draw(last)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if Quits(ev.Key(), ev.Rune()) {
					v.logger.Info("viewer closed by user")
					return ErrQuit
				}
			case *tcell.EventResize:
				v.screen.Sync()
				v.Draw(last)
			}
		}
	}
}

// Quits reports whether a key closes the viewer.
func Quits(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return r == 'q' || r == 'Q'
	}
	return false
}

// Draw renders one frame: a status line, then the tank seen from above.
func (v *Viewer) Draw(frame world.Frame) {
	s := v.screen
	s.Clear()
	width, height := s.Size()
	if width < 4 || height < 4 {
		s.Show()
		return
	}

	status := fmt.Sprintf(" tick %d  t=%.1fs  fish %d  subs %d  q quits", frame.Tick, frame.Time, len(frame.Fish), len(frame.Submarines))
	v.text(0, 0, width, status, styleStatus)

	// one cell of border on each side of the play area
	proj := Project(frame, 1, 2, width-2, height-3)
	v.border(0, 1, width-1, height-1, styleWall)

	for _, o := range frame.Obstacles {
		v.fill(proj, o.Min, o.Max, '#', styleObstacle)
	}
	if v.ShowWaypoints {
		for _, f := range frame.Fish {
			if x, y, ok := proj.Cell(f.Waypoint); ok {
				s.SetContent(x, y, '·', nil, styleWaypoint)
			}
		}
	}
	for _, f := range frame.Fish {
		x, y, ok := proj.Cell(f.Position)
		if !ok {
			continue
		}
		glyph, style := HeadingGlyph(f.Heading), schoolStyle(f.School)
		if f.Idle {
			glyph, style = 'o', styleIdle
		}
		s.SetContent(x, y, glyph, nil, style)
	}
	for _, sub := range frame.Submarines {
		if x, y, ok := proj.Cell(sub.Position); ok {
			s.SetContent(x, y, 'S', nil, styleSubmarine)
		}
	}
	s.Show()
}

func (v *Viewer) text(x, y, width int, str string, style tcell.Style) {
	for i := 0; i < width; i++ {
		v.screen.SetContent(x+i, y, ' ', nil, style)
	}
	for i, r := range []rune(str) {
		if i >= width {
			break
		}
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (v *Viewer) border(x0, y0, x1, y1 int, style tcell.Style) {
	for x := x0 + 1; x < x1; x++ {
		v.screen.SetContent(x, y0, '─', nil, style)
		v.screen.SetContent(x, y1, '─', nil, style)
	}
	for y := y0 + 1; y < y1; y++ {
		v.screen.SetContent(x0, y, '│', nil, style)
		v.screen.SetContent(x1, y, '│', nil, style)
	}
	v.screen.SetContent(x0, y0, '┌', nil, style)
	v.screen.SetContent(x1, y0, '┐', nil, style)
	v.screen.SetContent(x0, y1, '└', nil, style)
	v.screen.SetContent(x1, y1, '┘', nil, style)
}

// fill shades the cells covered by the x/z footprint of an obstacle.
func (v *Viewer) fill(p Projection, lo, hi mgl64.Vec3, r rune, style tcell.Style) {
	x0, y0, ok0 := p.Cell(p.clamp(lo.X(), hi.Z()))
	x1, y1, ok1 := p.Cell(p.clamp(hi.X(), lo.Z()))
	if !ok0 || !ok1 {
		return
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			v.screen.SetContent(x, y, r, nil, style)
		}
	}
}

func schoolStyle(school string) tcell.Style {
	if school == "" {
		return styleDefault
	}
	c := schoolColors[xxhash.Sum64String(school)%uint64(len(schoolColors))]
	return tcell.StyleDefault.Foreground(c)
}
