package viewer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/world"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(w, h)
	return screen
}

func screenText(screen tcell.SimulationScreen) (string, []rune) {
	cells, width, _ := screen.GetContents()
	var b strings.Builder
	all := make([]rune, 0, len(cells))
	for i, c := range cells {
		r := ' '
		if len(c.Runes) > 0 {
			r = c.Runes[0]
		}
		all = append(all, r)
		b.WriteRune(r)
		if (i+1)%width == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String(), all
}

func tankFrame() world.Frame {
	return world.Frame{
		Tick:   3,
		Time:   0.05,
		Bounds: &world.Extent{Min: mgl64.Vec3{-10, -5, -20}, Max: mgl64.Vec3{10, 5, 20}},
		Obstacles: []world.Obstacle{
			{Kind: "box", Extent: world.Extent{Min: mgl64.Vec3{-9, -5, 10}, Max: mgl64.Vec3{-5, 0, 15}}},
		},
		Fish: []world.FishFrame{
			{ID: "a", School: "reef", Position: mgl64.Vec3{0, 0, 0}, Heading: mgl64.Vec3{1, 0, 0}, Waypoint: mgl64.Vec3{5, 0, 0}},
			{ID: "b", Position: mgl64.Vec3{0, 0, -10}, Heading: mgl64.Vec3{0, 0, 1}, Idle: true},
		},
		Submarines: []world.SubFrame{{ID: "sub", Position: mgl64.Vec3{8, 0, -18}}},
	}
}

func TestProjectUsesTank(t *testing.T) {
	p := Project(tankFrame(), 1, 2, 20, 40)

	x, y, ok := p.Cell(mgl64.Vec3{-10, 0, 20})
	require.True(t, ok)
	assert.Equal(t, [2]int{1, 2}, [2]int{x, y}, "far left corner is top left")

	x, y, ok = p.Cell(mgl64.Vec3{10, 3, -20})
	require.True(t, ok)
	assert.Equal(t, [2]int{20, 41}, [2]int{x, y})

	_, _, ok = p.Cell(mgl64.Vec3{11, 0, 0})
	assert.False(t, ok)
}

func TestProjectFitsOpenWater(t *testing.T) {
	frame := world.Frame{Fish: []world.FishFrame{
		{Position: mgl64.Vec3{-50, 0, 3}},
		{Position: mgl64.Vec3{40, 0, 90}},
	}}
	p := Project(frame, 0, 0, 30, 10)
	for _, f := range frame.Fish {
		_, _, ok := p.Cell(f.Position)
		assert.True(t, ok)
	}

	empty := Project(world.Frame{}, 0, 0, 10, 10)
	_, _, ok := empty.Cell(mgl64.Vec3{})
	assert.True(t, ok)
}

func TestHeadingGlyph(t *testing.T) {
	cases := map[rune]mgl64.Vec3{
		'↑': {0, 0, 1},
		'→': {1, 0, 0},
		'↓': {0, 0, -1},
		'←': {-1, 0, 0},
		'↗': {1, 0, 1},
		'↙': {-1, 0.5, -1},
		'•': {0, 1, 0},
	}
	for want, heading := range cases {
		assert.Equal(t, string(want), string(HeadingGlyph(heading)), "%v", heading)
	}
}

func TestQuits(t *testing.T) {
	assert.True(t, Quits(tcell.KeyEscape, 0))
	assert.True(t, Quits(tcell.KeyRune, 'q'))
	assert.True(t, Quits(tcell.KeyCtrlC, 0))
	assert.False(t, Quits(tcell.KeyRune, 'w'))
	assert.False(t, Quits(tcell.KeyEnter, 0))
}

func TestDrawRendersTheTank(t *testing.T) {
	screen := newScreen(t, 42, 24)
	defer screen.Fini()
	v := New(screen, nil)

	v.Draw(tankFrame())
	text, runes := screenText(screen)

	assert.Contains(t, text, "tick 3")
	assert.Contains(t, text, "fish 2")
	for _, want := range []rune{'┌', '┘', '#', '→', 'o', 'S', '·'} {
		assert.Contains(t, runes, want, "missing %q in\n%s", want, text)
	}

	v.ShowWaypoints = false
	v.Draw(tankFrame())
	_, runes = screenText(screen)
	assert.NotContains(t, runes, '·')
}

func TestDrawSurvivesTinyScreens(t *testing.T) {
	screen := newScreen(t, 3, 2)
	defer screen.Fini()
	New(screen, nil).Draw(tankFrame())
}

func TestOnEventKeepsNewestFrame(t *testing.T) {
	v := New(newScreen(t, 10, 10), nil)

	require.NoError(t, v.OnEvent(bus.NewEvent(world.EventFishSpawned, "world", 0, nil)))
	require.NoError(t, v.OnEvent(bus.NewEvent(world.EventTick, "world", 1, world.Frame{Tick: 1})))
	require.NoError(t, v.OnEvent(bus.NewEvent(world.EventTick, "world", 2, world.Frame{Tick: 2})))
	assert.Error(t, v.OnEvent(bus.NewEvent(world.EventTick, "world", 3, "not a frame")))

	require.Len(t, v.frames, 1)
	assert.Equal(t, uint64(2), (<-v.frames).Tick)
}

func TestRunDrawsUntilCancelled(t *testing.T) {
	screen := newScreen(t, 42, 24)
	v := New(screen, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	require.NoError(t, v.OnEvent(bus.NewEvent(world.EventTick, "world", 3, tankFrame())))
	require.Eventually(t, func() bool {
		text, _ := screenText(screen)
		return strings.Contains(text, "tick 3")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("viewer did not stop")
	}
}
