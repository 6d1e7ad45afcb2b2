package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/steering"
	"github.com/zeusync/cavefish/internal/core/vecmath"
	"github.com/zeusync/cavefish/internal/core/vehicle"
)

// Frame is a serializable snapshot of the world after a tick.
type Frame struct {
	Tick       uint64      `json:"tick"`
	Time       float64     `json:"time"`
	Bounds     *Extent     `json:"bounds,omitempty"`
	Obstacles  []Obstacle  `json:"obstacles,omitempty"`
	Fish       []FishFrame `json:"fish"`
	Submarines []SubFrame  `json:"submarines"`
}

// Extent is an axis-aligned box.
type Extent struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

type Obstacle struct {
	Kind string `json:"kind"`
	Extent
}

type FishFrame struct {
	ID       string     `json:"id"`
	School   string     `json:"school,omitempty"`
	Position mgl64.Vec3 `json:"position"`
	Heading  mgl64.Vec3 `json:"heading"`
	Waypoint mgl64.Vec3 `json:"waypoint"`
	Yaw      float64    `json:"yaw"`
	Timer    float64    `json:"timer"`
	Idle     bool       `json:"idle,omitempty"`
}

type SubFrame struct {
	ID        string            `json:"id"`
	Position  mgl64.Vec3        `json:"position"`
	Velocity  mgl64.Vec3        `json:"velocity"`
	Yaw       float64           `json:"yaw"`
	Telemetry vehicle.Telemetry `json:"telemetry"`
}

func fishFrame(id, school string, s steering.State) FishFrame {
	return FishFrame{
		ID:       id,
		School:   school,
		Position: s.Position,
		Heading:  s.Heading,
		Waypoint: s.Waypoint,
		Yaw:      vecmath.Yaw(s.Rotation),
		Timer:    s.Timer,
		Idle:     s.Idle,
	}
}

func subFrame(sub *Submarine) SubFrame {
	tr := sub.Body.Transform()
	return SubFrame{
		ID:        sub.ID,
		Position:  tr.Position,
		Velocity:  sub.Body.Velocity(),
		Yaw:       vecmath.Yaw(tr.Rotation),
		Telemetry: sub.Controller.Telemetry(),
	}
}

func sceneLayout(scene *physics.Scene) (*Extent, []Obstacle) {
	var bounds *Extent
	if b := scene.Bounds(); b != nil {
		bounds = &Extent{Min: b.Min, Max: b.Max}
	}
	shapes := scene.Shapes()
	obstacles := make([]Obstacle, 0, len(shapes))
	for _, sh := range shapes {
		kind := "shape"
		switch sh.(type) {
		case physics.Sphere:
			kind = "sphere"
		case physics.Box:
			kind = "box"
		}
		lo, hi := sh.Extent()
		obstacles = append(obstacles, Obstacle{Kind: kind, Extent: Extent{Min: lo, Max: hi}})
	}
	return bounds, obstacles
}
