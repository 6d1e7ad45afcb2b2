package config

import (
	"fmt"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/steering"
	"github.com/zeusync/cavefish/internal/core/vehicle"
	"github.com/zeusync/cavefish/internal/core/world"
)

func (f File) WorldConfig() world.Config {
	return world.Config{
		FixedStep:    f.World.FixedStep,
		FrameStep:    f.World.FrameStep,
		MaxFrameTime: f.World.MaxFrameTime,
		Duration:     f.World.Duration,
		Seed:         f.World.Seed,
		Workers:      f.World.Workers,
	}
}

// Scene builds the static geometry.
func (f File) Scene() (*physics.Scene, error) {
	var bounds *physics.Bounds
	if f.Tank != nil {
		b := f.Tank.bounds()
		bounds = &b
	}
	shapes := make([]physics.Shape, 0, len(f.Obstacles))
	for i, o := range f.Obstacles {
		sh, err := o.shape()
		if err != nil {
			return nil, fmt.Errorf("obstacle %d: %w", i, err)
		}
		shapes = append(shapes, sh)
	}
	return physics.NewScene(bounds, shapes...)
}

func (t Tank) bounds() physics.Bounds {
	return physics.Bounds{Box: physics.Box{Min: t.Min.Vec(), Max: t.Max.Vec()}}
}

func (o Obstacle) shape() (physics.Shape, error) {
	switch o.Kind {
	case "sphere":
		return physics.Sphere{Center: o.Center.Vec(), Radius: o.Radius}, nil
	case "box":
		return physics.Box{Min: o.Min.Vec(), Max: o.Max.Vec()}, nil
	default:
		return nil, fmt.Errorf("%w: kind %q", physics.ErrInvalidShape, o.Kind)
	}
}

// Params converts and validates the tuning.
func (t FishTuning) Params() (steering.Params, error) {
	p := steering.Params{
		SwimSpeed:         t.SwimSpeed,
		TurnSpeed:         t.TurnSpeed,
		MinSwimTime:       t.MinSwimTime,
		MaxSwimTime:       t.MaxSwimTime,
		IdleTime:          t.IdleTime,
		IdleChance:        t.IdleChance,
		LookAheadDistance: t.LookAheadDistance,
		SideCastAngle:     t.SideCastAngle,
		AvoidanceForce:    t.AvoidanceForce,
		MinDistanceToWall: t.MinDistanceToWall,
		WaypointRadius:    t.WaypointRadius,
		DepthVariation:    t.DepthVariation,
		JitterMin:         t.JitterMin.Vec(),
		JitterMax:         t.JitterMax.Vec(),
		JitterScale:       t.JitterScale,
		WobbleAmplitude:   t.WobbleAmplitude,
		WobbleFrequency:   t.WobbleFrequency,
		Mode:              steering.Mode(t.Mode),
		Wobble:            steering.Wobble(t.Wobble),
	}
	if err := p.Validate(); err != nil {
		return steering.Params{}, err
	}
	return p, nil
}

func (t SubTuning) Params() vehicle.Params {
	return vehicle.Params{
		MaxSpeed:               t.MaxSpeed,
		TurnRate:               t.TurnRate,
		Acceleration:           t.Acceleration,
		Deceleration:           t.Deceleration,
		BaseBuoyancy:           t.BaseBuoyancy,
		AscendForce:            t.AscendForce,
		DescendForce:           t.DescendForce,
		BuoyancyChangeSpeed:    t.BuoyancyChangeSpeed,
		Mass:                   t.Mass,
		InputThreshold:         t.InputThreshold,
		VRMode:                 t.VRMode,
		SimulateVR:             t.SimulateVR,
		LookSensitivity:        t.LookSensitivity,
		MaxLookAngle:           t.MaxLookAngle,
		VRCameraLocalOffset:    t.VRCameraLocalOffset.Vec(),
		UseEditorOffset:        t.UseEditorOffset,
		MaintainEditorPosition: t.MaintainEditorPosition,
		ManualCameraOffset:     t.ManualCameraOffset.Vec(),
		DriftTolerance:         t.DriftTolerance,
		DeferCameraAlignment:   t.DeferCameraAlignment,
	}
}

// FishSpecs places the school's fish inside its spawn region. Placement is
// drawn from a source seeded by the world seed and the school name, so the
// same file always spawns the same layout.
func (s School) FishSpecs(seed uint64) ([]world.FishSpec, error) {
	params, err := s.Fish.Params()
	if err != nil {
		return nil, fmt.Errorf("school %q: %w", s.Name, err)
	}
	rnd := steering.NewRandom(steering.SeedFor(strconv.FormatUint(seed, 10), "school/"+s.Name))
	specs := make([]world.FishSpec, 0, s.Count)
	for i := 0; i < s.Count; i++ {
		pos := mgl64.Vec3{
			rnd.Range(s.Spawn.Min[0], s.Spawn.Max[0]),
			rnd.Range(s.Spawn.Min[1], s.Spawn.Max[1]),
			rnd.Range(s.Spawn.Min[2], s.Spawn.Max[2]),
		}
		yaw := rnd.Range(s.Spawn.MinYaw, s.Spawn.MaxYaw)
		specs = append(specs, world.FishSpec{
			ID:     fmt.Sprintf("%s-%03d", s.Name, i),
			School: s.Name,
			Params: params,
			Spawn:  physics.NewTransform(pos, yaw),
		})
	}
	return specs, nil
}

func (s Submarine) Spec() world.SubmarineSpec {
	script := make([]vehicle.Keyframe, 0, len(s.Script))
	for _, k := range s.Script {
		axes := make(map[vehicle.Action]float64, len(k.Axes))
		for name, v := range k.Axes {
			axes[vehicle.Action(name)] = v
		}
		script = append(script, vehicle.Keyframe{At: k.At, Axes: axes, Look: mgl64.Vec2(k.Look)})
	}
	return world.SubmarineSpec{
		ID:     s.ID,
		Params: s.Tuning.Params(),
		Spawn:  physics.NewTransform(s.Position.Vec(), s.Yaw),
		Script: script,
	}
}

// Populate spawns every school and submarine into w.
func (f File) Populate(w *world.World) error {
	for _, s := range f.Schools {
		specs, err := s.FishSpecs(f.World.Seed)
		if err != nil {
			return err
		}
		for _, spec := range specs {
			if _, err := w.SpawnFish(spec); err != nil {
				return err
			}
		}
	}
	for _, s := range f.Submarines {
		if _, err := w.AddSubmarine(s.Spec()); err != nil {
			return err
		}
	}
	return nil
}

// Logger builds the zap backed logger the file asks for.
func (l Log) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	return log.New(level, log.Options{Encoding: l.Format, Sampling: true})
}
