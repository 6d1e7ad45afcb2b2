// Package config describes a cave scene file: world timing, the tank and its
// obstacles, fish schools, submarines and the serving and logging settings.
// Files are YAML or JSON; absent fields keep their defaults.
package config

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/cavefish/internal/core/steering"
	"github.com/zeusync/cavefish/internal/core/vehicle"
	"github.com/zeusync/cavefish/internal/core/world"
)

// Vec3 is written as a three element list.
type Vec3 [3]float64

func (v Vec3) Vec() mgl64.Vec3 { return mgl64.Vec3(v) }

type File struct {
	World      World       `json:"world" yaml:"world"`
	Tank       *Tank       `json:"tank,omitempty" yaml:"tank,omitempty" jsonschema:"description=Interior walls of the cave; omit for open water"`
	Obstacles  []Obstacle  `json:"obstacles,omitempty" yaml:"obstacles,omitempty"`
	Schools    []School    `json:"schools,omitempty" yaml:"schools,omitempty"`
	Submarines []Submarine `json:"submarines,omitempty" yaml:"submarines,omitempty"`
	Server     Server      `json:"server" yaml:"server"`
	Log        Log         `json:"log" yaml:"log"`
}

// World holds loop timing in seconds.
type World struct {
	FixedStep    float64 `json:"fixed_step" yaml:"fixed_step" jsonschema:"minimum=0"`
	FrameStep    float64 `json:"frame_step" yaml:"frame_step" jsonschema:"minimum=0"`
	MaxFrameTime float64 `json:"max_frame_time" yaml:"max_frame_time" jsonschema:"minimum=0"`
	Duration     float64 `json:"duration,omitempty" yaml:"duration,omitempty" jsonschema:"minimum=0,description=Seconds to run; zero runs until interrupted"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	Workers      int     `json:"workers,omitempty" yaml:"workers,omitempty" jsonschema:"minimum=0,description=Parallel fish updates; zero uses every CPU"`
}

type Tank struct {
	Min Vec3 `json:"min" yaml:"min" jsonschema:"required"`
	Max Vec3 `json:"max" yaml:"max" jsonschema:"required"`
}

// Obstacle is a sphere (center, radius) or a box (min, max).
type Obstacle struct {
	Kind   string  `json:"kind" yaml:"kind" jsonschema:"required,enum=sphere,enum=box"`
	Center Vec3    `json:"center,omitempty" yaml:"center,omitempty"`
	Radius float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Min    Vec3    `json:"min,omitempty" yaml:"min,omitempty"`
	Max    Vec3    `json:"max,omitempty" yaml:"max,omitempty"`
}

// Region is the box fish spawn in, with a yaw range in degrees.
type Region struct {
	Min    Vec3    `json:"min" yaml:"min"`
	Max    Vec3    `json:"max" yaml:"max"`
	MinYaw float64 `json:"min_yaw,omitempty" yaml:"min_yaw,omitempty"`
	MaxYaw float64 `json:"max_yaw,omitempty" yaml:"max_yaw,omitempty"`
}

type School struct {
	Name  string     `json:"name" yaml:"name" jsonschema:"required,minLength=1"`
	Count int        `json:"count" yaml:"count" jsonschema:"minimum=0"`
	Spawn Region     `json:"spawn" yaml:"spawn"`
	Fish  FishTuning `json:"fish" yaml:"fish"`
}

type FishTuning struct {
	Mode              string  `json:"mode" yaml:"mode" jsonschema:"enum=waypoint,enum=wander"`
	Wobble            string  `json:"wobble" yaml:"wobble" jsonschema:"enum=sine,enum=tilt,enum=none"`
	SwimSpeed         float64 `json:"swim_speed" yaml:"swim_speed"`
	TurnSpeed         float64 `json:"turn_speed" yaml:"turn_speed"`
	MinSwimTime       float64 `json:"min_swim_time" yaml:"min_swim_time"`
	MaxSwimTime       float64 `json:"max_swim_time" yaml:"max_swim_time"`
	IdleTime          float64 `json:"idle_time" yaml:"idle_time"`
	IdleChance        float64 `json:"idle_chance" yaml:"idle_chance" jsonschema:"minimum=0,maximum=1"`
	LookAheadDistance float64 `json:"look_ahead_distance" yaml:"look_ahead_distance"`
	SideCastAngle     float64 `json:"side_cast_angle" yaml:"side_cast_angle"`
	AvoidanceForce    float64 `json:"avoidance_force" yaml:"avoidance_force"`
	MinDistanceToWall float64 `json:"min_distance_to_wall" yaml:"min_distance_to_wall"`
	WaypointRadius    float64 `json:"waypoint_radius" yaml:"waypoint_radius"`
	DepthVariation    float64 `json:"depth_variation" yaml:"depth_variation"`
	JitterMin         Vec3    `json:"jitter_min" yaml:"jitter_min"`
	JitterMax         Vec3    `json:"jitter_max" yaml:"jitter_max"`
	JitterScale       float64 `json:"jitter_scale" yaml:"jitter_scale"`
	WobbleAmplitude   float64 `json:"wobble_amplitude" yaml:"wobble_amplitude"`
	WobbleFrequency   float64 `json:"wobble_frequency" yaml:"wobble_frequency"`
}

type Submarine struct {
	ID       string     `json:"id" yaml:"id" jsonschema:"required,minLength=1"`
	Position Vec3       `json:"position" yaml:"position"`
	Yaw      float64    `json:"yaw" yaml:"yaw"`
	Tuning   SubTuning  `json:"tuning" yaml:"tuning"`
	Script   []Keyframe `json:"script,omitempty" yaml:"script,omitempty"`
}

type SubTuning struct {
	MaxSpeed               float64 `json:"max_speed" yaml:"max_speed"`
	TurnRate               float64 `json:"turn_rate" yaml:"turn_rate"`
	Acceleration           float64 `json:"acceleration" yaml:"acceleration"`
	Deceleration           float64 `json:"deceleration" yaml:"deceleration"`
	BaseBuoyancy           float64 `json:"base_buoyancy" yaml:"base_buoyancy"`
	AscendForce            float64 `json:"ascend_force" yaml:"ascend_force"`
	DescendForce           float64 `json:"descend_force" yaml:"descend_force"`
	BuoyancyChangeSpeed    float64 `json:"buoyancy_change_speed" yaml:"buoyancy_change_speed"`
	Mass                   float64 `json:"mass" yaml:"mass"`
	InputThreshold         float64 `json:"input_threshold" yaml:"input_threshold"`
	VRMode                 bool    `json:"vr_mode" yaml:"vr_mode"`
	SimulateVR             bool    `json:"simulate_vr" yaml:"simulate_vr"`
	LookSensitivity        float64 `json:"look_sensitivity" yaml:"look_sensitivity"`
	MaxLookAngle           float64 `json:"max_look_angle" yaml:"max_look_angle"`
	VRCameraLocalOffset    Vec3    `json:"vr_camera_local_offset" yaml:"vr_camera_local_offset"`
	UseEditorOffset        bool    `json:"use_editor_offset" yaml:"use_editor_offset"`
	MaintainEditorPosition bool    `json:"maintain_editor_position" yaml:"maintain_editor_position"`
	ManualCameraOffset     Vec3    `json:"manual_camera_offset" yaml:"manual_camera_offset"`
	DriftTolerance         float64 `json:"drift_tolerance" yaml:"drift_tolerance"`
	DeferCameraAlignment   bool    `json:"defer_camera_alignment" yaml:"defer_camera_alignment"`
}

// Keyframe holds input values from At seconds until the next keyframe.
type Keyframe struct {
	At   float64            `json:"at" yaml:"at" jsonschema:"minimum=0"`
	Axes map[string]float64 `json:"axes,omitempty" yaml:"axes,omitempty" jsonschema:"description=steering throttle brake ascend descend"`
	Look [2]float64         `json:"look,omitempty" yaml:"look,omitempty"`
}

type Server struct {
	// Listen is the HTTP address; empty disables serving.
	Listen     string `json:"listen,omitempty" yaml:"listen,omitempty"`
	SendBuffer int    `json:"send_buffer" yaml:"send_buffer" jsonschema:"minimum=1"`
	MaxClients int    `json:"max_clients" yaml:"max_clients" jsonschema:"minimum=1"`
	// Token, when set, is required by /ws, /snapshot and /recenter.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`
}

type Log struct {
	Level  string `json:"level" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,enum=fatal"`
	Format string `json:"format" yaml:"format" jsonschema:"enum=console,enum=json"`
}

// Defaults returns a scene with the stock world, server and log settings and
// nothing in it.
func Defaults() File {
	wc := world.DefaultConfig()
	return File{
		World: World{
			FixedStep:    wc.FixedStep,
			FrameStep:    wc.FrameStep,
			MaxFrameTime: wc.MaxFrameTime,
		},
		Server: Server{SendBuffer: 16, MaxClients: 256},
		Log:    Log{Level: "info", Format: "console"},
	}
}

func DefaultSchool() School {
	return School{
		Count: 1,
		Spawn: Region{MaxYaw: 360},
		Fish:  FishTuningFrom(steering.DefaultParams()),
	}
}

func DefaultSubmarine() Submarine {
	return Submarine{Tuning: SubTuningFrom(vehicle.DefaultParams())}
}

func FishTuningFrom(p steering.Params) FishTuning {
	return FishTuning{
		Mode:              string(p.Mode),
		Wobble:            string(p.Wobble),
		SwimSpeed:         p.SwimSpeed,
		TurnSpeed:         p.TurnSpeed,
		MinSwimTime:       p.MinSwimTime,
		MaxSwimTime:       p.MaxSwimTime,
		IdleTime:          p.IdleTime,
		IdleChance:        p.IdleChance,
		LookAheadDistance: p.LookAheadDistance,
		SideCastAngle:     p.SideCastAngle,
		AvoidanceForce:    p.AvoidanceForce,
		MinDistanceToWall: p.MinDistanceToWall,
		WaypointRadius:    p.WaypointRadius,
		DepthVariation:    p.DepthVariation,
		JitterMin:         Vec3(p.JitterMin),
		JitterMax:         Vec3(p.JitterMax),
		JitterScale:       p.JitterScale,
		WobbleAmplitude:   p.WobbleAmplitude,
		WobbleFrequency:   p.WobbleFrequency,
	}
}

func SubTuningFrom(p vehicle.Params) SubTuning {
	return SubTuning{
		MaxSpeed:               p.MaxSpeed,
		TurnRate:               p.TurnRate,
		Acceleration:           p.Acceleration,
		Deceleration:           p.Deceleration,
		BaseBuoyancy:           p.BaseBuoyancy,
		AscendForce:            p.AscendForce,
		DescendForce:           p.DescendForce,
		BuoyancyChangeSpeed:    p.BuoyancyChangeSpeed,
		Mass:                   p.Mass,
		InputThreshold:         p.InputThreshold,
		VRMode:                 p.VRMode,
		SimulateVR:             p.SimulateVR,
		LookSensitivity:        p.LookSensitivity,
		MaxLookAngle:           p.MaxLookAngle,
		VRCameraLocalOffset:    Vec3(p.VRCameraLocalOffset),
		UseEditorOffset:        p.UseEditorOffset,
		MaintainEditorPosition: p.MaintainEditorPosition,
		ManualCameraOffset:     Vec3(p.ManualCameraOffset),
		DriftTolerance:         p.DriftTolerance,
		DeferCameraAlignment:   p.DeferCameraAlignment,
	}
}

// List elements are decoded over their defaults so a school or submarine
// only needs the fields it changes.

func (s *School) UnmarshalYAML(node *yaml.Node) error {
	type plain School
	*s = DefaultSchool()
	return node.Decode((*plain)(s))
}

func (s *School) UnmarshalJSON(data []byte) error {
	type plain School
	*s = DefaultSchool()
	return json.Unmarshal(data, (*plain)(s))
}

func (s *Submarine) UnmarshalYAML(node *yaml.Node) error {
	type plain Submarine
	*s = DefaultSubmarine()
	return node.Decode((*plain)(s))
}

func (s *Submarine) UnmarshalJSON(data []byte) error {
	type plain Submarine
	*s = DefaultSubmarine()
	return json.Unmarshal(data, (*plain)(s))
}
