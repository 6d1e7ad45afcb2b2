package vehicle

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// Telemetry is the live readout of the controller.
type Telemetry struct {
	Steering float64 `json:"steering"`
	Throttle float64 `json:"throttle"`
	Brake    float64 `json:"brake"`
	Ascend   float64 `json:"ascend"`
	Descend  float64 `json:"descend"`

	Speed    float64 `json:"speed"`
	Turn     float64 `json:"turn"`
	Buoyancy float64 `json:"buoyancy"`
	Pitch    float64 `json:"look_pitch"`
	Yaw      float64 `json:"look_yaw"`
	VRMode   bool    `json:"vr_mode"`
}

type Option func(*Controller)

// WithCameraRig attaches the head-tracked rig.
func WithCameraRig(rig CameraRig) Option {
	return func(c *Controller) { c.rig = rig }
}

// WithCamera attaches the flat-screen camera.
func WithCamera(cam Camera) Option {
	return func(c *Controller) { c.camera = cam }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l log.Log) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithResetHook is called after the rig was reset because of invalid state.
func WithResetHook(fn func()) Option {
	return func(c *Controller) { c.onReset = fn }
}

// Controller drives a submarine hull from axis input: thrust, turning,
// buoyancy and the VR camera rig.
type Controller struct {
	mu sync.Mutex

	params Params
	input  InputSource
	hull   Hull
	rig    CameraRig
	camera Camera
	logger log.Log

	onReset func()

	vrMode   bool
	speed    float64
	turn     float64
	buoyancy float64
	pitch    float64
	yaw      float64

	rigReady         bool
	alignPending     bool
	initialCameraPos mgl64.Vec3
	initialCameraRot mgl64.Quat
	editorCameraPos  mgl64.Vec3
}

// New wires the controller to its hull and input and performs the
// attach-time setup: hull mass, rig parenting and camera selection.
func New(params Params, input InputSource, hull Hull, opts ...Option) (*Controller, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, ErrNilInput
	}
	if hull == nil {
		return nil, ErrNilHull
	}

	c := &Controller{
		params: params,
		input:  input,
		hull:   hull,
		logger: log.Nop(),
		vrMode: params.VRMode,
	}
	for _, opt := range opts {
		opt(c)
	}

	hull.SetMass(params.Mass)

	if c.rig != nil {
		c.initialCameraPos = c.rig.CameraLocalPosition()
		c.initialCameraRot = c.rig.CameraLocalRotation()
		c.editorCameraPos = c.initialCameraPos
		c.rig.SetLocalPose(mgl64.Vec3{}, mgl64.QuatIdent())
		c.rig.SetActive(c.vrMode)
		c.rigReady = true
	}
	if c.camera != nil {
		c.camera.SetEnabled(!c.vrMode)
	}
	return c, nil
}

// Start runs once before the first frame.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.vrMode || c.rig == nil {
		return
	}
	if c.params.DeferCameraAlignment {
		c.alignPending = true
		return
	}
	c.positionCamera()
}

// Update runs at frame cadence: flat-screen look and, in VR, keeping the
// hull level.
func (c *Controller) Update(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.vrMode && c.params.SimulateVR {
		c.look(c.input.ReadVector(ActionLook), dt)
	}
	if c.vrMode {
		yaw := vecmath.EulerAngles(c.hull.Transform().Rotation).Y()
		c.hull.SetRotation(vecmath.Euler(0, yaw, 0))
	}
}

func (c *Controller) look(in mgl64.Vec2, dt float64) {
	if c.camera == nil {
		return
	}
	dx := in.X() * c.params.LookSensitivity * dt
	dy := in.Y() * c.params.LookSensitivity * dt

	c.pitch = mgl64.Clamp(c.pitch-dy, -c.params.MaxLookAngle, c.params.MaxLookAngle)
	c.yaw += dx
	c.camera.SetLocalRotation(vecmath.Euler(c.pitch, c.yaw, 0))
}

// FixedUpdate runs at physics cadence: thrust, turn and buoyancy.
func (c *Controller) FixedUpdate(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.move(dt)
	c.rotate(dt)
	c.depth(dt)
}

func (c *Controller) move(dt float64) {
	p := c.params
	throttle := c.input.ReadAxis(ActionThrottle)
	brake := c.input.ReadAxis(ActionBrake)

	switch {
	case throttle > p.InputThreshold:
		c.speed = vecmath.LerpScalar(c.speed, p.MaxSpeed*throttle, p.Acceleration*dt)
	case brake > p.InputThreshold:
		c.speed = vecmath.LerpScalar(c.speed, -p.MaxSpeed*0.5*brake, p.Deceleration*dt)
	default:
		c.speed = vecmath.LerpScalar(c.speed, 0, p.Deceleration*dt)
	}
	c.hull.SetVelocity(c.hull.Transform().Forward().Mul(c.speed))
}

func (c *Controller) rotate(dt float64) {
	c.turn = c.input.ReadAxis(ActionSteering) * c.params.TurnRate * dt
	c.hull.AddTorque(vecmath.Up.Mul(c.turn), physics.ForceModeVelocityChange)
}

func (c *Controller) depth(dt float64) {
	p := c.params
	target := p.BaseBuoyancy
	if c.input.ReadAxis(ActionAscend) > p.InputThreshold {
		target += p.AscendForce
	} else if c.input.ReadAxis(ActionDescend) > p.InputThreshold {
		target -= p.DescendForce
	}
	c.buoyancy = vecmath.LerpScalar(c.buoyancy, target, p.BuoyancyChangeSpeed*dt)
	c.hull.AddForce(vecmath.Up.Mul(c.buoyancy*c.hull.Mass()), physics.ForceModeForce)
}

// LateUpdate runs after every Update: it holds the VR camera in place and
// completes a deferred alignment at the end of the first frame.
func (c *Controller) LateUpdate() {
	c.mu.Lock()
	reset := false
	defer func() {
		c.mu.Unlock()
		if reset && c.onReset != nil {
			c.onReset()
		}
	}()

	if !c.vrMode || !c.rigReady || c.rig == nil {
		return
	}

	if !c.hull.Transform().Valid() || !vecmath.IsFinite(c.rig.CameraLocalPosition()) {
		c.resetCamera()
		reset = true
		return
	}

	anchor := c.params.ManualCameraOffset
	if c.params.MaintainEditorPosition {
		anchor = c.initialCameraPos
	}
	if c.rig.CameraLocalPosition().Sub(anchor).Len() > c.params.DriftTolerance {
		c.rig.SetCameraLocalPosition(anchor)
	}

	if c.alignPending {
		c.alignPending = false
		c.alignCamera()
	}
}

// alignCamera places the camera at its anchor and re-centres the tracking
// origin on the hull.
func (c *Controller) alignCamera() {
	if c.params.MaintainEditorPosition {
		c.rig.SetCameraLocalPosition(c.initialCameraPos)
		c.rig.SetCameraLocalRotation(c.initialCameraRot)
	} else {
		c.rig.SetCameraLocalPosition(c.params.ManualCameraOffset)
		c.rig.SetCameraLocalRotation(mgl64.QuatIdent())
	}
	hull := c.hull.Transform()
	c.rig.MoveCameraToWorldLocation(hull.TransformPoint(c.rig.CameraLocalPosition()))
	c.rig.MatchOriginUpCameraForward(hull.Up(), hull.Forward())
}

func (c *Controller) positionCamera() {
	hull := c.hull.Transform()
	c.rig.MoveCameraToWorldLocation(hull.Position)
	c.rig.MatchOriginUpCameraForward(hull.Up(), hull.Forward())
}

func (c *Controller) resetCamera() {
	c.rig.SetLocalPose(mgl64.Vec3{}, mgl64.QuatIdent())
	offset := c.params.VRCameraLocalOffset
	if c.params.UseEditorOffset {
		offset = c.editorCameraPos
	}
	c.rig.SetCameraLocalPosition(offset)
	c.rig.SetCameraLocalRotation(mgl64.QuatIdent())
	c.logger.Warn("VR camera was reset due to invalid state", log.Vec3("camera_offset", offset))
}

// Recenter resets the rig to its configured offset.
func (c *Controller) Recenter() {
	c.mu.Lock()
	if c.rig == nil {
		c.mu.Unlock()
		return
	}
	c.resetCamera()
	c.mu.Unlock()
	if c.onReset != nil {
		c.onReset()
	}
}

// ToggleVRMode switches between the head-tracked rig and the flat camera.
func (c *Controller) ToggleVRMode(enable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vrMode = enable
	if c.rig != nil {
		c.rig.SetActive(enable)
	}
	if c.camera != nil {
		c.camera.SetEnabled(!enable)
	}
}

// Telemetry reads the current inputs and controller state.
func (c *Controller) Telemetry() Telemetry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Telemetry{
		Steering: c.input.ReadAxis(ActionSteering),
		Throttle: c.input.ReadAxis(ActionThrottle),
		Brake:    c.input.ReadAxis(ActionBrake),
		Ascend:   c.input.ReadAxis(ActionAscend),
		Descend:  c.input.ReadAxis(ActionDescend),
		Speed:    c.speed,
		Turn:     c.turn,
		Buoyancy: c.buoyancy,
		Pitch:    c.pitch,
		Yaw:      c.yaw,
		VRMode:   c.vrMode,
	}
}
