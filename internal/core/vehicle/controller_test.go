package vehicle

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// recordingHull keeps every force and torque it is handed.
type recordingHull struct {
	mass      float64
	velocity  mgl64.Vec3
	placement physics.Transform
	forces    []mgl64.Vec3
	torques   []mgl64.Vec3
	modes     []physics.ForceMode
}

func newRecordingHull() *recordingHull {
	return &recordingHull{mass: 1, placement: physics.Transform{Rotation: mgl64.QuatIdent()}}
}

func (h *recordingHull) Mass() float64                { return h.mass }
func (h *recordingHull) SetMass(m float64)            { h.mass = m }
func (h *recordingHull) Velocity() mgl64.Vec3         { return h.velocity }
func (h *recordingHull) SetVelocity(v mgl64.Vec3)     { h.velocity = v }
func (h *recordingHull) Transform() physics.Transform { return h.placement }
func (h *recordingHull) SetRotation(q mgl64.Quat)     { h.placement.Rotation = q }

func (h *recordingHull) AddForce(f mgl64.Vec3, _ physics.ForceMode) {
	h.forces = append(h.forces, f)
}

func (h *recordingHull) AddTorque(t mgl64.Vec3, mode physics.ForceMode) {
	h.torques = append(h.torques, t)
	h.modes = append(h.modes, mode)
}

type axes map[Action]float64

func input(values axes, look mgl64.Vec2) *ScriptedInput {
	return NewScriptedInput(Keyframe{At: 0, Axes: values, Look: look})
}

func TestNewAppliesAttachSetup(t *testing.T) {
	hull := newRecordingHull()
	rig := NewVirtualRig(mgl64.Vec3{0, 1.6, 0})
	rig.SetLocalPose(mgl64.Vec3{3, 3, 3}, vecmath.Euler(0, 90, 0))
	cam := NewFlatCamera()

	_, err := New(DefaultParams(), input(nil, mgl64.Vec2{}), hull, WithCameraRig(rig), WithCamera(cam))
	require.NoError(t, err)

	assert.Equal(t, 5000.0, hull.mass)
	assert.False(t, rig.IsActive())
	assert.True(t, cam.Enabled())
	assert.Equal(t, mgl64.Vec3{}, rig.OriginPosition)
	assert.Equal(t, mgl64.QuatIdent(), rig.OriginRotation)
}

func TestNewRejectsBadWiring(t *testing.T) {
	_, err := New(DefaultParams(), nil, newRecordingHull())
	assert.ErrorIs(t, err, ErrNilInput)

	_, err = New(DefaultParams(), input(nil, mgl64.Vec2{}), nil)
	assert.ErrorIs(t, err, ErrNilHull)

	p := DefaultParams()
	p.Mass = 0
	p.MaxLookAngle = 120
	_, err = New(p, input(nil, mgl64.Vec2{}), newRecordingHull())
	assert.ErrorIs(t, err, ErrInvalidParams)
	assert.Contains(t, err.Error(), "mass")
	assert.Contains(t, err.Error(), "max look angle")
}

func TestThrottleBrakeAndCoast(t *testing.T) {
	hull := newRecordingHull()
	in := NewScriptedInput(
		Keyframe{At: 0, Axes: axes{ActionThrottle: 1}},
		Keyframe{At: 1, Axes: axes{ActionThrottle: 0.05, ActionBrake: 1}},
		Keyframe{At: 2, Axes: axes{}},
	)
	c, err := New(DefaultParams(), in, hull)
	require.NoError(t, err)

	c.FixedUpdate(0.02)
	assert.InDelta(t, 0.4, c.Telemetry().Speed, 1e-12)
	assertVecNear(t, mgl64.Vec3{0, 0, 0.4}, hull.velocity, 1e-9)

	in.Advance(1)
	c.FixedUpdate(0.02)
	assert.InDelta(t, 0.4+(-5-0.4)*0.08, c.Telemetry().Speed, 1e-12, "throttle below dead zone falls through to brake")

	in.Advance(1)
	before := c.Telemetry().Speed
	c.FixedUpdate(0.02)
	assert.InDelta(t, before*(1-0.08), c.Telemetry().Speed, 1e-12)
}

func TestSteeringAppliesVelocityChangeTorque(t *testing.T) {
	hull := newRecordingHull()
	c, err := New(DefaultParams(), input(axes{ActionSteering: -1}, mgl64.Vec2{}), hull)
	require.NoError(t, err)

	c.FixedUpdate(0.02)
	require.Len(t, hull.torques, 1)
	assertVecNear(t, mgl64.Vec3{0, -0.9, 0}, hull.torques[0], 1e-9)
	assert.Equal(t, physics.ForceModeVelocityChange, hull.modes[0])
}

func TestBuoyancyEasesTowardTarget(t *testing.T) {
	hull := newRecordingHull()
	c, err := New(DefaultParams(), input(axes{ActionAscend: 1, ActionDescend: 1}, mgl64.Vec2{}), hull)
	require.NoError(t, err)

	c.FixedUpdate(0.02)
	want := (9.81 + 25) * 0.1
	assert.InDelta(t, want, c.Telemetry().Buoyancy, 1e-12, "ascend wins over descend")
	require.Len(t, hull.forces, 1)
	assert.InDelta(t, want*5000, hull.forces[0].Y(), 1e-6)

	down := newRecordingHull()
	c, err = New(DefaultParams(), input(axes{ActionDescend: 1}, mgl64.Vec2{}), down)
	require.NoError(t, err)
	c.FixedUpdate(0.02)
	assert.InDelta(t, (9.81-30)*0.1, c.Telemetry().Buoyancy, 1e-12)
}

func TestNeutralBuoyancyHoldsDepth(t *testing.T) {
	body, err := physics.NewBody(1, physics.Transform{Rotation: mgl64.QuatIdent()})
	require.NoError(t, err)
	c, err := New(DefaultParams(), input(nil, mgl64.Vec2{}), body)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		c.FixedUpdate(0.02)
		body.Integrate(0.02)
	}
	assert.InDelta(t, 9.81, c.Telemetry().Buoyancy, 1e-3)
	y := body.Transform().Position.Y()
	for i := 0; i < 50; i++ {
		c.FixedUpdate(0.02)
		body.Integrate(0.02)
	}
	assert.InDelta(t, y, body.Transform().Position.Y(), 1e-3)
}

func TestControllerLookClampsPitch(t *testing.T) {
	cam := NewFlatCamera()
	in := NewScriptedInput(
		Keyframe{At: 0, Look: mgl64.Vec2{1, 2}},
		Keyframe{At: 1, Look: mgl64.Vec2{0, -50}},
	)
	c, err := New(DefaultParams(), in, newRecordingHull(), WithCamera(cam))
	require.NoError(t, err)

	c.Update(0.1)
	pitch, yaw := cam.Angles()
	assert.InDelta(t, -20, pitch, 1e-6)
	assert.InDelta(t, 10, yaw, 1e-6)

	in.Advance(1)
	c.Update(0.1)
	assert.Equal(t, 80.0, c.Telemetry().Pitch)
}

func TestVRModeKeepsHullLevel(t *testing.T) {
	p := DefaultParams()
	p.VRMode = true
	hull := newRecordingHull()
	hull.placement.Rotation = vecmath.Euler(15, 30, -10)
	cam := NewFlatCamera()

	c, err := New(p, input(nil, mgl64.Vec2{1, 1}), hull, WithCamera(cam))
	require.NoError(t, err)
	assert.False(t, cam.Enabled())

	c.Update(0.1)
	angles := vecmath.EulerAngles(hull.placement.Rotation)
	assert.InDelta(t, 0, angles.X(), 1e-6)
	assert.InDelta(t, 30, angles.Y(), 1e-6)
	assert.InDelta(t, 0, angles.Z(), 1e-6)
	assert.Equal(t, mgl64.QuatIdent(), cam.LocalRotation(), "look is ignored in VR")
}

func vrController(t *testing.T, p Params, hull Hull, opts ...Option) (*Controller, *VirtualRig) {
	t.Helper()
	p.VRMode = true
	rig := NewVirtualRig(mgl64.Vec3{0, 1.6, 0})
	c, err := New(p, input(nil, mgl64.Vec2{}), hull, append(opts, WithCameraRig(rig))...)
	require.NoError(t, err)
	return c, rig
}

func TestLateUpdateSnapsDriftedCamera(t *testing.T) {
	c, rig := vrController(t, DefaultParams(), newRecordingHull())
	assert.True(t, rig.IsActive())

	rig.Nudge(mgl64.Vec3{0.005, 0, 0})
	c.LateUpdate()
	assert.Equal(t, mgl64.Vec3{0.005, 1.6, 0}, rig.CameraLocalPosition(), "within tolerance")

	rig.Nudge(mgl64.Vec3{0.3, 0, 0})
	c.LateUpdate()
	assert.Equal(t, mgl64.Vec3{0, 1.6, 0}, rig.CameraLocalPosition())

	p := DefaultParams()
	p.MaintainEditorPosition = false
	c, rig = vrController(t, p, newRecordingHull())
	c.LateUpdate()
	assert.Equal(t, mgl64.Vec3{0, 1.6, 0.2}, rig.CameraLocalPosition())
}

func TestLateUpdateResetsInvalidState(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.FromZap(zap.New(core), log.LevelDebug)
	resets := 0

	hull := newRecordingHull()
	c, rig := vrController(t, DefaultParams(), hull, WithLogger(logger), WithResetHook(func() { resets++ }))

	rig.SetLocalPose(mgl64.Vec3{1, 1, 1}, vecmath.Euler(0, 45, 0))
	rig.SetCameraLocalPosition(mgl64.Vec3{math.NaN(), 0, 0})
	c.LateUpdate()

	assert.Equal(t, 1, resets)
	assert.Equal(t, mgl64.Vec3{0, 1.6, 0}, rig.CameraLocalPosition())
	assert.Equal(t, mgl64.Vec3{}, rig.OriginPosition)
	require.Equal(t, 1, logs.FilterMessage("VR camera was reset due to invalid state").Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)

	hull.placement.Position = mgl64.Vec3{0, math.Inf(1), 0}
	c.LateUpdate()
	assert.Equal(t, 2, resets)
}

func TestDeferredCameraAlignment(t *testing.T) {
	hull := newRecordingHull()
	hull.placement = physics.NewTransform(mgl64.Vec3{5, 0, 0}, 90)
	c, rig := vrController(t, DefaultParams(), hull)

	c.Start()
	assert.Zero(t, rig.Alignments)

	c.LateUpdate()
	assert.Equal(t, 1, rig.Alignments)
	assertVecNear(t, mgl64.Vec3{5, 1.6, 0}, rig.LastWorldTarget, 1e-9)
	assertVecNear(t, vecmath.Right, rig.LastForward, 1e-9)

	c.LateUpdate()
	assert.Equal(t, 1, rig.Alignments, "alignment runs once")
}

func TestImmediateCameraAlignment(t *testing.T) {
	p := DefaultParams()
	p.DeferCameraAlignment = false
	hull := newRecordingHull()
	hull.placement.Position = mgl64.Vec3{1, 2, 3}
	c, rig := vrController(t, p, hull)

	c.Start()
	assert.Equal(t, 1, rig.Alignments)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, rig.LastWorldTarget)
}

func TestToggleVRMode(t *testing.T) {
	rig := NewVirtualRig(mgl64.Vec3{0, 1.6, 0})
	cam := NewFlatCamera()
	c, err := New(DefaultParams(), input(nil, mgl64.Vec2{}), newRecordingHull(), WithCameraRig(rig), WithCamera(cam))
	require.NoError(t, err)

	c.ToggleVRMode(true)
	assert.True(t, c.Telemetry().VRMode)
	assert.True(t, rig.IsActive())
	assert.False(t, cam.Enabled())

	c.ToggleVRMode(false)
	assert.False(t, rig.IsActive())
	assert.True(t, cam.Enabled())
}

func TestRecenterResetsRigAndNotifies(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.FromZap(zap.New(core), log.LevelDebug)
	resets := 0
	c, rig := vrController(t, DefaultParams(), newRecordingHull(), WithLogger(logger), WithResetHook(func() { resets++ }))

	rig.SetLocalPose(mgl64.Vec3{2, 0, 1}, vecmath.Euler(0, 30, 0))
	rig.SetCameraLocalPosition(mgl64.Vec3{0.4, 1.2, 0})
	c.Recenter()

	assert.Equal(t, 1, resets)
	assert.Equal(t, mgl64.Vec3{}, rig.OriginPosition)
	assert.Equal(t, mgl64.Vec3{0, 1.6, 0}, rig.CameraLocalPosition())
	assert.Equal(t, 1, logs.FilterMessage("VR camera was reset due to invalid state").Len())

	flat, err := New(DefaultParams(), input(nil, mgl64.Vec2{}), newRecordingHull(), WithResetHook(func() { resets++ }))
	require.NoError(t, err)
	flat.Recenter()
	assert.Equal(t, 1, resets, "no rig, nothing to recenter")
}

func TestParamsRejectNaNLookAngle(t *testing.T) {
	p := DefaultParams()
	p.MaxLookAngle = math.NaN()
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p.MaxLookAngle = 91
	assert.ErrorIs(t, p.Validate(), ErrInvalidParams)

	p.MaxLookAngle = 90
	assert.NoError(t, p.Validate())
}

func TestTelemetryReportsInputs(t *testing.T) {
	in := input(axes{ActionSteering: 0.5, ActionThrottle: 1, ActionDescend: 0.2}, mgl64.Vec2{})
	c, err := New(DefaultParams(), in, newRecordingHull())
	require.NoError(t, err)

	tel := c.Telemetry()
	assert.Equal(t, 0.5, tel.Steering)
	assert.Equal(t, 1.0, tel.Throttle)
	assert.Equal(t, 0.0, tel.Brake)
	assert.Equal(t, 0.2, tel.Descend)
	assert.False(t, tel.VRMode)
}

func TestScriptedInputHoldsKeyframes(t *testing.T) {
	in := NewScriptedInput(
		Keyframe{At: 2, Axes: axes{ActionThrottle: 0.5}},
		Keyframe{At: 0.5, Axes: axes{ActionThrottle: 1}, Look: mgl64.Vec2{1, 0}},
	)
	assert.Zero(t, in.ReadAxis(ActionThrottle))

	in.Advance(0.5)
	assert.Equal(t, 1.0, in.ReadAxis(ActionThrottle))
	assert.Equal(t, mgl64.Vec2{1, 0}, in.ReadVector(ActionLook))
	assert.Equal(t, mgl64.Vec2{}, in.ReadVector(ActionSteering))

	in.Advance(2)
	assert.Equal(t, 0.5, in.ReadAxis(ActionThrottle))
	assert.InDelta(t, 2.5, in.Clock(), 1e-12)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("throttle")
	require.NoError(t, err)
	assert.Equal(t, ActionThrottle, a)

	_, err = ParseAction("warp")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func assertVecNear(t *testing.T, want, got mgl64.Vec3, delta float64, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, 0, want.Sub(got).Len(), delta, msgAndArgs...)
}
