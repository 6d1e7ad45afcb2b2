package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
)

// Action names an input binding of the submarine map.
type Action string

const (
	ActionSteering Action = "steering"
	ActionThrottle Action = "throttle"
	ActionBrake    Action = "brake"
	ActionAscend   Action = "ascend"
	ActionDescend  Action = "descend"
	ActionLook     Action = "look"
)

// AxisActions are the scalar bindings in read order.
var AxisActions = []Action{ActionSteering, ActionThrottle, ActionBrake, ActionAscend, ActionDescend}

// ParseAction maps a binding name onto an Action.
func ParseAction(name string) (Action, error) {
	a := Action(name)
	switch a {
	case ActionSteering, ActionThrottle, ActionBrake, ActionAscend, ActionDescend, ActionLook:
		return a, nil
	}
	return "", ErrUnknownAction
}

// InputSource reads the current value of a binding.
type InputSource interface {
	ReadAxis(action Action) float64
	ReadVector(action Action) mgl64.Vec2
}

// Hull is the rigid body the controller drives.
type Hull interface {
	physics.ForceApplier
	Transform() physics.Transform
	SetRotation(q mgl64.Quat)
}

// CameraRig is the head-tracked origin parented to the hull, together with
// the camera it carries.
type CameraRig interface {
	SetActive(active bool)
	// SetLocalPose places the origin relative to the hull.
	SetLocalPose(position mgl64.Vec3, rotation mgl64.Quat)
	CameraLocalPosition() mgl64.Vec3
	CameraLocalRotation() mgl64.Quat
	SetCameraLocalPosition(p mgl64.Vec3)
	SetCameraLocalRotation(q mgl64.Quat)
	// MoveCameraToWorldLocation shifts the origin so the camera lands on p.
	MoveCameraToWorldLocation(p mgl64.Vec3)
	// MatchOriginUpCameraForward turns the origin so the camera looks along
	// forward with the given up.
	MatchOriginUpCameraForward(up, forward mgl64.Vec3)
}

// Camera is the flat-screen camera used outside VR.
type Camera interface {
	SetEnabled(enabled bool)
	SetLocalRotation(q mgl64.Quat)
}
