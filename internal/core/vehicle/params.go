package vehicle

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Params tune the submarine. Speeds are m/s, angles degrees, forces are
// accelerations multiplied by mass when applied.
type Params struct {
	MaxSpeed     float64
	TurnRate     float64
	Acceleration float64
	Deceleration float64

	BaseBuoyancy        float64
	AscendForce         float64
	DescendForce        float64
	BuoyancyChangeSpeed float64
	Mass                float64

	// InputThreshold is the dead zone applied to throttle, brake, ascend and descend.
	InputThreshold float64

	VRMode                 bool
	SimulateVR             bool
	LookSensitivity        float64
	MaxLookAngle           float64
	VRCameraLocalOffset    mgl64.Vec3
	UseEditorOffset        bool
	MaintainEditorPosition bool
	ManualCameraOffset     mgl64.Vec3
	DriftTolerance         float64
	// DeferCameraAlignment aligns the rig at the end of the first frame
	// instead of during Start.
	DeferCameraAlignment bool
}

// DefaultParams returns the stock submarine tuning.
func DefaultParams() Params {
	return Params{
		MaxSpeed:               10,
		TurnRate:               45,
		Acceleration:           2,
		Deceleration:           4,
		BaseBuoyancy:           9.81,
		AscendForce:            25,
		DescendForce:           30,
		BuoyancyChangeSpeed:    5,
		Mass:                   5000,
		InputThreshold:         0.1,
		SimulateVR:             true,
		LookSensitivity:        100,
		MaxLookAngle:           80,
		VRCameraLocalOffset:    mgl64.Vec3{0, 1.6, 0},
		MaintainEditorPosition: true,
		ManualCameraOffset:     mgl64.Vec3{0, 1.6, 0.2},
		DriftTolerance:         0.01,
		DeferCameraAlignment:   true,
	}
}

func (p Params) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidParams, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if !(v >= 0) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidParams, name, v))
		}
	}

	positive("max speed", p.MaxSpeed)
	nonNegative("turn rate", p.TurnRate)
	nonNegative("acceleration", p.Acceleration)
	nonNegative("deceleration", p.Deceleration)
	nonNegative("ascend force", p.AscendForce)
	nonNegative("descend force", p.DescendForce)
	nonNegative("buoyancy change speed", p.BuoyancyChangeSpeed)
	positive("mass", p.Mass)
	nonNegative("input threshold", p.InputThreshold)
	nonNegative("look sensitivity", p.LookSensitivity)
	nonNegative("drift tolerance", p.DriftTolerance)
	if !(p.MaxLookAngle >= 0 && p.MaxLookAngle <= 90) {
		errs = append(errs, fmt.Errorf("%w: max look angle %v outside [0, 90]", ErrInvalidParams, p.MaxLookAngle))
	}
	if math.IsNaN(p.BaseBuoyancy) || math.IsInf(p.BaseBuoyancy, 0) {
		errs = append(errs, fmt.Errorf("%w: base buoyancy %v", ErrInvalidParams, p.BaseBuoyancy))
	}
	return errors.Join(errs...)
}
