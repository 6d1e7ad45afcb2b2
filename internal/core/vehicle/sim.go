package vehicle

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/vecmath"
)

// Keyframe holds input values from At seconds until the next keyframe.
type Keyframe struct {
	At   float64
	Axes map[Action]float64
	Look mgl64.Vec2
}

var _ InputSource = (*ScriptedInput)(nil)

// ScriptedInput replays keyframed input against its own clock.
type ScriptedInput struct {
	mu     sync.RWMutex
	frames []Keyframe
	clock  float64
}

func NewScriptedInput(frames ...Keyframe) *ScriptedInput {
	sorted := make([]Keyframe, len(frames))
	copy(sorted, frames)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &ScriptedInput{frames: sorted}
}

// Advance moves the script clock forward.
func (s *ScriptedInput) Advance(dt float64) {
	s.mu.Lock()
	s.clock += dt
	s.mu.Unlock()
}

func (s *ScriptedInput) Clock() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

func (s *ScriptedInput) current() (Keyframe, bool) {
	idx := sort.Search(len(s.frames), func(i int) bool { return s.frames[i].At > s.clock }) - 1
	if idx < 0 {
		return Keyframe{}, false
	}
	return s.frames[idx], true
}

func (s *ScriptedInput) ReadAxis(action Action) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kf, ok := s.current()
	if !ok {
		return 0
	}
	return kf.Axes[action]
}

func (s *ScriptedInput) ReadVector(action Action) mgl64.Vec2 {
	if action != ActionLook {
		return mgl64.Vec2{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	kf, ok := s.current()
	if !ok {
		return mgl64.Vec2{}
	}
	return kf.Look
}

var _ CameraRig = (*VirtualRig)(nil)

// VirtualRig is an in-memory tracking origin with one camera. It models the
// origin only by its local pose; world moves are recorded.
type VirtualRig struct {
	mu sync.RWMutex

	Active         bool
	OriginPosition mgl64.Vec3
	OriginRotation mgl64.Quat
	CameraPosition mgl64.Vec3
	CameraRotation mgl64.Quat

	// LastWorldTarget and LastForward record the most recent alignment.
	LastWorldTarget mgl64.Vec3
	LastForward     mgl64.Vec3
	Alignments      int
}

// NewVirtualRig places the camera at the given local height offset.
func NewVirtualRig(cameraOffset mgl64.Vec3) *VirtualRig {
	return &VirtualRig{
		OriginRotation: mgl64.QuatIdent(),
		CameraPosition: cameraOffset,
		CameraRotation: mgl64.QuatIdent(),
	}
}

func (r *VirtualRig) SetActive(active bool) {
	r.mu.Lock()
	r.Active = active
	r.mu.Unlock()
}

func (r *VirtualRig) IsActive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Active
}

func (r *VirtualRig) SetLocalPose(position mgl64.Vec3, rotation mgl64.Quat) {
	r.mu.Lock()
	r.OriginPosition, r.OriginRotation = position, rotation
	r.mu.Unlock()
}

func (r *VirtualRig) CameraLocalPosition() mgl64.Vec3 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.CameraPosition
}

func (r *VirtualRig) CameraLocalRotation() mgl64.Quat {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.CameraRotation
}

func (r *VirtualRig) SetCameraLocalPosition(p mgl64.Vec3) {
	r.mu.Lock()
	r.CameraPosition = p
	r.mu.Unlock()
}

func (r *VirtualRig) SetCameraLocalRotation(q mgl64.Quat) {
	r.mu.Lock()
	r.CameraRotation = q
	r.mu.Unlock()
}

func (r *VirtualRig) MoveCameraToWorldLocation(p mgl64.Vec3) {
	r.mu.Lock()
	r.LastWorldTarget = p
	r.mu.Unlock()
}

func (r *VirtualRig) MatchOriginUpCameraForward(_, forward mgl64.Vec3) {
	r.mu.Lock()
	r.LastForward = forward
	r.Alignments++
	r.mu.Unlock()
}

// Nudge displaces the camera as head tracking would.
func (r *VirtualRig) Nudge(delta mgl64.Vec3) {
	r.mu.Lock()
	r.CameraPosition = r.CameraPosition.Add(delta)
	r.mu.Unlock()
}

var _ Camera = (*FlatCamera)(nil)

// FlatCamera is the non-VR camera.
type FlatCamera struct {
	mu       sync.RWMutex
	enabled  bool
	rotation mgl64.Quat
}

func NewFlatCamera() *FlatCamera {
	return &FlatCamera{enabled: true, rotation: mgl64.QuatIdent()}
}

func (f *FlatCamera) SetEnabled(enabled bool) {
	f.mu.Lock()
	f.enabled = enabled
	f.mu.Unlock()
}

func (f *FlatCamera) Enabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.enabled
}

func (f *FlatCamera) SetLocalRotation(q mgl64.Quat) {
	f.mu.Lock()
	f.rotation = q
	f.mu.Unlock()
}

func (f *FlatCamera) LocalRotation() mgl64.Quat {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rotation
}

// Angles returns the pitch and yaw of the camera in degrees.
func (f *FlatCamera) Angles() (pitch, yaw float64) {
	e := vecmath.EulerAngles(f.LocalRotation())
	return e.X(), e.Y()
}
