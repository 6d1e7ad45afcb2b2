package world

// Event types published on the bus.
const (
	EventFishSpawned    = "fish.spawned"
	EventFishRemoved    = "fish.removed"
	EventFishReselected = "fish.reselected"
	EventFishIdle       = "fish.idle"
	EventSubSpawned     = "sub.spawned"
	EventSubCameraReset = "sub.camera_reset"
	EventTick           = "world.tick"
)

// IdleChange is the payload of EventFishIdle.
type IdleChange struct {
	ID   string `json:"id"`
	Idle bool   `json:"idle"`
}
