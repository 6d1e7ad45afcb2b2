package world

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/steering"
	"github.com/zeusync/cavefish/internal/core/vehicle"
)

type recorder struct {
	mu     sync.Mutex
	events []bus.Event
}

func (r *recorder) handle(e bus.Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

func (r *recorder) ofType(typ string) []bus.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []bus.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func newTestWorld(t *testing.T, cfg Config) (*World, *recorder) {
	t.Helper()
	scene, err := physics.NewScene(
		&physics.Bounds{Box: physics.Box{Min: mgl64.Vec3{-20, -8, -20}, Max: mgl64.Vec3{20, 8, 20}}},
		physics.Sphere{Center: mgl64.Vec3{0, 0, 8}, Radius: 2},
		physics.Box{Min: mgl64.Vec3{-12, -8, -4}, Max: mgl64.Vec3{-6, -3, 4}},
	)
	require.NoError(t, err)

	events := bus.New()
	rec := &recorder{}
	_, err = events.Subscribe(bus.Wildcard, rec.handle)
	require.NoError(t, err)

	w, err := New(cfg, scene, events, nil)
	require.NoError(t, err)
	return w, rec
}

func TestNewValidates(t *testing.T) {
	_, err := New(DefaultConfig(), nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilScene)

	scene, err := physics.NewScene(nil)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.FixedStep = 0
	cfg.MaxFrameTime = 0.001
	_, err = New(cfg, scene, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "fixed step")
	assert.Contains(t, err.Error(), "max frame time")
}

func TestSpawnAndRemoveFish(t *testing.T) {
	w, rec := newTestWorld(t, DefaultConfig())

	id, err := w.SpawnFish(FishSpec{Params: steering.DefaultParams()})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "generated ids are uuids")

	named, err := w.SpawnFish(FishSpec{ID: "nemo", School: "reef", Params: steering.DefaultParams(), Spawn: physics.NewTransform(mgl64.Vec3{1, 0, 0}, 0)})
	require.NoError(t, err)
	assert.Equal(t, "nemo", named)
	assert.Equal(t, []string{id, "nemo"}, w.FishIDs())

	_, err = w.SpawnFish(FishSpec{ID: "nemo", Params: steering.DefaultParams()})
	assert.ErrorIs(t, err, ErrAgentExists)

	bad := steering.DefaultParams()
	bad.TurnSpeed = -1
	_, err = w.SpawnFish(FishSpec{ID: "broken", Params: bad})
	assert.ErrorIs(t, err, steering.ErrInvalidParams)

	spawned := rec.ofType(EventFishSpawned)
	require.Len(t, spawned, 2)
	assert.Equal(t, "reef", spawned[1].Data.(FishFrame).School)

	require.NoError(t, w.RemoveFish("nemo"))
	assert.ErrorIs(t, w.RemoveFish("nemo"), ErrAgentNotFound)
	_, ok := w.Fish("nemo")
	assert.False(t, ok)
	assert.Len(t, rec.ofType(EventFishRemoved), 1)
}

func TestStepRunsFixedUpdatesFromAccumulator(t *testing.T) {
	w, _ := newTestWorld(t, DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Step(ctx, 1.0/60))
	}
	m, ok := w.Scheduler().Metrics("bodies")
	require.True(t, ok)
	assert.Equal(t, uint64(2), m.ExecutionCount)

	m, _ = w.Scheduler().Metrics("fish")
	assert.Equal(t, uint64(3), m.ExecutionCount, "fish run once per frame")
	assert.Equal(t, uint64(3), w.Tick())
}

func TestStepCapsLongFrames(t *testing.T) {
	w, _ := newTestWorld(t, DefaultConfig())
	require.NoError(t, w.Step(context.Background(), 10))

	assert.InDelta(t, 1.0/3, w.Time(), 1e-12)
	m, _ := w.Scheduler().Metrics("bodies")
	assert.Equal(t, uint64(16), m.ExecutionCount)

	require.NoError(t, w.Step(context.Background(), 0))
	assert.Equal(t, uint64(1), w.Tick(), "empty frames are ignored")
}

func TestTickPublishesFrame(t *testing.T) {
	w, rec := newTestWorld(t, DefaultConfig())
	_, err := w.SpawnFish(FishSpec{ID: "a", Params: steering.DefaultParams()})
	require.NoError(t, err)

	require.NoError(t, w.Step(context.Background(), 0.02))
	ticks := rec.ofType(EventTick)
	require.Len(t, ticks, 1)
	frame := ticks[0].Data.(Frame)
	assert.Equal(t, uint64(1), frame.Tick)
	require.Len(t, frame.Fish, 1)
	assert.Equal(t, "a", frame.Fish[0].ID)
	require.NotNil(t, frame.Bounds)
	assert.Len(t, frame.Obstacles, 2)
	assert.Equal(t, "sphere", frame.Obstacles[0].Kind)
}

func TestReselectionEventsFollowSpawnOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 4
	w, rec := newTestWorld(t, cfg)

	p := steering.DefaultParams()
	p.WaypointRadius = 1000
	var ids []string
	for i := 0; i < 12; i++ {
		id, err := w.SpawnFish(FishSpec{ID: fmt.Sprintf("fish-%02d", i), School: "blind", Params: p, Spawn: physics.NewTransform(mgl64.Vec3{float64(i) - 6, 0, -10}, 0)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.NoError(t, w.Step(context.Background(), 1.0/60))
	reselected := rec.ofType(EventFishReselected)
	require.Len(t, reselected, len(ids))
	for i, e := range reselected {
		assert.Equal(t, ids[i], e.Data.(FishFrame).ID)
		assert.Equal(t, "blind", e.Data.(FishFrame).School)
		assert.Equal(t, uint64(1), e.Tick)
	}
}

func TestFishInvariantsAcrossWorldSteps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 3
	w, _ := newTestWorld(t, cfg)
	for i := 0; i < 8; i++ {
		p := steering.DefaultParams()
		if i%2 == 1 {
			p.Mode = steering.ModeWander
			p.Wobble = steering.WobbleTilt
		}
		x, yaw := float64(2*i), float64(45*i)
		_, err := w.SpawnFish(FishSpec{Params: p, Spawn: physics.NewTransform(mgl64.Vec3{x, 0, -12}, yaw)})
		require.NoError(t, err)
	}

	for i := 0; i < 600; i++ {
		require.NoError(t, w.Step(context.Background(), 1.0/60))
	}
	for _, f := range w.Snapshot().Fish {
		assert.InDelta(t, 1, f.Heading.Len(), 1e-9, f.ID)
		assert.False(t, math.IsNaN(f.Position.Len()), f.ID)
		assert.Positive(t, f.Timer, f.ID)
	}
}

func TestSubmarineFollowsScript(t *testing.T) {
	w, rec := newTestWorld(t, DefaultConfig())
	id, err := w.AddSubmarine(SubmarineSpec{
		ID:     "sub",
		Params: vehicle.DefaultParams(),
		Script: []vehicle.Keyframe{{At: 0, Axes: map[vehicle.Action]float64{vehicle.ActionThrottle: 1, vehicle.ActionSteering: 0.2}}},
	})
	require.NoError(t, err)
	require.Len(t, rec.ofType(EventSubSpawned), 1)

	_, err = w.AddSubmarine(SubmarineSpec{ID: "sub", Params: vehicle.DefaultParams()})
	assert.ErrorIs(t, err, ErrAgentExists)

	for i := 0; i < 120; i++ {
		require.NoError(t, w.Step(context.Background(), 1.0/60))
	}
	frame := w.Snapshot()
	require.Len(t, frame.Submarines, 1)
	sub := frame.Submarines[0]
	assert.Equal(t, id, sub.ID)
	assert.Greater(t, sub.Telemetry.Speed, 1.0)
	assert.Greater(t, sub.Position.Len(), 1.0)
	assert.NotZero(t, sub.Yaw, "steering turns the hull")
	assert.GreaterOrEqual(t, sub.Position.Y(), -8.0, "hull stays inside the tank")
}

func TestSubmarineCameraResetIsPublished(t *testing.T) {
	w, rec := newTestWorld(t, DefaultConfig())
	p := vehicle.DefaultParams()
	p.VRMode = true
	_, err := w.AddSubmarine(SubmarineSpec{ID: "vr", Params: p})
	require.NoError(t, err)

	sub, ok := w.Submarine("vr")
	require.True(t, ok)
	sub.Rig.SetCameraLocalPosition(mgl64.Vec3{0, math.NaN(), 0})

	require.NoError(t, w.Step(context.Background(), 1.0/60))
	resets := rec.ofType(EventSubCameraReset)
	require.Len(t, resets, 1)
	assert.Equal(t, "vr", resets[0].Data)
	assert.Equal(t, uint64(1), resets[0].Tick)
}

func TestRecenterSubmarine(t *testing.T) {
	w, rec := newTestWorld(t, DefaultConfig())
	p := vehicle.DefaultParams()
	p.VRMode = true
	_, err := w.AddSubmarine(SubmarineSpec{ID: "vr", Params: p})
	require.NoError(t, err)

	sub, _ := w.Submarine("vr")
	sub.Rig.SetLocalPose(mgl64.Vec3{3, 0, 0}, mgl64.QuatIdent())
	require.NoError(t, w.RecenterSubmarine("vr"))
	assert.Equal(t, mgl64.Vec3{}, sub.Rig.OriginPosition)
	assert.Empty(t, rec.ofType(EventSubCameraReset), "published with the next tick")

	require.NoError(t, w.Step(context.Background(), 1.0/60))
	resets := rec.ofType(EventSubCameraReset)
	require.Len(t, resets, 1)
	assert.Equal(t, "vr", resets[0].Data)

	assert.ErrorIs(t, w.RecenterSubmarine("ghost"), ErrAgentNotFound)
	w.Stop()
	assert.ErrorIs(t, w.RecenterSubmarine("vr"), ErrWorldStopped)
}

func TestKeepInsideClampsBody(t *testing.T) {
	body, err := physics.NewBody(1, physics.Transform{Position: mgl64.Vec3{0, -9, 0}, Rotation: mgl64.QuatIdent()})
	require.NoError(t, err)
	body.SetVelocity(mgl64.Vec3{1, -3, 0})

	keepInside(body, physics.Box{Min: mgl64.Vec3{-5, -5, -5}, Max: mgl64.Vec3{5, 5, 5}})
	assert.Equal(t, mgl64.Vec3{0, -5, 0}, body.Transform().Position)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, body.Velocity())
}

func TestSnapshotMarshalsToJSON(t *testing.T) {
	w, _ := newTestWorld(t, DefaultConfig())
	_, err := w.SpawnFish(FishSpec{ID: "json", Params: steering.DefaultParams()})
	require.NoError(t, err)
	require.NoError(t, w.Step(context.Background(), 0.1))

	raw, err := json.Marshal(w.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.EqualValues(t, 1, decoded["tick"])
	fish := decoded["fish"].([]any)
	require.Len(t, fish, 1)
	assert.Equal(t, "json", fish[0].(map[string]any)["id"])
	assert.Len(t, fish[0].(map[string]any)["position"], 3)
}

func TestStoppedWorldRejectsWork(t *testing.T) {
	w, _ := newTestWorld(t, DefaultConfig())
	w.Stop()
	assert.ErrorIs(t, w.Step(context.Background(), 0.1), ErrWorldStopped)
	_, err := w.SpawnFish(FishSpec{Params: steering.DefaultParams()})
	assert.ErrorIs(t, err, ErrWorldStopped)
	_, err = w.AddSubmarine(SubmarineSpec{Params: vehicle.DefaultParams()})
	assert.ErrorIs(t, err, ErrWorldStopped)
}

func TestRunStopsAfterDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameStep = 0.005
	cfg.Duration = 0.1
	w, _ := newTestWorld(t, cfg)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
	assert.Positive(t, w.Tick())
}

func TestRunStopsOnContext(t *testing.T) {
	w, _ := newTestWorld(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, w.Run(ctx))
}
