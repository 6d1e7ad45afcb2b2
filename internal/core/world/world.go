package world

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/physics"
	"github.com/zeusync/cavefish/internal/core/steering"
	"github.com/zeusync/cavefish/internal/core/systems"
	"github.com/zeusync/cavefish/internal/core/vehicle"
	"github.com/zeusync/cavefish/pkg/concurrent"
	"github.com/zeusync/cavefish/pkg/generic"
)

const eventSource = "world"

var agentScratch = generic.NewSlicePool[*steering.Agent](64)

// Config drives the loop. Times are seconds.
type Config struct {
	// FixedStep is the physics cadence.
	FixedStep float64
	// FrameStep is the frame interval Run aims for.
	FrameStep float64
	// MaxFrameTime caps a single frame so a stall cannot snowball into a
	// burst of physics steps.
	MaxFrameTime float64
	// Duration stops Run after this much simulated wall time; zero runs until
	// the context is done.
	Duration float64
	Seed     uint64
	Workers  int
}

func DefaultConfig() Config {
	return Config{
		FixedStep:    0.02,
		FrameStep:    1.0 / 60,
		MaxFrameTime: 1.0 / 3,
	}
}

func (c Config) Validate() error {
	var errs []error
	if !(c.FixedStep > 0) {
		errs = append(errs, fmt.Errorf("%w: fixed step %v", ErrInvalidConfig, c.FixedStep))
	}
	if !(c.FrameStep > 0) {
		errs = append(errs, fmt.Errorf("%w: frame step %v", ErrInvalidConfig, c.FrameStep))
	}
	if !(c.MaxFrameTime >= c.FrameStep) {
		errs = append(errs, fmt.Errorf("%w: max frame time %v below frame step %v", ErrInvalidConfig, c.MaxFrameTime, c.FrameStep))
	}
	if c.Duration < 0 || math.IsNaN(c.Duration) {
		errs = append(errs, fmt.Errorf("%w: duration %v", ErrInvalidConfig, c.Duration))
	}
	return errors.Join(errs...)
}

// FishSpec describes one fish to spawn. An empty ID gets a fresh uuid.
type FishSpec struct {
	ID     string
	School string
	Params steering.Params
	Spawn  physics.Transform
}

// SubmarineSpec describes one submarine. Script drives its input.
type SubmarineSpec struct {
	ID     string
	Params vehicle.Params
	Spawn  physics.Transform
	Script []vehicle.Keyframe
}

// Submarine bundles a controller with the stand-ins it drives.
type Submarine struct {
	ID         string
	Body       *physics.Body
	Input      *vehicle.ScriptedInput
	Rig        *vehicle.VirtualRig
	Camera     *vehicle.FlatCamera
	Controller *vehicle.Controller
}

type fish struct {
	seq    uint64
	school string
	agent  *steering.Agent
}

type pendingEvent struct {
	seq   uint64
	event bus.Event
}

// World hosts the scene, the fish and the submarines and steps them on a
// fixed-step loop.
type World struct {
	mu        sync.RWMutex
	cfg       Config
	scene     *physics.Scene
	events    bus.EventBus
	logger    log.Log
	scheduler *systems.Scheduler

	fish     map[string]*fish
	fishSeq  uint64
	subs     map[string]*Submarine
	subOrder []string

	tick        uint64
	now         float64
	accumulator float64
	stopped     bool

	pendingMu sync.Mutex
	pending   []pendingEvent
}

// New builds a world over a static scene.
func New(cfg Config, scene *physics.Scene, events bus.EventBus, logger log.Log) (*World, error) {
	if scene == nil {
		return nil, ErrNilScene
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if events == nil {
		events = bus.New()
	}
	if logger == nil {
		logger = log.Nop()
	}

	w := &World{
		cfg:       cfg,
		scene:     scene,
		events:    events,
		logger:    logger,
		scheduler: systems.NewScheduler(),
		fish:      make(map[string]*fish),
		subs:      make(map[string]*Submarine),
	}
	for _, sys := range []systems.System{
		systems.Funcs{ID: "submarines", Order: systems.PriorityHigh, Fixed: w.fixedSubmarines, Frame: w.updateSubmarines, Late: w.lateSubmarines},
		systems.Funcs{ID: "bodies", Order: systems.PriorityNormal, Fixed: w.integrateBodies},
		systems.Funcs{ID: "fish", Order: systems.PriorityNormal, Frame: w.updateFish},
	} {
		if err := w.scheduler.Register(sys); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *World) Config() Config                { return w.cfg }
func (w *World) Scene() *physics.Scene         { return w.scene }
func (w *World) Events() bus.EventBus          { return w.events }
func (w *World) Scheduler() *systems.Scheduler { return w.scheduler }

// SpawnFish adds a fish and returns its id.
func (w *World) SpawnFish(spec FishSpec) (string, error) {
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return "", ErrWorldStopped
	}
	if _, ok := w.fish[id]; ok {
		w.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrAgentExists, id)
	}
	w.fishSeq++
	seq, school := w.fishSeq, spec.School
	rnd := steering.NewRandom(steering.SeedFor(strconv.FormatUint(w.cfg.Seed, 10), id))
	agent, err := steering.NewAgent(id, spec.Params, w.scene, spec.Spawn,
		steering.WithRandom(rnd),
		steering.WithObserver(func(e steering.Event) { w.onAgentEvent(seq, school, e) }),
	)
	if err != nil {
		w.mu.Unlock()
		return "", fmt.Errorf("spawn fish %s: %w", id, err)
	}
	w.fish[id] = &fish{seq: seq, school: spec.School, agent: agent}
	tick := w.tick
	frame := fishFrame(id, spec.School, agent.State())
	w.mu.Unlock()

	w.logger.Info("fish spawned", log.String("id", id), log.String("school", spec.School), log.Vec3("position", frame.Position))
	w.publish(bus.NewEvent(EventFishSpawned, eventSource, tick, frame))
	return id, nil
}

// RemoveFish drops a fish from the world.
func (w *World) RemoveFish(id string) error {
	w.mu.Lock()
	if _, ok := w.fish[id]; !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	delete(w.fish, id)
	tick := w.tick
	w.mu.Unlock()

	w.logger.Info("fish removed", log.String("id", id))
	w.publish(bus.NewEvent(EventFishRemoved, eventSource, tick, id))
	return nil
}

// AddSubmarine builds a controller with a scripted input, a virtual rig and
// a flat camera, and starts it.
func (w *World) AddSubmarine(spec SubmarineSpec) (string, error) {
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	if spec.Spawn.Rotation.Len() == 0 {
		spec.Spawn.Rotation = mgl64.QuatIdent()
	}

	w.mu.Lock()
	sub, err := w.buildSubmarineLocked(id, spec)
	tick := w.tick
	w.mu.Unlock()
	if err != nil {
		return "", err
	}

	w.logger.Info("submarine added", log.String("id", id), log.Vec3("position", spec.Spawn.Position))
	w.publish(bus.NewEvent(EventSubSpawned, eventSource, tick, subFrame(sub)))
	return id, nil
}

func (w *World) buildSubmarineLocked(id string, spec SubmarineSpec) (*Submarine, error) {
	if w.stopped {
		return nil, ErrWorldStopped
	}
	if _, ok := w.subs[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAgentExists, id)
	}

	body, err := physics.NewBody(spec.Params.Mass, spec.Spawn)
	if err != nil {
		return nil, fmt.Errorf("submarine %s: %w", id, err)
	}
	sub := &Submarine{
		ID:     id,
		Body:   body,
		Input:  vehicle.NewScriptedInput(spec.Script...),
		Rig:    vehicle.NewVirtualRig(spec.Params.VRCameraLocalOffset),
		Camera: vehicle.NewFlatCamera(),
	}
	sub.Controller, err = vehicle.New(spec.Params, sub.Input, body,
		vehicle.WithCameraRig(sub.Rig),
		vehicle.WithCamera(sub.Camera),
		vehicle.WithLogger(w.logger.With(log.String("submarine", id))),
		vehicle.WithResetHook(func() {
			w.enqueue(0, bus.NewEvent(EventSubCameraReset, eventSource, 0, id))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("submarine %s: %w", id, err)
	}
	sub.Controller.Start()

	w.subs[id] = sub
	w.subOrder = append(w.subOrder, id)
	return sub, nil
}

// RecenterSubmarine resets the camera rig of a submarine to its configured
// offset. The EventSubCameraReset it raises goes out with the next tick.
func (w *World) RecenterSubmarine(id string) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrWorldStopped
	}
	sub, ok := w.subs[id]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAgentNotFound, id)
	}
	sub.Controller.Recenter()
	w.mu.Unlock()

	w.logger.Info("submarine recentered", log.String("id", id))
	return nil
}

// Submarine returns a submarine by id.
func (w *World) Submarine(id string) (*Submarine, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	sub, ok := w.subs[id]
	return sub, ok
}

// Fish returns the state of one fish.
func (w *World) Fish(id string) (steering.State, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.fish[id]
	if !ok {
		return steering.State{}, false
	}
	return f.agent.State(), true
}

// FishIDs lists fish in spawn order.
func (w *World) FishIDs() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fishIDsLocked()
}

func (w *World) fishIDsLocked() []string {
	ids := make([]string, 0, len(w.fish))
	for id := range w.fish {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return w.fish[ids[i]].seq < w.fish[ids[j]].seq })
	return ids
}

func (w *World) Tick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// Time is the simulated time in seconds.
func (w *World) Time() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.now
}

// Step advances the world by one frame of frameDt seconds: as many fixed
// steps as the accumulator allows, then Update and LateUpdate. Events raised
// during the frame are published after it, followed by EventTick.
func (w *World) Step(ctx context.Context, frameDt float64) error {
	if !(frameDt > 0) {
		return nil
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrWorldStopped
	}
	dt := math.Min(frameDt, w.cfg.MaxFrameTime)
	var errs []error

	w.accumulator += dt
	for w.accumulator >= w.cfg.FixedStep {
		if err := w.scheduler.Run(ctx, systems.PhaseFixedUpdate, w.cfg.FixedStep); err != nil {
			errs = append(errs, err)
		}
		w.accumulator -= w.cfg.FixedStep
	}
	if err := w.scheduler.Run(ctx, systems.PhaseUpdate, dt); err != nil {
		errs = append(errs, err)
	}
	if err := w.scheduler.Run(ctx, systems.PhaseLateUpdate, dt); err != nil {
		errs = append(errs, err)
	}

	w.tick++
	w.now += dt
	frame := w.snapshotLocked()
	events := w.drain()
	w.mu.Unlock()

	for _, e := range events {
		e.Tick = frame.Tick
		w.logEvent(e)
		w.publish(e)
	}
	w.publish(bus.NewEvent(EventTick, eventSource, frame.Tick, frame))
	return errors.Join(errs...)
}

// Run steps the world in real time until ctx is done, Duration elapses or the
// world is stopped.
func (w *World) Run(ctx context.Context) error {
	interval := time.Duration(w.cfg.FrameStep * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var deadline <-chan time.Time
	if w.cfg.Duration > 0 {
		timer := time.NewTimer(time.Duration(w.cfg.Duration * float64(time.Second)))
		defer timer.Stop()
		deadline = timer.C
	}

	w.logger.Info("world running", log.Float64("frame_step", w.cfg.FrameStep), log.Float64("fixed_step", w.cfg.FixedStep))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-deadline:
			w.logger.Info("world run finished", log.Uint64("tick", w.Tick()))
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			start := time.Now()
			if err := w.Step(ctx, dt); err != nil {
				if errors.Is(err, ErrWorldStopped) {
					return err
				}
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("step failed", log.Error(err))
			}
			if elapsed := time.Since(start); elapsed > interval {
				w.logger.Warn("tick overrun", log.Duration("elapsed", elapsed), log.Duration("budget", interval))
			}
		}
	}
}

// Stop makes later Steps fail with ErrWorldStopped.
func (w *World) Stop() {
	w.mu.Lock()
	w.stopped = true
	w.mu.Unlock()
}

// Snapshot returns the current frame.
func (w *World) Snapshot() Frame {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *World) snapshotLocked() Frame {
	bounds, obstacles := sceneLayout(w.scene)
	frame := Frame{
		Tick:       w.tick,
		Time:       w.now,
		Bounds:     bounds,
		Obstacles:  obstacles,
		Fish:       make([]FishFrame, 0, len(w.fish)),
		Submarines: make([]SubFrame, 0, len(w.subs)),
	}
	for _, id := range w.fishIDsLocked() {
		f := w.fish[id]
		frame.Fish = append(frame.Fish, fishFrame(id, f.school, f.agent.State()))
	}
	for _, id := range w.subOrder {
		frame.Submarines = append(frame.Submarines, subFrame(w.subs[id]))
	}
	return frame
}

func (w *World) updateFish(ctx context.Context, dt float64) error {
	agents := agentScratch.Get()
	defer agentScratch.Put(agents)
	for _, f := range w.fish {
		*agents = append(*agents, f.agent)
	}
	return concurrent.ForEach(ctx, *agents, w.cfg.Workers, func(_ context.Context, a *steering.Agent) error {
		a.Update(dt)
		return nil
	})
}

func (w *World) fixedSubmarines(_ context.Context, dt float64) error {
	for _, id := range w.subOrder {
		w.subs[id].Controller.FixedUpdate(dt)
	}
	return nil
}

func (w *World) updateSubmarines(_ context.Context, dt float64) error {
	for _, id := range w.subOrder {
		sub := w.subs[id]
		sub.Input.Advance(dt)
		sub.Controller.Update(dt)
	}
	return nil
}

func (w *World) lateSubmarines(_ context.Context, _ float64) error {
	for _, id := range w.subOrder {
		w.subs[id].Controller.LateUpdate()
	}
	return nil
}

func (w *World) integrateBodies(_ context.Context, dt float64) error {
	bounds := w.scene.Bounds()
	for _, id := range w.subOrder {
		body := w.subs[id].Body
		body.Integrate(dt)
		if bounds != nil {
			keepInside(body, bounds.Box)
		}
	}
	return nil
}

// keepInside clamps a body to the tank and kills velocity into the wall.
func keepInside(body *physics.Body, box physics.Box) {
	pos := body.Transform().Position
	vel := body.Velocity()
	clamped := false
	for i := 0; i < 3; i++ {
		switch {
		case pos[i] < box.Min[i]:
			pos[i], clamped = box.Min[i], true
			vel[i] = math.Max(vel[i], 0)
		case pos[i] > box.Max[i]:
			pos[i], clamped = box.Max[i], true
			vel[i] = math.Min(vel[i], 0)
		}
	}
	if clamped {
		body.SetPosition(pos)
		body.SetVelocity(vel)
	}
}

func (w *World) onAgentEvent(seq uint64, school string, e steering.Event) {
	switch e.Kind {
	case steering.EventReselected:
		w.enqueue(seq, bus.NewEvent(EventFishReselected, eventSource, 0, fishFrame(e.AgentID, school, e.State)))
	case steering.EventIdleEntered, steering.EventIdleExited:
		w.enqueue(seq, bus.NewEvent(EventFishIdle, eventSource, 0, IdleChange{ID: e.AgentID, Idle: e.Kind == steering.EventIdleEntered}))
	}
}

func (w *World) enqueue(seq uint64, e bus.Event) {
	w.pendingMu.Lock()
	w.pending = append(w.pending, pendingEvent{seq: seq, event: e})
	w.pendingMu.Unlock()
}

// drain returns queued events ordered by agent spawn order.
func (w *World) drain() []bus.Event {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = nil
	w.pendingMu.Unlock()

	sort.SliceStable(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	out := make([]bus.Event, len(pending))
	for i, p := range pending {
		out[i] = p.event
	}
	return out
}

func (w *World) publish(e bus.Event) {
	if err := w.events.Publish(e); err != nil && !errors.Is(err, bus.ErrBusClosed) {
		w.logger.Warn("event handler failed", log.String("event", e.Type), log.Error(err))
	}
}

func (w *World) logEvent(e bus.Event) {
	switch e.Type {
	case EventFishReselected:
		if f, ok := e.Data.(FishFrame); ok {
			w.logger.Debug("waypoint reselected", log.String("id", f.ID), log.Vec3("waypoint", f.Waypoint), log.Float64("timer", f.Timer))
		}
	case EventFishIdle:
		if c, ok := e.Data.(IdleChange); ok {
			w.logger.Debug("idle changed", log.String("id", c.ID), log.Bool("idle", c.Idle))
		}
	}
}
