package steering

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/cavefish/internal/core/physics"
)

// EventKind names a notable transition of an agent.
type EventKind uint8

const (
	EventReselected EventKind = iota + 1
	EventIdleEntered
	EventIdleExited
)

func (k EventKind) String() string {
	switch k {
	case EventReselected:
		return "reselected"
	case EventIdleEntered:
		return "idle_entered"
	case EventIdleExited:
		return "idle_exited"
	default:
		return "unknown"
	}
}

// Event is delivered to the Observer after the tick that caused it.
type Event struct {
	Kind    EventKind
	AgentID string
	State   State
}

// Observer receives agent events. It runs on the goroutine calling Update.
type Observer func(Event)

type Option func(*Agent)

// WithObserver registers a callback for agent events.
func WithObserver(o Observer) Option {
	return func(a *Agent) { a.observer = o }
}

// WithRandom overrides the per-agent random source.
func WithRandom(rnd Random) Option {
	return func(a *Agent) {
		if rnd != nil {
			a.rnd = rnd
		}
	}
}

// Agent is one autonomous fish. Each agent owns its state; the caster is
// only read, so distinct agents may be updated concurrently.
type Agent struct {
	mu       sync.RWMutex
	id       string
	params   Params
	caster   physics.RayCaster
	rnd      Random
	observer Observer
	state    State
}

// NewAgent validates params and seeds the starting state at spawn. A nil
// caster is allowed: every probe then reads as open water.
func NewAgent(id string, params Params, caster physics.RayCaster, spawn physics.Transform, opts ...Option) (*Agent, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if spawn.Rotation.Len() == 0 {
		spawn.Rotation = mgl64.QuatIdent()
	}
	if !spawn.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpawn, spawn.Position)
	}
	spawn.Rotation = spawn.Rotation.Normalize()

	a := &Agent{
		id:     id,
		params: params,
		caster: caster,
		rnd:    NewRandom(SeedFor("fish", id)),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.state = Seed(caster, spawn, params, a.rnd)
	return a, nil
}

func (a *Agent) ID() string     { return a.id }
func (a *Agent) Params() Params { return a.params }

// State returns a copy of the current state.
func (a *Agent) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Update advances the agent by one frame of dt seconds.
func (a *Agent) Update(dt float64) {
	if !(dt > 0) {
		return
	}

	a.mu.Lock()
	events := a.step(dt)
	snapshot := a.state
	a.mu.Unlock()

	if a.observer == nil {
		return
	}
	for _, kind := range events {
		a.observer(Event{Kind: kind, AgentID: a.id, State: snapshot})
	}
}

func (a *Agent) step(dt float64) []EventKind {
	s := &a.state
	p := a.params
	s.Elapsed += dt

	if s.Idle {
		s.IdleTimer -= dt
		if s.IdleTimer <= 0 {
			s.Idle = false
			s.IdleTimer = 0
			return []EventKind{EventIdleExited}
		}
		return nil
	}

	var events []EventKind
	s.Timer -= dt
	if s.Timer <= 0 || s.DistanceToWaypoint() < p.WaypointRadius {
		sel := SelectTarget(a.caster, *s, p, a.rnd)
		s.Waypoint = sel.Waypoint
		s.TargetHeading = sel.TargetHeading
		s.Timer = sel.Timer
		events = append(events, EventReselected)
		if sel.Idle {
			s.Idle = true
			s.IdleTimer = p.IdleTime
			events = append(events, EventIdleEntered)
		}
	}

	repulsion := Avoid(a.caster, s.Position, s.Rotation, p.LookAheadDistance)
	s.TargetHeading = BlendAvoidance(s.TargetHeading, repulsion, p.AvoidanceForce*dt)

	*s = Integrate(*s, p, dt, a.rnd)
	return events
}
