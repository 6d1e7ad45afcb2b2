package systems

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var ErrDuplicateSystem = errors.New("system already registered")

// System is one processor of the simulation loop. FixedUpdate runs at the
// physics cadence, Update and LateUpdate once per frame.
type System interface {
	Name() string
	Priority() Priority

	FixedUpdate(ctx context.Context, fixedDeltaTime float64) error
	Update(ctx context.Context, deltaTime float64) error
	LateUpdate(ctx context.Context, deltaTime float64) error
}

// PhaseReporter is implemented by systems that only handle some phases.
// The scheduler skips, and does not count, phases a system reports it lacks.
type PhaseReporter interface {
	Handles(phase ExecutionPhase) bool
}

// Priority orders systems within a phase; higher runs first.
type Priority uint16

const (
	PriorityLowest  Priority = 200
	PriorityLow     Priority = 500
	PriorityNormal  Priority = 600
	PriorityHigh    Priority = 1000
	PriorityHighest Priority = 1300
)

// ExecutionPhase names a callback of the loop.
type ExecutionPhase uint8

const (
	PhaseFixedUpdate ExecutionPhase = iota
	PhaseUpdate
	PhaseLateUpdate
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhaseFixedUpdate:
		return "fixed_update"
	case PhaseUpdate:
		return "update"
	case PhaseLateUpdate:
		return "late_update"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
}

// Funcs builds a System from plain functions; nil phases are skipped.
type Funcs struct {
	ID    string
	Order Priority
	Fixed func(ctx context.Context, dt float64) error
	Frame func(ctx context.Context, dt float64) error
	Late  func(ctx context.Context, dt float64) error
}

func (f Funcs) Name() string       { return f.ID }
func (f Funcs) Priority() Priority { return f.Order }

func (f Funcs) FixedUpdate(ctx context.Context, dt float64) error { return call(f.Fixed, ctx, dt) }
func (f Funcs) Update(ctx context.Context, dt float64) error      { return call(f.Frame, ctx, dt) }
func (f Funcs) LateUpdate(ctx context.Context, dt float64) error  { return call(f.Late, ctx, dt) }

func (f Funcs) Handles(phase ExecutionPhase) bool {
	switch phase {
	case PhaseFixedUpdate:
		return f.Fixed != nil
	case PhaseUpdate:
		return f.Frame != nil
	case PhaseLateUpdate:
		return f.Late != nil
	default:
		return false
	}
}

func call(fn func(context.Context, float64) error, ctx context.Context, dt float64) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, dt)
}

type entry struct {
	system  System
	seq     int
	metrics Metrics
}

// Scheduler runs registered systems phase by phase in priority order.
// Registration order breaks ties.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	clock   func() time.Time
}

func NewScheduler() *Scheduler {
	return &Scheduler{clock: time.Now}
}

func (s *Scheduler) Register(sys System) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.system.Name() == sys.Name() {
			return fmt.Errorf("%w: %s", ErrDuplicateSystem, sys.Name())
		}
	}
	s.entries = append(s.entries, &entry{system: sys, seq: len(s.entries)})
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if a.system.Priority() != b.system.Priority() {
			return a.system.Priority() > b.system.Priority()
		}
		return a.seq < b.seq
	})
	return nil
}

// Names returns the systems in execution order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.system.Name()
	}
	return out
}

// Run executes one phase across all systems. A failing system does not stop
// the others; the errors are joined.
func (s *Scheduler) Run(ctx context.Context, phase ExecutionPhase, dt float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, e := range s.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r, ok := e.system.(PhaseReporter); ok && !r.Handles(phase) {
			continue
		}
		start := s.clock()
		var err error
		switch phase {
		case PhaseFixedUpdate:
			err = e.system.FixedUpdate(ctx, dt)
		case PhaseUpdate:
			err = e.system.Update(ctx, dt)
		case PhaseLateUpdate:
			err = e.system.LateUpdate(ctx, dt)
		}
		e.record(s.clock().Sub(start), err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %s: %w", e.system.Name(), phase, err))
		}
	}
	return errors.Join(errs...)
}

// Metrics returns the accumulated metrics of a system.
func (s *Scheduler) Metrics(name string) (Metrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.system.Name() == name {
			return e.metrics, true
		}
	}
	return Metrics{}, false
}

func (e *entry) record(d time.Duration, err error) {
	m := &e.metrics
	m.ExecutionCount++
	m.TotalExecutionTime += d
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if d > m.MaxExecutionTime {
		m.MaxExecutionTime = d
	}
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
