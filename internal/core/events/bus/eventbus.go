package bus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type subscription struct {
	id        string
	eventType string
	seq       uint64
	handler   EventHandler
	active    atomic.Bool
	bus       *inMemoryBus
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }

func (s *subscription) Cancel() error {
	if !s.active.CompareAndSwap(true, false) {
		return nil
	}
	s.bus.remove(s)
	return nil
}

type inMemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	seq    uint64
	closed bool

	published atomic.Uint64
	delivered atomic.Uint64
	failures  atomic.Uint64
}

// New creates an empty bus.
func New() EventBus {
	return &inMemoryBus{subs: make(map[string][]*subscription)}
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if eventType == "" {
		return nil, ErrEmptyType
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	b.seq++
	s := &subscription{id: uuid.NewString(), eventType: eventType, seq: b.seq, handler: handler, bus: b}
	s.active.Store(true)
	b.subs[eventType] = append(b.subs[eventType], s)
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) remove(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.eventType]
	for i, other := range list {
		if other == s {
			b.subs[s.eventType] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[s.eventType]) == 0 {
		delete(b.subs, s.eventType)
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	if event.Type == "" {
		return ErrEmptyType
	}
	targets, err := b.targets(event.Type)
	if err != nil {
		return err
	}
	b.published.Add(1)

	var errs []error
	for _, s := range targets {
		if !s.active.Load() {
			continue
		}
		b.delivered.Add(1)
		if herr := s.handler(event); herr != nil {
			errs = append(errs, fmt.Errorf("%s handler %s: %w", event.Type, s.id, herr))
		}
	}
	if len(errs) > 0 {
		b.failures.Add(1)
		return errors.Join(errs...)
	}
	return nil
}

// targets snapshots the handlers for eventType plus wildcard handlers in
// subscription order.
func (b *inMemoryBus) targets(eventType string) ([]*subscription, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrBusClosed
	}
	exact, wild := b.subs[eventType], b.subs[Wildcard]
	if eventType == Wildcard {
		wild = nil
	}
	out := make([]*subscription, 0, len(exact)+len(wild))
	i, j := 0, 0
	for i < len(exact) || j < len(wild) {
		if j >= len(wild) || (i < len(exact) && exact[i].seq < wild[j].seq) {
			out = append(out, exact[i])
			i++
			continue
		}
		out = append(out, wild[j])
		j++
	}
	return out, nil
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- b.Publish(event)
	}()
	return ch
}

func (b *inMemoryBus) PublishBatch(events ...Event) error {
	var errs []error
	for _, e := range events {
		if err := b.Publish(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *inMemoryBus) Stats() Stats {
	b.mu.RLock()
	subs := 0
	for _, list := range b.subs {
		subs += len(list)
	}
	b.mu.RUnlock()
	return Stats{
		Published:   b.published.Load(),
		Delivered:   b.delivered.Load(),
		Errors:      b.failures.Load(),
		Subscribers: subs,
	}
}

func (b *inMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, list := range b.subs {
		for _, s := range list {
			s.active.Store(false)
		}
	}
	b.subs = make(map[string][]*subscription)
	return nil
}
