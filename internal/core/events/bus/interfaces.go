package bus

import (
	"errors"
	"time"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

var (
	ErrBusClosed  = errors.New("event bus closed")
	ErrNilHandler = errors.New("event handler is nil")
	ErrEmptyType  = errors.New("event type is empty")
)

// EventBus is an in-process pub/sub bus for simulation events.
//
// Delivery is synchronous and runs handlers in subscription order in the
// publishing goroutine. Handler errors are joined and returned from Publish.
// Handlers should be quick; slow consumers belong behind their own queue.
type EventBus interface {
	Publish(event Event) error
	// PublishAsync delivers in a new goroutine. The channel receives the
	// joined handler error (or nil) and is then closed.
	PublishAsync(event Event) <-chan error
	PublishBatch(events ...Event) error

	// Subscribe registers handler for one event type, or for all of them
	// with Wildcard.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	Unsubscribe(sub Subscription) error

	Stats() Stats
	// Close drops every subscription. Later publishes fail with ErrBusClosed.
	Close() error
}

// Event is one simulation occurrence.
type Event struct {
	Type   string
	Source string
	// Tick is the simulation frame the event belongs to.
	Tick uint64
	Time time.Time
	Data any
}

// NewEvent stamps an event with the wall clock.
func NewEvent(eventType, source string, tick uint64, data any) Event {
	return Event{Type: eventType, Source: source, Tick: tick, Time: time.Now(), Data: data}
}

type EventHandler func(event Event) error

// Subscription is a handle returned by Subscribe.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	// Cancel removes the handler. Repeated calls are no-ops.
	Cancel() error
}

// Stats are running counters of the bus.
type Stats struct {
	Published   uint64
	Delivered   uint64
	Errors      uint64
	Subscribers int
}
