package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	bus "github.com/zeusync/cavefish/internal/core/events/bus"
	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/world"
)

// FrameSource supplies the current world frame for on-demand reads.
type FrameSource interface {
	Snapshot() world.Frame
}

// SubmarineControl is implemented by sources that accept camera commands.
type SubmarineControl interface {
	RecenterSubmarine(id string) error
}

// Server streams world events to websocket clients and serves snapshots over
// plain HTTP.
type Server struct {
	source FrameSource
	events bus.EventBus
	sub    bus.Subscription

	httpServer *http.Server
	listener   net.Listener

	// Client management
	clients     sync.Map // map[string]*session
	clientCount int64    // atomic

	sent     uint64 // atomic
	dropped  uint64 // atomic
	lastTick uint64 // atomic

	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log

	admitMu     sync.Mutex
	workerGroup sync.WaitGroup
}

type Config struct {
	ListenAddr string
	MaxClients int
	// SendBuffer is the number of queued messages per client before new
	// ones are dropped for that client.
	SendBuffer   int
	WriteTimeout time.Duration
	PingInterval time.Duration
	// Token, when set, must be presented as ?token= or a bearer header.
	Token string
}

func DefaultServerConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8080",
		MaxClients:   256,
		SendBuffer:   16,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("%w: listen address is empty", ErrInvalidConfig))
	}
	if c.MaxClients < 1 {
		errs = append(errs, fmt.Errorf("%w: max clients %d", ErrInvalidConfig, c.MaxClients))
	}
	if c.SendBuffer < 1 {
		errs = append(errs, fmt.Errorf("%w: send buffer %d", ErrInvalidConfig, c.SendBuffer))
	}
	if c.WriteTimeout <= 0 || c.PingInterval <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}

// Message is the envelope written to websocket clients.
type Message struct {
	Type string `json:"type"`
	Tick uint64 `json:"tick"`
	Data any    `json:"data,omitempty"`
}

// MessageFrame carries a world.Frame; other messages use the event type.
const MessageFrame = "frame"

type Stats struct {
	Clients  int64  `json:"clients"`
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
	LastTick uint64 `json:"last_tick"`
	Running  bool   `json:"running"`
}

func NewServer(config Config, source FrameSource, events bus.EventBus, logger log.Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{
		source: source,
		events: events,
		config: config,
		logger: logger.With(log.String("component", "server")),
	}
	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_clients", config.MaxClients))
	return s, nil
}

// Start listens, subscribes to the event bus and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = listener

	if s.events != nil {
		sub, err := s.events.Subscribe(bus.Wildcard, s.OnEvent)
		if err != nil {
			_ = listener.Close()
			atomic.StoreInt32(&s.running, 0)
			return err
		}
		s.sub = sub
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.workerGroup.Add(1)
	go func() {
		defer s.workerGroup.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
		}
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))
	return nil
}

// Stop unsubscribes, disconnects every client and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}
	s.logger.Info("Stopping server")

	if s.sub != nil {
		_ = s.sub.Cancel()
	}
	err := s.httpServer.Shutdown(ctx)
	// wait out admits that read running before it was cleared
	s.admitMu.Lock()
	s.admitMu.Unlock()
	s.clients.Range(func(_, value any) bool {
		value.(*session).close()
		return true
	})
	s.workerGroup.Wait()

	s.logger.Info("Server stopped", log.Uint64("sent", atomic.LoadUint64(&s.sent)), log.Uint64("dropped", atomic.LoadUint64(&s.dropped)))
	return err
}

// Close stops the server if needed and prevents restarts.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		return s.Stop(context.Background())
	}
	return nil
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdown, cancel := context.WithTimeout(context.Background(), s.config.WriteTimeout)
	defer cancel()
	return s.Stop(shutdown)
}

// Addr is the bound address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// OnEvent fans a bus event out to every client. Clients whose queue is full
// miss the message rather than stall the simulation.
func (s *Server) OnEvent(e bus.Event) error {
	msg := Message{Type: e.Type, Tick: e.Tick, Data: e.Data}
	if e.Type == world.EventTick {
		msg.Type = MessageFrame
		atomic.StoreUint64(&s.lastTick, e.Tick)
	}
	if atomic.LoadInt64(&s.clientCount) == 0 {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}
	s.broadcast(payload)
	return nil
}

func (s *Server) broadcast(payload []byte) {
	s.clients.Range(func(_, value any) bool {
		sess := value.(*session)
		if sess.enqueue(payload) {
			atomic.AddUint64(&s.sent, 1)
		} else {
			atomic.AddUint64(&s.dropped, 1)
		}
		return true
	})
}

func (s *Server) GetStats() Stats {
	return Stats{
		Clients:  atomic.LoadInt64(&s.clientCount),
		Sent:     atomic.LoadUint64(&s.sent),
		Dropped:  atomic.LoadUint64(&s.dropped),
		LastTick: atomic.LoadUint64(&s.lastTick),
		Running:  atomic.LoadInt32(&s.running) == 1,
	}
}
