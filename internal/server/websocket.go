package server

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zeusync/cavefish/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// session is one websocket client with its own outbound queue.
type session struct {
	ID          string
	conn        *websocket.Conn
	send        chan []byte
	ConnectedAt time.Time

	closeOnce sync.Once
	done      chan struct{}
}

func (c *session) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *session) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&s.running) == 0 {
		http.Error(w, ErrServerNotRunning.Error(), http.StatusServiceUnavailable)
		return
	}
	if !s.reserveSlot() {
		s.logger.Warn("Maximum clients reached, rejecting connection", log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxClientsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&s.clientCount, -1)
		s.logger.Debug("Upgrade failed", log.Error(err))
		return
	}

	sess := &session{
		ID:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, s.config.SendBuffer),
		ConnectedAt: time.Now(),
		done:        make(chan struct{}),
	}
	if !s.admit(sess) {
		atomic.AddInt64(&s.clientCount, -1)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
			time.Now().Add(s.config.WriteTimeout))
		_ = conn.Close()
		return
	}
	s.logger.Info("Client connected",
		log.String("client_id", sess.ID),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))

	go s.writePump(sess)
	s.readPump(sess)
}

// reserveSlot claims one of MaxClients connection slots.
func (s *Server) reserveSlot() bool {
	for {
		n := atomic.LoadInt64(&s.clientCount)
		if n >= int64(s.config.MaxClients) {
			return false
		}
		if atomic.CompareAndSwapInt64(&s.clientCount, n, n+1) {
			return true
		}
	}
}

// admit registers a session unless Stop has begun. Stop takes the same lock
// after clearing running, so every admitted session is seen by its close
// sweep and counted by the worker group before Wait.
func (s *Server) admit(sess *session) bool {
	s.admitMu.Lock()
	defer s.admitMu.Unlock()
	if atomic.LoadInt32(&s.running) == 0 {
		return false
	}
	s.workerGroup.Add(1)
	s.clients.Store(sess.ID, sess)
	return true
}

// readPump discards client input and notices disconnects.
func (s *Server) readPump(sess *session) {
	defer func() {
		sess.close()
		s.clients.Delete(sess.ID)
		atomic.AddInt64(&s.clientCount, -1)
		s.logger.Info("Client disconnected",
			log.String("client_id", sess.ID),
			log.Int64("total_clients", atomic.LoadInt64(&s.clientCount)))
	}()

	sess.conn.SetReadLimit(4096)
	for {
		if _, _, err := sess.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(sess *session) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		_ = sess.conn.Close()
		s.workerGroup.Done()
	}()

	for {
		select {
		case <-sess.done:
			_ = sess.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"),
				time.Now().Add(s.config.WriteTimeout))
			return
		case payload := <-sess.send:
			_ = sess.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := sess.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Debug("Write failed", log.String("client_id", sess.ID), log.Error(err))
				sess.close()
				return
			}
		case <-ticker.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout)); err != nil {
				sess.close()
				return
			}
		}
	}
}
