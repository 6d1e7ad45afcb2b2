package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zeusync/cavefish/internal/core/observability/log"
	"github.com/zeusync/cavefish/internal/core/world"
)

// Handler routes /ws, /snapshot, /recenter, /stats and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.requireToken(http.HandlerFunc(s.handleWebSocket)))
	mux.Handle("/snapshot", s.requireToken(http.HandlerFunc(s.handleSnapshot)))
	mux.Handle("/recenter", s.requireToken(http.HandlerFunc(s.handleRecenter)))
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.source == nil {
		http.Error(w, "no world attached", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, s.source.Snapshot())
}

// handleRecenter resets the camera rig of the submarine named by ?id=.
func (s *Server) handleRecenter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	control, ok := s.source.(SubmarineControl)
	if !ok {
		http.Error(w, "submarine control unavailable", http.StatusServiceUnavailable)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	err := control.RecenterSubmarine(id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, world.ErrAgentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, world.ErrWorldStopped):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.logger.Warn("Recenter failed", log.String("id", id), log.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.GetStats())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", log.Error(err))
	}
}
