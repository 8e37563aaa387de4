package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/brensch/snekarena/protocol"
	"github.com/brensch/snekarena/tracedb"
)

// StartResponse answers POST /api/start.
type StartResponse struct {
	SessionID string `json:"session_id"`
}

// SessionResponse answers GET /api/sessions/{id}.
type SessionResponse struct {
	Summary tracedb.SessionSummary `json:"summary"`
	Deaths  []tracedb.DeathCount   `json:"deaths"`
}

func withCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

// readCommand decodes an optional JSON command body. An empty body is a
// zero command.
func readCommand(r *http.Request) (protocol.Command, error) {
	var cmd protocol.Command
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		return cmd, err
	}
	if len(body) == 0 {
		return cmd, nil
	}
	err = json.Unmarshal(body, &cmd)
	return cmd, err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "status": s.sess.Status().String(), "session": s.sess.ID()})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	withCORS(w)
	writeJSON(w, s.sess.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if !s.cfg.Control {
		http.Error(w, "control disabled", http.StatusForbidden)
		return
	}
	cmd, err := readCommand(r)
	if err != nil {
		http.Error(w, "bad command: "+err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := cmd.PlayerOptions(s.sess.PlayerOptions())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, StartResponse{SessionID: s.sess.Start(&opts)})
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if !s.cfg.Control {
		http.Error(w, "control disabled", http.StatusForbidden)
		return
	}
	cmd, err := readCommand(r)
	if err != nil {
		http.Error(w, "bad command: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.sess.SetInput(cmd.Input())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if s.traces == nil {
		http.Error(w, "trace recording disabled", http.StatusServiceUnavailable)
		return
	}
	all, err := s.traces.Sessions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []tracedb.SessionSummary{}
	}
	writeJSON(w, all)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if s.traces == nil {
		http.Error(w, "trace recording disabled", http.StatusServiceUnavailable)
		return
	}
	id := r.PathValue("id")
	summary, err := s.traces.Session(r.Context(), id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	deaths, err := s.traces.Deaths(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, SessionResponse{Summary: summary, Deaths: deaths})
}

// handleTimeline serves the per-frame numbers of one recorded session.
// ?every=N keeps every Nth frame plus the last one.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	withCORS(w)
	if s.traces == nil {
		http.Error(w, "trace recording disabled", http.StatusServiceUnavailable)
		return
	}
	every := 1
	if v := r.URL.Query().Get("every"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "every must be a positive integer", http.StatusBadRequest)
			return
		}
		every = n
	}

	points, err := s.traces.Timeline(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if every > 1 {
		kept := make([]tracedb.FramePoint, 0, len(points)/every+1)
		for i, p := range points {
			if i%every == 0 || i == len(points)-1 {
				kept = append(kept, p)
			}
		}
		points = kept
	}
	writeJSON(w, points)
}
