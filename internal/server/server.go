// Package server exposes the HTTP API. Analysis and query responses
// stream as newline-delimited JSON events while the agent machine runs.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aixgo-dev/vidsense/internal/observability"
	"github.com/aixgo-dev/vidsense/internal/service"
	"github.com/aixgo-dev/vidsense/internal/session"
	"github.com/aixgo-dev/vidsense/internal/youtube"
	"github.com/aixgo-dev/vidsense/pkg/config"
)

const defaultQuestion = "What is the overall sentiment of the comments on this video?"

// Version reported by the health endpoint.
const Version = "1.0.0"

// Server routes HTTP requests to the analyzer.
type Server struct {
	cfg      *config.Config
	analyzer *service.Analyzer
	mux      *http.ServeMux
}

// New creates the server and registers its routes.
func New(cfg *config.Config, analyzer *service.Analyzer) *Server {
	s := &Server{cfg: cfg, analyzer: analyzer, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/query", s.handleQuery)
	s.mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.Handle("GET /metrics", observability.MetricsHandler())

	return s
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// SweepLoop periodically drops expired sessions until ctx is done.
func (s *Server) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.analyzer.Store().Sweep(); removed > 0 {
				log.Printf("[SERVER] swept %d expired sessions", removed)
			}
		}
	}
}

type analyzeRequest struct {
	URL         string `json:"url"`
	MaxComments int    `json:"max_comments"`
	Question    string `json:"question"`
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		req.Question = defaultQuestion
	}

	stream, ok := newEventStream(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if err := s.analyzer.Analyze(r.Context(), req.URL, req.MaxComments, req.Question, stream.emit); err != nil {
		stream.fail(err)
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" || req.Question == "" {
		http.Error(w, "session_id and question are required", http.StatusBadRequest)
		return
	}

	stream, ok := newEventStream(w)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if err := s.analyzer.Query(r.Context(), req.SessionID, req.Question, stream.emit); err != nil {
		stream.fail(err)
	}
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := s.analyzer.Store().ListActive()
	writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions": infos,
		"count":           len(infos),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.analyzer.Store().Get(id); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	s.analyzer.Store().Delete(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "session deleted", "session_id": id})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}

// eventStream writes NDJSON events and flushes after each line.
type eventStream struct {
	enc     *json.Encoder
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	return &eventStream{enc: json.NewEncoder(w), flusher: flusher}, true
}

func (s *eventStream) emit(e service.Event) {
	if err := s.enc.Encode(e); err != nil {
		log.Printf("[SERVER] write event: %v", err)
		return
	}
	s.flusher.Flush()
}

// fail converts a turn error into an error event on the open stream.
// The status line is already out, so the event is the only channel left.
func (s *eventStream) fail(err error) {
	content := "Internal error while processing the request"
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		content = "Session not found or expired. Start a new analysis."
	case errors.Is(err, youtube.ErrInvalidURL):
		content = "Could not extract a video id from the given URL."
	default:
		log.Printf("[SERVER] turn failed: %v", err)
	}
	s.emit(service.Event{Type: service.EventError, Content: content})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] write response: %v", err)
	}
}
