// Package server provides the HTTP server for the physio rehabilitation
// evaluation system.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/physio/internal/capture"
	"github.com/ayusman/physio/internal/metrics"
	"github.com/ayusman/physio/internal/pose"
	"github.com/ayusman/physio/internal/server/api"
	"github.com/ayusman/physio/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Detector  pose.Detector
	Metrics   *metrics.Metrics
}

// Server represents the HTTP server for the physio application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		exerciseHandler := api.NewExerciseHandler(s.config.Store)
		sessionsHandler := api.NewSessionsHandler(s.config.Store)

		// Route between exercises and the sessions sub-resource:
		// /api/exercises/{id}/sessions goes to the sessions handler.
		exerciseRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/sessions") {
				sessionsHandler.ServeHTTP(w, r)
				return
			}
			exerciseHandler.ServeHTTP(w, r)
		})

		s.mux.Handle("/api/exercises", exerciseRouter)
		s.mux.Handle("/api/exercises/", exerciseRouter)
		s.mux.Handle("/api/sessions", sessionsHandler)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.Store != nil && s.config.Camera != nil && s.config.Detector != nil {
		s.mux.Handle("/ws", NewEvaluationHandler(s.config.Store, s.config.Camera, s.config.Detector, s.config.Metrics))
	}

	if s.config.Metrics != nil {
		s.mux.Handle("/metrics", s.config.Metrics.Handler())
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
