package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/physio/internal/store"
)

// SessionsHandler handles HTTP requests for recorded evaluation sessions.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

const defaultRecentLimit = 50

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/sessions and /api/exercises/{id}/sessions
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/api/sessions" {
		h.listRecent(w, r)
		return
	}

	// /api/exercises/{id}/sessions
	path := strings.TrimPrefix(r.URL.Path, "/api/exercises/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "sessions" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	h.listByExercise(w, r, parts[0])
}

type listSessionsResponse struct {
	Sessions []*store.RepSession `json:"sessions"`
}

// listRecent handles GET /api/sessions?limit=N
func (h *SessionsHandler) listRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	sessions, err := h.store.RepSessions().ListRecent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.RepSession{}
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

// listByExercise handles GET /api/exercises/{id}/sessions
func (h *SessionsHandler) listByExercise(w http.ResponseWriter, r *http.Request, exerciseID string) {
	if _, err := h.store.Exercises().GetByID(exerciseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify exercise")
		return
	}

	sessions, err := h.store.RepSessions().ListByExercise(exerciseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.RepSession{}
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}
