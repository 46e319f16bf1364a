// Package api provides HTTP API handlers for the physio rehabilitation
// evaluation system.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/physio/internal/pose"
	"github.com/ayusman/physio/internal/store"
)

// ExerciseHandler handles HTTP requests for exercise resources.
type ExerciseHandler struct {
	store *store.Store
}

// NewExerciseHandler creates a new ExerciseHandler with the given store.
func NewExerciseHandler(s *store.Store) *ExerciseHandler {
	return &ExerciseHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *ExerciseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/exercises or /api/exercises/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/exercises")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type exerciseRequest struct {
	Name      string   `json:"name"`
	Kpts      []int    `json:"kpts"`
	UpAngle   *float64 `json:"up_angle"`
	DownAngle *float64 `json:"down_angle"`
}

type exerciseResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kpts      [3]int  `json:"kpts"`
	UpAngle   float64 `json:"up_angle"`
	DownAngle float64 `json:"down_angle"`
	IsDefault bool    `json:"is_default"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Exercise to an exerciseResponse.
func toResponse(e *store.Exercise) exerciseResponse {
	return exerciseResponse{
		ID:        e.ID,
		Name:      e.Name,
		Kpts:      e.Kpts,
		UpAngle:   e.UpAngle,
		DownAngle: e.DownAngle,
		IsDefault: e.IsDefault,
		CreatedAt: e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: e.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// validate checks the cross-field rules shared by create and update.
func (req *exerciseRequest) validate() string {
	if req.Name == "" {
		return "Name is required"
	}
	if len(req.Kpts) != 3 {
		return "Exactly three keypoint indices are required"
	}
	for _, k := range req.Kpts {
		if k < 0 || k >= pose.NumLandmarks {
			return "Keypoint index out of range"
		}
	}
	if req.UpAngle == nil || req.DownAngle == nil {
		return "Both up_angle and down_angle are required"
	}
	if *req.DownAngle >= *req.UpAngle {
		return "down_angle must be less than up_angle"
	}
	if *req.DownAngle < 0 || *req.UpAngle > 180 {
		return "Angle thresholds must lie within [0, 180]"
	}
	return ""
}

// list handles GET /api/exercises and returns all exercises.
func (h *ExerciseHandler) list(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.store.Exercises().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exercises")
		return
	}

	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(exercises)),
	}

	for _, e := range exercises {
		response.Exercises = append(response.Exercises, toResponse(e))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/exercises/{id} and returns a single exercise.
func (h *ExerciseHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	exercise, err := h.store.Exercises().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(exercise))
}

// create handles POST /api/exercises and creates a new exercise.
func (h *ExerciseHandler) create(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	exercise := &store.Exercise{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Kpts:      [3]int{req.Kpts[0], req.Kpts[1], req.Kpts[2]},
		UpAngle:   *req.UpAngle,
		DownAngle: *req.DownAngle,
	}

	if err := h.store.Exercises().Create(exercise); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create exercise")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(exercise))
}

// update handles PUT /api/exercises/{id} and updates an existing exercise.
func (h *ExerciseHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	exercise, err := h.store.Exercises().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Unset fields keep their current values.
	if req.Name == "" {
		req.Name = exercise.Name
	}
	if req.Kpts == nil {
		req.Kpts = exercise.Kpts[:]
	}
	if req.UpAngle == nil {
		req.UpAngle = &exercise.UpAngle
	}
	if req.DownAngle == nil {
		req.DownAngle = &exercise.DownAngle
	}

	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	exercise.Name = req.Name
	exercise.Kpts = [3]int{req.Kpts[0], req.Kpts[1], req.Kpts[2]}
	exercise.UpAngle = *req.UpAngle
	exercise.DownAngle = *req.DownAngle

	if err := h.store.Exercises().Update(exercise); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update exercise")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(exercise))
}

// delete handles DELETE /api/exercises/{id} and removes an exercise.
func (h *ExerciseHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Exercises().Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Exercise not found")
		case errors.Is(err, store.ErrDefaultProtected):
			writeError(w, http.StatusForbidden, "Default exercises cannot be deleted")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to delete exercise")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
