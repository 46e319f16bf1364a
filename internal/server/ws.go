package server

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/physio/internal/capture"
	"github.com/ayusman/physio/internal/exercise"
	"github.com/ayusman/physio/internal/metrics"
	"github.com/ayusman/physio/internal/pose"
	"github.com/ayusman/physio/internal/store"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// pushInterval controls the processed-frame push rate (~30 FPS).
const pushInterval = 33 * time.Millisecond

// confidenceSetter is implemented by detectors whose score threshold can
// be adjusted at runtime.
type confidenceSetter interface {
	SetMinConfidence(v float64)
}

// EvaluationHandler runs exercise evaluation over a WebSocket connection.
// Each connection owns its own evaluation session, so two clients watching
// the same camera count repetitions independently.
type EvaluationHandler struct {
	store    *store.Store
	camera   capture.Camera
	detector pose.Detector
	metrics  *metrics.Metrics
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(s *store.Store, c capture.Camera, d pose.Detector, m *metrics.Metrics) *EvaluationHandler {
	return &EvaluationHandler{store: s, camera: c, detector: d, metrics: m}
}

// inbound is the envelope for client messages.
type inbound struct {
	Type     string            `json:"type"`
	ActionID string            `json:"action_id"`
	Settings map[string]string `json:"settings"`
}

// wsConn wraps a websocket connection with a write lock, since the push
// loop and the command loop both write to it.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) sendError(message string) {
	c.send(map[string]any{"type": "error", "message": message, "status": "error"})
}

// evalState is the per-connection evaluation state shared between the
// command loop and the push loop.
type evalState struct {
	mu         sync.Mutex
	session    *exercise.Session
	evaluating bool
	startedAt  time.Time
	lastCount  int
}

// ServeHTTP upgrades the connection and runs the evaluation protocol.
func (h *EvaluationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.ActiveClients.Add(1)
		h.metrics.TotalClients.Add(1)
		defer func() { h.metrics.ActiveClients.Add(^uint64(0)) }()
	}

	c := &wsConn{conn: conn}

	if h.camera != nil && !h.camera.IsOpen() {
		if err := h.camera.Open(); err != nil {
			c.sendError("Failed to open camera")
			return
		}
	}

	// Clients get the full exercise list immediately on connect.
	if err := h.sendActions(c); err != nil {
		return
	}

	state := &evalState{session: exercise.NewSession()}
	done := make(chan struct{})
	defer close(done)

	go h.pushFrames(c, state, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			h.finishSession(state)
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("Invalid JSON")
			continue
		}

		switch msg.Type {
		case "get_actions":
			h.sendActions(c)

		case "action_select":
			name, err := h.selectExercise(state, msg.ActionID)
			if err != nil {
				c.sendError("Unknown exercise")
				continue
			}
			c.send(map[string]any{"type": "action_selected", "action_name": name, "status": "success"})

		case "start_evaluation":
			name, err := h.selectExercise(state, msg.ActionID)
			if err != nil {
				c.sendError("Unknown exercise")
				continue
			}
			state.mu.Lock()
			state.evaluating = true
			state.startedAt = time.Now()
			state.mu.Unlock()
			if h.metrics != nil {
				h.metrics.SessionsStarted.Add(1)
			}
			slog.Info("evaluation started", "exercise", name)
			c.send(map[string]any{"type": "evaluation_started", "action_name": name, "status": "success"})

		case "stop_evaluation", "action_stop":
			h.finishSession(state)
			c.send(map[string]any{"type": "action_stopped", "message": "Evaluation stopped", "status": "success"})

		case "settings_change":
			h.applySettings(msg.Settings)
			c.send(map[string]any{"type": "settings_updated", "settings": msg.Settings, "status": "success"})

		default:
			c.sendError("Unknown message type")
		}
	}
}

// sendActions sends the current exercise list.
func (h *EvaluationHandler) sendActions(c *wsConn) error {
	exercises, err := h.store.Exercises().List()
	if err != nil {
		c.sendError("Failed to load exercises")
		return err
	}

	actions := make([]map[string]any, 0, len(exercises))
	for _, e := range exercises {
		actions = append(actions, map[string]any{
			"id":         e.ID,
			"name":       e.Name,
			"kpts":       e.Kpts,
			"up_angle":   e.UpAngle,
			"down_angle": e.DownAngle,
		})
	}

	return c.send(map[string]any{"type": "actions_list", "actions": actions, "status": "success"})
}

// selectExercise loads the exercise and installs it in the session,
// resetting any accumulated counts.
func (h *EvaluationHandler) selectExercise(state *evalState, id string) (string, error) {
	ex, err := h.store.Exercises().GetByID(id)
	if err != nil {
		return "", err
	}

	state.mu.Lock()
	state.session.SetExercise(ex.Definition())
	state.lastCount = 0
	state.mu.Unlock()

	return ex.Name, nil
}

// finishSession stops evaluation and records the completed run.
func (h *EvaluationHandler) finishSession(state *evalState) {
	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.evaluating {
		return
	}
	state.evaluating = false

	def, ok := state.session.Exercise()
	if !ok {
		return
	}

	rec := &store.RepSession{
		ID:           uuid.New().String(),
		ExerciseID:   def.ID,
		ExerciseName: def.Name,
		TrackID:      exercise.DefaultTrackID,
		Reps:         state.session.Count(exercise.DefaultTrackID),
		StartedAt:    state.startedAt,
		EndedAt:      time.Now(),
	}
	if err := h.store.RepSessions().Create(rec); err != nil {
		slog.Error("failed to record session", "error", err)
	}
	if h.metrics != nil {
		h.metrics.SessionsFinished.Add(1)
	}
	slog.Info("evaluation stopped", "exercise", def.Name, "reps", rec.Reps)
}

// applySettings persists client settings and applies the ones the
// pipeline understands.
func (h *EvaluationHandler) applySettings(settings map[string]string) {
	for key, value := range settings {
		if err := h.store.Settings().Set(key, value); err != nil {
			slog.Error("failed to persist setting", "key", key, "error", err)
		}
	}

	if v, ok := settings["confidence"]; ok {
		conf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("ignoring invalid confidence setting", "value", v)
		} else if cs, ok := h.detector.(confidenceSetter); ok {
			cs.SetMinConfidence(conf)
		}
	}
}

// pushFrames streams processed frames and evaluation results while
// evaluation is active.
func (h *EvaluationHandler) pushFrames(c *wsConn, state *evalState, done <-chan struct{}) {
	ticker := time.NewTicker(pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		state.mu.Lock()
		evaluating := state.evaluating
		def, hasDef := state.session.Exercise()
		state.mu.Unlock()

		if !evaluating || !hasDef {
			continue
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			continue
		}
		if h.metrics != nil {
			h.metrics.FramesCaptured.Add(1)
		}

		persons, err := h.detector.Detect(frame)
		if err != nil {
			frame.Close()
			if h.metrics != nil {
				h.metrics.DetectErrors.Add(1)
			}
			continue
		}

		var person *pose.PersonLandmarks
		if len(persons) > 0 {
			person = &persons[0]
		}

		state.mu.Lock()
		result := state.session.Evaluate(person)
		newReps := result.Count - state.lastCount
		if newReps > 0 {
			state.lastCount = result.Count
		}
		state.mu.Unlock()

		if h.metrics != nil {
			h.metrics.FramesEvaluated.Add(1)
			h.metrics.PersonsDetected.Add(uint64(len(persons)))
			if newReps > 0 {
				h.metrics.RepsCounted.Add(uint64(newReps))
			}
		}

		drawOverlay(frame, persons, def, result)

		buf, err := gocv.IMEncode(".jpg", *frame)
		frame.Close()
		if err != nil {
			continue
		}
		encoded := base64.StdEncoding.EncodeToString(buf.GetBytes())
		buf.Close()

		if err := c.send(map[string]any{"type": "processed_frame", "data": encoded, "status": "success"}); err != nil {
			return
		}
		if err := c.send(map[string]any{
			"type":   "result",
			"angle":  result.Angle,
			"count":  result.Count,
			"stage":  string(result.Stage),
			"status": "success",
		}); err != nil {
			return
		}
	}
}
