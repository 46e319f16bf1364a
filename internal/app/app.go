// Package app provides the main application logic for the physio
// rehabilitation evaluation system.
package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/physio/internal/capture"
	"github.com/ayusman/physio/internal/exercise"
	"github.com/ayusman/physio/internal/metrics"
	"github.com/ayusman/physio/internal/pose"
	"github.com/ayusman/physio/internal/store"
)

// Pipeline timing constants.
const (
	// IdleTimeoutMs is the time in milliseconds without motion before the
	// pipeline drops back to the idle frame rate.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	CameraID     int
	MotionThresh float64
	Metrics      *metrics.Metrics
}

// App owns the standalone evaluation pipeline: camera, motion gating,
// pose detection, and the repetition counter. The HTTP/WebSocket server
// runs its own per-client sessions; this pipeline backs the tray-driven
// desktop mode.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   pose.Detector
	session    *exercise.Session
	evaluating bool
	startedAt  time.Time
	mu         sync.RWMutex
	stopCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // 1% pixel change
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionDetector(motionThreshold),
		session: exercise.NewSession(),
	}

	// Try the YOLO pose service first, fall back to the mock detector.
	if yolo, err := pose.NewYOLODetector(pose.DefaultConfig()); err == nil {
		a.detector = yolo
		slog.Info("using YOLO pose detection")
	} else {
		slog.Warn("pose service not available, using mock detector", "error", err)
		a.detector = pose.NewMockDetector()
	}

	return a
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d pose.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the camera implementation. Used by tests.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SelectExercise loads an exercise definition from the store and installs
// it in the evaluation session, resetting all per-track state.
func (a *App) SelectExercise(id string) error {
	if a.config.Store == nil {
		return fmt.Errorf("no store configured")
	}

	ex, err := a.config.Store.Exercises().GetByID(id)
	if err != nil {
		return fmt.Errorf("load exercise %s: %w", id, err)
	}

	a.mu.Lock()
	a.session.SetExercise(ex.Definition())
	a.mu.Unlock()

	slog.Info("exercise selected", "id", ex.ID, "name", ex.Name)
	return nil
}

// StartEvaluation begins counting repetitions for the selected exercise.
func (a *App) StartEvaluation() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.session.Exercise(); !ok {
		return fmt.Errorf("no exercise selected")
	}
	if a.evaluating {
		return nil
	}

	a.evaluating = true
	a.startedAt = time.Now()
	if a.config.Metrics != nil {
		a.config.Metrics.SessionsStarted.Add(1)
	}
	return nil
}

// StopEvaluation halts counting and records the completed run.
func (a *App) StopEvaluation() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.evaluating {
		return
	}
	a.evaluating = false

	def, ok := a.session.Exercise()
	if !ok {
		return
	}

	reps := a.session.Count(exercise.DefaultTrackID)
	if a.config.Store != nil {
		rec := &store.RepSession{
			ID:           uuid.New().String(),
			ExerciseID:   def.ID,
			ExerciseName: def.Name,
			TrackID:      exercise.DefaultTrackID,
			Reps:         reps,
			StartedAt:    a.startedAt,
			EndedAt:      time.Now(),
		}
		if err := a.config.Store.RepSessions().Create(rec); err != nil {
			slog.Error("failed to record session", "error", err)
		}
	}
	if a.config.Metrics != nil {
		a.config.Metrics.SessionsFinished.Add(1)
	}
	slog.Info("evaluation stopped", "exercise", def.Name, "reps", reps)
}

// IsEvaluating returns whether repetition counting is active.
func (a *App) IsEvaluating() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.evaluating
}

// Count returns the current repetition count for the primary subject.
func (a *App) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Count(exercise.DefaultTrackID)
}

// Start begins the capture pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}

	a.camera.SetFPS(capture.IdleFPS)

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	slog.Info("evaluation pipeline started")
	return nil
}

// Stop halts the pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}
	a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		slog.Error("error closing camera", "error", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			slog.Error("error closing detector", "error", err)
		}
	}

	slog.Info("evaluation pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// Detector returns the pose detector.
func (a *App) Detector() pose.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Session returns the evaluation session.
func (a *App) Session() *exercise.Session {
	return a.session
}
