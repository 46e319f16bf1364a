package app

import (
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/physio/internal/capture"
	"github.com/ayusman/physio/internal/metrics"
	"github.com/ayusman/physio/internal/pose"
)

// sequenceDetector plays back a fixed series of elbow angles, one per
// Detect call, holding the last angle once exhausted.
type sequenceDetector struct {
	mu     sync.Mutex
	angles []float64
	index  int
}

func (d *sequenceDetector) Detect(frame *gocv.Mat) ([]pose.PersonLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	i := d.index
	if i >= len(d.angles) {
		i = len(d.angles) - 1
	} else {
		d.index++
	}
	return []pose.PersonLandmarks{pose.ArmAtAngleLandmarks(d.angles[i])}, nil
}

func (d *sequenceDetector) Close() error { return nil }

func TestApp_PipelineCountsRepetitions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := newTestStore(t)
	m := metrics.New()
	a := New(Config{Store: s, Metrics: m})

	// Alternating black and white frames keep the motion detector firing
	// so the pipeline stays in active mode.
	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&black, &white}, true))

	// One full arm lift: extended, mid-range, lifted, mid-range, extended.
	a.SetDetector(&sequenceDetector{angles: []float64{60, 120, 170, 120, 60}})

	if err := a.SelectExercise("arm_lift"); err != nil {
		t.Fatalf("SelectExercise failed: %v", err)
	}
	if err := a.StartEvaluation(); err != nil {
		t.Fatalf("StartEvaluation failed: %v", err)
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer a.Stop()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if a.Count() >= 1 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if got := a.Count(); got < 1 {
		t.Fatalf("Count = %d, want at least 1 repetition", got)
	}

	if m.FramesEvaluated.Load() == 0 {
		t.Error("pipeline should have evaluated frames")
	}
	if m.RepsCounted.Load() == 0 {
		t.Error("reps counter should have incremented")
	}

	a.StopEvaluation()

	sessions, err := s.RepSessions().ListByExercise("arm_lift")
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d recorded sessions, want 1", len(sessions))
	}
	if sessions[0].Reps < 1 {
		t.Errorf("recorded Reps = %d, want at least 1", sessions[0].Reps)
	}
}

func TestApp_PipelineIdlesWithoutMotion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := newTestStore(t)
	m := metrics.New()
	a := New(Config{Store: s, Metrics: m})

	// Identical frames: the motion detector never fires, so the pipeline
	// stays idle and nothing reaches the pose detector.
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	a.SetCamera(capture.NewMockCamera([]*gocv.Mat{&frame}, true))
	a.SetDetector(&sequenceDetector{angles: []float64{60}})

	if err := a.SelectExercise("arm_lift"); err != nil {
		t.Fatalf("SelectExercise failed: %v", err)
	}
	if err := a.StartEvaluation(); err != nil {
		t.Fatalf("StartEvaluation failed: %v", err)
	}
	if err := a.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer a.Stop()

	time.Sleep(1 * time.Second)

	if m.FramesEvaluated.Load() != 0 {
		t.Errorf("FramesEvaluated = %d, want 0 while idle", m.FramesEvaluated.Load())
	}
	if m.FramesSkipped.Load() == 0 {
		t.Error("idle frames should have been counted as skipped")
	}
	if got := a.Count(); got != 0 {
		t.Errorf("Count = %d, want 0", got)
	}
}
