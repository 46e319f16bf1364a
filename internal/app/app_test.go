package app

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ayusman/physio/internal/pose"
	"github.com/ayusman/physio/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestApp_SelectExercise(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{Store: s})
	a.SetDetector(pose.NewMockDetector())

	t.Run("known exercise", func(t *testing.T) {
		if err := a.SelectExercise("arm_lift"); err != nil {
			t.Fatalf("SelectExercise failed: %v", err)
		}

		def, ok := a.Session().Exercise()
		if !ok {
			t.Fatal("session should have an active exercise")
		}
		if def.Name != "Arm Lift" {
			t.Errorf("Name = %q, want Arm Lift", def.Name)
		}
	})

	t.Run("unknown exercise", func(t *testing.T) {
		err := a.SelectExercise("nonexistent")
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("no store", func(t *testing.T) {
		bare := New(Config{})
		bare.SetDetector(pose.NewMockDetector())
		if err := bare.SelectExercise("arm_lift"); err == nil {
			t.Error("expected error without a store")
		}
	})
}

func TestApp_StartEvaluation_RequiresExercise(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{Store: s})
	a.SetDetector(pose.NewMockDetector())

	if err := a.StartEvaluation(); err == nil {
		t.Error("StartEvaluation should fail before an exercise is selected")
	}

	if err := a.SelectExercise("squat"); err != nil {
		t.Fatalf("SelectExercise failed: %v", err)
	}
	if err := a.StartEvaluation(); err != nil {
		t.Errorf("StartEvaluation failed: %v", err)
	}
	if !a.IsEvaluating() {
		t.Error("IsEvaluating should be true after start")
	}

	// Starting twice is a no-op.
	if err := a.StartEvaluation(); err != nil {
		t.Errorf("second StartEvaluation failed: %v", err)
	}
}

func TestApp_StopEvaluation_RecordsSession(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{Store: s})
	a.SetDetector(pose.NewMockDetector())

	if err := a.SelectExercise("arm_lift"); err != nil {
		t.Fatalf("SelectExercise failed: %v", err)
	}
	if err := a.StartEvaluation(); err != nil {
		t.Fatalf("StartEvaluation failed: %v", err)
	}

	a.StopEvaluation()

	if a.IsEvaluating() {
		t.Error("IsEvaluating should be false after stop")
	}

	sessions, err := s.RepSessions().ListByExercise("arm_lift")
	if err != nil {
		t.Fatalf("failed to list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d recorded sessions, want 1", len(sessions))
	}
	if sessions[0].ExerciseName != "Arm Lift" {
		t.Errorf("ExerciseName = %q", sessions[0].ExerciseName)
	}

	// Stopping again must not record a second session.
	a.StopEvaluation()
	sessions, _ = s.RepSessions().ListByExercise("arm_lift")
	if len(sessions) != 1 {
		t.Errorf("duplicate stop recorded %d sessions", len(sessions))
	}
}
