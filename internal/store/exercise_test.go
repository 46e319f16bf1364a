package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ayusman/physio/internal/pose"
)

func TestExerciseRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	ex := &Exercise{
		ID:        "knee_extension",
		Name:      "Knee Extension",
		Kpts:      [3]int{pose.RightHip, pose.RightKnee, pose.RightAnkle},
		UpAngle:   165,
		DownAngle: 95,
	}

	if err := repo.Create(ex); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	if ex.CreatedAt.IsZero() || ex.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	retrieved, err := repo.GetByID("knee_extension")
	if err != nil {
		t.Fatalf("failed to get exercise by ID: %v", err)
	}

	if retrieved.Name != ex.Name {
		t.Errorf("Name mismatch: got %q, want %q", retrieved.Name, ex.Name)
	}
	if retrieved.Kpts != ex.Kpts {
		t.Errorf("Kpts mismatch: got %v, want %v", retrieved.Kpts, ex.Kpts)
	}
	if retrieved.UpAngle != ex.UpAngle || retrieved.DownAngle != ex.DownAngle {
		t.Errorf("thresholds mismatch: got (%f, %f), want (%f, %f)",
			retrieved.DownAngle, retrieved.UpAngle, ex.DownAngle, ex.UpAngle)
	}
	if retrieved.IsDefault {
		t.Error("user-created exercise should not be default")
	}
}

func TestExerciseRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	first := &Exercise{
		ID:   "ex-1",
		Name: "Knee Extension",
		Kpts: [3]int{pose.RightHip, pose.RightKnee, pose.RightAnkle},
	}
	second := &Exercise{
		ID:   "ex-2",
		Name: "Knee Extension", // same name
		Kpts: [3]int{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
	}

	if err := repo.Create(first); err != nil {
		t.Fatalf("failed to create first exercise: %v", err)
	}
	if err := repo.Create(second); err == nil {
		t.Error("creating exercise with duplicate name should fail")
	}
}

func TestExerciseRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Exercises().GetByID("nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestExerciseRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	ex := &Exercise{
		ID:        "ex-1",
		Name:      "Knee Extension",
		Kpts:      [3]int{pose.RightHip, pose.RightKnee, pose.RightAnkle},
		UpAngle:   165,
		DownAngle: 95,
	}
	if err := repo.Create(ex); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	originalUpdatedAt := ex.UpdatedAt
	time.Sleep(10 * time.Millisecond)

	ex.Name = "Seated Knee Extension"
	ex.DownAngle = 85
	if err := repo.Update(ex); err != nil {
		t.Fatalf("failed to update exercise: %v", err)
	}

	retrieved, err := repo.GetByID("ex-1")
	if err != nil {
		t.Fatalf("failed to get exercise after update: %v", err)
	}

	if retrieved.Name != "Seated Knee Extension" {
		t.Errorf("Name not updated: got %q", retrieved.Name)
	}
	if retrieved.DownAngle != 85 {
		t.Errorf("DownAngle not updated: got %f", retrieved.DownAngle)
	}
	if !retrieved.UpdatedAt.After(originalUpdatedAt) {
		t.Error("UpdatedAt should advance after Update")
	}
}

func TestExerciseRepository_Update_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Exercises().Update(&Exercise{ID: "nonexistent", Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestExerciseRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	ex := &Exercise{
		ID:   "ex-1",
		Name: "Knee Extension",
		Kpts: [3]int{pose.RightHip, pose.RightKnee, pose.RightAnkle},
	}
	if err := repo.Create(ex); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	if err := repo.Delete("ex-1"); err != nil {
		t.Fatalf("failed to delete exercise: %v", err)
	}

	if _, err := repo.GetByID("ex-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
}

func TestExerciseRepository_Delete_DefaultProtected(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	err := repo.Delete("squat")
	if !errors.Is(err, ErrDefaultProtected) {
		t.Fatalf("expected ErrDefaultProtected, got: %v", err)
	}

	// The row must still exist.
	if _, err := repo.GetByID("squat"); err != nil {
		t.Errorf("default exercise should survive a delete attempt: %v", err)
	}
}

func TestExerciseRepository_Delete_NotFound(t *testing.T) {
	s := newTestStore(t)

	if err := s.Exercises().Delete("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestExercise_Definition(t *testing.T) {
	e := &Exercise{
		ID:        "arm_lift",
		Name:      "Arm Lift",
		Kpts:      [3]int{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
		UpAngle:   160,
		DownAngle: 90,
		IsDefault: true,
	}

	def := e.Definition()

	if def.ID != e.ID || def.Name != e.Name {
		t.Errorf("identity mismatch: got (%q, %q)", def.ID, def.Name)
	}
	if len(def.Kpts) != 3 {
		t.Fatalf("len(Kpts) = %d, want 3", len(def.Kpts))
	}
	for i := range def.Kpts {
		if def.Kpts[i] != e.Kpts[i] {
			t.Errorf("Kpts[%d] = %d, want %d", i, def.Kpts[i], e.Kpts[i])
		}
	}
	if def.UpAngle != e.UpAngle || def.DownAngle != e.DownAngle {
		t.Error("thresholds not carried over")
	}
	if !def.Default {
		t.Error("default flag not carried over")
	}
}
