package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/physio/internal/exercise"
	"github.com/ayusman/physio/internal/pose"
)

// Exercise represents an exercise definition stored in the database:
// the three keypoints forming the monitored joint and the angle thresholds.
type Exercise struct {
	ID        string
	Name      string
	Kpts      [3]int
	UpAngle   float64
	DownAngle float64
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Definition converts the stored record into the runtime definition the
// evaluator consumes.
func (e *Exercise) Definition() exercise.Definition {
	return exercise.Definition{
		ID:        e.ID,
		Name:      e.Name,
		Kpts:      []int{e.Kpts[0], e.Kpts[1], e.Kpts[2]},
		UpAngle:   e.UpAngle,
		DownAngle: e.DownAngle,
		Default:   e.IsDefault,
	}
}

// ExerciseRepository provides CRUD operations for exercise definitions.
type ExerciseRepository struct {
	db *sql.DB
}

// Exercises returns the exercise repository for this store.
func (s *Store) Exercises() *ExerciseRepository {
	return &ExerciseRepository{db: s.db}
}

// seedDefaultExercises inserts the built-in definitions on first open.
// Existing rows (including user-edited thresholds) are left untouched.
func (s *Store) seedDefaultExercises() error {
	defaults := []Exercise{
		{
			ID:        "arm_lift",
			Name:      "Arm Lift",
			Kpts:      [3]int{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
			UpAngle:   160.0,
			DownAngle: 90.0,
		},
		{
			ID:        "bicep_curl",
			Name:      "Bicep Curl",
			Kpts:      [3]int{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
			UpAngle:   160.0,
			DownAngle: 60.0,
		},
		{
			ID:        "shoulder_press",
			Name:      "Shoulder Press",
			Kpts:      [3]int{pose.LeftShoulder, pose.RightShoulder, pose.RightElbow},
			UpAngle:   160.0,
			DownAngle: 90.0,
		},
		{
			ID:        "squat",
			Name:      "Squat",
			Kpts:      [3]int{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
			UpAngle:   170.0,
			DownAngle: 90.0,
		},
		{
			ID:        "leg_lift",
			Name:      "Leg Lift",
			Kpts:      [3]int{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
			UpAngle:   170.0,
			DownAngle: 90.0,
		},
	}

	now := time.Now()
	for _, e := range defaults {
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO exercises
			 (id, name, kpt_a, kpt_b, kpt_c, up_angle, down_angle, is_default, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
			e.ID, e.Name, e.Kpts[0], e.Kpts[1], e.Kpts[2], e.UpAngle, e.DownAngle, now, now,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a new exercise definition into the database.
func (r *ExerciseRepository) Create(e *Exercise) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	isDefault := 0
	if e.IsDefault {
		isDefault = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO exercises
		 (id, name, kpt_a, kpt_b, kpt_c, up_angle, down_angle, is_default, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Kpts[0], e.Kpts[1], e.Kpts[2], e.UpAngle, e.DownAngle, isDefault, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

// GetByID retrieves an exercise definition by its ID.
func (r *ExerciseRepository) GetByID(id string) (*Exercise, error) {
	e := &Exercise{}
	var isDefault int

	err := r.db.QueryRow(
		`SELECT id, name, kpt_a, kpt_b, kpt_c, up_angle, down_angle, is_default, created_at, updated_at
		 FROM exercises WHERE id = ?`,
		id,
	).Scan(&e.ID, &e.Name, &e.Kpts[0], &e.Kpts[1], &e.Kpts[2],
		&e.UpAngle, &e.DownAngle, &isDefault, &e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	e.IsDefault = isDefault != 0
	return e, nil
}

// List retrieves all exercise definitions, built-ins first.
func (r *ExerciseRepository) List() ([]*Exercise, error) {
	rows, err := r.db.Query(
		`SELECT id, name, kpt_a, kpt_b, kpt_c, up_angle, down_angle, is_default, created_at, updated_at
		 FROM exercises ORDER BY is_default DESC, created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*Exercise
	for rows.Next() {
		e := &Exercise{}
		var isDefault int

		err := rows.Scan(&e.ID, &e.Name, &e.Kpts[0], &e.Kpts[1], &e.Kpts[2],
			&e.UpAngle, &e.DownAngle, &isDefault, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}

		e.IsDefault = isDefault != 0
		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

// Update updates an existing exercise definition. The is_default flag is
// preserved as stored; it cannot be changed through updates.
func (r *ExerciseRepository) Update(e *Exercise) error {
	e.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE exercises SET name = ?, kpt_a = ?, kpt_b = ?, kpt_c = ?,
		 up_angle = ?, down_angle = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Kpts[0], e.Kpts[1], e.Kpts[2], e.UpAngle, e.DownAngle, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an exercise definition by its ID. Built-in definitions
// are protected and return ErrDefaultProtected.
func (r *ExerciseRepository) Delete(id string) error {
	var isDefault int
	err := r.db.QueryRow(`SELECT is_default FROM exercises WHERE id = ?`, id).Scan(&isDefault)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if isDefault != 0 {
		return ErrDefaultProtected
	}

	_, err = r.db.Exec(`DELETE FROM exercises WHERE id = ?`, id)
	return err
}
