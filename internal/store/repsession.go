package store

import (
	"database/sql"
	"time"
)

// RepSession records one completed evaluation run: which exercise was
// performed and how many repetitions were counted.
type RepSession struct {
	ID           string    `json:"id"`
	ExerciseID   string    `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	TrackID      int       `json:"track_id"`
	Reps         int       `json:"reps"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// RepSessionRepository provides persistence for completed evaluation runs.
type RepSessionRepository struct {
	db *sql.DB
}

// RepSessions returns the rep session repository for this store.
func (s *Store) RepSessions() *RepSessionRepository {
	return &RepSessionRepository{db: s.db}
}

// Create inserts a completed session record.
func (r *RepSessionRepository) Create(rs *RepSession) error {
	_, err := r.db.Exec(
		`INSERT INTO rep_sessions (id, exercise_id, exercise_name, track_id, reps, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rs.ID, rs.ExerciseID, rs.ExerciseName, rs.TrackID, rs.Reps, rs.StartedAt, rs.EndedAt,
	)
	return err
}

// ListByExercise retrieves all recorded sessions for an exercise, most
// recent first.
func (r *RepSessionRepository) ListByExercise(exerciseID string) ([]*RepSession, error) {
	rows, err := r.db.Query(
		`SELECT id, exercise_id, exercise_name, track_id, reps, started_at, ended_at
		 FROM rep_sessions WHERE exercise_id = ? ORDER BY started_at DESC`,
		exerciseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRepSessions(rows)
}

// ListRecent retrieves the most recent sessions across all exercises.
func (r *RepSessionRepository) ListRecent(limit int) ([]*RepSession, error) {
	rows, err := r.db.Query(
		`SELECT id, exercise_id, exercise_name, track_id, reps, started_at, ended_at
		 FROM rep_sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRepSessions(rows)
}

func scanRepSessions(rows *sql.Rows) ([]*RepSession, error) {
	var sessions []*RepSession
	for rows.Next() {
		rs := &RepSession{}
		err := rows.Scan(&rs.ID, &rs.ExerciseID, &rs.ExerciseName, &rs.TrackID,
			&rs.Reps, &rs.StartedAt, &rs.EndedAt)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rs)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
