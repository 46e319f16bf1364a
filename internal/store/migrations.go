package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Exercises table - stores exercise definitions
		`CREATE TABLE IF NOT EXISTS exercises (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			kpt_a INTEGER NOT NULL,
			kpt_b INTEGER NOT NULL,
			kpt_c INTEGER NOT NULL,
			up_angle REAL NOT NULL,
			down_angle REAL NOT NULL,
			is_default INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Rep sessions table - stores one row per completed evaluation run
		`CREATE TABLE IF NOT EXISTS rep_sessions (
			id TEXT PRIMARY KEY,
			exercise_id TEXT NOT NULL,
			exercise_name TEXT NOT NULL,
			track_id INTEGER NOT NULL DEFAULT 0,
			reps INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME NOT NULL
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_rep_sessions_exercise_id ON rep_sessions(exercise_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rep_sessions_started_at ON rep_sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
