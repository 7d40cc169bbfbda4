package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Runs table - one row per analyzed image
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			image_path TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			dark_count INTEGER NOT NULL,
			light_count INTEGER NOT NULL,
			total_count INTEGER NOT NULL,
			dark_density REAL NOT NULL,
			light_density REAL NOT NULL,
			elapsed_ms INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Droplets table - per-droplet geometry and intensity rows for a run
		`CREATE TABLE IF NOT EXISTS droplets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			region TEXT NOT NULL CHECK(region IN ('dark', 'light')),
			area REAL NOT NULL,
			perimeter REAL NOT NULL,
			circularity REAL NOT NULL,
			mean_intensity REAL NOT NULL,
			background_intensity REAL NOT NULL,
			center_x REAL NOT NULL,
			center_y REAL NOT NULL
		)`,

		// Index for per-run droplet lookups
		`CREATE INDEX IF NOT EXISTS idx_droplets_run_id ON droplets(run_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
