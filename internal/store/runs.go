package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/ayusman/dropcount/internal/analyze"
	"github.com/ayusman/dropcount/internal/detect"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Run is an analysis run as stored in the database.
type Run struct {
	ID           string
	ImagePath    string
	Width        int
	Height       int
	DarkCount    int
	LightCount   int
	TotalCount   int
	DarkDensity  float64
	LightDensity float64
	ElapsedMs    int64
	CreatedAt    time.Time
}

// DropletRow is one stored droplet detection.
type DropletRow struct {
	ID                  int64
	RunID               string
	Region              detect.Mode
	Area                float64
	Perimeter           float64
	Circularity         float64
	MeanIntensity       float64
	BackgroundIntensity float64
	CenterX             float64
	CenterY             float64
}

// RunRepository provides CRUD operations for analysis runs.
type RunRepository struct {
	db *sql.DB
}

// Runs returns the run repository for this store.
func (s *Store) Runs() *RunRepository {
	return &RunRepository{db: s.db}
}

// Create persists a report and its droplet rows in one transaction.
func (r *RunRepository) Create(report *analyze.Report) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, image_path, width, height, dark_count, light_count,
		                   total_count, dark_density, light_density, elapsed_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.ImagePath, report.Width, report.Height,
		report.Summary.DarkCount, report.Summary.LightCount, report.Summary.TotalCount,
		report.DarkDensity.PerPixel, report.LightDensity.PerPixel,
		report.Elapsed.Milliseconds(), report.CreatedAt,
	)
	if err != nil {
		return err
	}

	insert := func(droplets []detect.Droplet) error {
		for _, d := range droplets {
			cx, cy := d.Centroid()
			_, err := tx.Exec(
				`INSERT INTO droplets (run_id, region, area, perimeter, circularity,
				                       mean_intensity, background_intensity, center_x, center_y)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				report.ID, string(d.Mode), d.Area, d.Perimeter, d.Circularity,
				d.MeanIntensity, d.BackgroundIntensity, cx, cy,
			)
			if err != nil {
				return err
			}
		}
		return nil
	}

	if err := insert(report.Dark); err != nil {
		return err
	}
	if err := insert(report.Light); err != nil {
		return err
	}

	return tx.Commit()
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*Run, error) {
	run := &Run{}
	err := r.db.QueryRow(
		`SELECT id, image_path, width, height, dark_count, light_count,
		        total_count, dark_density, light_density, elapsed_ms, created_at
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.ImagePath, &run.Width, &run.Height,
		&run.DarkCount, &run.LightCount, &run.TotalCount,
		&run.DarkDensity, &run.LightDensity, &run.ElapsedMs, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns all runs, most recent first.
func (r *RunRepository) List() ([]*Run, error) {
	rows, err := r.db.Query(
		`SELECT id, image_path, width, height, dark_count, light_count,
		        total_count, dark_density, light_density, elapsed_ms, created_at
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.ImagePath, &run.Width, &run.Height,
			&run.DarkCount, &run.LightCount, &run.TotalCount,
			&run.DarkDensity, &run.LightDensity, &run.ElapsedMs, &run.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Droplets returns the stored droplet rows for a run.
func (r *RunRepository) Droplets(runID string) ([]*DropletRow, error) {
	rows, err := r.db.Query(
		`SELECT id, run_id, region, area, perimeter, circularity,
		        mean_intensity, background_intensity, center_x, center_y
		 FROM droplets WHERE run_id = ? ORDER BY id`,
		runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var droplets []*DropletRow
	for rows.Next() {
		d := &DropletRow{}
		var region string
		if err := rows.Scan(&d.ID, &d.RunID, &region, &d.Area, &d.Perimeter,
			&d.Circularity, &d.MeanIntensity, &d.BackgroundIntensity,
			&d.CenterX, &d.CenterY); err != nil {
			return nil, err
		}
		d.Region = detect.Mode(region)
		droplets = append(droplets, d)
	}
	return droplets, rows.Err()
}

// Delete removes a run and, through the cascade, its droplet rows.
func (r *RunRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
