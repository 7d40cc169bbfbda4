// Package analyze wires the droplet pipeline together: region splitting,
// per-mode detection, mask reconciliation and density measurement.
package analyze

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/ayusman/dropcount/internal/density"
	"github.com/ayusman/dropcount/internal/detect"
	"github.com/ayusman/dropcount/internal/imgio"
	"github.com/ayusman/dropcount/internal/region"
)

// Config holds the analyzer's per-mode parameter sets and logger.
type Config struct {
	DarkParams  detect.Params
	LightParams detect.Params
	Logger      zerolog.Logger
}

// DefaultConfig returns a Config with the calibrated parameter tables and a
// no-op logger.
func DefaultConfig() Config {
	return Config{
		DarkParams:  detect.DarkModeParams(),
		LightParams: detect.LightModeParams(),
		Logger:      zerolog.Nop(),
	}
}

// Analyzer runs the full droplet-counting pipeline over single images.
// It carries no per-image state; one Analyzer may be shared across
// goroutines.
type Analyzer struct {
	splitter *region.Splitter
	darkDet  *detect.Detector
	lightDet *detect.Detector
	log      zerolog.Logger
}

// New builds an Analyzer, validating both parameter sets up front.
func New(cfg Config) (*Analyzer, error) {
	darkDet, err := detect.NewDetector(detect.ModeDark, cfg.DarkParams)
	if err != nil {
		return nil, err
	}
	lightDet, err := detect.NewDetector(detect.ModeLight, cfg.LightParams)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		splitter: region.NewSplitter(),
		darkDet:  darkDet,
		lightDet: lightDet,
		log:      cfg.Logger,
	}, nil
}

// Summary is the externally reported droplet count record.
type Summary struct {
	DarkCount  int
	LightCount int
	TotalCount int
}

// Outcome is the result of analyzing one in-memory image. The masks are
// owned by the caller; release them with Close when done (for example after
// handing them to an overlay renderer).
type Outcome struct {
	Dark      []detect.Droplet
	Light     []detect.Droplet
	DarkMask  gocv.Mat
	LightMask gocv.Mat
	Summary   Summary
}

// Close releases the region masks.
func (o *Outcome) Close() {
	o.DarkMask.Close()
	o.LightMask.Close()
}

// Analyze runs the pipeline over img: split into light and dark regions,
// detect in both modes over the full image, then reconcile each mode's
// candidates against its own region mask. The two detector runs only read
// the input, so they execute concurrently, each over its own clone.
func (a *Analyzer) Analyze(img gocv.Mat) (*Outcome, error) {
	lightMask, darkMask, err := a.splitter.Split(img)
	if err != nil {
		return nil, err
	}

	type detection struct {
		droplets []detect.Droplet
		err      error
	}

	run := func(det *detect.Detector, out *detection, wg *sync.WaitGroup) {
		clone := img.Clone()
		go func() {
			defer wg.Done()
			defer clone.Close()
			out.droplets, out.err = det.Detect(clone)
		}()
	}

	var wg sync.WaitGroup
	var darkRes, lightRes detection
	wg.Add(2)
	run(a.darkDet, &darkRes, &wg)
	run(a.lightDet, &lightRes, &wg)
	wg.Wait()

	if darkRes.err != nil {
		lightMask.Close()
		darkMask.Close()
		return nil, darkRes.err
	}
	if lightRes.err != nil {
		lightMask.Close()
		darkMask.Close()
		return nil, lightRes.err
	}

	dark := region.FilterByMask(darkRes.droplets, darkMask)
	light := region.FilterByMask(lightRes.droplets, lightMask)

	a.log.Debug().
		Int("dark_candidates", len(darkRes.droplets)).
		Int("dark_kept", len(dark)).
		Int("light_candidates", len(lightRes.droplets)).
		Int("light_kept", len(light)).
		Msg("reconciled detections against region masks")

	return &Outcome{
		Dark:      dark,
		Light:     light,
		DarkMask:  darkMask,
		LightMask: lightMask,
		Summary: Summary{
			DarkCount:  len(dark),
			LightCount: len(light),
			TotalCount: len(dark) + len(light),
		},
	}, nil
}

// Report is the persisted record of one analyzed image. Unlike Outcome it
// holds no Mats and is safe to keep around after the pipeline returns.
type Report struct {
	ID        string
	ImagePath string
	Width     int
	Height    int
	Dark      []detect.Droplet
	Light     []detect.Droplet
	Summary   Summary

	DarkDensity  density.Measurement
	LightDensity density.Measurement

	Elapsed   time.Duration
	CreatedAt time.Time
}

// AnalyzeFile loads the image at path, analyzes it and returns a Report.
// All intermediate buffers, including the region masks, are released before
// returning.
func (a *Analyzer) AnalyzeFile(path string) (*Report, error) {
	start := time.Now()

	img, err := imgio.Load(path)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	outcome, err := a.Analyze(img)
	if err != nil {
		return nil, err
	}
	defer outcome.Close()

	width, height := img.Cols(), img.Rows()
	report := &Report{
		ID:           uuid.NewString(),
		ImagePath:    path,
		Width:        width,
		Height:       height,
		Dark:         outcome.Dark,
		Light:        outcome.Light,
		Summary:      outcome.Summary,
		DarkDensity:  density.Measure(len(outcome.Dark), width, height),
		LightDensity: density.Measure(len(outcome.Light), width, height),
		Elapsed:      time.Since(start),
		CreatedAt:    start,
	}

	a.log.Info().
		Str("run_id", report.ID).
		Str("image", path).
		Int("dark", report.Summary.DarkCount).
		Int("light", report.Summary.LightCount).
		Int("total", report.Summary.TotalCount).
		Dur("elapsed", report.Elapsed).
		Msg("image analyzed")

	return report, nil
}

// AnalyzeBatch analyzes the given images over a worker pool. Images are
// independent, so no ordering is guaranteed; an image that fails to load or
// analyze is logged and skipped without affecting the rest of the batch.
func (a *Analyzer) AnalyzeBatch(paths []string, workers int) []*Report {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string)
	results := make(chan *Report)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				report, err := a.AnalyzeFile(path)
				if err != nil {
					a.log.Error().Err(err).Str("image", path).Msg("skipping image")
					continue
				}
				results <- report
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var reports []*Report
	for r := range results {
		reports = append(reports, r)
	}
	return reports
}
