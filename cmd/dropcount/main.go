package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/ayusman/dropcount/internal/analyze"
	"github.com/ayusman/dropcount/internal/density"
	"github.com/ayusman/dropcount/internal/store"
)

func main() {
	var (
		dbPath  = flag.String("db", "", "path to the run history database (default ~/.dropcount/dropcount.db)")
		workers = flag.Int("workers", 4, "number of images to analyze in parallel")
		compare = flag.Bool("compare", false, "compare droplet densities of exactly two images")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: dropcount [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	cfg := analyze.DefaultConfig()
	cfg.Logger = log
	analyzer, err := analyze.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid detection parameters")
	}

	st, err := openStore(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open run history store")
	}
	defer st.Close()

	if *compare {
		if len(paths) != 2 {
			log.Fatal().Msg("-compare requires exactly two images")
		}
		if err := compareImages(analyzer, st, paths[0], paths[1]); err != nil {
			log.Fatal().Err(err).Msg("comparison failed")
		}
		return
	}

	reports := analyzer.AnalyzeBatch(paths, *workers)
	for _, report := range reports {
		if err := st.Runs().Create(report); err != nil {
			log.Error().Err(err).Str("run_id", report.ID).Msg("failed to persist run")
		}
		fmt.Printf("%s: dark=%d light=%d total=%d\n",
			report.ImagePath,
			report.Summary.DarkCount,
			report.Summary.LightCount,
			report.Summary.TotalCount)
	}

	if len(reports) < len(paths) {
		log.Warn().Int("failed", len(paths)-len(reports)).Msg("some images could not be analyzed")
		os.Exit(1)
	}
}

// compareImages analyzes two scenes and reports the ratio of their total
// droplet densities (second relative to first).
func compareImages(analyzer *analyze.Analyzer, st *store.Store, first, second string) error {
	a, err := analyzer.AnalyzeFile(first)
	if err != nil {
		return err
	}
	b, err := analyzer.AnalyzeFile(second)
	if err != nil {
		return err
	}

	for _, report := range []*analyze.Report{a, b} {
		if err := st.Runs().Create(report); err != nil {
			return err
		}
		total := density.Measure(report.Summary.TotalCount, report.Width, report.Height)
		fmt.Printf("%s: %d droplets, %.2f per Mpx\n",
			report.ImagePath, total.Count, total.PerMegapixel)
	}

	ratio := density.Ratio(
		density.Measure(b.Summary.TotalCount, b.Width, b.Height),
		density.Measure(a.Summary.TotalCount, a.Width, a.Height),
	)
	if math.IsInf(ratio, 1) {
		fmt.Println("density ratio: undefined (first image has no droplets)")
		return nil
	}
	fmt.Printf("density ratio (second/first): %.2f\n", ratio)
	return nil
}

// openStore opens the run history database, defaulting to
// ~/.dropcount/dropcount.db and creating the directory if needed.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(homeDir, ".dropcount")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "dropcount.db")
	}
	return store.New(path)
}
