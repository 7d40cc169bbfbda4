package detect

import (
	"errors"
	"fmt"
)

// Mode selects which droplet polarity a detector looks for.
type Mode string

const (
	// ModeDark finds bright droplets on a dark background.
	ModeDark Mode = "dark"
	// ModeLight finds dark droplets on a light background.
	ModeLight Mode = "light"
)

// ErrInvalidParams is wrapped by all validation failures.
var ErrInvalidParams = errors.New("invalid detection parameters")

// CLAHEParams configures contrast-limited adaptive histogram equalization.
type CLAHEParams struct {
	// ClipLimit caps how much any single tile may be stretched.
	ClipLimit float64
	// TileSize is the side length of the equalization grid tiles.
	TileSize int
}

// BilateralParams configures edge-preserving smoothing.
type BilateralParams struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

// ThresholdParams configures adaptive Gaussian binarization.
type ThresholdParams struct {
	// WindowSize is the per-pixel neighborhood; OpenCV requires it odd and >= 3.
	WindowSize int
	// Bias is subtracted from the weighted neighborhood mean. Negative values
	// favor bright-on-dark foreground, positive values the opposite.
	Bias float64
}

// MorphologyParams configures the open/close cleanup pass.
type MorphologyParams struct {
	KernelSize int
	Iterations int
}

// FilterParams are the acceptance thresholds applied to candidate contours.
type FilterParams struct {
	MinArea        float64
	MaxArea        float64
	MinCircularity float64
	// MinIntensityDiff is the minimum contrast between a droplet and its
	// immediate surroundings, on a [0,1] intensity scale. Only light mode
	// enforces it; shadows on bright backgrounds mimic droplets, so area
	// and circularity alone are not enough there.
	MinIntensityDiff float64
}

// WatershedParams configures distance-transform based separation of touching
// droplets. The values are carried and validated for calibration parity with
// the reference tables, but Detect does not apply watershed splitting:
// merged blobs that fail the circularity filter are discarded, not split.
type WatershedParams struct {
	DistTransformSize int
	ThresholdRatio    float64
}

// Params is the immutable per-mode configuration bundle for droplet
// detection. Construct via DarkModeParams or LightModeParams, or fill in
// manually and call Validate before first use; Detect assumes validated
// parameters and does not re-check them per call.
type Params struct {
	CLAHE      CLAHEParams
	Bilateral  BilateralParams
	Threshold  ThresholdParams
	Morphology MorphologyParams
	Filter     FilterParams
	Watershed  WatershedParams
}

// DarkModeParams returns the calibrated parameter set for bright droplets
// on dark tube regions. The smaller CLAHE tiles and negative threshold bias
// suit low-contrast dark scenes.
func DarkModeParams() Params {
	return Params{
		CLAHE:      CLAHEParams{ClipLimit: 1.5, TileSize: 3},
		Bilateral:  BilateralParams{Diameter: 3, SigmaColor: 20, SigmaSpace: 20},
		Threshold:  ThresholdParams{WindowSize: 5, Bias: -1},
		Morphology: MorphologyParams{KernelSize: 2, Iterations: 1},
		Filter: FilterParams{
			MinArea:          1,
			MaxArea:          150,
			MinCircularity:   0.09,
			MinIntensityDiff: 0.2,
		},
		Watershed: WatershedParams{DistTransformSize: 5, ThresholdRatio: 0.3},
	}
}

// LightModeParams returns the calibrated parameter set for dark droplets
// on light tube regions.
func LightModeParams() Params {
	return Params{
		CLAHE:      CLAHEParams{ClipLimit: 0.8, TileSize: 10},
		Bilateral:  BilateralParams{Diameter: 3, SigmaColor: 30, SigmaSpace: 30},
		Threshold:  ThresholdParams{WindowSize: 5, Bias: 1},
		Morphology: MorphologyParams{KernelSize: 2, Iterations: 1},
		Filter: FilterParams{
			MinArea:          2,
			MaxArea:          500,
			MinCircularity:   0.01,
			MinIntensityDiff: 0.05,
		},
		Watershed: WatershedParams{DistTransformSize: 5, ThresholdRatio: 0.25},
	}
}

// Validate checks the parameter set for values the pipeline cannot run with.
// It must be called once at configuration time; detection itself assumes a
// validated set.
func (p Params) Validate() error {
	if p.CLAHE.ClipLimit <= 0 {
		return fmt.Errorf("%w: CLAHE clip limit must be positive, got %v", ErrInvalidParams, p.CLAHE.ClipLimit)
	}
	if p.CLAHE.TileSize <= 0 {
		return fmt.Errorf("%w: CLAHE tile size must be positive, got %d", ErrInvalidParams, p.CLAHE.TileSize)
	}
	if p.Bilateral.Diameter <= 0 {
		return fmt.Errorf("%w: bilateral diameter must be positive, got %d", ErrInvalidParams, p.Bilateral.Diameter)
	}
	if p.Threshold.WindowSize < 3 || p.Threshold.WindowSize%2 == 0 {
		return fmt.Errorf("%w: threshold window must be odd and >= 3, got %d", ErrInvalidParams, p.Threshold.WindowSize)
	}
	if p.Morphology.KernelSize <= 0 {
		return fmt.Errorf("%w: morphology kernel must be positive, got %d", ErrInvalidParams, p.Morphology.KernelSize)
	}
	if p.Morphology.Iterations <= 0 {
		return fmt.Errorf("%w: morphology iterations must be positive, got %d", ErrInvalidParams, p.Morphology.Iterations)
	}
	if p.Filter.MinArea < 0 || p.Filter.MaxArea <= 0 || p.Filter.MinArea > p.Filter.MaxArea {
		return fmt.Errorf("%w: area bounds [%v, %v] are inverted or non-positive",
			ErrInvalidParams, p.Filter.MinArea, p.Filter.MaxArea)
	}
	if p.Filter.MinCircularity < 0 || p.Filter.MinCircularity > 1 {
		return fmt.Errorf("%w: circularity must be in [0,1], got %v", ErrInvalidParams, p.Filter.MinCircularity)
	}
	if p.Filter.MinIntensityDiff < 0 || p.Filter.MinIntensityDiff > 1 {
		return fmt.Errorf("%w: intensity diff must be in [0,1], got %v", ErrInvalidParams, p.Filter.MinIntensityDiff)
	}
	if p.Watershed.DistTransformSize <= 0 {
		return fmt.Errorf("%w: watershed mask size must be positive, got %d", ErrInvalidParams, p.Watershed.DistTransformSize)
	}
	if p.Watershed.ThresholdRatio <= 0 || p.Watershed.ThresholdRatio >= 1 {
		return fmt.Errorf("%w: watershed threshold ratio must be in (0,1), got %v", ErrInvalidParams, p.Watershed.ThresholdRatio)
	}
	return nil
}
