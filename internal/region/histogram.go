package region

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Histogram peak analysis constants. These encode calibration decisions for
// microscopy tube lighting; do not retune without revisiting the region
// classification rule as a whole.
const (
	// histSmoothSigma is the Gaussian sigma used to smooth the intensity
	// histogram before peak finding.
	histSmoothSigma = 2.0
	// peakMinDistance is the minimum separation, in bins, between two peaks.
	peakMinDistance = 20
	// peakMinRelHeight is the minimum peak height relative to the tallest
	// smoothed bin.
	peakMinRelHeight = 0.2
)

// smoothHistogram convolves hist with a 1-D Gaussian kernel of the given
// sigma, truncated at four sigmas, reflecting at the boundaries.
func smoothHistogram(hist []float64, sigma float64) []float64 {
	if len(hist) == 0 {
		return nil
	}

	radius := int(4*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-x * x / (2 * sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)

	smoothed := make([]float64, len(hist))
	for i := range hist {
		var acc float64
		for k, w := range kernel {
			j := i + k - radius
			// Reflect out-of-range indices back into the histogram.
			if j < 0 {
				j = -j - 1
			}
			if j >= len(hist) {
				j = 2*len(hist) - j - 1
			}
			acc += w * hist[j]
		}
		smoothed[i] = acc
	}
	return smoothed
}

// findPeaks returns the indices of local maxima that are at least
// minDistance bins apart and at least relHeight of the tallest bin.
// When two qualifying peaks are closer than minDistance, the taller wins.
func findPeaks(hist []float64, minDistance int, relHeight float64) []int {
	if len(hist) < 3 {
		return nil
	}

	minHeight := relHeight * floats.Max(hist)

	var candidates []int
	for i := 1; i < len(hist)-1; i++ {
		if hist[i] > hist[i-1] && hist[i] > hist[i+1] && hist[i] >= minHeight {
			candidates = append(candidates, i)
		}
	}

	// Resolve the distance constraint tallest-first: a suppressed peak can
	// never knock out a taller one.
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if hist[candidates[order[j]]] > hist[candidates[order[i]]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	keep := make([]bool, len(candidates))
	taken := make([]int, 0, len(candidates))
	for _, idx := range order {
		p := candidates[idx]
		ok := true
		for _, q := range taken {
			if abs(p-q) < minDistance {
				ok = false
				break
			}
		}
		if ok {
			keep[idx] = true
			taken = append(taken, p)
		}
	}

	var peaks []int
	for i, k := range keep {
		if k {
			peaks = append(peaks, candidates[i])
		}
	}
	return peaks
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
