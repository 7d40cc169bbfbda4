// Package region partitions tube images into light and dark zones and
// reconciles droplet detections against the resulting masks.
package region

import (
	"errors"
	"image"
	"image/color"
	"slices"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
)

// ErrEmptyImage is returned when Split is handed an empty Mat.
var ErrEmptyImage = errors.New("empty input image")

var maskWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Splitter tuning constants.
const (
	// blurKernelSize suppresses local texture before global thresholding.
	blurKernelSize = 21
	// baseKernelSize is the structuring element for consolidating the Otsu
	// mask: closing merges nearby fragments, opening drops small noise blobs.
	baseKernelSize = 25
	// refineKernelSize and refineIterations pull the final mask boundaries
	// inward so droplets straddling a region edge are not falsely attributed.
	refineKernelSize = 5
	refineIterations = 2

	// lightMeanThreshold is the base mean-intensity cutoff for a light region.
	lightMeanThreshold = 128
	// strictMeanThreshold applies when the region histogram is unimodal.
	strictMeanThreshold = 160
	// lightPeakThreshold is the bin the tallest histogram peak must exceed
	// for a multi-peaked region to count as light.
	lightPeakThreshold = 160
)

// Splitter partitions a tube image into a light-region mask and a
// dark-region mask.
type Splitter struct{}

// NewSplitter creates a Splitter.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Split partitions img into light and dark region masks of the same
// dimensions as the input. An image in which no regions are found yields two
// empty masks, not an error. The returned masks are disjoint and owned by
// the caller.
func (s *Splitter) Split(img gocv.Mat) (light, dark gocv.Mat, err error) {
	if img.Empty() {
		return gocv.Mat{}, gocv.Mat{}, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernelSize, blurKernelSize), 0, 0, gocv.BorderDefault)

	base := gocv.NewMat()
	defer base.Close()
	gocv.Threshold(blurred, &base, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(baseKernelSize, baseKernelSize))
	defer kernel.Close()
	gocv.MorphologyEx(base, &base, gocv.MorphClose, kernel)
	gocv.MorphologyEx(base, &base, gocv.MorphOpen, kernel)

	contours := gocv.FindContours(base, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	light = gocv.NewMatWithSize(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1)
	dark = gocv.NewMatWithSize(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1)

	for i := 0; i < contours.Size(); i++ {
		if gocv.ContourArea(contours.At(i)) == 0 {
			continue
		}

		componentMask := gocv.NewMatWithSize(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1)
		gocv.DrawContours(&componentMask, contours, i, maskWhite, -1)

		if s.classify(gray, componentMask) {
			gocv.BitwiseOr(light, componentMask, &light)
		} else {
			gocv.BitwiseOr(dark, componentMask, &dark)
		}
		componentMask.Close()
	}

	refine := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(refineKernelSize, refineKernelSize))
	defer refine.Close()
	gocv.MorphologyExWithParams(light, &light, gocv.MorphErode, refine, refineIterations, gocv.BorderConstant)
	gocv.MorphologyExWithParams(dark, &dark, gocv.MorphErode, refine, refineIterations, gocv.BorderConstant)

	return light, dark, nil
}

// classify decides whether the masked component is a light region.
// A region is light when its mean intensity clears the base cutoff and
// either its brightest histogram peak sits in the bright range (multi-peaked
// histograms) or its mean clears the stricter unimodal cutoff.
func (s *Splitter) classify(gray, componentMask gocv.Mat) bool {
	mean := gray.MeanWithMask(componentMask).Val1
	if mean <= lightMeanThreshold {
		return false
	}

	hist := maskedHistogram(gray, componentMask)
	peaks := findPeaks(smoothHistogram(hist, histSmoothSigma), peakMinDistance, peakMinRelHeight)

	if len(peaks) >= 2 {
		return slices.Max(peaks) > lightPeakThreshold
	}
	return mean > strictMeanThreshold
}

// maskedHistogram computes the 256-bin grayscale histogram of the pixels
// selected by mask, normalized to sum to 1.
func maskedHistogram(gray, mask gocv.Mat) []float64 {
	hist := gocv.NewMat()
	defer hist.Close()

	if err := gocv.CalcHist([]gocv.Mat{gray}, []int{0}, mask, &hist, []int{256}, []float64{0, 256}, false); err != nil {
		return make([]float64, 256)
	}

	out := make([]float64, 256)
	for i := range out {
		out[i] = float64(hist.GetFloatAt(i, 0))
	}
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}
