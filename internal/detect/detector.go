// Package detect finds droplet contours in microscopy-style images of
// liquid samples. A Detector runs one mode-specific pipeline over the full
// image: contrast enhancement, edge-preserving denoising, adaptive
// binarization, morphological cleanup, contour extraction and shape and
// intensity filtering.
package detect

import (
	"errors"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

// ErrEmptyImage is returned when Detect is handed an empty Mat.
var ErrEmptyImage = errors.New("empty input image")

var maskWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ringKernelSize is the dilation kernel used to sample the thin band of
// local background immediately outside a candidate contour.
const ringKernelSize = 5

// Detector finds droplets of one polarity. Construct with NewDetector;
// the parameter set is validated once there and treated as immutable.
type Detector struct {
	mode   Mode
	params Params
}

// NewDetector creates a detector for the given mode. It rejects invalid
// parameter sets up front so the per-image pipeline never has to.
func NewDetector(mode Mode, params Params) (*Detector, error) {
	if mode != ModeDark && mode != ModeLight {
		return nil, errors.New("unknown detection mode: " + string(mode))
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Detector{mode: mode, params: params}, nil
}

// Mode returns the detector's polarity.
func (d *Detector) Mode() Mode {
	return d.mode
}

// Params returns a copy of the detector's parameter set.
func (d *Detector) Params() Params {
	return d.params
}

// Detect runs the full pipeline over img and returns the surviving
// droplets. The input is never modified; every intermediate buffer is
// released before returning. Candidates with degenerate geometry are
// skipped, never reported as errors.
func (d *Detector) Detect(img gocv.Mat) ([]Droplet, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() > 1 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	enhanced := gocv.NewMat()
	defer enhanced.Close()
	d.enhance(gray, &enhanced)

	denoised := gocv.NewMat()
	defer denoised.Close()
	gocv.BilateralFilter(enhanced, &denoised,
		d.params.Bilateral.Diameter,
		d.params.Bilateral.SigmaColor,
		d.params.Bilateral.SigmaSpace)

	binary := gocv.NewMat()
	defer binary.Close()
	d.binarize(denoised, &binary)

	kernel := gocv.GetStructuringElement(gocv.MorphRect,
		image.Pt(d.params.Morphology.KernelSize, d.params.Morphology.KernelSize))
	defer kernel.Close()

	morphed := gocv.NewMat()
	defer morphed.Close()
	gocv.MorphologyExWithParams(binary, &morphed, gocv.MorphOpen, kernel,
		d.params.Morphology.Iterations, gocv.BorderConstant)
	gocv.MorphologyExWithParams(morphed, &morphed, gocv.MorphClose, kernel,
		d.params.Morphology.Iterations, gocv.BorderConstant)

	contours := gocv.FindContours(morphed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	return d.filter(gray, contours), nil
}

// enhance applies CLAHE per the mode's pipeline definition. Dark scenes get
// the enhancement twice: bright droplets on dark tube walls start with so
// little local contrast that a single pass leaves them below the adaptive
// threshold's reach.
func (d *Detector) enhance(gray gocv.Mat, dst *gocv.Mat) {
	clahe := gocv.NewCLAHEWithParams(d.params.CLAHE.ClipLimit,
		image.Pt(d.params.CLAHE.TileSize, d.params.CLAHE.TileSize))
	defer clahe.Close()

	switch d.mode {
	case ModeDark:
		first := gocv.NewMat()
		defer first.Close()
		clahe.Apply(gray, &first)
		clahe.Apply(first, dst)
	default:
		clahe.Apply(gray, dst)
	}
}

// binarize thresholds adaptively. Dark mode keeps bright pixels as
// foreground; light mode inverts so dark droplets become foreground.
func (d *Detector) binarize(src gocv.Mat, dst *gocv.Mat) {
	typ := gocv.ThresholdBinary
	if d.mode == ModeLight {
		typ = gocv.ThresholdBinaryInv
	}
	gocv.AdaptiveThreshold(src, dst, 255, gocv.AdaptiveThresholdGaussian, typ,
		d.params.Threshold.WindowSize, float32(d.params.Threshold.Bias))
}

// filter applies the acceptance thresholds to each candidate contour and
// builds the droplet records. gray is the unenhanced grayscale image;
// intensity statistics are sampled from it, not from the CLAHE output.
func (d *Detector) filter(gray gocv.Mat, contours gocv.PointsVector) []Droplet {
	var droplets []Droplet

	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)

		area := gocv.ContourArea(c)
		if area < d.params.Filter.MinArea || area > d.params.Filter.MaxArea {
			continue
		}

		perimeter := gocv.ArcLength(c, true)
		if perimeter == 0 {
			continue
		}

		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		if circularity < d.params.Filter.MinCircularity {
			continue
		}

		pts := c.ToPoints()
		if len(pts) < 3 {
			continue
		}

		inner, outer := contourIntensity(gray, pts)
		if d.mode == ModeLight && math.Abs(inner-outer) < d.params.Filter.MinIntensityDiff {
			continue
		}

		droplets = append(droplets, Droplet{
			Contour:             pts,
			Area:                area,
			Perimeter:           perimeter,
			Circularity:         circularity,
			MeanIntensity:       inner,
			BackgroundIntensity: outer,
			Mode:                d.mode,
		})
	}

	return droplets
}

// contourIntensity returns the mean grayscale intensity inside the contour
// and in a thin dilated ring just outside it, both scaled to [0,1].
func contourIntensity(gray gocv.Mat, pts []image.Point) (inner, outer float64) {
	mask := gocv.NewMatWithSize(gray.Rows(), gray.Cols(), gocv.MatTypeCV8UC1)
	defer mask.Close()

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.DrawContours(&mask, pv, 0, maskWhite, -1)

	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(ringKernelSize, ringKernelSize))
	defer kernel.Close()

	dilated := gocv.NewMat()
	defer dilated.Close()
	gocv.Dilate(mask, &dilated, kernel)

	ring := gocv.NewMat()
	defer ring.Close()
	gocv.Subtract(dilated, mask, &ring)

	inner = gray.MeanWithMask(mask).Val1 / 255
	outer = gray.MeanWithMask(ring).Val1 / 255
	return inner, outer
}
