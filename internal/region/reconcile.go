package region

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/dropcount/internal/detect"
)

// MinOverlapRatio is the fraction of a detection's pixel footprint that must
// fall inside its region mask for the detection to be kept. Droplets
// straddling a region boundary still pass as long as most of their area does.
const MinOverlapRatio = 0.7

// FilterByMask keeps the droplets whose contours sufficiently overlap mask.
// Each detector's output is reconciled only against its own region mask;
// cross-pairing is never performed. The operation is idempotent: filtering
// its own output with the same mask returns the same set.
func FilterByMask(droplets []detect.Droplet, mask gocv.Mat) []detect.Droplet {
	kept := make([]detect.Droplet, 0, len(droplets))
	for _, d := range droplets {
		if OverlapRatio(d.Contour, mask) > MinOverlapRatio {
			kept = append(kept, d)
		}
	}
	return kept
}

// OverlapRatio rasterizes the contour into a mask of the same size as mask
// and returns the fraction of its pixels that fall inside mask. A contour
// with no rasterized footprint has ratio 0.
func OverlapRatio(contour []image.Point, mask gocv.Mat) float64 {
	cm := gocv.NewMatWithSize(mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
	defer cm.Close()

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{contour})
	defer pv.Close()
	gocv.DrawContours(&cm, pv, 0, maskWhite, -1)

	total := gocv.CountNonZero(cm)
	if total == 0 {
		return 0
	}

	overlap := gocv.NewMat()
	defer overlap.Close()
	gocv.BitwiseAnd(cm, mask, &overlap)

	return float64(gocv.CountNonZero(overlap)) / float64(total)
}
