// Package testdata builds synthetic tube scenes for testing the droplet
// pipeline without committing binary image fixtures.
package testdata

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// SplitScene layout. Two panels on a black background, far enough apart
// that the splitter's morphological closing cannot merge them.
const (
	SceneWidth  = 400
	SceneHeight = 300

	// DarkPanelValue sits above the Otsu cutoff of the whole scene but below
	// the splitter's light-region threshold; LightPanelValue above it.
	DarkPanelValue  = 110
	LightPanelValue = 220
)

var (
	// DarkPanelRect and LightPanelRect are the panel placements in SplitScene.
	DarkPanelRect  = image.Rect(40, 40, 180, 260)
	LightPanelRect = image.Rect(220, 40, 360, 260)
)

func gray(v uint8) color.RGBA {
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

// soften blurs the scene slightly so synthetic hard edges behave like
// optically captured ones.
func soften(img *gocv.Mat) {
	gocv.GaussianBlur(*img, img, image.Pt(3, 3), 0, 0, gocv.BorderDefault)
}

// UniformImage returns a solid BGR image filled with the given gray value.
// The caller owns the Mat.
func UniformImage(width, height int, value uint8) gocv.Mat {
	img := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)
	img.SetTo(gocv.NewScalar(float64(value), float64(value), float64(value), 0))
	return img
}

// DiskImage returns a bg-filled BGR image with one filled disk of the given
// gray value. The disk edge is left hard so the detector's edge response,
// and with it the reported contour, stays on the geometric boundary.
func DiskImage(width, height int, bg, fg uint8, center image.Point, radius int) gocv.Mat {
	img := UniformImage(width, height, bg)
	gocv.Circle(&img, center, radius, gray(fg), -1)
	return img
}

// DumbbellImage returns two bridged disks whose merged outline has low
// circularity, for exercising the shape filter on touching droplets.
func DumbbellImage(width, height int, bg, fg uint8, center image.Point, radius int) gocv.Mat {
	img := UniformImage(width, height, bg)
	left := image.Pt(center.X-radius-radius/2, center.Y)
	right := image.Pt(center.X+radius+radius/2, center.Y)
	gocv.Circle(&img, left, radius, gray(fg), -1)
	gocv.Circle(&img, right, radius, gray(fg), -1)
	// Bridge between the disks so their contours merge into one.
	gocv.Rectangle(&img, image.Rect(left.X, center.Y-radius/2, right.X, center.Y+radius/2), gray(fg), -1)
	soften(&img)
	return img
}

// SplitScene returns a tube-like scene: a dark panel and a light panel on a
// black background, with nDark bright droplets on the dark panel and nLight
// dark droplets on the light panel. Droplets are placed along each panel's
// horizontal center line, well inside the panel so mask erosion cannot
// clip them.
func SplitScene(nDark, nLight, radius int) gocv.Mat {
	img := gocv.NewMatWithSize(SceneHeight, SceneWidth, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&img, DarkPanelRect, gray(DarkPanelValue), -1)
	gocv.Rectangle(&img, LightPanelRect, gray(LightPanelValue), -1)

	for i := 0; i < nDark; i++ {
		c := image.Pt(DarkPanelRect.Min.X+30+i*40, (DarkPanelRect.Min.Y+DarkPanelRect.Max.Y)/2)
		gocv.Circle(&img, c, radius, gray(225), -1)
	}
	for i := 0; i < nLight; i++ {
		c := image.Pt(LightPanelRect.Min.X+30+i*40, (LightPanelRect.Min.Y+LightPanelRect.Max.Y)/2)
		gocv.Circle(&img, c, radius, gray(25), -1)
	}

	soften(&img)
	return img
}

// EncodePNG encodes a Mat to PNG bytes for writing loader fixtures to disk.
func EncodePNG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())
	return data, nil
}
