package detect

import "image"

// Droplet is a single accepted detection: a closed contour plus the scalar
// attributes derived while filtering. Records are never mutated after the
// detector emits them.
type Droplet struct {
	// Contour is the external boundary polygon; at least 3 points, with the
	// last point implicitly connected back to the first.
	Contour []image.Point

	Area        float64
	Perimeter   float64
	Circularity float64

	// MeanIntensity and BackgroundIntensity are on a [0,1] scale.
	// BackgroundIntensity is sampled from a thin dilated ring just outside
	// the contour.
	MeanIntensity       float64
	BackgroundIntensity float64

	// Mode records which detector produced the droplet.
	Mode Mode
}

// Centroid returns the arithmetic center of the contour points.
func (d Droplet) Centroid() (x, y float64) {
	if len(d.Contour) == 0 {
		return 0, 0
	}
	var sx, sy float64
	for _, p := range d.Contour {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(d.Contour))
	return sx / n, sy / n
}
