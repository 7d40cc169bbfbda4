// Package density computes droplet counts per unit image area and compares
// measurements across scenes.
package density

import "math"

// pixelsPerMegapixel converts the per-pixel figure to the per-million-pixel
// figure the analysis reports use.
const pixelsPerMegapixel = 1_000_000

// Measurement is a droplet density figure for one image or region.
type Measurement struct {
	Count  int
	Width  int
	Height int
	// PerPixel is Count divided by the image area in pixels.
	PerPixel float64
	// PerMegapixel is PerPixel scaled to droplets per million pixels.
	PerMegapixel float64
}

// Measure computes the droplet density for count droplets over a width by
// height image. A degenerate zero-area image yields a zero density, not an
// error.
func Measure(count, width, height int) Measurement {
	m := Measurement{Count: count, Width: width, Height: height}
	area := width * height
	if area <= 0 {
		return m
	}
	m.PerPixel = float64(count) / float64(area)
	m.PerMegapixel = m.PerPixel * pixelsPerMegapixel
	return m
}

// Ratio returns num's density divided by den's. When the denominator
// density is zero the ratio is +Inf, an explicit sentinel rather than a
// panic. Callers must check math.IsInf before doing further arithmetic
// with it.
func Ratio(num, den Measurement) float64 {
	if den.PerPixel == 0 {
		return math.Inf(1)
	}
	return num.PerPixel / den.PerPixel
}
