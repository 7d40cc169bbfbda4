package density

import (
	"math"
	"testing"
)

func TestMeasure(t *testing.T) {
	tests := []struct {
		name          string
		count, w, h   int
		wantPerPixel  float64
		wantPerMegapx float64
	}{
		{"simple", 50, 100, 100, 0.005, 5000},
		{"no droplets", 0, 640, 480, 0, 0},
		{"zero area", 10, 0, 480, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Measure(tt.count, tt.w, tt.h)
			if m.Count != tt.count {
				t.Errorf("Count = %d, want %d", m.Count, tt.count)
			}
			if math.Abs(m.PerPixel-tt.wantPerPixel) > 1e-12 {
				t.Errorf("PerPixel = %g, want %g", m.PerPixel, tt.wantPerPixel)
			}
			if math.Abs(m.PerMegapixel-tt.wantPerMegapx) > 1e-6 {
				t.Errorf("PerMegapixel = %g, want %g", m.PerMegapixel, tt.wantPerMegapx)
			}
		})
	}
}

func TestMeasure_ScaleInvariance(t *testing.T) {
	// Doubling width and height with the same droplet count quarters the
	// density; doubling only one dimension halves it.
	base := Measure(40, 200, 200)
	wide := Measure(40, 400, 200)
	big := Measure(40, 400, 400)

	if math.Abs(wide.PerPixel-base.PerPixel/2) > 1e-12 {
		t.Errorf("doubling width: PerPixel = %g, want %g", wide.PerPixel, base.PerPixel/2)
	}
	if math.Abs(big.PerPixel-base.PerPixel/4) > 1e-12 {
		t.Errorf("doubling both: PerPixel = %g, want %g", big.PerPixel, base.PerPixel/4)
	}
}

func TestRatio(t *testing.T) {
	light := Measure(30, 100, 100)
	dark := Measure(10, 100, 100)

	if got := Ratio(light, dark); math.Abs(got-3) > 1e-12 {
		t.Errorf("Ratio = %g, want 3", got)
	}
}

func TestRatio_ZeroDenominatorSentinel(t *testing.T) {
	light := Measure(30, 100, 100)
	empty := Measure(0, 100, 100)

	got := Ratio(light, empty)
	if !math.IsInf(got, 1) {
		t.Errorf("Ratio with zero denominator = %g, want +Inf sentinel", got)
	}
}
