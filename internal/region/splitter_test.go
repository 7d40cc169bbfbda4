package region

import (
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/dropcount/testdata"
)

func TestSplit_EmptyImage(t *testing.T) {
	s := NewSplitter()

	empty := gocv.NewMat()
	defer empty.Close()

	if _, _, err := s.Split(empty); err == nil {
		t.Error("Split on empty Mat should fail")
	}
}

func TestSplit_SceneMasksAreDisjoint(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := testdata.SplitScene(2, 2, 6)
	defer img.Close()

	s := NewSplitter()
	light, dark, err := s.Split(img)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	defer light.Close()
	defer dark.Close()

	if light.Rows() != img.Rows() || light.Cols() != img.Cols() {
		t.Errorf("light mask is %dx%d, want %dx%d", light.Cols(), light.Rows(), img.Cols(), img.Rows())
	}
	if dark.Rows() != img.Rows() || dark.Cols() != img.Cols() {
		t.Errorf("dark mask is %dx%d, want %dx%d", dark.Cols(), dark.Rows(), img.Cols(), img.Rows())
	}

	both := gocv.NewMat()
	defer both.Close()
	gocv.BitwiseAnd(light, dark, &both)
	if n := gocv.CountNonZero(both); n != 0 {
		t.Errorf("masks overlap on %d pixels, want 0", n)
	}

	// Each panel's center must be claimed by the right mask.
	lc := testdata.LightPanelRect.Min.Add(testdata.LightPanelRect.Max).Div(2)
	dc := testdata.DarkPanelRect.Min.Add(testdata.DarkPanelRect.Max).Div(2)
	if light.GetUCharAt(lc.Y, lc.X) == 0 {
		t.Error("light panel center not covered by light mask")
	}
	if dark.GetUCharAt(dc.Y, dc.X) == 0 {
		t.Error("dark panel center not covered by dark mask")
	}
	if light.GetUCharAt(dc.Y, dc.X) != 0 {
		t.Error("dark panel center wrongly claimed by light mask")
	}
}

func TestSplit_UniformImageIsDeterministic(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	// Otsu on a uniform image degenerates to threshold 0, so the whole
	// frame becomes a single component. At mean 128 it classifies dark:
	// one mask claims the image, the other stays empty, and two runs
	// must agree.
	img := testdata.UniformImage(100, 100, 128)
	defer img.Close()

	s := NewSplitter()

	light1, dark1, err := s.Split(img)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	defer light1.Close()
	defer dark1.Close()

	light2, dark2, err := s.Split(img)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	defer light2.Close()
	defer dark2.Close()

	if gocv.CountNonZero(light1) != gocv.CountNonZero(light2) ||
		gocv.CountNonZero(dark1) != gocv.CountNonZero(dark2) {
		t.Error("Split on the same image is not deterministic")
	}

	// Mid-gray is below the light cutoff, so the single region lands in
	// the dark mask; the interior must be covered even after the boundary
	// erosion.
	if dark1.GetUCharAt(50, 50) == 0 {
		t.Error("dark mask should claim the interior of a uniform mid-gray image")
	}
	if n := gocv.CountNonZero(light1); n != 0 {
		t.Errorf("light mask claims %d pixels of a mid-gray image, want 0", n)
	}

	both := gocv.NewMat()
	defer both.Close()
	gocv.BitwiseAnd(light1, dark1, &both)
	if n := gocv.CountNonZero(both); n != 0 {
		t.Errorf("masks overlap on %d pixels, want 0", n)
	}
}
