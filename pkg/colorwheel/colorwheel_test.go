package colorwheel

import (
	"bytes"
	"errors"
	"image/color"
	"math"
	"testing"

	"lorentztie/pkg/tie"
)

// testField builds a smooth vortex-like field on a w x h grid.
func testField(w, h int) (bx, by []float64) {
	bx = make([]float64, w*h)
	by = make([]float64, w*h)
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			bx[i] = -(float64(y) - cy)
			by[i] = float64(x) - cx
		}
	}
	return bx, by
}

// TestScaleInvariance verifies that a uniform positive rescaling of the
// field leaves the encoded image unchanged, for both wheels.
func TestScaleInvariance(t *testing.T) {
	const w, h = 24, 16
	bx, by := testField(w, h)

	// A power-of-two factor keeps the rescaling exact in floating point,
	// so the images must match byte for byte.
	sbx := make([]float64, len(bx))
	sby := make([]float64, len(by))
	for i := range bx {
		sbx[i] = 4 * bx[i]
		sby[i] = 4 * by[i]
	}

	for _, fourFold := range []bool{false, true} {
		a, err := Color(bx, by, w, h, Options{FourFold: fourFold})
		if err != nil {
			t.Fatalf("Color failed: %v", err)
		}
		b, err := Color(sbx, sby, w, h, Options{FourFold: fourFold})
		if err != nil {
			t.Fatalf("Color on scaled field failed: %v", err)
		}
		if !bytes.Equal(a.Pix, b.Pix) {
			t.Errorf("fourFold=%v: rescaled field changed the image", fourFold)
		}
	}
}

// TestZeroField verifies that a zero field renders black without error.
func TestZeroField(t *testing.T) {
	const w, h = 8, 8
	img, err := Color(make([]float64, w*h), make([]float64, w*h), w, h, Options{})
	if err != nil {
		t.Fatalf("Color failed on zero field: %v", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.RGBAAt(x, y)
			if c.R != 0 || c.G != 0 || c.B != 0 || c.A != 255 {
				t.Fatalf("pixel (%d,%d) = %v, want opaque black", x, y, c)
			}
		}
	}
}

// TestWheelsDiffer verifies that the 4-fold wheel is a genuinely different
// mapping from the hue wheel.
func TestWheelsDiffer(t *testing.T) {
	const w, h = 24, 16
	bx, by := testField(w, h)

	hue, err := Color(bx, by, w, h, Options{})
	if err != nil {
		t.Fatalf("Color failed: %v", err)
	}
	four, err := Color(bx, by, w, h, Options{FourFold: true})
	if err != nil {
		t.Fatalf("Color failed: %v", err)
	}
	if bytes.Equal(hue.Pix, four.Pix) {
		t.Error("hue wheel and 4-fold wheel produced identical images")
	}
}

// TestExplicitNormalization verifies that an explicit maximum dims the image
// relative to per-image normalization.
func TestExplicitNormalization(t *testing.T) {
	const w, h = 16, 16
	bx, by := testField(w, h)

	perImage, err := Color(bx, by, w, h, Options{})
	if err != nil {
		t.Fatalf("Color failed: %v", err)
	}

	maxMag := 0.0
	for i := range bx {
		if m := math.Hypot(bx[i], by[i]); m > maxMag {
			maxMag = m
		}
	}
	dimmed, err := Color(bx, by, w, h, Options{MaxMagnitude: 2 * maxMag})
	if err != nil {
		t.Fatalf("Color failed: %v", err)
	}

	brighter := func(pix []uint8) int {
		sum := 0
		for _, v := range pix {
			sum += int(v)
		}
		return sum
	}
	if brighter(dimmed.Pix) >= brighter(perImage.Pix) {
		t.Error("doubling the normalization maximum should dim the image")
	}
}

// TestColorDimensionMismatch verifies the shape failure modes.
func TestColorDimensionMismatch(t *testing.T) {
	_, err := Color(make([]float64, 64*64), make([]float64, 32*32), 64, 64, Options{})
	if !errors.Is(err, tie.ErrDimensionMismatch) {
		t.Errorf("bx/by mismatch: expected ErrDimensionMismatch, got %v", err)
	}

	_, err = Color(make([]float64, 16), make([]float64, 16), 8, 8, Options{})
	if !errors.Is(err, tie.ErrDimensionMismatch) {
		t.Errorf("wrong field size: expected ErrDimensionMismatch, got %v", err)
	}
}

// TestOverlay verifies arrow rendering on top of an encoded field.
func TestOverlay(t *testing.T) {
	const w, h = 64, 64
	bx, by := testField(w, h)

	base, err := Color(bx, by, w, h, Options{})
	if err != nil {
		t.Fatalf("Color failed: %v", err)
	}

	out, err := Overlay(base, bx, by, w, h, 4, 4, 1, 1)
	if err != nil {
		t.Fatalf("Overlay failed: %v", err)
	}
	if out.Bounds() != base.Bounds() {
		t.Fatalf("overlay bounds %v differ from base %v", out.Bounds(), base.Bounds())
	}

	// The overlay must not mutate the base and must stroke at least one
	// arrow pixel.
	strokes := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if out.RGBAAt(x, y) == (color.RGBA{R: 255, G: 255, B: 255, A: 255}) &&
				base.RGBAAt(x, y) != out.RGBAAt(x, y) {
				strokes++
			}
		}
	}
	if strokes == 0 {
		t.Error("no arrow strokes were drawn")
	}
}

// TestOverlayErrors verifies overlay validation.
func TestOverlayErrors(t *testing.T) {
	const w, h = 16, 16
	bx, by := testField(w, h)
	base, err := Color(bx, by, w, h, Options{})
	if err != nil {
		t.Fatalf("Color failed: %v", err)
	}

	if _, err := Overlay(nil, bx, by, w, h, 4, 4, 1, 1); !errors.Is(err, tie.ErrDimensionMismatch) {
		t.Errorf("nil base: expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := Overlay(base, bx, by, w, h, 0, 4, 1, 1); !errors.Is(err, tie.ErrInvalidParameter) {
		t.Errorf("empty grid: expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Overlay(base, bx, make([]float64, 4), w, h, 4, 4, 1, 1); !errors.Is(err, tie.ErrDimensionMismatch) {
		t.Errorf("short by: expected ErrDimensionMismatch, got %v", err)
	}
}
