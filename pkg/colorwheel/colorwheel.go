// Package colorwheel encodes 2D vector fields as RGB images: direction maps
// to color through either the standard HSV hue wheel or a 4-fold custom
// wheel, and magnitude maps to brightness. It also renders arrow overlays on
// top of an encoded image.
package colorwheel

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"

	"lorentztie/pkg/tie"
)

// Options controls the direction-to-color mapping.
type Options struct {
	// FourFold selects the 4-fold symmetric wheel instead of the standard
	// hue wheel.
	FourFold bool

	// MaxMagnitude overrides the per-image maximum used to normalize
	// brightness when positive. Zero means normalize to the largest
	// magnitude observed in the field.
	MaxMagnitude float64
}

// Color maps a w x h vector field (bx, by) to an RGB image. Direction sets
// the color, magnitude sets the brightness relative to the normalization
// maximum, so a uniform positive rescaling of the field leaves the image
// unchanged.
func Color(bx, by []float64, w, h int, opts Options) (*image.RGBA, error) {
	if err := checkField(bx, by, w, h); err != nil {
		return nil, err
	}

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Hypot(bx[i], by[i])
	}
	vmax := opts.MaxMagnitude
	if vmax <= 0 {
		vmax = floats.Max(mag)
	}
	if vmax == 0 {
		// Zero field; avoid dividing by zero and render black.
		vmax = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			theta := math.Atan2(by[i], bx[i])
			v := mag[i] / vmax
			if v > 1 {
				v = 1
			}

			var rr, gg, bb float64
			if opts.FourFold {
				rr, gg, bb = fourFoldRGB(theta, v)
			} else {
				rr, gg, bb = hsvToRGB(theta/(2*math.Pi), 1, v)
			}
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(rr*255 + 0.5),
				G: uint8(gg*255 + 0.5),
				B: uint8(bb*255 + 0.5),
				A: 255,
			})
		}
	}
	return img, nil
}

// checkField validates that both components describe a w x h field.
func checkField(bx, by []float64, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("field dimensions %dx%d: %w", w, h, tie.ErrInvalidParameter)
	}
	if len(bx) != w*h {
		return fmt.Errorf("bx has %d pixels, expected %dx%d: %w", len(bx), w, h, tie.ErrDimensionMismatch)
	}
	if len(by) != len(bx) {
		return fmt.Errorf("by has %d pixels, bx has %d: %w", len(by), len(bx), tie.ErrDimensionMismatch)
	}
	return nil
}

// hsvToRGB converts hue (any value, wrapped to [0,1)), saturation and value
// in [0,1] to RGB in [0,1].
func hsvToRGB(hue, sat, val float64) (r, g, b float64) {
	hue = hue - math.Floor(hue)
	sector := hue * 6
	i := int(sector) % 6
	f := sector - math.Floor(sector)

	p := val * (1 - sat)
	q := val * (1 - sat*f)
	t := val * (1 - sat*(1-f))

	switch i {
	case 0:
		return val, t, p
	case 1:
		return q, val, p
	case 2:
		return p, val, t
	case 3:
		return p, q, val
	case 4:
		return t, p, val
	default:
		return val, p, q
	}
}

// fourFoldAnchors are the corner colors of the 4-fold wheel, one per
// quadrant boundary: +x, +y, -x, -y.
var fourFoldAnchors = [4][3]float64{
	{1, 0, 0}, // +x red
	{0, 1, 0}, // +y green
	{0, 0, 1}, // -x blue
	{1, 1, 0}, // -y yellow
}

// fourFoldRGB maps an angle to the 4-fold wheel: the circle is split into
// four quadrants anchored at the axis directions and colors interpolate
// linearly between adjacent anchors, scaled by brightness.
func fourFoldRGB(theta, val float64) (r, g, b float64) {
	// Wrap to [0, 2*pi) and locate the surrounding pair of anchors.
	t := math.Mod(theta, 2*math.Pi)
	if t < 0 {
		t += 2 * math.Pi
	}
	pos := t / (math.Pi / 2)
	i := int(pos) % 4
	f := pos - math.Floor(pos)

	a := fourFoldAnchors[i]
	n := fourFoldAnchors[(i+1)%4]
	r = val * ((1-f)*a[0] + f*n[0])
	g = val * ((1-f)*a[1] + f*n[1])
	b = val * ((1-f)*a[2] + f*n[2])
	return r, g, b
}
