package colorwheel

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"gonum.org/v1/gonum/floats"

	"lorentztie/pkg/tie"
)

// arrowColor is the stroke used for overlay arrows.
var arrowColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Overlay draws a nx x ny grid of direction arrows for the field (bx, by) on
// top of a copy of base, which must be a w x h image. Arrow length scales
// with the local magnitude relative to the field maximum times lengthScale
// (in units of the grid cell size); widthScale sets the stroke width in
// pixels.
func Overlay(base *image.RGBA, bx, by []float64, w, h, nx, ny int, lengthScale, widthScale float64) (*image.RGBA, error) {
	if err := checkField(bx, by, w, h); err != nil {
		return nil, err
	}
	if base == nil || base.Bounds().Dx() != w || base.Bounds().Dy() != h {
		return nil, fmt.Errorf("base image does not match %dx%d field: %w", w, h, tie.ErrDimensionMismatch)
	}
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("arrow grid %dx%d: %w", nx, ny, tie.ErrInvalidParameter)
	}
	if lengthScale <= 0 {
		lengthScale = 1
	}
	if widthScale < 1 {
		widthScale = 1
	}

	out := image.NewRGBA(base.Bounds())
	draw.Draw(out, out.Bounds(), base, base.Bounds().Min, draw.Src)

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Hypot(bx[i], by[i])
	}
	vmax := floats.Max(mag)
	if vmax == 0 {
		return out, nil
	}

	cellW := float64(w) / float64(nx)
	cellH := float64(h) / float64(ny)
	cell := math.Min(cellW, cellH)

	for gy := 0; gy < ny; gy++ {
		for gx := 0; gx < nx; gx++ {
			cx := (float64(gx) + 0.5) * cellW
			cy := (float64(gy) + 0.5) * cellH
			i := int(cy)*w + int(cx)

			v := mag[i] / vmax
			if v == 0 {
				continue
			}
			// Image rows grow downward, so the y component flips to
			// keep arrows pointing along the physical field.
			dx := bx[i] / mag[i]
			dy := -by[i] / mag[i]
			length := v * lengthScale * cell * 0.9

			drawArrow(out, cx, cy, dx, dy, length, widthScale)
		}
	}
	return out, nil
}

// drawArrow strokes one arrow centered on (cx, cy) pointing along the unit
// vector (dx, dy).
func drawArrow(img *image.RGBA, cx, cy, dx, dy, length, width float64) {
	x0 := cx - dx*length/2
	y0 := cy - dy*length/2
	x1 := cx + dx*length/2
	y1 := cy + dy*length/2
	strokeLine(img, x0, y0, x1, y1, width)

	// Two head strokes swept back 30 degrees from the tip.
	head := length * 0.3
	for _, sign := range []float64{1, -1} {
		ang := math.Atan2(dy, dx) + math.Pi + sign*math.Pi/6
		strokeLine(img, x1, y1, x1+head*math.Cos(ang), y1+head*math.Sin(ang), width)
	}
}

// strokeLine stamps discs of the stroke width along the segment.
func strokeLine(img *image.RGBA, x0, y0, x1, y1, width float64) {
	steps := int(math.Hypot(x1-x0, y1-y0)) + 1
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		stampDisc(img, x0+(x1-x0)*t, y0+(y1-y0)*t, width/2)
	}
}

// stampDisc fills a disc of the given radius, clipped to the image bounds.
func stampDisc(img *image.RGBA, cx, cy, radius float64) {
	b := img.Bounds()
	r := int(math.Ceil(radius))
	if r < 0 {
		r = 0
	}
	for y := int(cy) - r; y <= int(cy)+r; y++ {
		for x := int(cx) - r; x <= int(cx)+r; x++ {
			if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
				continue
			}
			ddx := float64(x) - cx
			ddy := float64(y) - cy
			if ddx*ddx+ddy*ddy <= radius*radius+0.25 {
				img.SetRGBA(x, y, arrowColor)
			}
		}
	}
}
