// Package tie defines the shared data model for transport-of-intensity
// reconstruction: intensity image stacks, defocus series, crop geometry, and
// the error taxonomy used by the solver and orchestrator packages.
//
// Images are stored as row-major []float64 buffers with explicit width and
// height. Stacks and series are constructed once per experiment and treated
// as read-only by the reconstruction code.
package tie

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by all reconstruction packages. Callers test with
// errors.Is; wrapped messages carry the detail.
var (
	// ErrInvalidParameter reports a non-physical input such as a
	// non-positive accelerating voltage or a negative Tikhonov cutoff.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDimensionMismatch reports disagreeing array shapes, for example a
	// derivative image that does not match its in-focus reference.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInsufficientData reports a defocus series that is too short for
	// the derivative estimate requested at the chosen index.
	ErrInsufficientData = errors.New("insufficient data")
)

// CropRect is a half-open pixel rectangle [X0,X1) x [Y0,Y1). The zero value
// means "full image".
type CropRect struct {
	X0, Y0, X1, Y1 int
}

// Empty reports whether the rectangle is the zero value.
func (c CropRect) Empty() bool {
	return c.X0 == 0 && c.Y0 == 0 && c.X1 == 0 && c.Y1 == 0
}

// Normalize resolves the rectangle against an image of the given size: the
// zero value expands to the full image and all edges are clamped to bounds.
func (c CropRect) Normalize(width, height int) CropRect {
	if c.Empty() {
		return CropRect{X1: width, Y1: height}
	}
	if c.X0 < 0 {
		c.X0 = 0
	}
	if c.Y0 < 0 {
		c.Y0 = 0
	}
	if c.X1 > width {
		c.X1 = width
	}
	if c.Y1 > height {
		c.Y1 = height
	}
	return c
}

// Width returns the pixel width of the rectangle.
func (c CropRect) Width() int { return c.X1 - c.X0 }

// Height returns the pixel height of the rectangle.
func (c CropRect) Height() int { return c.Y1 - c.Y0 }

// Valid reports whether the rectangle has positive area.
func (c CropRect) Valid() bool { return c.Width() > 0 && c.Height() > 0 }

// ImageStack is an ordered sequence of 2D intensity images sharing one pixel
// geometry, one image per defocus value.
type ImageStack struct {
	// Frames holds one row-major intensity image per defocus plane.
	Frames [][]float64

	// Width and Height are the shared frame dimensions in pixels.
	Width  int
	Height int
}

// NewImageStack creates an empty stack for frames of the given dimensions.
func NewImageStack(width, height int) (*ImageStack, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("stack dimensions %dx%d: %w", width, height, ErrInvalidParameter)
	}
	return &ImageStack{Width: width, Height: height}, nil
}

// Append adds a frame to the stack, enforcing the shared dimensions.
func (s *ImageStack) Append(frame []float64) error {
	if len(frame) != s.Width*s.Height {
		return fmt.Errorf("frame has %d pixels, stack is %dx%d: %w",
			len(frame), s.Width, s.Height, ErrDimensionMismatch)
	}
	s.Frames = append(s.Frames, frame)
	return nil
}

// Len returns the number of frames in the stack.
func (s *ImageStack) Len() int { return len(s.Frames) }

// CropFrame returns a copy of frame i restricted to the given rectangle.
// The rectangle must already be normalized against the stack dimensions.
func (s *ImageStack) CropFrame(i int, r CropRect) []float64 {
	src := s.Frames[i]
	out := make([]float64, r.Width()*r.Height())
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			out[y*r.Width()+x] = src[(r.Y0+y)*s.Width+(r.X0+x)]
		}
	}
	return out
}

// DefocusSeries pairs an unflipped focal stack with an optional flipped stack
// of the same sample and the signed defocus value of every frame.
//
// The presence of the flip stack gates whether the electrostatic phase can be
// separated from the magnetic phase downstream.
type DefocusSeries struct {
	// Unflip is the through-focal stack of the sample as mounted.
	Unflip *ImageStack

	// Flip is the optional stack taken after physically flipping the
	// sample. Nil when no flip series was recorded.
	Flip *ImageStack

	// Defocus holds the signed defocus of each frame in nm, strictly
	// increasing, parallel to the stack frames.
	Defocus []float64
}

// NewDefocusSeries validates and assembles a series. The defocus values must
// be strictly increasing and match the stack length; when a flip stack is
// supplied it must mirror the unflipped stack's geometry exactly.
func NewDefocusSeries(unflip, flip *ImageStack, defocus []float64) (*DefocusSeries, error) {
	if unflip == nil || unflip.Len() == 0 {
		return nil, fmt.Errorf("empty unflip stack: %w", ErrInsufficientData)
	}
	if len(defocus) != unflip.Len() {
		return nil, fmt.Errorf("%d defocus values for %d frames: %w",
			len(defocus), unflip.Len(), ErrDimensionMismatch)
	}
	for i := 1; i < len(defocus); i++ {
		if defocus[i] <= defocus[i-1] {
			return nil, fmt.Errorf("defocus values must be strictly increasing at index %d: %w",
				i, ErrInvalidParameter)
		}
	}
	if flip != nil {
		if flip.Width != unflip.Width || flip.Height != unflip.Height {
			return nil, fmt.Errorf("flip stack is %dx%d, unflip is %dx%d: %w",
				flip.Width, flip.Height, unflip.Width, unflip.Height, ErrDimensionMismatch)
		}
		if flip.Len() != unflip.Len() {
			return nil, fmt.Errorf("flip stack has %d frames, unflip has %d: %w",
				flip.Len(), unflip.Len(), ErrDimensionMismatch)
		}
	}
	return &DefocusSeries{Unflip: unflip, Flip: flip, Defocus: defocus}, nil
}

// HasFlip reports whether a flip stack is present.
func (d *DefocusSeries) HasFlip() bool { return d.Flip != nil }

// Len returns the number of defocus planes.
func (d *DefocusSeries) Len() int { return d.Unflip.Len() }
