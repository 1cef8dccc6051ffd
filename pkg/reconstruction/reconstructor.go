// Package reconstruction orchestrates transport-of-intensity phase retrieval:
// it estimates intensity derivatives from a defocus series, drives the
// Fourier solver for the magnetic and electrostatic phase channels, and
// derives the integrated in-plane induction field from the magnetic phase
// gradient.
package reconstruction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"lorentztie/pkg/microscope"
	"lorentztie/pkg/physics"
	"lorentztie/pkg/solver"
	"lorentztie/pkg/tie"
)

// maxQuantitativeAspect is the crop aspect ratio beyond which Fourier edge
// effects make results only qualitatively correct.
const maxQuantitativeAspect = 3.0

// Params holds the per-invocation reconstruction parameters. The value is
// immutable once handed to New; region selection is an external concern that
// only contributes the crop rectangle.
type Params struct {
	// Scale is the pixel size in nm/pixel.
	Scale float64

	// Crop restricts the reconstruction to a sub-region of the input
	// frames. The zero value means the full image.
	Crop tie.CropRect

	// Symmetrize mirror-pads the solver input to suppress edge ringing.
	Symmetrize bool

	// Cutoff is the Tikhonov cutoff frequency qc in 1/nm; zero disables
	// regularization.
	Cutoff float64

	// Workers bounds the parallel fan-out inside the solver. Zero means
	// all available cores.
	Workers int
}

// Result bundles the outputs of one reconstruction. All buffers are freshly
// allocated per call and owned by the caller. Channel names follow the
// conventional on-disk naming: phase_b, phase_e, dIdZ_b, dIdZ_e, bxt, byt,
// bbt, inf_im.
type Result struct {
	// PhaseB is the magnetic phase map in radians. Without a flip series
	// it still contains the entangled electrostatic contribution.
	PhaseB []float64

	// PhaseE is the electrostatic phase map in radians, nil when the
	// series has no flip stack.
	PhaseE []float64

	// DIdZB and DIdZE are the derivative images fed to the solver, in
	// 1/nm. DIdZE is nil without a flip stack.
	DIdZB []float64
	DIdZE []float64

	// BxT and ByT are the integrated in-plane induction components in
	// T*nm; BMag is their per-pixel Euclidean norm.
	BxT  []float64
	ByT  []float64
	BMag []float64

	// InFocus is the (cropped) in-focus reference image.
	InFocus []float64

	// Width and Height are the dimensions of every channel.
	Width  int
	Height int

	// Defocus is the defocus step (TIE) or value (SITIE) used, in nm.
	Defocus float64

	// Index is the defocus index the reconstruction was centered on.
	Index int

	// Params echoes the parameters of the invocation.
	Params Params

	// Warnings lists documented accuracy caveats that applied to this
	// run. The computation still completed deterministically.
	Warnings []string
}

// Reconstructor runs TIE and SITIE reconstructions over one defocus series.
// It holds no mutable state across calls; concurrent calls are safe.
type Reconstructor struct {
	series *tie.DefocusSeries
	scope  *microscope.Microscope
	params Params
	solver *solver.Solver
}

// New validates the inputs and builds a Reconstructor.
func New(series *tie.DefocusSeries, scope *microscope.Microscope, params Params) (*Reconstructor, error) {
	if series == nil {
		return nil, fmt.Errorf("nil defocus series: %w", tie.ErrInvalidParameter)
	}
	if scope == nil {
		return nil, fmt.Errorf("nil microscope: %w", tie.ErrInvalidParameter)
	}
	crop := params.Crop.Normalize(series.Unflip.Width, series.Unflip.Height)
	if !crop.Valid() {
		return nil, fmt.Errorf("crop rectangle %+v has no area: %w", params.Crop, tie.ErrInvalidParameter)
	}
	params.Crop = crop

	sol, err := solver.New(solver.Params{
		Scale:      params.Scale,
		Symmetrize: params.Symmetrize,
		Cutoff:     params.Cutoff,
		Workers:    params.Workers,
	})
	if err != nil {
		return nil, err
	}
	return &Reconstructor{series: series, scope: scope, params: params, solver: sol}, nil
}

// TIE reconstructs the phase at the given defocus index from a centered
// two-point derivative.
//
// The stack must hold an odd number of frames with the in-focus plane at the
// center; index i selects the (i+1)-th under/over pair outward from focus.
// When a flip stack is present the sum of the flip and unflip derivatives
// isolates the magnetic phase and their difference isolates the electrostatic
// phase; without one the two contributions remain entangled in PhaseB.
func (r *Reconstructor) TIE(index int) (*Result, error) {
	n := r.series.Len()
	if n < 3 {
		return nil, fmt.Errorf("need at least 3 defocus planes, have %d: %w", n, tie.ErrInsufficientData)
	}
	if n%2 == 0 {
		return nil, fmt.Errorf("stack of %d frames has no central in-focus plane: %w", n, tie.ErrInsufficientData)
	}
	center := n / 2
	under := center - (index + 1)
	over := center + (index + 1)
	if index < 0 || under < 0 || over >= n {
		return nil, fmt.Errorf("defocus index %d needs planes outside the %d-frame stack: %w",
			index, n, tie.ErrInsufficientData)
	}

	crop := r.params.Crop
	w, h := crop.Width(), crop.Height()
	defStep := (r.series.Defocus[over] - r.series.Defocus[under]) / 2

	res := &Result{
		Width:   w,
		Height:  h,
		Defocus: defStep,
		Index:   index,
		Params:  r.params,
	}
	res.Warnings = aspectWarning(nil, w, h)

	// Two-sided finite difference of the unflipped series, per nm.
	uUnder := r.series.Unflip.CropFrame(under, crop)
	uOver := r.series.Unflip.CropFrame(over, crop)
	unflipD := derivative(uOver, uUnder, defStep)

	res.InFocus = r.series.Unflip.CropFrame(center, crop)

	if r.series.HasFlip() {
		fUnder := r.series.Flip.CropFrame(under, crop)
		fOver := r.series.Flip.CropFrame(over, crop)
		flipD := derivative(fOver, fUnder, defStep)

		// Sum isolates the magnetic phase, difference the electrostatic
		// one; the in-focus reference is the average of both mounts.
		res.DIdZB = make([]float64, w*h)
		res.DIdZE = make([]float64, w*h)
		for i := range unflipD {
			res.DIdZB[i] = (unflipD[i] + flipD[i]) / 2
			res.DIdZE[i] = (unflipD[i] - flipD[i]) / 2
		}
		fFocus := r.series.Flip.CropFrame(center, crop)
		for i := range res.InFocus {
			res.InFocus[i] = (res.InFocus[i] + fFocus[i]) / 2
		}
	} else {
		res.DIdZB = unflipD
		res.Warnings = append(res.Warnings,
			"no flip series: magnetic and electrostatic phase remain entangled in phase_b")
	}

	removeMean(res.DIdZB)
	prefactor := 2 * math.Pi / r.scope.Lambda

	var err error
	res.PhaseB, err = r.solver.SolvePhase(res.DIdZB, res.InFocus, w, h, prefactor)
	if err != nil {
		return nil, err
	}
	if res.DIdZE != nil {
		removeMean(res.DIdZE)
		res.PhaseE, err = r.solver.SolvePhase(res.DIdZE, res.InFocus, w, h, prefactor)
		if err != nil {
			return nil, err
		}
	}

	r.deriveInduction(res)
	return res, nil
}

// SITIE reconstructs the magnetic phase from the single defocused image at
// the given stack index, using a one-sided derivative over that image's own
// defocus value.
//
// The approximation assumes a uniformly thin sample free of diffraction and
// amplitude contrast; if that precondition is violated the output is
// qualitatively wrong without any way for the algorithm to detect it. No
// electrostatic separation is possible.
func (r *Reconstructor) SITIE(index int) (*Result, error) {
	n := r.series.Len()
	if n == 0 {
		return nil, fmt.Errorf("empty series: %w", tie.ErrInsufficientData)
	}
	if index < 0 || index >= n {
		return nil, fmt.Errorf("image index %d outside %d-frame stack: %w", index, n, tie.ErrInsufficientData)
	}
	defVal := r.series.Defocus[index]
	if defVal == 0 {
		return nil, fmt.Errorf("image at index %d is in focus, cannot form a defocus derivative: %w",
			index, tie.ErrInvalidParameter)
	}

	crop := r.params.Crop
	w, h := crop.Width(), crop.Height()
	img := r.series.Unflip.CropFrame(index, crop)

	mean := stat.Mean(img, nil)
	if mean <= 0 {
		return nil, fmt.Errorf("image mean intensity %g is not positive: %w", mean, tie.ErrInvalidParameter)
	}

	res := &Result{
		Width:   w,
		Height:  h,
		Defocus: defVal,
		Index:   index,
		Params:  r.params,
		InFocus: img,
	}
	res.Warnings = aspectWarning(nil, w, h)
	res.Warnings = append(res.Warnings,
		"single-image reconstruction: assumes a thin sample with purely magnetic contrast")

	// One-sided derivative against an assumed uniform in-focus intensity:
	// dI/dz ~ (I/mean(I) - 1) / defocus.
	res.DIdZB = make([]float64, w*h)
	for i, v := range img {
		res.DIdZB[i] = (v/mean - 1) / defVal
	}
	removeMean(res.DIdZB)

	prefactor := 2 * math.Pi / r.scope.Lambda
	var err error
	res.PhaseB, err = r.solver.SolvePhase(res.DIdZB, nil, w, h, prefactor)
	if err != nil {
		return nil, err
	}

	r.deriveInduction(res)
	return res, nil
}

// deriveInduction converts the magnetic phase gradient into the integrated
// in-plane induction: Bx*t = +(hbar/e) dphi/dy, By*t = -(hbar/e) dphi/dx.
func (r *Reconstructor) deriveInduction(res *Result) {
	gx, gy := gradient2D(res.PhaseB, res.Width, res.Height, r.params.Scale)

	n := res.Width * res.Height
	res.BxT = make([]float64, n)
	res.ByT = make([]float64, n)
	res.BMag = make([]float64, n)
	for i := 0; i < n; i++ {
		res.BxT[i] = physics.HBarOverE * gy[i]
		res.ByT[i] = -physics.HBarOverE * gx[i]
		res.BMag[i] = math.Hypot(res.BxT[i], res.ByT[i])
	}
}

// derivative returns the centered finite difference (over-under)/(2*step),
// per nm.
func derivative(over, under []float64, step float64) []float64 {
	d := make([]float64, len(over))
	for i := range d {
		d[i] = (over[i] - under[i]) / (2 * step)
	}
	return d
}

// removeMean subtracts the spatial mean in place, so the solver's masked DC
// bin discards nothing of interest.
func removeMean(data []float64) {
	mean := stat.Mean(data, nil)
	for i := range data {
		data[i] -= mean
	}
}

// gradient2D computes per-axis spatial derivatives in units of 1/nm using
// centered differences with one-sided stencils at the borders.
func gradient2D(f []float64, w, h int, scale float64) (gx, gy []float64) {
	gx = make([]float64, w*h)
	gy = make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			switch {
			case w == 1:
				gx[i] = 0
			case x == 0:
				gx[i] = (f[i+1] - f[i]) / scale
			case x == w-1:
				gx[i] = (f[i] - f[i-1]) / scale
			default:
				gx[i] = (f[i+1] - f[i-1]) / (2 * scale)
			}
			switch {
			case h == 1:
				gy[i] = 0
			case y == 0:
				gy[i] = (f[i+w] - f[i]) / scale
			case y == h-1:
				gy[i] = (f[i] - f[i-w]) / scale
			default:
				gy[i] = (f[i+w] - f[i-w]) / (2 * scale)
			}
		}
	}
	return gx, gy
}

// aspectWarning appends the non-square accuracy caveat when the crop aspect
// ratio exceeds the quantitative limit.
func aspectWarning(warnings []string, w, h int) []string {
	aspect := float64(w) / float64(h)
	if aspect < 1 {
		aspect = 1 / aspect
	}
	if aspect > maxQuantitativeAspect {
		warnings = append(warnings, fmt.Sprintf(
			"crop aspect ratio %.1f:1 exceeds %.0f:1; results are qualitative only",
			aspect, maxQuantitativeAspect))
	}
	return warnings
}
