// Package solver inverts the transport-of-intensity equation in the Fourier
// domain. Given a measured intensity derivative dI/dz and an in-focus
// reference image, it recovers the phase map by dividing out the Laplacian's
// Fourier multiplier, with optional mirror symmetrization against edge
// ringing and optional Tikhonov regularization against noise amplification.
package solver

import (
	"fmt"
	"math"
	"runtime"

	"lorentztie/pkg/tie"
)

// intensityFloor clamps the in-focus image from below when the derivative is
// divided by it, so vacuum pixels do not dominate the solve.
const intensityFloor = 1e-6

// Params configures a Solver.
type Params struct {
	// Scale is the pixel size in nm/pixel. Required.
	Scale float64

	// Symmetrize mirror-pads the input to twice its extent on each axis
	// before transforming, approximating periodic boundaries.
	Symmetrize bool

	// Cutoff is the Tikhonov cutoff frequency qc in 1/nm. Zero disables
	// regularization and uses the bare inverse with the DC bin masked.
	Cutoff float64

	// Workers bounds the parallel fan-out of the transforms. Zero means
	// all available cores.
	Workers int
}

// Solver performs Fourier inverse-Laplacian phase solves. A Solver is
// stateless between calls and safe for concurrent use on disjoint inputs.
type Solver struct {
	scale      float64
	symmetrize bool
	cutoff     float64
	workers    int
}

// New validates the parameters and returns a Solver.
func New(p Params) (*Solver, error) {
	if p.Scale <= 0 {
		return nil, fmt.Errorf("pixel scale must be positive, got %g: %w",
			p.Scale, tie.ErrInvalidParameter)
	}
	if p.Cutoff < 0 {
		return nil, fmt.Errorf("Tikhonov cutoff must be non-negative, got %g: %w",
			p.Cutoff, tie.ErrInvalidParameter)
	}
	if p.Workers < 1 {
		p.Workers = runtime.NumCPU()
	}
	return &Solver{
		scale:      p.Scale,
		symmetrize: p.Symmetrize,
		cutoff:     p.Cutoff,
		workers:    p.Workers,
	}, nil
}

// SolvePhase solves laplacian(phi) = -prefactor * dIdZ / I0 for phi on a
// w x h grid and returns the phase map in radians.
//
// infocus may be nil, which is treated as unit intensity. The returned phase
// is defined only up to an additive constant; the DC bin is forced to zero,
// which fixes the constant at zero mean. An all-zero derivative is benign and
// yields an (all but) all-zero phase.
func (s *Solver) SolvePhase(dIdZ, infocus []float64, w, h int, prefactor float64) ([]float64, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("image dimensions %dx%d: %w", w, h, tie.ErrInvalidParameter)
	}
	if len(dIdZ) != w*h {
		return nil, fmt.Errorf("derivative has %d pixels, expected %dx%d: %w",
			len(dIdZ), w, h, tie.ErrDimensionMismatch)
	}
	if infocus != nil && len(infocus) != w*h {
		return nil, fmt.Errorf("in-focus reference has %d pixels, derivative is %dx%d: %w",
			len(infocus), w, h, tie.ErrDimensionMismatch)
	}

	// Linearize into Poisson form: rhs = dIdZ / I0.
	rhs := make([]float64, w*h)
	if infocus == nil {
		copy(rhs, dIdZ)
	} else {
		for i := range rhs {
			i0 := infocus[i]
			if i0 < intensityFloor {
				i0 = intensityFloor
			}
			rhs[i] = dIdZ[i] / i0
		}
	}

	sw, sh := w, h
	if s.symmetrize {
		rhs, sw, sh = mirrorPad(rhs, w, h)
	}

	buf := make([]complex128, sw*sh)
	for i, v := range rhs {
		buf[i] = complex(v, 0)
	}
	fft2(buf, sw, sh, false, s.workers)

	s.applyInverseLaplacian(buf, sw, sh, prefactor)

	fft2(buf, sw, sh, true, s.workers)

	// Crop back to the unpadded extent and drop the negligible imaginary
	// residue.
	phase := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			phase[y*w+x] = real(buf[y*sw+x])
		}
	}
	return phase, nil
}

// applyInverseLaplacian multiplies the spectrum by the regularized or bare
// inverse of the Laplacian's Fourier multiplier -(kx^2 + ky^2), scaled by the
// phase prefactor.
//
// Without regularization the kernel is 1/k^2 with the zero-frequency bin
// masked to zero: the masked assignment removes the arbitrary additive phase
// constant and is a structural feature of the solve, not an error case. With
// a cutoff qc the kernel is k^2/(k^2 + kc^2)^2, which tends to 1/k^2 as
// qc -> 0 and damps frequencies below the cutoff. This form is used
// deliberately instead of the simpler Tikhonov inverse 1/(k^2 + kc^2): it
// rolls off as k^2 below the cutoff rather than flattening to 1/kc^2, which
// suppresses low-frequency noise amplification more strongly while matching
// the bare inverse above the cutoff.
func (s *Solver) applyInverseLaplacian(spec []complex128, w, h int, prefactor float64) {
	kc := 2 * math.Pi * s.cutoff
	kc2 := kc * kc

	parallelLines(h, s.workers, func(start, end int) {
		for y := start; y < end; y++ {
			ky := 2 * math.Pi * freq(y, h, s.scale)
			for x := 0; x < w; x++ {
				kx := 2 * math.Pi * freq(x, w, s.scale)
				k2 := kx*kx + ky*ky

				var inv float64
				switch {
				case k2 == 0:
					inv = 0
				case kc2 > 0:
					d := k2 + kc2
					inv = k2 / (d * d)
				default:
					inv = 1 / k2
				}
				spec[y*w+x] *= complex(prefactor*inv, 0)
			}
		}
	})
}

// mirrorPad reflects the image across each axis, producing a 2w x 2h buffer
// whose periodic extension is continuous at the original boundaries.
func mirrorPad(src []float64, w, h int) ([]float64, int, int) {
	sw, sh := 2*w, 2*h
	dst := make([]float64, sw*sh)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := src[y*w+x]
			dst[y*sw+x] = v
			dst[y*sw+(sw-1-x)] = v
			dst[(sh-1-y)*sw+x] = v
			dst[(sh-1-y)*sw+(sw-1-x)] = v
		}
	}
	return dst, sw, sh
}
