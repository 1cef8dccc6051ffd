package solver

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2 performs an in-place 2D discrete Fourier transform of a w x h complex
// image stored in row-major order, forward or inverse. The row and column
// passes are independent per line, so each pass is fanned out across workers;
// every worker builds its own FFT plan because gonum plans carry scratch
// state and are not safe for concurrent use.
//
// The inverse transform is normalized by 1/(w*h) so that a forward transform
// followed by an inverse returns the original data.
func fft2(data []complex128, w, h int, inverse bool, workers int) {
	// Row pass.
	parallelLines(h, workers, func(start, end int) {
		plan := fourier.NewCmplxFFT(w)
		buf := make([]complex128, w)
		for y := start; y < end; y++ {
			row := data[y*w : (y+1)*w]
			copy(buf, row)
			if inverse {
				plan.Sequence(row, buf)
			} else {
				plan.Coefficients(row, buf)
			}
		}
	})

	// Column pass.
	parallelLines(w, workers, func(start, end int) {
		plan := fourier.NewCmplxFFT(h)
		in := make([]complex128, h)
		out := make([]complex128, h)
		for x := start; x < end; x++ {
			for y := 0; y < h; y++ {
				in[y] = data[y*w+x]
			}
			if inverse {
				plan.Sequence(out, in)
			} else {
				plan.Coefficients(out, in)
			}
			for y := 0; y < h; y++ {
				data[y*w+x] = out[y]
			}
		}
	})

	if inverse {
		norm := complex(1/float64(w*h), 0)
		for i := range data {
			data[i] *= norm
		}
	}
}

// parallelLines splits [0, n) into contiguous chunks and runs fn on each
// chunk in its own goroutine.
func parallelLines(n, workers int, fn func(start, end int)) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// freq returns the FFT sample frequency of bin i on an n-point grid with the
// given sample spacing, in cycles per unit length. Bins above n/2 map to the
// negative frequencies, matching the standard DFT layout.
func freq(i, n int, spacing float64) float64 {
	if i > n/2 {
		i -= n
	}
	return float64(i) / (float64(n) * spacing)
}
