package kernels

import (
	"math"
)

// Identity returns a kernel with weight 1 at the centre and 0 elsewhere.
func Identity(size int) (*Kernel, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	w := make([]float64, size*size)
	w[(size/2)*size+size/2] = 1
	return New(w, size)
}

// Box returns the averaging kernel with every weight equal to 1/size².
func Box(size int) (*Kernel, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	w := make([]float64, size*size)
	for i := range w {
		w[i] = 1 / float64(size*size)
	}
	return New(w, size)
}

// Blackman returns a separable smoothing kernel built from the Blackman
// window, normalised so the weights sum to 1.
//
// Arguments:
// - size: The kernel side, odd and within [MinSize, MaxSize].
//
// Returns:
// - The kernel whose weight (i, j) is w[i]*w[j] for the 1D window w.
// - An error wrapping ErrInvalidKernel for a bad size.
func Blackman(size int) (*Kernel, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}

	window := BlackmanWindow(size)
	w := make([]float64, size*size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			w[i*size+j] = window[i] * window[j]
		}
	}
	return New(w, size)
}

// BlackmanWindow returns the normalised 1D Blackman window of length n,
// sampled at the centres of n equal cells.
func BlackmanWindow(n int) []float64 {
	window := make([]float64, n)
	var sum float64
	for i := range window {
		t := (float64(i) + 0.5) / float64(n)
		window[i] = 0.42 - 0.50*math.Cos(2*math.Pi*t) + 0.08*math.Cos(4*math.Pi*t)
		sum += window[i]
	}
	for i := range window {
		window[i] /= sum
	}
	return window
}
