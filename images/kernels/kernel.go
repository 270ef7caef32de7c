// Package kernels defines square convolution kernels, their text file format
// and a few generators.
package kernels

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

const (
	// MinSize is the smallest supported kernel side.
	MinSize = 3
	// MaxSize is the largest supported kernel side.
	MaxSize = 255
)

// ErrInvalidKernel is returned for kernels whose size or weights are unusable.
var ErrInvalidKernel = errors.New("invalid kernel")

// Kernel is an odd-sized square matrix of float64 weights.
//
// The weight for the pixel at offset (di, dj) from the centre, di along x and
// dj along y, is stored at weights[(dj+half)*size + (di+half)]. The engine
// applies it without flipping, so filtering is a correlation.
type Kernel struct {
	size    int
	weights []float64
}

// New validates and wraps a kernel. The weights are copied.
//
// Arguments:
// - weights: size*size values in row-major order (row = dj, column = di).
// - size: The kernel side, odd and within [MinSize, MaxSize].
//
// Returns:
// - The kernel.
// - An error wrapping ErrInvalidKernel.
func New(weights []float64, size int) (*Kernel, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}
	if len(weights) != size*size {
		return nil, errors.Wrapf(ErrInvalidKernel, "size %d needs %d weights, got %d", size, size*size, len(weights))
	}
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.Wrapf(ErrInvalidKernel, "weight %d is %v", i, w)
		}
	}

	k := &Kernel{size: size, weights: make([]float64, len(weights))}
	copy(k.weights, weights)
	return k, nil
}

// MustNew is like New but panics on error. Intended for fixtures and constants.
func MustNew(weights []float64, size int) *Kernel {
	k, err := New(weights, size)
	if err != nil {
		panic(err)
	}
	return k
}

// ValidateSize checks that size is odd and within [MinSize, MaxSize].
func ValidateSize(size int) error {
	if size < MinSize || size > MaxSize {
		return errors.Wrapf(ErrInvalidKernel, "size %d outside [%d,%d]", size, MinSize, MaxSize)
	}
	if size%2 == 0 {
		return errors.Wrapf(ErrInvalidKernel, "size %d is even", size)
	}
	return nil
}

// Size returns the kernel side.
func (k *Kernel) Size() int { return k.size }

// Half returns size/2, the reach of the kernel on each side of its centre.
func (k *Kernel) Half() int { return k.size / 2 }

// WeightAt returns the weight applied to the pixel at (x+di, y+dj).
// It panics if di or dj is outside [-Half(), Half()].
func (k *Kernel) WeightAt(di, dj int) float64 {
	h := k.Half()
	if di < -h || di > h || dj < -h || dj > h {
		panic(fmt.Sprintf("kernels: offset (%d,%d) outside kernel of size %d", di, dj, k.size))
	}
	return k.weights[(dj+h)*k.size+(di+h)]
}

// Row returns the weights for row offset dj, indexed by di+Half().
// The slice aliases the kernel and must not be modified.
func (k *Kernel) Row(dj int) []float64 {
	start := (dj + k.Half()) * k.size
	return k.weights[start : start+k.size : start+k.size]
}

// Weights returns a copy of the weights in row-major order.
func (k *Kernel) Weights() []float64 {
	out := make([]float64, len(k.weights))
	copy(out, k.weights)
	return out
}

// Sum returns the sum of all weights; 1 for a normalised smoothing kernel.
func (k *Kernel) Sum() float64 {
	var s float64
	for _, w := range k.weights {
		s += w
	}
	return s
}

// String summarises the kernel for log lines.
func (k *Kernel) String() string {
	return fmt.Sprintf("kernel %dx%d (sum %.4g)", k.size, k.size, k.Sum())
}
