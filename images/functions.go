// Package images - provides the pixel buffer, codec and small numeric helpers
// shared by the convolution engine and its tools.
package images

import (
	"runtime"
	"sync"
)

// Clamp restricts a value to the range [min, max].
//
// Arguments:
// - value: The value to clamp.
// - min: The lower bound.
// - max: The upper bound.
//
// Returns:
// - The clamped value.
func Clamp(value, min, max float64) float64 {
	// Check lower bound first (common case for underflow).
	if value < min {
		return min
	}
	// Check upper bound.
	if value > max {
		return max
	}
	// Value is within range.
	return value
}

// Parallel executes fn over [0, dataSize) split into contiguous partitions,
// one goroutine per partition, and waits for all of them.
//
// Arguments:
// - dataSize: The number of items (usually rows) to process.
// - workers: The number of goroutines; <= 0 means runtime.NumCPU().
// - fn: Called once per partition with the half-open range [partStart, partEnd).
func Parallel(dataSize, workers int, fn func(partStart, partEnd int)) {
	if dataSize <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// For small data sizes, parallel processing overhead isn't worth it.
	if workers == 1 || dataSize < workers*2 {
		fn(0, dataSize)
		return
	}

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		// Floor-division boundaries telescope, so partitions cover every item once.
		partStart := dataSize * i / workers
		partEnd := dataSize * (i + 1) / workers

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}

// EdgeMode defines how to handle coordinates that are out of bounds.
type EdgeMode string

const (
	// ClampEdgeMode repeats the nearest edge pixel.
	ClampEdgeMode EdgeMode = "clamp"
	// MirrorEdgeMode reflects coordinates symmetrically, repeating the edge
	// pixel: -1 maps to 0, -2 to 1, max to max-1.
	MirrorEdgeMode EdgeMode = "mirror"
	// WrapEdgeMode tiles the image.
	WrapEdgeMode EdgeMode = "wrap"
)

// MapCoord maps a coordinate into [0, max) based on the edge mode.
//
// Arguments:
// - coord: The coordinate to map.
// - max: The size of the dimension; must be > 0.
// - mode: The edge mode to use.
func MapCoord(coord, max int, mode EdgeMode) int {
	switch mode {
	case MirrorEdgeMode:
		if max == 1 {
			return 0
		}
		// Keep bouncing for margins wider than the image itself.
		for coord < 0 || coord >= max {
			if coord < 0 {
				coord = -coord - 1
			} else {
				coord = 2*max - coord - 1
			}
		}
		return coord
	case WrapEdgeMode:
		return (coord%max + max) % max
	default:
		if coord < 0 {
			return 0
		} else if coord >= max {
			return max - 1
		}
		return coord
	}
}
