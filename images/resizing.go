package images

import (
	"github.com/nfnt/resize"
)

// ResampleFilter selects the interpolation used when rescaling.
type ResampleFilter string

const (
	NearestNeighborFilter ResampleFilter = "nearest"
	BilinearFilter        ResampleFilter = "bilinear"
	BicubicFilter         ResampleFilter = "bicubic"
	LanczosFilter         ResampleFilter = "lanczos"
)

// interpolation maps the filter onto the resize library's function.
func (f ResampleFilter) interpolation() resize.InterpolationFunction {
	switch f {
	case NearestNeighborFilter:
		return resize.NearestNeighbor
	case BilinearFilter:
		return resize.Bilinear
	case BicubicFilter:
		return resize.Bicubic
	default:
		return resize.Lanczos3
	}
}

// Resize returns a new buffer of exactly width x height.
//
// Arguments:
// - b: The source buffer.
// - width: The target width in pixels.
// - height: The target height in pixels.
// - filter: The resampling filter to use for interpolation.
//
// Returns:
// - The resized copy. A same-size request returns a clone.
func Resize(b *Buffer, width, height int, filter ResampleFilter) *Buffer {
	// Early return if no resizing needed; the caller still gets a new buffer.
	if b.Width == width && b.Height == height {
		return b.Clone()
	}
	if width <= 0 || height <= 0 {
		return NewBuffer(0, 0)
	}

	out := resize.Resize(uint(width), uint(height), b.NRGBA(), filter.interpolation())
	return FromImage(out)
}

// Downscale shrinks b so that neither side exceeds maxDimension, keeping the
// aspect ratio. Buffers that already fit, and maxDimension <= 0, yield b itself.
//
// Arguments:
// - b: The source buffer.
// - maxDimension: The largest allowed width or height.
// - filter: The resampling filter to use for interpolation.
//
// Returns:
// - b, or a new downscaled buffer.
func Downscale(b *Buffer, maxDimension int, filter ResampleFilter) *Buffer {
	if maxDimension <= 0 || (b.Width <= maxDimension && b.Height <= maxDimension) {
		return b
	}

	out := resize.Thumbnail(uint(maxDimension), uint(maxDimension), b.NRGBA(), filter.interpolation())
	return FromImage(out)
}
