package images

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrSizeMismatch is returned when two buffers that must be compared differ in size.
var ErrSizeMismatch = errors.New("image dimensions differ")

// SquaredDifference returns the sum over all pixels of the squared
// differences of the R, G and B channels. Alpha is ignored.
//
// Arguments:
// - a, b: The buffers to compare; they must have identical dimensions.
//
// Returns:
// - The sum of squared differences (0 for identical colour planes).
// - ErrSizeMismatch if the dimensions differ.
func SquaredDifference(a, b *Buffer) (uint64, error) {
	if !a.SameSize(b) {
		return 0, errors.Wrapf(ErrSizeMismatch, "%dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}

	var total atomic.Uint64
	Parallel(a.Height, 0, func(partStart, partEnd int) {
		var sum uint64
		ra, rb := a.Rows(partStart, partEnd), b.Rows(partStart, partEnd)
		for o := 0; o < len(ra); o += Channels {
			for c := 0; c < 3; c++ {
				d := int64(ra[o+c]) - int64(rb[o+c])
				sum += uint64(d * d)
			}
		}
		total.Add(sum)
	})

	return total.Load(), nil
}
