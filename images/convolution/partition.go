package convolution

import (
	"fmt"
	"sort"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrInvalidWorkerCount is returned when fewer than one worker is requested.
	ErrInvalidWorkerCount = errors.New("worker count must be at least 1")
	// ErrIncompleteGather is returned when gathered row blocks do not tile the
	// interior band exactly once.
	ErrIncompleteGather = errors.New("row blocks do not cover the interior band")
)

// RowRange is the half-open interval [Start, End) of rows assigned to one worker.
type RowRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end"   yaml:"end"`
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start
}

// Contains reports whether row y belongs to the range.
func (r RowRange) Contains(y int) bool { return y >= r.Start && y < r.End }

// Intersect returns the rows common to both ranges (possibly empty).
func (r RowRange) Intersect(o RowRange) RowRange {
	out := RowRange{Start: max(r.Start, o.Start), End: min(r.End, o.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

func (r RowRange) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// InteriorBand returns the rows [half, height-half) that a kernel of reach
// half can filter without leaving the image, or an empty range at 0 when
// there are none.
func InteriorBand(height, half int) RowRange {
	if height <= 2*half {
		return RowRange{}
	}
	return RowRange{Start: half, End: height - half}
}

// Partition splits totalInteriorRows rows starting at row half into one
// contiguous range per worker. Worker r receives
//
//	[half + total*r/workers, half + total*(r+1)/workers)
//
// with floor division, so boundaries telescope and the ranges cover the band
// exactly once. Later workers receive the extra rows of the remainder. Ranges
// may be empty when workers exceeds the row count; one range is still
// returned per worker.
//
// Arguments:
// - half: The first interior row.
// - totalInteriorRows: The number of rows to split.
// - workers: The number of workers, at least 1.
//
// Returns:
// - workers ranges ordered by rank.
// - ErrInvalidWorkerCount when workers < 1.
func Partition(half, totalInteriorRows, workers int) ([]RowRange, error) {
	if workers < 1 {
		return nil, errors.Wrapf(ErrInvalidWorkerCount, "got %d", workers)
	}
	if totalInteriorRows < 0 {
		totalInteriorRows = 0
	}

	ranges := make([]RowRange, workers)
	for r := range ranges {
		ranges[r] = RowRange{
			Start: half + totalInteriorRows*r/workers,
			End:   half + totalInteriorRows*(r+1)/workers,
		}
	}
	return ranges, nil
}

// RowBlock carries the filtered rows of one range back to the coordinator.
type RowBlock struct {
	Rank  int
	Range RowRange
	// Pix holds Range.Len() full rows of RGBA bytes.
	Pix []uint8
}

// Merge assembles the gathered blocks into a new full-size buffer. Blocks are
// placed in row order; rows outside the interior band are copied from src,
// once, by the coordinator calling Merge.
//
// Arguments:
// - src: The original input, used for dimensions and the top/bottom bands.
// - interior: The band the blocks must tile.
// - blocks: Gathered blocks in any order; empty ranges are ignored.
//
// Returns:
// - The assembled output.
// - ErrIncompleteGather when blocks overlap, leave gaps, overrun the band
// or carry the wrong number of bytes.
func Merge(src *images.Buffer, interior RowRange, blocks []RowBlock) (*images.Buffer, error) {
	rowBytes := src.Width * images.Channels

	parts := lo.Filter(blocks, func(b RowBlock, _ int) bool { return b.Range.Len() > 0 })
	sort.Slice(parts, func(i, j int) bool { return parts[i].Range.Start < parts[j].Range.Start })

	dst := images.NewBuffer(src.Width, src.Height)
	next := interior.Start
	for _, b := range parts {
		if b.Range.Start != next || b.Range.End > interior.End {
			return nil, errors.Wrapf(ErrIncompleteGather, "block %s from rank %d, expected start %d", b.Range, b.Rank, next)
		}
		if len(b.Pix) != b.Range.Len()*rowBytes {
			return nil, errors.Wrapf(ErrIncompleteGather, "block %s from rank %d has %d bytes, want %d",
				b.Range, b.Rank, len(b.Pix), b.Range.Len()*rowBytes)
		}
		copy(dst.Rows(b.Range.Start, b.Range.End), b.Pix)
		next = b.Range.End
	}
	if next != interior.End {
		return nil, errors.Wrapf(ErrIncompleteGather, "rows %s missing", RowRange{Start: next, End: interior.End})
	}

	copyBands(src, dst, interior)
	return dst, nil
}

// copyBands copies every row outside interior from src to dst.
func copyBands(src, dst *images.Buffer, interior RowRange) {
	if interior.Len() == 0 {
		copy(dst.Pix, src.Pix)
		return
	}
	copy(dst.Rows(0, interior.Start), src.Rows(0, interior.Start))
	copy(dst.Rows(interior.End, src.Height), src.Rows(interior.End, src.Height))
}
