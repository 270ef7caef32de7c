// Package convolution applies square kernels to RGBA buffers, sequentially,
// over goroutine-parallel row ranges, or through a scatter/gather of row
// blocks between workers.
package convolution

import (
	"context"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrDimensionMismatch is returned when buffers disagree in size, or when an
	// interior region is required but the kernel is too large for the image.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidRowRange is returned for ranges outside [0, height].
	ErrInvalidRowRange = errors.New("invalid row range")
)

// Option configures an Engine.
type Option func(*Engine)

// RequireInterior makes the engine fail with ErrDimensionMismatch instead of
// degenerating to a verbatim copy when no pixel can be filtered.
func RequireInterior() Option {
	return func(e *Engine) { e.requireInterior = true }
}

// WithPool lets distributed runs reuse row block allocations.
func WithPool(p *Pool) Option {
	return func(e *Engine) { e.pool = p }
}

// Engine applies one kernel under one border policy. It holds no per-run
// state and may be used from several goroutines at once.
type Engine struct {
	kernel          *kernels.Kernel
	border          Border
	requireInterior bool
	pool            *Pool
}

// NewEngine creates an engine. A nil border selects Passthrough.
//
// Arguments:
// - k: The validated kernel.
// - b: The border policy.
// - opts: Optional behaviour.
//
// Returns:
// - The engine.
func NewEngine(k *kernels.Kernel, b Border, opts ...Option) *Engine {
	if b == nil {
		b = Passthrough{}
	}
	e := &Engine{kernel: k, border: b}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Kernel returns the kernel the engine applies.
func (e *Engine) Kernel() *kernels.Kernel { return e.kernel }

// Border returns the engine's border policy.
func (e *Engine) Border() Border { return e.border }

// Prepare builds the shared read-only view of src for the engine's border.
func (e *Engine) Prepare(src *images.Buffer) (*Source, error) {
	s := e.border.Prepare(src, e.kernel.Half())
	if e.requireInterior && (s.rows.Len() == 0 || s.columns.Len() == 0) {
		return nil, errors.Wrapf(ErrDimensionMismatch, "kernel %dx%d leaves no interior in %dx%d image",
			e.kernel.Size(), e.kernel.Size(), src.Width, src.Height)
	}
	return s, nil
}

// Apply filters the rows of src selected by rows and writes them into the
// same rows of dst. Other rows of dst are left untouched.
//
// Arguments:
// - src: The input image; it is only read.
// - dst: The output image, same size as src.
// - rows: The rows this call owns.
//
// Returns:
// - ErrDimensionMismatch or ErrInvalidRowRange.
func (e *Engine) Apply(src, dst *images.Buffer, rows RowRange) error {
	if !src.SameSize(dst) {
		return errors.Wrapf(ErrDimensionMismatch, "source %dx%d, destination %dx%d",
			src.Width, src.Height, dst.Width, dst.Height)
	}
	s, err := e.Prepare(src)
	if err != nil {
		return err
	}
	return e.ApplyPrepared(s, dst, rows)
}

// ApplyPrepared is Apply for a Source prepared once and shared by workers.
func (e *Engine) ApplyPrepared(s *Source, dst *images.Buffer, rows RowRange) error {
	src := s.original
	if !src.SameSize(dst) {
		return errors.Wrapf(ErrDimensionMismatch, "source %dx%d, destination %dx%d",
			src.Width, src.Height, dst.Width, dst.Height)
	}
	if rows.Start < 0 || rows.End > src.Height || rows.Start > rows.End {
		return errors.Wrapf(ErrInvalidRowRange, "%s for height %d", rows, src.Height)
	}

	e.filterRows(s, dst.Window(rows.Start, rows.End), rows)
	return nil
}

// Run filters the whole image on the calling goroutine.
func (e *Engine) Run(src *images.Buffer) (*images.Buffer, error) {
	dst := images.NewBuffer(src.Width, src.Height)
	s, err := e.Prepare(src)
	if err != nil {
		return nil, err
	}
	if err := e.ApplyPrepared(s, dst, RowRange{Start: 0, End: src.Height}); err != nil {
		return nil, err
	}
	return dst, nil
}

// RunParallel partitions the filtered rows between workers goroutines that
// write disjoint rows of one shared output, then copies the unfiltered top
// and bottom bands.
//
// Arguments:
// - ctx: Cancels workers that have not started yet.
// - src: The input image.
// - workers: The number of goroutines, at least 1.
//
// Returns:
// - The filtered image, byte-identical to Run.
// - ErrInvalidWorkerCount, ErrDimensionMismatch or the context error.
func (e *Engine) RunParallel(ctx context.Context, src *images.Buffer, workers int) (*images.Buffer, error) {
	s, err := e.Prepare(src)
	if err != nil {
		return nil, err
	}
	band := s.Rows()
	ranges, err := Partition(band.Start, band.Len(), workers)
	if err != nil {
		return nil, err
	}

	dst := images.NewBuffer(src.Width, src.Height)
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		if r.Len() == 0 {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.ApplyPrepared(s, dst, r)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	copyBands(src, dst, band)
	return dst, nil
}

// filterRows writes the rows in rows into out, whose row 0 is rows.Start.
func (e *Engine) filterRows(s *Source, out *images.Buffer, rows RowRange) {
	src := s.original
	for y := rows.Start; y < rows.End; y++ {
		if !s.rows.Contains(y) {
			copy(out.Row(y-rows.Start), src.Row(y))
			continue
		}
		e.filterRow(s, out, y-rows.Start, y)
	}
}

// filterRow computes row y of the output into row ly of out.
func (e *Engine) filterRow(s *Source, out *images.Buffer, ly, y int) {
	src, samples := s.original, s.samples
	half := e.kernel.Half()
	x0, x1 := s.Columns()

	// Unfiltered side bands are copied with their alpha.
	copy(out.Pix[out.Offset(0, ly):out.Offset(x0, ly)], src.Pix[src.Offset(0, y):src.Offset(x0, y)])
	copy(out.Pix[out.Offset(x1, ly):out.Offset(src.Width, ly)], src.Pix[src.Offset(x1, y):src.Offset(src.Width, y)])

	for x := x0; x < x1; x++ {
		var r, g, b float64
		for dj := -half; dj <= half; dj++ {
			weights := e.kernel.Row(dj)
			// Samples for di = -half..half are contiguous in this row.
			o := samples.Offset(x-half+s.pad, y+dj+s.pad)
			p := samples.Pix[o : o+len(weights)*images.Channels]
			for i, w := range weights {
				q := i * images.Channels
				r += float64(p[q+0]) * w
				g += float64(p[q+1]) * w
				b += float64(p[q+2]) * w
			}
		}

		o := out.Offset(x, ly)
		out.Pix[o+0] = Saturate(r)
		out.Pix[o+1] = Saturate(g)
		out.Pix[o+2] = Saturate(b)
		// Alpha is never filtered.
		out.Pix[o+3] = src.Pix[src.Offset(x, y)+3]
	}
}

// Saturate clamps v to [0, 255] and truncates toward zero.
func Saturate(v float64) uint8 {
	return uint8(images.Clamp(v, 0, 255))
}
