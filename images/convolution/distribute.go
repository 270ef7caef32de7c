package convolution

import (
	"context"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Task assigns one row range, identified by its partition rank, to a worker.
type Task struct {
	Rank  int
	Range RowRange
}

// Distribute runs the engine as a coordinator and workers exchanging
// messages: the coordinator scatters one Task per partition on a channel,
// each worker filters the rows of the tasks it receives into a private row
// block and sends it back, and the coordinator gathers every block before
// merging them with the unfiltered bands of src.
//
// Workers share only the read-only prepared source. A failing worker cancels
// the run and no output is produced.
//
// Arguments:
// - ctx: Cancels the scatter and idle workers.
// - e: The engine to run.
// - src: The input image.
// - workers: The number of workers and partitions, at least 1.
//
// Returns:
// - The assembled image, byte-identical to e.Run(src).
// - The first worker error, ErrIncompleteGather or the context error.
func Distribute(ctx context.Context, e *Engine, src *images.Buffer, workers int) (*images.Buffer, error) {
	s, err := e.Prepare(src)
	if err != nil {
		return nil, err
	}
	band := s.Rows()
	ranges, err := Partition(band.Start, band.Len(), workers)
	if err != nil {
		return nil, err
	}

	tasks := make(chan Task)
	// One slot per partition so workers never block on delivery.
	results := make(chan RowBlock, len(ranges))

	g, ctx := errgroup.WithContext(ctx)

	// Scatter.
	g.Go(func() error {
		defer close(tasks)
		for rank, r := range ranges {
			select {
			case tasks <- Task{Rank: rank, Range: r}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return e.serve(ctx, s, tasks, results)
		})
	}

	// Gather. Wait is the single barrier of the run.
	err = g.Wait()
	close(results)
	blocks := make([]RowBlock, 0, len(ranges))
	for b := range results {
		blocks = append(blocks, b)
	}
	defer func() {
		for _, b := range blocks {
			e.pool.Put(b.Pix)
		}
	}()
	if err != nil {
		return nil, err
	}

	return Merge(src, band, blocks)
}

// serve is the worker loop: filter each received task until the channel closes.
func (e *Engine) serve(ctx context.Context, s *Source, tasks <-chan Task, results chan<- RowBlock) error {
	for t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		block, err := e.compute(s, t)
		if err != nil {
			return err
		}
		results <- block
	}
	return nil
}

// compute filters the rows of one task into a freshly acquired block.
func (e *Engine) compute(s *Source, t Task) (RowBlock, error) {
	src := s.original
	if t.Range.Start < 0 || t.Range.End > src.Height || t.Range.Start > t.Range.End {
		return RowBlock{}, errors.Wrapf(ErrInvalidRowRange, "task %d %s for height %d", t.Rank, t.Range, src.Height)
	}

	pix := e.pool.Get(t.Range.Len() * src.Width * images.Channels)
	out, err := images.NewBufferFromPix(src.Width, t.Range.Len(), pix)
	if err != nil {
		return RowBlock{}, err
	}
	e.filterRows(s, out, t.Range)

	return RowBlock{Rank: t.Rank, Range: t.Range, Pix: pix}, nil
}
