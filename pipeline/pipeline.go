package pipeline

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/nvr-ai/go-convolution/profiler"
	"github.com/pkg/errors"
)

// Phase names recorded in the profiler.
const (
	PhaseKernel = "kernel"
	PhaseDecode = "decode"
	PhaseResize = "resize"
	PhaseFilter = "filter"
	PhaseEncode = "encode"
)

// Result summarises a completed run.
type Result struct {
	Input      string                    `json:"input"       yaml:"input"`
	Output     string                    `json:"output"      yaml:"output"`
	Width      int                       `json:"width"       yaml:"width"`
	Height     int                       `json:"height"      yaml:"height"`
	Scaled     bool                      `json:"scaled"      yaml:"scaled"`
	KernelSize int                       `json:"kernel_size" yaml:"kernel_size"`
	Border     convolution.BorderMode    `json:"border"      yaml:"border"`
	Mode       Mode                      `json:"mode"        yaml:"mode"`
	Workers    int                       `json:"workers"     yaml:"workers"`
	Checksum   string                    `json:"checksum"    yaml:"checksum"`
	Timings    []profiler.OperationStats `json:"timings"     yaml:"timings"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger progress lines are written to.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProfiler records phase timings into p instead of a private profiler.
func WithProfiler(p *profiler.Profiler) Option {
	return func(r *Runner) { r.profiler = p }
}

// Runner executes one Config.
type Runner struct {
	cfg      Config
	logger   *log.Logger
	profiler *profiler.Profiler
	pool     *convolution.Pool
}

// NewRunner validates cfg and prepares a runner.
//
// Arguments:
// - cfg: The run settings.
// - opts: Optional logger and profiler.
//
// Returns:
// - The runner.
// - An error wrapping ErrInvalidUsage.
func NewRunner(cfg Config, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:    cfg,
		logger: log.New(io.Discard, "", 0),
		pool:   &convolution.Pool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.profiler == nil {
		r.profiler = profiler.New(profiler.ProfilingOptions{})
	}
	return r, nil
}

// Config returns the validated settings.
func (r *Runner) Config() Config { return r.cfg }

// Run loads the kernel, decodes the input, filters it and writes the output.
// Nothing is written when any step fails.
//
// Arguments:
// - ctx: Cancels the parallel and distributed modes.
//
// Returns:
// - The run summary.
// - The first error; classify it with ExitCode.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	cfg := r.cfg
	border, _ := convolution.ParseBorderMode(cfg.Border)
	mode, _ := ParseMode(string(cfg.Mode))

	done := r.profiler.StartOperation(PhaseKernel)
	k, err := kernels.Load(cfg.Kernel)
	done()
	if err != nil {
		return nil, err
	}
	r.logger.Printf("kernel size: %d", k.Size())

	done = r.profiler.StartOperation(PhaseDecode)
	src, err := images.Decode(cfg.Input)
	d := done()
	if err != nil {
		return nil, err
	}
	r.logger.Printf("📷 decoded %s (%dx%d) in %v", cfg.Input, src.Width, src.Height, d.Truncate(time.Microsecond))

	scaled := false
	if cfg.MaxDimension > 0 && (src.Width > cfg.MaxDimension || src.Height > cfg.MaxDimension) {
		done = r.profiler.StartOperation(PhaseResize)
		src = images.Downscale(src, cfg.MaxDimension, cfg.Resample)
		done()
		scaled = true
		r.logger.Printf("📐 downscaled to %dx%d", src.Width, src.Height)
	}

	b, err := convolution.NewBorder(border)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidUsage, err.Error())
	}
	engineOpts := []convolution.Option{convolution.WithPool(r.pool)}
	if cfg.RequireInterior {
		engineOpts = append(engineOpts, convolution.RequireInterior())
	}
	e := convolution.NewEngine(k, b, engineOpts...)

	done = r.profiler.StartOperation(PhaseFilter)
	out, err := Filter(ctx, e, src, mode, cfg.Workers)
	d = done()
	if err != nil {
		return nil, err
	}
	r.logger.Printf("⚙️  filtered %s/%s with %d worker(s) in %v", mode, border, workersFor(mode, cfg.Workers), d.Truncate(time.Microsecond))

	done = r.profiler.StartOperation(PhaseEncode)
	err = images.Encode(cfg.Output, out)
	done()
	if err != nil {
		return nil, err
	}
	r.logger.Printf("✅ wrote %s", cfg.Output)

	return &Result{
		Input:      cfg.Input,
		Output:     cfg.Output,
		Width:      out.Width,
		Height:     out.Height,
		Scaled:     scaled,
		KernelSize: k.Size(),
		Border:     border,
		Mode:       mode,
		Workers:    workersFor(mode, cfg.Workers),
		Checksum:   images.Checksum(out),
		Timings:    r.profiler.Operations(),
	}, nil
}

// Filter runs e over src in the given mode. Every mode produces the same bytes.
//
// Arguments:
// - ctx: Cancels the parallel and distributed modes.
// - e: The configured engine.
// - src: The input image.
// - mode: How to execute.
// - workers: Goroutine count for the parallel and distributed modes.
//
// Returns:
// - The filtered image.
// - An error from the engine, or ErrInvalidUsage for an unknown mode.
func Filter(ctx context.Context, e *convolution.Engine, src *images.Buffer, mode Mode, workers int) (*images.Buffer, error) {
	switch mode {
	case ModeSequential, "":
		return e.Run(src)
	case ModeParallel:
		return e.RunParallel(ctx, src, workers)
	case ModeDistributed:
		return convolution.Distribute(ctx, e, src, workers)
	default:
		return nil, errors.Wrapf(ErrInvalidUsage, "unknown mode %q", mode)
	}
}

func workersFor(mode Mode, workers int) int {
	if mode == ModeSequential {
		return 1
	}
	return workers
}
