package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nvr-ai/go-convolution/pipeline"
	"github.com/nvr-ai/go-convolution/profiler"
	"github.com/pkg/errors"
)

const usage = `usage: convolve [flags] <image.png> <kernel.txt> [output.png]

Filters an image with a square kernel read from a text file and writes the
result (default %s).

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes the job and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, usage, pipeline.DefaultOutput)
		fs.PrintDefaults()
	}

	var (
		configPath      string
		border          string
		mode            string
		workers         int
		maxDimension    int
		requireInterior bool
		quiet           bool
		report          bool
	)
	fs.StringVar(&configPath, "config", "", "YAML or JSON run configuration; flags and arguments override it")
	fs.StringVar(&border, "border", "passthrough", "Border policy: passthrough or reflect")
	fs.StringVar(&mode, "mode", string(pipeline.ModeSequential), "Execution mode: sequential, parallel or distributed")
	fs.IntVar(&workers, "workers", runtime.NumCPU(), "Workers for the parallel and distributed modes")
	fs.IntVar(&maxDimension, "max-dim", 0, "Downscale inputs whose width or height exceeds this before filtering (0 disables)")
	fs.BoolVar(&requireInterior, "require-interior", false, "Fail when the kernel is too large to filter any pixel")
	fs.BoolVar(&quiet, "quiet", false, "Only print errors")
	fs.BoolVar(&report, "report", false, "Print a profiler report after the run")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return pipeline.ExitOK
		}
		return pipeline.ExitUsage
	}

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(configPath); err != nil {
			fmt.Fprintf(stderr, "❌ %v\n", err)
			return pipeline.ExitCode(err)
		}
	}

	// Explicitly set flags win over the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "border":
			cfg.Border = border
		case "mode":
			cfg.Mode = pipeline.Mode(mode)
		case "workers":
			cfg.Workers = workers
		case "max-dim":
			cfg.MaxDimension = maxDimension
		case "require-interior":
			cfg.RequireInterior = requireInterior
		}
	})

	positional := fs.Args()
	if len(positional) > 3 || (len(positional) < 2 && (cfg.Input == "" || cfg.Kernel == "")) {
		fs.Usage()
		return pipeline.ExitUsage
	}
	if len(positional) >= 2 {
		cfg.Input, cfg.Kernel = positional[0], positional[1]
	}
	if len(positional) == 3 {
		cfg.Output = positional[2]
	}

	logger := log.New(stdout, "convolve: ", 0)
	if quiet {
		logger = log.New(io.Discard, "", 0)
	}

	prof := profiler.New(profiler.ProfilingOptions{})
	runner, err := pipeline.NewRunner(cfg, pipeline.WithLogger(logger), pipeline.WithProfiler(prof))
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		fs.Usage()
		return pipeline.ExitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prof.Start()
	res, err := runner.Run(ctx)
	prof.Stop()
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return pipeline.ExitCode(err)
	}

	if !quiet {
		fmt.Fprintf(stdout, "\n✅ Filtered image written to %s\n", res.Output)
		fmt.Fprintf(stdout, "   🖼️  %dx%d, kernel %dx%d, %s border, %s mode (%d worker(s))\n",
			res.Width, res.Height, res.KernelSize, res.KernelSize, res.Border, res.Mode, res.Workers)
		for _, op := range res.Timings {
			fmt.Fprintf(stdout, "   ⏱️  %-7s %v\n", op.Name, op.Last.Truncate(time.Microsecond))
		}
	}
	if report {
		prof.Report(stdout)
	}

	return pipeline.ExitOK
}
