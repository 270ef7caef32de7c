// Command kernelgen prints a normalised Blackman smoothing kernel in the
// kernel text format read by convolve.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/pkg/errors"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kernelgen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kind := fs.String("kind", "blackman", "Kernel kind: blackman, box or identity")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: kernelgen [-kind blackman|box|identity] <size>\n\nsize is odd, %d to %d.\n\n", kernels.MinSize, kernels.MaxSize)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	size, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "❌ invalid size %q\n", fs.Arg(0))
		return 1
	}

	k, err := generate(*kind, size)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}
	if err := kernels.Write(stdout, k); err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}
	return 0
}

func generate(kind string, size int) (*kernels.Kernel, error) {
	switch kind {
	case "blackman":
		return kernels.Blackman(size)
	case "box":
		return kernels.Box(size)
	case "identity":
		return kernels.Identity(size)
	default:
		return nil, errors.Errorf("unknown kernel kind %q", kind)
	}
}
