package pipeline

import (
	"io/fs"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/convolution"
	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/pkg/errors"
)

// Process exit codes reported by the convolve command.
const (
	ExitOK                = 0
	ExitUsage             = 1
	ExitKernelLoad        = 2
	ExitImageDecode       = 3
	ExitImageEncode       = 4
	ExitDimensionMismatch = 5
	ExitOther             = 6
)

// ExitCode maps an error returned by a run onto a process exit code.
// A missing kernel file counts as a usage error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidUsage):
		return ExitUsage
	case errors.Is(err, kernels.ErrKernelLoad) && errors.Is(err, fs.ErrNotExist):
		return ExitUsage
	case errors.Is(err, kernels.ErrKernelLoad):
		return ExitKernelLoad
	case errors.Is(err, images.ErrImageDecode):
		return ExitImageDecode
	case errors.Is(err, images.ErrImageEncode):
		return ExitImageEncode
	case errors.Is(err, convolution.ErrDimensionMismatch):
		return ExitDimensionMismatch
	default:
		return ExitOther
	}
}
