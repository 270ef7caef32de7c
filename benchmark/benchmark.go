package benchmark

import (
	"math/rand"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/pkg/errors"
)

// KernelKind names a kernel generator.
type KernelKind string

const (
	KernelBlackman KernelKind = "blackman"
	KernelBox      KernelKind = "box"
	KernelIdentity KernelKind = "identity"
)

// ErrUnknownKernelKind is returned for kernel kinds without a generator.
var ErrUnknownKernelKind = errors.New("unknown kernel kind")

// NewKernel generates the kernel a scenario filters with.
//
// Arguments:
// - kind: The generator; empty selects KernelBlackman.
// - size: The odd kernel side.
//
// Returns:
// - The kernel.
// - ErrUnknownKernelKind, or an error wrapping kernels.ErrInvalidKernel.
func NewKernel(kind KernelKind, size int) (*kernels.Kernel, error) {
	switch kind {
	case KernelBlackman, "":
		return kernels.Blackman(size)
	case KernelBox:
		return kernels.Box(size)
	case KernelIdentity:
		return kernels.Identity(size)
	default:
		return nil, errors.Wrapf(ErrUnknownKernelKind, "%q", kind)
	}
}

// SyntheticImage returns a reproducible noise image for inputs when no corpus
// is loaded. Alpha varies too so alpha passthrough is exercised.
//
// Arguments:
// - width: The image width in pixels.
// - height: The image height in pixels.
// - seed: Images with the same seed and size are identical.
//
// Returns:
// - The image.
func SyntheticImage(width, height int, seed int64) *images.Buffer {
	b := images.NewBuffer(width, height)
	rng := rand.New(rand.NewSource(seed))
	rng.Read(b.Pix)
	return b
}
