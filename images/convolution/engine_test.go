package convolution

import (
	"image/color"
	"math/rand"
	"strings"
	"testing"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/nvr-ai/go-convolution/images/kernels"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// genBuffer fills a w x h buffer with reproducible noise, alpha included.
func genBuffer(w, h int, seed int64) *images.Buffer {
	b := images.NewBuffer(w, h)
	rng := rand.New(rand.NewSource(seed))
	for i := range b.Pix {
		b.Pix[i] = uint8(rng.Intn(256))
	}
	return b
}

// genKernel returns a kernel with weights in [-0.5, 0.5).
func genKernel(t testing.TB, size int, seed int64) *kernels.Kernel {
	rng := rand.New(rand.NewSource(seed))
	w := make([]float64, size*size)
	for i := range w {
		w[i] = rng.Float64() - 0.5
	}
	k, err := kernels.New(w, size)
	require.NoError(t, err)
	return k
}

// referenceCorrelate is a direct, unoptimised rendition of the filter used to
// check the engine. Reads outside the image are mirrored when reflect is set.
func referenceCorrelate(src *images.Buffer, k *kernels.Kernel, reflect bool) *images.Buffer {
	half := k.Half()
	out := src.Clone()
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			inside := x >= half && x < src.Width-half && y >= half && y < src.Height-half
			if !reflect && !inside {
				continue
			}
			var r, g, b float64
			for dj := -half; dj <= half; dj++ {
				for di := -half; di <= half; di++ {
					sx := images.MapCoord(x+di, src.Width, images.MirrorEdgeMode)
					sy := images.MapCoord(y+dj, src.Height, images.MirrorEdgeMode)
					p := src.At(sx, sy)
					w := k.WeightAt(di, dj)
					r += float64(p.R) * w
					g += float64(p.G) * w
					b += float64(p.B) * w
				}
			}
			out.Set(x, y, color.NRGBA{R: Saturate(r), G: Saturate(g), B: Saturate(b), A: src.At(x, y).A})
		}
	}
	return out
}

func TestEngineOutputDimensionsMatchInput(t *testing.T) {
	for _, size := range []int{3, 5, 7, 11} {
		for _, mode := range []BorderMode{BorderPassthrough, BorderReflect} {
			src := genBuffer(size+4, size+9, int64(size))
			border, err := NewBorder(mode)
			require.NoError(t, err)

			out, err := NewEngine(genKernel(t, size, 1), border).Run(src)
			require.NoError(t, err)
			assert.Equal(t, src.Width, out.Width, "size=%d mode=%s", size, mode)
			assert.Equal(t, src.Height, out.Height, "size=%d mode=%s", size, mode)
			assert.Len(t, out.Pix, len(src.Pix))
		}
	}
}

func TestEngineIdentityKernel(t *testing.T) {
	src := genBuffer(19, 13, 7)

	for _, size := range []int{3, 5, 9} {
		k, err := kernels.Identity(size)
		require.NoError(t, err)

		t.Run("passthrough", func(t *testing.T) {
			out, err := NewEngine(k, Passthrough{}).Run(src)
			require.NoError(t, err)
			assert.True(t, out.Equal(src), "identity kernel must leave every pixel unchanged")
		})

		t.Run("reflect", func(t *testing.T) {
			out, err := NewEngine(k, Reflect{}).Run(src)
			require.NoError(t, err)
			assert.True(t, out.Equal(src), "identity kernel must leave every pixel unchanged")
		})
	}
}

func TestEngineAlphaIsNeverFiltered(t *testing.T) {
	src := genBuffer(16, 12, 3)
	k := genKernel(t, 5, 9)

	for _, border := range []Border{Passthrough{}, Reflect{}} {
		out, err := NewEngine(k, border).Run(src)
		require.NoError(t, err)
		for y := 0; y < src.Height; y++ {
			for x := 0; x < src.Width; x++ {
				require.Equal(t, src.At(x, y).A, out.At(x, y).A, "alpha at (%d,%d) border=%s", x, y, border.Mode())
			}
		}
	}
}

func TestEngineSaturation(t *testing.T) {
	white := images.NewBuffer(7, 7)
	white.Fill(color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	black := images.NewBuffer(7, 7)
	black.Fill(color.NRGBA{A: 255})

	ones := make([]float64, 9)
	for i := range ones {
		ones[i] = 1
	}
	negative := make([]float64, 9)
	for i := range negative {
		negative[i] = -1
	}

	testCases := []struct {
		name     string
		src      *images.Buffer
		weights  []float64
		expected uint8
	}{
		{name: "sum above 255 clamps high", src: white, weights: ones, expected: 255},
		{name: "negative weights clamp low", src: white, weights: negative, expected: 0},
		{name: "zero input with negative weights", src: black, weights: negative, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			k := kernels.MustNew(tc.weights, 3)
			out, err := NewEngine(k, Reflect{}).Run(tc.src)
			require.NoError(t, err)

			for y := 0; y < out.Height; y++ {
				for x := 0; x < out.Width; x++ {
					c := out.At(x, y)
					assert.Equal(t, tc.expected, c.R)
					assert.Equal(t, tc.expected, c.G)
					assert.Equal(t, tc.expected, c.B)
					assert.Equal(t, uint8(255), c.A)
				}
			}
		})
	}
}

func TestSaturateTruncates(t *testing.T) {
	testCases := []struct {
		in       float64
		expected uint8
	}{
		{in: -1000, expected: 0},
		{in: -0.5, expected: 0},
		{in: 0, expected: 0},
		{in: 9.999999999999998, expected: 9},
		{in: 127.9, expected: 127},
		{in: 254.99, expected: 254},
		{in: 255, expected: 255},
		{in: 255.7, expected: 255},
		{in: 1e300, expected: 255},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Saturate(tc.in), "Saturate(%v)", tc.in)
	}
}

func TestEnginePassthroughBorderBand(t *testing.T) {
	src := genBuffer(21, 17, 11)
	k := genKernel(t, 7, 5)
	half := k.Half()

	out, err := NewEngine(k, Passthrough{}).Run(src)
	require.NoError(t, err)

	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			if x < half || x >= src.Width-half || y < half || y >= src.Height-half {
				require.Equal(t, src.At(x, y), out.At(x, y), "border pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestEngineMatchesReference(t *testing.T) {
	src := genBuffer(23, 18, 21)

	for _, size := range []int{3, 5, 9} {
		k := genKernel(t, size, int64(size))

		out, err := NewEngine(k, Passthrough{}).Run(src)
		require.NoError(t, err)
		assert.True(t, out.Equal(referenceCorrelate(src, k, false)), "passthrough size=%d", size)

		out, err = NewEngine(k, Reflect{}).Run(src)
		require.NoError(t, err)
		assert.True(t, out.Equal(referenceCorrelate(src, k, true)), "reflect size=%d", size)
	}
}

func TestEngineUniformBoxFixedPoint(t *testing.T) {
	grey := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	src := images.NewBuffer(5, 5)
	src.Fill(grey)

	k, err := kernels.Box(3)
	require.NoError(t, err)

	for _, border := range []Border{Passthrough{}, Reflect{}} {
		out, err := NewEngine(k, border).Run(src)
		require.NoError(t, err)

		assert.Equal(t, grey, out.At(2, 2), "interior pixel, border=%s", border.Mode())
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				assert.Equal(t, grey, out.At(x, y), "pixel (%d,%d) border=%s", x, y, border.Mode())
			}
		}
	}
}

func TestEngineCorrelationOrientation(t *testing.T) {
	// A single weight at the top-left entry of the file selects offset
	// (di, dj) = (-1, -1): every interior pixel becomes a copy of its
	// upper-left neighbour. A flipped (true) convolution would pick (+1, +1).
	k, err := kernels.Parse(strings.NewReader("3\n1 0 0\n0 0 0\n0 0 0"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, k.WeightAt(-1, -1))

	src := images.NewBuffer(5, 5)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			src.Set(x, y, color.NRGBA{R: uint8(10*x + y), G: uint8(40 * y), B: uint8(40 * x), A: uint8(200 + x + 5*y)})
		}
	}

	out, err := NewEngine(k, Passthrough{}).Run(src)
	require.NoError(t, err)

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			got := out.At(x, y)
			if x == 0 || x == 4 || y == 0 || y == 4 {
				assert.Equal(t, src.At(x, y), got, "border (%d,%d)", x, y)
				continue
			}
			expected := color.NRGBA{
				R: uint8(10*(x-1) + (y - 1)),
				G: uint8(40 * (y - 1)),
				B: uint8(40 * (x - 1)),
				A: uint8(200 + x + 5*y),
			}
			assert.Equal(t, expected, got, "interior (%d,%d)", x, y)
		}
	}
}

func TestEngineNoInterior(t *testing.T) {
	src := genBuffer(4, 9, 2)
	k, err := kernels.Box(5)
	require.NoError(t, err)

	t.Run("degenerates to a copy", func(t *testing.T) {
		out, err := NewEngine(k, Passthrough{}).Run(src)
		require.NoError(t, err)
		assert.True(t, out.Equal(src))
	})

	t.Run("fails when an interior is required", func(t *testing.T) {
		_, err := NewEngine(k, Passthrough{}, RequireInterior()).Run(src)
		assert.True(t, errors.Is(err, ErrDimensionMismatch), "got %v", err)
	})

	t.Run("reflect still filters small images", func(t *testing.T) {
		out, err := NewEngine(k, Reflect{}, RequireInterior()).Run(src)
		require.NoError(t, err)
		assert.True(t, out.Equal(referenceCorrelate(src, k, true)))
	})
}

func TestEngineApplyErrors(t *testing.T) {
	src := genBuffer(10, 10, 1)
	e := NewEngine(genKernel(t, 3, 1), nil)

	err := e.Apply(src, images.NewBuffer(10, 9), RowRange{Start: 1, End: 9})
	assert.True(t, errors.Is(err, ErrDimensionMismatch), "got %v", err)

	for _, r := range []RowRange{{Start: -1, End: 3}, {Start: 4, End: 11}, {Start: 6, End: 5}} {
		err := e.Apply(src, images.NewBuffer(10, 10), r)
		assert.True(t, errors.Is(err, ErrInvalidRowRange), "range %s: got %v", r, err)
	}
}

func TestEngineApplyTouchesOnlyItsRows(t *testing.T) {
	src := genBuffer(12, 12, 4)
	e := NewEngine(genKernel(t, 3, 4), Passthrough{})

	dst := images.NewBuffer(12, 12)
	sentinel := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	dst.Fill(sentinel)

	require.NoError(t, e.Apply(src, dst, RowRange{Start: 4, End: 7}))

	full, err := e.Run(src)
	require.NoError(t, err)
	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			if y >= 4 && y < 7 {
				assert.Equal(t, full.At(x, y), dst.At(x, y))
			} else {
				assert.Equal(t, sentinel, dst.At(x, y))
			}
		}
	}
}
