package convolution

import (
	"strings"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/pkg/errors"
)

// BorderMode names an edge policy.
type BorderMode string

const (
	// BorderPassthrough filters only pixels whose whole neighbourhood is inside
	// the image; the band of width half along every edge is copied unchanged.
	BorderPassthrough BorderMode = "passthrough"
	// BorderReflect extends the image by mirroring rows then columns, and
	// filters every pixel.
	BorderReflect BorderMode = "reflect"
)

// ErrUnknownBorder is returned for border names other than passthrough and reflect.
var ErrUnknownBorder = errors.New("unknown border mode")

// ParseBorderMode converts a configuration string into a BorderMode.
// The empty string selects BorderPassthrough.
func ParseBorderMode(s string) (BorderMode, error) {
	switch BorderMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", BorderPassthrough, "skip":
		return BorderPassthrough, nil
	case BorderReflect, "mirror":
		return BorderReflect, nil
	default:
		return "", errors.Wrapf(ErrUnknownBorder, "%q", s)
	}
}

// Border supplies the samples the engine reads for a given source image.
// Implementations decide which output pixels are filtered and how reads
// beyond the original edges are answered.
type Border interface {
	// Mode reports which policy this is.
	Mode() BorderMode
	// Prepare builds the read-only sample view for src and a kernel reach of half.
	// The result is safe to share between goroutines.
	Prepare(src *images.Buffer, half int) *Source
}

// NewBorder returns the Border implementing mode.
func NewBorder(mode BorderMode) (Border, error) {
	switch mode {
	case BorderPassthrough, "":
		return Passthrough{}, nil
	case BorderReflect:
		return Reflect{}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownBorder, "%q", mode)
	}
}

// Source is a prepared, read-only view of the input: the original pixels,
// the buffer samples are read from and the output region that gets filtered.
// Sample coordinates are original-image coordinates; samples holds them
// shifted by pad on both axes.
type Source struct {
	original *images.Buffer
	samples  *images.Buffer
	pad      int
	columns  RowRange // reuses the half-open interval type for x
	rows     RowRange
}

// Original returns the unmodified input image.
func (s *Source) Original() *images.Buffer { return s.original }

// Columns returns the half-open range of x that is filtered.
func (s *Source) Columns() (x0, x1 int) { return s.columns.Start, s.columns.End }

// Rows returns the half-open range of y that is filtered.
func (s *Source) Rows() RowRange { return s.rows }

// At returns the sample at original coordinates (x, y), which may lie up to
// the kernel reach outside the image when the border extends it.
func (s *Source) At(x, y int) (r, g, b uint8) {
	c := s.samples.At(x+s.pad, y+s.pad)
	return c.R, c.G, c.B
}

// Passthrough is the skip-border policy: no extension, edge band copied verbatim.
type Passthrough struct{}

// Mode implements Border.
func (Passthrough) Mode() BorderMode { return BorderPassthrough }

// Prepare implements Border. When the image is not wider and taller than
// 2*half there is nothing to filter and the region is empty.
func (Passthrough) Prepare(src *images.Buffer, half int) *Source {
	s := &Source{original: src, samples: src}
	if src.Width > 2*half && src.Height > 2*half {
		s.columns = RowRange{Start: half, End: src.Width - half}
		s.rows = RowRange{Start: half, End: src.Height - half}
	}
	return s
}

// Reflect is the mirrored-margin policy.
type Reflect struct{}

// Mode implements Border.
func (Reflect) Mode() BorderMode { return BorderReflect }

// Prepare implements Border. It allocates a (w+2h)x(h+2h) copy whose top and
// bottom margins mirror interior rows (row -1-i = row i, row height+i =
// row height-1-i) and whose left and right margins then mirror the columns of
// that taller buffer. Every original pixel is filtered.
func (Reflect) Prepare(src *images.Buffer, half int) *Source {
	s := &Source{
		original: src,
		samples:  Extend(src, half),
		pad:      half,
		columns:  RowRange{Start: 0, End: src.Width},
		rows:     RowRange{Start: 0, End: src.Height},
	}
	if src.Width == 0 || src.Height == 0 {
		s.columns, s.rows = RowRange{}, RowRange{}
	}
	return s
}

// Extend returns src padded by margin pixels on every side using symmetric
// reflection, so the edge pixel is repeated. Margins wider than the image keep
// bouncing between its edges.
func Extend(src *images.Buffer, margin int) *images.Buffer {
	ext := images.NewBuffer(src.Width+2*margin, src.Height+2*margin)
	if src.Width == 0 || src.Height == 0 {
		return ext
	}

	// Top and bottom margins first, centre columns only.
	for ey := 0; ey < ext.Height; ey++ {
		sy := images.MapCoord(ey-margin, src.Height, images.MirrorEdgeMode)
		copy(ext.Pix[ext.Offset(margin, ey):ext.Offset(margin+src.Width, ey)], src.Row(sy))
	}

	// Then left and right margins, mirrored within the taller buffer.
	for ey := 0; ey < ext.Height; ey++ {
		for i := 0; i < margin; i++ {
			// Left: column -1-i reads column i.
			lx := images.MapCoord(-1-i, src.Width, images.MirrorEdgeMode)
			ext.Set(margin-1-i, ey, ext.At(margin+lx, ey))
			// Right: column width+i reads column width-1-i.
			rx := images.MapCoord(src.Width+i, src.Width, images.MirrorEdgeMode)
			ext.Set(margin+src.Width+i, ey, ext.At(margin+rx, ey))
		}
	}

	return ext
}
