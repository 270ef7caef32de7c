// Package images - Pixel buffer definition and helpers shared by the filtering pipeline.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// Channels is the number of bytes stored per pixel (R, G, B, A).
const Channels = 4

// ErrInvalidBuffer is returned when pixel data does not match the declared dimensions.
var ErrInvalidBuffer = errors.New("invalid pixel buffer")

// Buffer is an 8-bit RGBA raster stored row-major, four bytes per pixel.
// Colour values are not premultiplied, matching what a PNG decoder hands out.
type Buffer struct {
	// The width of the image in pixels.
	Width int `json:"width" yaml:"width"`
	// The height of the image in pixels.
	Height int `json:"height" yaml:"height"`
	// The raw pixels, RGBARGBA..., len(Pix) == Width*Height*Channels.
	Pix []uint8 `json:"-" yaml:"-"`
}

// NewBuffer allocates a zeroed buffer. It panics on negative dimensions,
// like image.NewRGBA does on overflow.
func NewBuffer(width, height int) *Buffer {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("images: negative buffer dimensions %dx%d", width, height))
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// NewBufferFromPix wraps existing pixel data without copying it.
//
// Arguments:
// - width: The width of the image in pixels.
// - height: The height of the image in pixels.
// - pix: RGBA bytes in row-major order.
//
// Returns:
// - The buffer sharing pix.
// - ErrInvalidBuffer if the length of pix does not match the dimensions.
func NewBufferFromPix(width, height int, pix []uint8) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, errors.Wrapf(ErrInvalidBuffer, "negative dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*Channels {
		return nil, errors.Wrapf(ErrInvalidBuffer, "%dx%d needs %d bytes, got %d",
			width, height, width*height*Channels, len(pix))
	}
	return &Buffer{Width: width, Height: height, Pix: pix}, nil
}

// FromImage copies any image.Image into a new buffer anchored at (0, 0).
func FromImage(img image.Image) *Buffer {
	// imaging.Clone always returns a tightly packed NRGBA with a zero origin.
	nrgba := imaging.Clone(img)
	return &Buffer{
		Width:  nrgba.Rect.Dx(),
		Height: nrgba.Rect.Dy(),
		Pix:    nrgba.Pix,
	}
}

// NRGBA returns an *image.NRGBA view sharing the buffer's pixels.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * Channels,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Bounds returns the buffer rectangle.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// InBounds reports whether (x, y) addresses a pixel of the buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// Offset returns the index in Pix of the red byte of pixel (x, y).
// It is the only place that knows the row stride.
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * Channels
}

// At returns the pixel at (x, y). It panics when the coordinate is outside the buffer.
func (b *Buffer) At(x, y int) color.NRGBA {
	b.mustContain(x, y)
	o := b.Offset(x, y)
	p := b.Pix[o : o+Channels : o+Channels]
	return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Set stores c at (x, y). It panics when the coordinate is outside the buffer.
func (b *Buffer) Set(x, y int, c color.NRGBA) {
	b.mustContain(x, y)
	o := b.Offset(x, y)
	b.Pix[o+0] = c.R
	b.Pix[o+1] = c.G
	b.Pix[o+2] = c.B
	b.Pix[o+3] = c.A
}

// Row returns the bytes of row y.
func (b *Buffer) Row(y int) []uint8 {
	return b.Rows(y, y+1)
}

// Rows returns the contiguous bytes of rows [y0, y1).
func (b *Buffer) Rows(y0, y1 int) []uint8 {
	if y0 < 0 || y1 > b.Height || y0 > y1 {
		panic(fmt.Sprintf("images: rows [%d,%d) out of range for height %d", y0, y1, b.Height))
	}
	return b.Pix[b.Offset(0, y0):b.Offset(0, y1)]
}

// Window returns a buffer of height y1-y0 that shares the pixels of rows [y0, y1).
// Row 0 of the window is row y0 of b.
func (b *Buffer) Window(y0, y1 int) *Buffer {
	return &Buffer{Width: b.Width, Height: y1 - y0, Pix: b.Rows(y0, y1)}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c color.NRGBA) {
	for o := 0; o < len(b.Pix); o += Channels {
		b.Pix[o+0] = c.R
		b.Pix[o+1] = c.G
		b.Pix[o+2] = c.B
		b.Pix[o+3] = c.A
	}
}

// SameSize reports whether both buffers have identical dimensions.
func (b *Buffer) SameSize(other *Buffer) bool {
	return other != nil && b.Width == other.Width && b.Height == other.Height
}

// Equal reports whether both buffers have identical dimensions and pixels.
func (b *Buffer) Equal(other *Buffer) bool {
	return b.SameSize(other) && bytes.Equal(b.Pix, other.Pix)
}

func (b *Buffer) mustContain(x, y int) {
	if !b.InBounds(x, y) {
		panic(fmt.Sprintf("images: pixel (%d,%d) out of bounds %dx%d", x, y, b.Width, b.Height))
	}
}
