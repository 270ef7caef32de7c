package images

import (
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

var (
	// ErrImageDecode is returned when an input image is missing or corrupt.
	ErrImageDecode = errors.New("image decode failed")
	// ErrImageEncode is returned when the output image cannot be written.
	ErrImageEncode = errors.New("image encode failed")
)

// Decode reads an image file into an RGBA buffer.
//
// Arguments:
// - path: The image file to read.
//
// Returns:
// - The decoded pixels, four bytes per pixel, RGBARGBA...
// - An error wrapping ErrImageDecode that names the file and the reason.
func Decode(path string) (*Buffer, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrImageDecode, "%s (%v)", path, err)
	}
	return FromImage(img), nil
}

// Encode writes the buffer to path, choosing the format from the extension.
// The image is written to a temporary file next to path and renamed into
// place, so a failed encode never leaves a truncated output behind.
//
// Arguments:
// - path: The destination file.
// - b: The pixels to write.
//
// Returns:
// - An error wrapping ErrImageEncode that names the file and the reason.
func Encode(path string, b *Buffer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return errors.Wrapf(ErrImageEncode, "%s (%v)", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".convolve-*"+filepath.Ext(path))
	if err != nil {
		return errors.Wrapf(ErrImageEncode, "%s (%v)", path, err)
	}
	tmpName := tmp.Name()
	// CreateTemp opens with 0600; outputs are meant to be shared.
	_ = tmp.Chmod(0o644)

	if err := imaging.Encode(tmp, b.NRGBA(), format.imaging()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(ErrImageEncode, "%s (%v)", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(ErrImageEncode, "%s (%v)", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(ErrImageEncode, "%s (%v)", path, err)
	}

	return nil
}
