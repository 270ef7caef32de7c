package images

import (
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpeg"
	FormatBMP  ImageFormat = "bmp"
)

// ErrUnsupportedFormat is returned for file extensions the codec cannot write.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromPath derives the image format from a file extension.
//
// Arguments:
// - path: The file name or path, e.g. "output.png".
//
// Returns:
// - The matching ImageFormat.
// - ErrUnsupportedFormat for any other extension.
func FormatFromPath(path string) (ImageFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".bmp":
		return FormatBMP, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", filepath.Ext(path))
	}
}

// imaging maps the format onto the codec library's identifier.
func (f ImageFormat) imaging() imaging.Format {
	switch f {
	case FormatJPEG:
		return imaging.JPEG
	case FormatBMP:
		return imaging.BMP
	default:
		return imaging.PNG
	}
}
