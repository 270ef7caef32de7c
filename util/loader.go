// Package util - Loads image corpora used as benchmark inputs.
package util

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ImageFile is a decoded image from disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the base name without extension.
	Name string
	// Image is the decoded pixels.
	Image *images.Buffer
}

// ErrNoImages is returned when a corpus holds no supported image file.
var ErrNoImages = errors.New("no images found")

// IsImageFile reports whether the extension of path is one the codec reads.
func IsImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	default:
		return false
	}
}

// LoadImageFiles decodes a single image file, or every image file directly
// inside a directory, sorted by path.
//
// Arguments:
// - ctx: Stops decoding files that have not started yet.
// - path: An image file or a directory.
//
// Returns:
// - []ImageFile: The decoded images.
// - error: The first decode error, ErrNoImages, or the stat error.
func LoadImageFiles(ctx context.Context, path string) ([]ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return loadAll(ctx, []string{path})
	}
	return LoadDirectoryImageFiles(ctx, path)
}

// LoadDirectoryImageFiles decodes all image files directly inside dir,
// several at a time.
//
// Arguments:
// - ctx: Stops decoding files that have not started yet.
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The decoded images, sorted by path.
// - error: Error if listing or any decode fails, ErrNoImages if dir has none.
func LoadDirectoryImageFiles(ctx context.Context, dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFile(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	if len(paths) == 0 {
		return nil, errors.Wrapf(ErrNoImages, "in %s", dir)
	}
	sort.Strings(paths)

	return loadAll(ctx, paths)
}

func loadAll(ctx context.Context, paths []string) ([]ImageFile, error) {
	files := make([]ImageFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := images.Decode(path)
			if err != nil {
				return err
			}
			files[i] = ImageFile{
				Path:  path,
				Name:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
				Image: img,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}
