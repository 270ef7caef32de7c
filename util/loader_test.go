package util

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDirectoryImageFiles(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"frame-2.png", "frame-1.png", "frame-3.bmp"} {
		require.NoError(t, images.Encode(filepath.Join(dir, name), images.NewBuffer(i+1, 2)))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	files, err := LoadDirectoryImageFiles(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "frame-1", files[0].Name)
	assert.Equal(t, 2, files[0].Image.Width)
	assert.Equal(t, "frame-2", files[1].Name)
	assert.Equal(t, 1, files[1].Image.Width)
	assert.Equal(t, "frame-3", files[2].Name)
}

func TestLoadImageFilesSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.png")
	require.NoError(t, images.Encode(path, images.NewBuffer(5, 4)))

	files, err := LoadImageFiles(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 4, files[0].Image.Height)
}

func TestLoadImageFilesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadImageFiles(context.Background(), filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(err))

	_, err = LoadDirectoryImageFiles(context.Background(), dir)
	assert.True(t, errors.Is(err, ErrNoImages))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0o644))
	_, err = LoadDirectoryImageFiles(context.Background(), dir)
	assert.True(t, errors.Is(err, images.ErrImageDecode))
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, IsImageFile("a/b.PNG"))
	assert.True(t, IsImageFile("x.jpeg"))
	assert.False(t, IsImageFile("x.gif"))
	assert.False(t, IsImageFile("png"))
}
