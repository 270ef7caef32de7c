package main

import (
	"bytes"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-convolution/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImgdiff(t *testing.T) {
	dir := t.TempDir()

	a := images.NewBuffer(4, 4)
	a.Fill(color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	b := a.Clone()
	b.Set(1, 2, color.NRGBA{R: 13, G: 10, B: 6, A: 255})
	small := images.NewBuffer(2, 2)

	pathA := filepath.Join(dir, "a.png")
	pathB := filepath.Join(dir, "b.png")
	pathSmall := filepath.Join(dir, "small.png")
	require.NoError(t, images.Encode(pathA, a))
	require.NoError(t, images.Encode(pathB, b))
	require.NoError(t, images.Encode(pathSmall, small))

	testCases := []struct {
		name     string
		args     []string
		code     int
		expected string
	}{
		{name: "identical", args: []string{pathA, pathA}, code: 0, expected: "0\n"},
		{name: "different", args: []string{pathA, pathB}, code: 0, expected: "25\n"},
		{name: "size mismatch", args: []string{pathA, pathSmall}, code: 5},
		{name: "missing", args: []string{pathA, filepath.Join(dir, "nope.png")}, code: 3},
		{name: "usage", args: []string{pathA}, code: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tc.code, run(tc.args, &stdout, &stderr), stderr.String())
			assert.Equal(t, tc.expected, stdout.String())
		})
	}
}
