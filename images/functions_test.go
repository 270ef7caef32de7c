package images

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3, 0, 255))
	assert.Equal(t, 255.0, Clamp(300, 0, 255))
	assert.Equal(t, 12.5, Clamp(12.5, 0, 255))
}

func TestParallelCoversEveryItemOnce(t *testing.T) {
	for _, size := range []int{0, 1, 7, 100, 1031} {
		for _, workers := range []int{-1, 0, 1, 3, 16} {
			seen := make([]int, size)
			var mu sync.Mutex
			Parallel(size, workers, func(start, end int) {
				mu.Lock()
				defer mu.Unlock()
				for i := start; i < end; i++ {
					seen[i]++
				}
			})
			for i, n := range seen {
				assert.Equal(t, 1, n, "size=%d workers=%d item=%d", size, workers, i)
			}
		}
	}
}

func TestMapCoord(t *testing.T) {
	testCases := []struct {
		name     string
		coord    int
		max      int
		mode     EdgeMode
		expected int
	}{
		{name: "mirror inside", coord: 3, max: 5, mode: MirrorEdgeMode, expected: 3},
		{name: "mirror -1", coord: -1, max: 5, mode: MirrorEdgeMode, expected: 0},
		{name: "mirror -2", coord: -2, max: 5, mode: MirrorEdgeMode, expected: 1},
		{name: "mirror max", coord: 5, max: 5, mode: MirrorEdgeMode, expected: 4},
		{name: "mirror max+1", coord: 6, max: 5, mode: MirrorEdgeMode, expected: 3},
		{name: "mirror bounces", coord: -5, max: 2, mode: MirrorEdgeMode, expected: 0},
		{name: "mirror single", coord: -3, max: 1, mode: MirrorEdgeMode, expected: 0},
		{name: "clamp low", coord: -4, max: 5, mode: ClampEdgeMode, expected: 0},
		{name: "clamp high", coord: 9, max: 5, mode: ClampEdgeMode, expected: 4},
		{name: "wrap low", coord: -1, max: 5, mode: WrapEdgeMode, expected: 4},
		{name: "wrap high", coord: 7, max: 5, mode: WrapEdgeMode, expected: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, MapCoord(tc.coord, tc.max, tc.mode))
		})
	}
}
