package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSizes(t *testing.T) {
	testCases := []struct {
		in       string
		expected []int
		wantErr  bool
	}{
		{in: "3", expected: []int{3}},
		{in: "3,7,15", expected: []int{3, 7, 15}},
		{in: " 5 , 9 ", expected: []int{5, 9}},
		{in: "3,x", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			sizes, err := parseSizes(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sizes)
		})
	}
}
