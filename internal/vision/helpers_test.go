// File: internal/vision/helpers_test.go
package vision

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// patternGray builds a deterministic pseudo-random grayscale image. A simple
// LCG keeps the pattern stable across runs without pulling in math/rand.
func patternGray(w, h int, seed uint32) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	state := seed | 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			state = state*1664525 + 1013904223
			img.Pix[y*img.Stride+x] = uint8(state >> 24)
		}
	}
	return img
}

// flatGray builds a uniform image of the given value.
func flatGray(w, h int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

// pasteGray copies src into dst at (x, y).
func pasteGray(dst, src *image.Gray, x, y int) {
	for j := 0; j < src.Bounds().Dy(); j++ {
		for i := 0; i < src.Bounds().Dx(); i++ {
			dst.Pix[(y+j)*dst.Stride+x+i] = src.Pix[j*src.Stride+i]
		}
	}
}

// writePNG stores img as a PNG fixture and returns nothing; failures abort
// the test.
func writePNG(t *testing.T, dir, name string, img image.Image) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}
