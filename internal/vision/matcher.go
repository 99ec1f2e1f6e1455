// File: internal/vision/matcher.go
// Description: Region constrained template matching. Pure functions over
// pixel data; no capture, no caching, no side effects.
package vision

import (
	"image"
	"math"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

// MatchInRegion searches for tpl inside the given region of shot and returns
// the best match. Confidence is zero-mean normalized cross-correlation
// clamped to [0,1]; the location is reported both relative to the region and
// in screen-global coordinates.
//
// The threshold decides Found; the raw confidence is always reported so
// callers can expose near-misses in diagnostics.
func MatchInRegion(shot *image.Gray, tpl *Template, region schemas.Rect, threshold float64) schemas.MatchResult {
	result := schemas.MatchResult{Corner: tpl.Corner, Region: region}

	crop := clampRect(region, shot.Bounds().Dx(), shot.Bounds().Dy())
	tw, th := tpl.Width(), tpl.Height()
	if tw == 0 || th == 0 || crop.Width < tw || crop.Height < th {
		// Template cannot fit in the region. A negative, not an error.
		return result
	}

	// Zero-mean template. With sum(tz) == 0 the correlation numerator
	// reduces to sum(I*tz), so the window mean never enters it.
	tz, tplEnergy := zeroMean(tpl.Gray)
	if tplEnergy < 1e-9 {
		// A flat template correlates with everything and nothing; treat as
		// not found, matching the behavior of a failed division.
		return result
	}

	sums, sqSums := integralImages(shot, crop)

	n := float64(tw * th)
	best := math.Inf(-1)
	bestX, bestY := 0, 0

	for oy := 0; oy <= crop.Height-th; oy++ {
		for ox := 0; ox <= crop.Width-tw; ox++ {
			winSum := windowSum(sums, crop.Width, ox, oy, tw, th)
			winSq := windowSum(sqSums, crop.Width, ox, oy, tw, th)
			winEnergy := winSq - winSum*winSum/n
			if winEnergy < 1e-9 {
				continue // flat window, undefined correlation
			}

			var num float64
			for j := 0; j < th; j++ {
				srow := shot.Pix[(crop.Y+oy+j)*shot.Stride+crop.X+ox:]
				trow := tz[j*tw : (j+1)*tw]
				for i := 0; i < tw; i++ {
					num += float64(srow[i]) * trow[i]
				}
			}

			score := num / math.Sqrt(tplEnergy*winEnergy)
			if score > best {
				best = score
				bestX, bestY = ox, oy
			}
		}
	}

	if math.IsInf(best, -1) {
		return result
	}

	result.Confidence = math.Max(0, math.Min(1, best))
	result.Found = result.Confidence >= threshold
	// Report the match center, like a click target, in both frames.
	result.Local = schemas.Point{X: bestX + tw/2, Y: bestY + th/2}
	result.Global = schemas.Point{X: crop.X + result.Local.X, Y: crop.Y + result.Local.Y}
	result.Region = crop
	return result
}

// clampRect restricts region to the screen dimensions.
func clampRect(r schemas.Rect, w, h int) schemas.Rect {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > w {
		r.Width = w - r.X
	}
	if r.Y+r.Height > h {
		r.Height = h - r.Y
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// zeroMean returns the template pixels with their mean subtracted, plus the
// residual energy sum(tz^2).
func zeroMean(g *image.Gray) ([]float64, float64) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)

	var sum float64
	for y := 0; y < h; y++ {
		row := g.Pix[(b.Min.Y+y)*g.Stride+b.Min.X:]
		for x := 0; x < w; x++ {
			v := float64(row[x])
			out[y*w+x] = v
			sum += v
		}
	}

	mean := sum / float64(w*h)
	var energy float64
	for i := range out {
		out[i] -= mean
		energy += out[i] * out[i]
	}
	return out, energy
}

// integralImages builds (width+1)x(height+1) summed-area tables of the crop
// for pixel values and their squares, enabling O(1) window statistics.
func integralImages(shot *image.Gray, crop schemas.Rect) ([]float64, []float64) {
	w, h := crop.Width, crop.Height
	stride := w + 1
	sums := make([]float64, stride*(h+1))
	sqSums := make([]float64, stride*(h+1))

	for y := 0; y < h; y++ {
		row := shot.Pix[(crop.Y+y)*shot.Stride+crop.X:]
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			v := float64(row[x])
			rowSum += v
			rowSq += v * v
			idx := (y+1)*stride + x + 1
			sums[idx] = sums[idx-stride] + rowSum
			sqSums[idx] = sqSums[idx-stride] + rowSq
		}
	}
	return sums, sqSums
}

// windowSum reads one rectangle out of a summed-area table.
func windowSum(table []float64, cropWidth, x, y, w, h int) float64 {
	stride := cropWidth + 1
	return table[(y+h)*stride+x+w] - table[y*stride+x+w] - table[(y+h)*stride+x] + table[y*stride+x]
}
