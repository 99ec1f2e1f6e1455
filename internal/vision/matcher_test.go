// File: internal/vision/matcher_test.go
package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/screenpilot/api/schemas"
)

func TestMatchInRegionFindsEmbeddedTemplate(t *testing.T) {
	scene := patternGray(320, 240, 7)
	tplImg := patternGray(40, 30, 99)
	pasteGray(scene, tplImg, 120, 80)

	tpl := &Template{Name: "target", Corner: schemas.CornerNone, Gray: tplImg}
	region := schemas.Rect{Width: 320, Height: 240}

	match := MatchInRegion(scene, tpl, region, 0.8)
	require.True(t, match.Found)
	assert.InDelta(t, 1.0, match.Confidence, 0.01, "an exact embed correlates near perfectly")
	// The reported location is the match center in both frames.
	assert.Equal(t, 120+20, match.Global.X)
	assert.Equal(t, 80+15, match.Global.Y)
	assert.Equal(t, match.Global, schemas.Point{X: match.Local.X + match.Region.X, Y: match.Local.Y + match.Region.Y})
}

func TestMatchInRegionRespectsRegionBounds(t *testing.T) {
	scene := patternGray(320, 240, 7)
	tplImg := patternGray(40, 30, 99)
	// Embed in the top-left quadrant only.
	pasteGray(scene, tplImg, 10, 10)
	tpl := &Template{Name: "target", Corner: schemas.CornerBottomRight, Gray: tplImg}

	// Searching the bottom-right region must not see the embed.
	region := schemas.Rect{X: 220, Y: 140, Width: 100, Height: 100}
	match := MatchInRegion(scene, tpl, region, 0.8)
	assert.False(t, match.Found)
	assert.Less(t, match.Confidence, 0.8)

	// Searching the correct region finds it.
	match = MatchInRegion(scene, tpl, schemas.Rect{Width: 100, Height: 100}, 0.8)
	assert.True(t, match.Found)
}

func TestMatchInRegionThresholdDecidesFound(t *testing.T) {
	scene := patternGray(200, 200, 7)
	// A template that is not in the scene at all.
	tplImg := patternGray(40, 40, 1234)
	tpl := &Template{Name: "absent", Corner: schemas.CornerNone, Gray: tplImg}
	region := schemas.Rect{Width: 200, Height: 200}

	strict := MatchInRegion(scene, tpl, region, 0.9)
	assert.False(t, strict.Found, "uncorrelated noise must not reach 0.9")

	lax := MatchInRegion(scene, tpl, region, 0.0)
	assert.True(t, lax.Found, "threshold zero accepts any best match")
	assert.Equal(t, strict.Confidence, lax.Confidence, "threshold must not change the reported confidence")
}

func TestMatchInRegionFlatTemplate(t *testing.T) {
	scene := patternGray(100, 100, 7)
	tpl := &Template{Name: "flat", Corner: schemas.CornerNone, Gray: flatGray(20, 20, 128)}

	match := MatchInRegion(scene, tpl, schemas.Rect{Width: 100, Height: 100}, 0.1)
	assert.False(t, match.Found, "a flat template has no defined correlation")
	assert.Zero(t, match.Confidence)
}

func TestMatchInRegionTemplateLargerThanRegion(t *testing.T) {
	scene := patternGray(100, 100, 7)
	tpl := &Template{Name: "big", Corner: schemas.CornerNone, Gray: patternGray(50, 50, 3)}

	match := MatchInRegion(scene, tpl, schemas.Rect{X: 80, Y: 80, Width: 20, Height: 20}, 0.1)
	assert.False(t, match.Found)
	assert.Zero(t, match.Confidence)
}

func TestMatchInRegionClampsOutOfBoundsRegion(t *testing.T) {
	scene := patternGray(120, 120, 7)
	tplImg := patternGray(30, 30, 99)
	pasteGray(scene, tplImg, 0, 0)
	tpl := &Template{Name: "corner", Corner: schemas.CornerTopLeft, Gray: tplImg}

	// Region larger than the screen and anchored at negative coordinates.
	region := schemas.Rect{X: -40, Y: -40, Width: 400, Height: 400}
	match := MatchInRegion(scene, tpl, region, 0.8)
	require.True(t, match.Found)
	assert.Equal(t, schemas.Rect{X: 0, Y: 0, Width: 120, Height: 120}, match.Region)
	assert.Equal(t, 15, match.Global.X)
	assert.Equal(t, 15, match.Global.Y)
}

func TestMatchInRegionConfidenceClamped(t *testing.T) {
	scene := patternGray(100, 100, 7)
	tplImg := patternGray(20, 20, 99)
	pasteGray(scene, tplImg, 40, 40)
	tpl := &Template{Name: "t", Corner: schemas.CornerNone, Gray: tplImg}

	match := MatchInRegion(scene, tpl, schemas.Rect{Width: 100, Height: 100}, 0.5)
	assert.GreaterOrEqual(t, match.Confidence, 0.0)
	assert.LessOrEqual(t, match.Confidence, 1.0)
}
