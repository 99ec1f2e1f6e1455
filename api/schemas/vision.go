// File: api/schemas/vision.go
// Description: Types for the corner based visual state detection pipeline.
package schemas

// Corner tags the screen corner a template is anchored to. CornerNone marks
// the legacy full-screen "open" template that is not bound to any corner.
type Corner string

const (
	CornerTopLeft     Corner = "top_left"
	CornerTopRight    Corner = "top_right"
	CornerBottomLeft  Corner = "bottom_left"
	CornerBottomRight Corner = "bottom_right"
	CornerNone        Corner = "none"
)

// DetectionTarget selects which logical window state a detection call is
// answering for.
type DetectionTarget string

const (
	TargetOpen      DetectionTarget = "open"
	TargetMaximized DetectionTarget = "maximized"
)

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MatchResult is the outcome of matching one template against one region of
// a live screenshot. Results are computed fresh per detection call and never
// cached; the screen may have changed between calls.
type MatchResult struct {
	Corner     Corner  `json:"corner"`
	Found      bool    `json:"found"`
	Confidence float64 `json:"confidence"`
	// Local is the best match location relative to the searched region,
	// Global the same location in screen coordinates (region offset applied),
	// so callers never re-derive region geometry.
	Local  Point `json:"local"`
	Global Point `json:"global"`
	Region Rect  `json:"region"`
}

// DetectionResult bundles the verdict with the per-corner evidence that
// produced it.
type DetectionResult struct {
	Target   DetectionTarget `json:"target"`
	Verdict  bool            `json:"verdict"`
	Degraded bool            `json:"degraded,omitempty"`
	Matches  []MatchResult   `json:"matches"`
}

// MissingCorners lists the corners whose template was not found. Useful in
// reports: a single missing corner is decisive for "not maximized".
func (d DetectionResult) MissingCorners() []Corner {
	var missing []Corner
	for _, m := range d.Matches {
		if !m.Found {
			missing = append(missing, m.Corner)
		}
	}
	return missing
}
