// Package tooltip decides where a term's definition panel is painted relative
// to its trigger and tracks whether the panel is shown.
package tooltip

// Side is where the panel is painted relative to its trigger.
type Side string

const (
	SideAbove Side = "above"
	SideBelow Side = "below"
)

// DefaultThreshold is the pixel budget for a panel above its trigger: the
// panel's expected height plus margin.
const DefaultThreshold = 150

// Rect is a trigger's bounding box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is the viewport size.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Arrow describes the pointer drawn on the panel edge facing the trigger.
type Arrow struct {
	// Edge is the panel edge carrying the arrow: "bottom" for a panel above
	// the trigger, "top" for a panel below it.
	Edge string `json:"edge"`
	// Points is the direction the arrow points, toward the trigger.
	Points string `json:"points"`
	// Left is the x coordinate of the arrow tip, centred on the trigger and
	// clamped into the viewport.
	Left float64 `json:"left"`
}

// Decision is the outcome of Placement.
type Decision struct {
	Side  Side  `json:"side"`
	Arrow Arrow `json:"arrow"`
	// Positionable is false when no measurement of the trigger exists yet.
	// Renderers must not paint the panel in that case.
	Positionable bool `json:"positionable"`
}

// Placement puts the panel below the trigger when there is less than
// threshold room above it, and above otherwise. A nil trigger means the
// element has not been measured; the result defaults to above and is not
// positionable.
func Placement(trigger *Rect, viewport Size, threshold float64) Decision {
	if trigger == nil {
		return Decision{Side: SideAbove, Arrow: arrowFor(SideAbove, 0)}
	}

	side := SideAbove
	if trigger.Top < threshold {
		side = SideBelow
	}

	x := trigger.Left + trigger.Width/2
	if viewport.Width > 0 {
		x = clamp(x, 0, viewport.Width)
	} else if x < 0 {
		x = 0
	}
	return Decision{Side: side, Arrow: arrowFor(side, x), Positionable: true}
}

func arrowFor(side Side, x float64) Arrow {
	if side == SideBelow {
		return Arrow{Edge: "top", Points: "up", Left: x}
	}
	return Arrow{Edge: "bottom", Points: "down", Left: x}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
