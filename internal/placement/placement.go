package placement

import "math"

// Fallbacks used while the popover has not been laid out yet.
const (
	FallbackWidth  = 480
	FallbackHeight = 400

	// Margin is the vertical breathing room required besides the popover.
	Margin = 20
	// EdgeGap is the minimum distance kept from the viewport's side edges.
	EdgeGap = 10
)

// Vertical says on which side of the anchor the popover opens.
type Vertical string

const (
	Bottom Vertical = "bottom"
	Top    Vertical = "top"
)

// Rect is a bounding box in viewport pixels.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Bottom() float64 { return r.Top + r.Height }
func (r Rect) Right() float64  { return r.Left + r.Width }

// Viewport is the visible window size.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry is everything Place needs to know about the page.
type Geometry struct {
	Anchor   Rect     `json:"anchor"`
	Popover  Rect     `json:"popover"`
	Viewport Viewport `json:"viewport"`
}

// Placement is the computed position of the popover relative to the anchor.
type Placement struct {
	Vertical Vertical `json:"vertical"`
	// LeftOffset shifts the popover horizontally; negative moves it left.
	LeftOffset float64 `json:"left_offset"`
}

// Default is the placement used before any geometry is known.
func Default() Placement {
	return Placement{Vertical: Bottom}
}

// Place opens the popover above the anchor only when it does not fit below
// and there is more room above, then nudges it horizontally to stay within
// EdgeGap of the viewport's edges.
func Place(g Geometry) Placement {
	width := g.Popover.Width
	if width <= 0 {
		width = FallbackWidth
	}
	height := g.Popover.Height
	if height <= 0 {
		height = FallbackHeight
	}

	spaceBelow := g.Viewport.Height - g.Anchor.Bottom()
	spaceAbove := g.Anchor.Top
	required := height + Margin

	p := Placement{Vertical: Bottom}
	if spaceBelow < required && spaceAbove > spaceBelow {
		p.Vertical = Top
	}

	left := g.Anchor.Left
	limit := g.Viewport.Width - EdgeGap
	switch {
	case left+width > limit:
		overflow := left + width - limit
		p.LeftOffset = math.Max(-left+EdgeGap, -overflow)
	case left < EdgeGap:
		p.LeftOffset = EdgeGap - left
	}
	return p
}
