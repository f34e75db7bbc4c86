package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceVertical(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
		want Vertical
	}{
		{
			name: "plenty of room below",
			g: Geometry{
				Anchor:   Rect{Top: 100, Left: 50, Width: 200, Height: 30},
				Popover:  Rect{Width: 400, Height: 300},
				Viewport: Viewport{Width: 1200, Height: 900},
			},
			want: Bottom,
		},
		{
			name: "tight below, roomy above",
			g: Geometry{
				Anchor:   Rect{Top: 700, Left: 50, Width: 200, Height: 30},
				Popover:  Rect{Width: 400, Height: 300},
				Viewport: Viewport{Width: 1200, Height: 900},
			},
			want: Top,
		},
		{
			name: "tight both ways but below is larger",
			g: Geometry{
				Anchor:   Rect{Top: 100, Left: 50, Width: 200, Height: 30},
				Popover:  Rect{Width: 400, Height: 300},
				Viewport: Viewport{Width: 1200, Height: 300},
			},
			want: Bottom,
		},
		{
			name: "exactly enough below",
			g: Geometry{
				Anchor:   Rect{Top: 480, Left: 50, Width: 200, Height: 100},
				Popover:  Rect{Width: 400, Height: 300},
				Viewport: Viewport{Width: 1200, Height: 900},
			},
			want: Bottom, // spaceBelow 320 == required 320
		},
		{
			name: "unmeasured popover uses fallback height",
			g: Geometry{
				Anchor:   Rect{Top: 500, Left: 50, Width: 200, Height: 30},
				Viewport: Viewport{Width: 1200, Height: 900},
			},
			want: Top, // below 370 < 420, above 500
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Place(tt.g).Vertical)
		})
	}
}

func TestPlaceHorizontal(t *testing.T) {
	vp := Viewport{Width: 1000, Height: 900}

	// Fits: no shift.
	p := Place(Geometry{Anchor: Rect{Left: 100, Height: 30}, Popover: Rect{Width: 400, Height: 300}, Viewport: vp})
	assert.Equal(t, 0.0, p.LeftOffset)

	// Overflows right by 100: shift left by 100.
	p = Place(Geometry{Anchor: Rect{Left: 690, Height: 30}, Popover: Rect{Width: 400, Height: 300}, Viewport: vp})
	assert.Equal(t, -100.0, p.LeftOffset)

	// Popover wider than the viewport: shift is capped so the left edge stays at 10px.
	p = Place(Geometry{Anchor: Rect{Left: 200, Height: 30}, Popover: Rect{Width: 1200, Height: 300}, Viewport: vp})
	assert.Equal(t, -190.0, p.LeftOffset)

	// Too close to the left edge.
	p = Place(Geometry{Anchor: Rect{Left: 4, Height: 30}, Popover: Rect{Width: 400, Height: 300}, Viewport: vp})
	assert.Equal(t, 6.0, p.LeftOffset)
}

func TestDefault(t *testing.T) {
	assert.Equal(t, Placement{Vertical: Bottom}, Default())
}
