package overlay

import "github.com/lumenwm/lumen/internal/geom"

// maxVisibleTiles caps how many results are shown (and animated) at once.
const maxVisibleTiles = 8

const (
	containerMinWidth = 520
	containerMaxWidth = 880
	containerPad      = 16
	searchHeight      = 64
	tileHeight        = 56
	tileGap           = 8
	systemBarHeight   = 36
)

// Layout is the resolved geometry of every command-center element for
// one output size. All rects are in output space.
type Layout struct {
	Scrim     geom.Rect
	Container geom.Rect
	Search    geom.Rect
	Tiles     []geom.Rect
	SystemBar geom.Rect
}

// ComputeLayout positions the overlay for n visible results. The
// container is centered horizontally at half the output width, clamped
// to a readable range, and grows downward from a fixed anchor so typing
// never shifts the search field.
func ComputeLayout(output geom.Rect, n int) Layout {
	if n > maxVisibleTiles {
		n = maxVisibleTiles
	}
	if n < 0 {
		n = 0
	}

	width := output.Width / 2
	if width < containerMinWidth {
		width = containerMinWidth
	}
	if width > containerMaxWidth {
		width = containerMaxWidth
	}
	if width > output.Width {
		width = output.Width
	}

	listHeight := 0
	if n > 0 {
		listHeight = n*tileHeight + (n-1)*tileGap + containerPad
	}
	height := containerPad + searchHeight + containerPad + listHeight + systemBarHeight + containerPad

	x := output.X + (output.Width-width)/2
	y := output.Y + output.Height/8

	l := Layout{
		Scrim:     output,
		Container: geom.Rect{X: x, Y: y, Width: width, Height: height},
	}
	l.Search = geom.Rect{
		X:      x + containerPad,
		Y:      y + containerPad,
		Width:  width - 2*containerPad,
		Height: searchHeight,
	}

	tileY := l.Search.Y + searchHeight + containerPad
	for i := 0; i < n; i++ {
		l.Tiles = append(l.Tiles, geom.Rect{
			X:      x + containerPad,
			Y:      tileY,
			Width:  width - 2*containerPad,
			Height: tileHeight,
		})
		tileY += tileHeight + tileGap
	}

	l.SystemBar = geom.Rect{
		X:      x + containerPad,
		Y:      y + height - containerPad - systemBarHeight,
		Width:  width - 2*containerPad,
		Height: systemBarHeight,
	}
	return l
}
