// Package geom holds the integer geometry primitives the compositor
// computes with. Everything is pixel-valued; fractional results round
// down so repeated operations are stable.
package geom

// Point is a position in output space.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Direction is one of the four movement directions.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "unknown"
	}
}

// Delta returns the positional offset of one step in d.
func (d Direction) Delta(step int) Point {
	switch d {
	case DirUp:
		return Point{Y: -step}
	case DirDown:
		return Point{Y: step}
	case DirLeft:
		return Point{X: -step}
	case DirRight:
		return Point{X: step}
	default:
		return Point{}
	}
}

// SizeDelta returns the width and height change of one resize step in d:
// horizontal directions adjust width, vertical ones height, with left
// and up shrinking.
func (d Direction) SizeDelta(step int) (dw, dh int) {
	switch d {
	case DirUp:
		return 0, -step
	case DirDown:
		return 0, step
	case DirLeft:
		return -step, 0
	case DirRight:
		return step, 0
	default:
		return 0, 0
	}
}

// Half names a snap target region of the usable area.
type Half int

const (
	HalfLeft Half = iota
	HalfRight
	HalfTop
	HalfBottom
	Maximize
	Center
)

func (h Half) String() string {
	switch h {
	case HalfLeft:
		return "left"
	case HalfRight:
		return "right"
	case HalfTop:
		return "top"
	case HalfBottom:
		return "bottom"
	case Maximize:
		return "maximize"
	case Center:
		return "center"
	default:
		return "unknown"
	}
}

// HalfFromName parses a snap target name.
func HalfFromName(name string) (Half, bool) {
	switch name {
	case "left":
		return HalfLeft, true
	case "right":
		return HalfRight, true
	case "top":
		return HalfTop, true
	case "bottom":
		return HalfBottom, true
	case "maximize":
		return Maximize, true
	case "center":
		return Center, true
	default:
		return 0, false
	}
}

// Snap returns the geometry for snapping a window of the given current
// geometry to a half of the usable area. Halves split with floor
// division; the right and bottom halves absorb the odd pixel. Center
// keeps the window's size, clamped to the usable area. The result is a
// function of the usable area (and, for Center, the current size) only,
// so snapping is idempotent.
func Snap(h Half, usable, current Rect) Rect {
	switch h {
	case HalfLeft:
		w := usable.Width / 2
		return Rect{X: usable.X, Y: usable.Y, Width: w, Height: usable.Height}
	case HalfRight:
		w := usable.Width / 2
		return Rect{X: usable.X + w, Y: usable.Y, Width: usable.Width - w, Height: usable.Height}
	case HalfTop:
		hh := usable.Height / 2
		return Rect{X: usable.X, Y: usable.Y, Width: usable.Width, Height: hh}
	case HalfBottom:
		hh := usable.Height / 2
		return Rect{X: usable.X, Y: usable.Y + hh, Width: usable.Width, Height: usable.Height - hh}
	case Maximize:
		return usable
	case Center:
		w, hgt := current.Width, current.Height
		if w > usable.Width {
			w = usable.Width
		}
		if hgt > usable.Height {
			hgt = usable.Height
		}
		return Rect{
			X:      usable.X + (usable.Width-w)/2,
			Y:      usable.Y + (usable.Height-hgt)/2,
			Width:  w,
			Height: hgt,
		}
	default:
		return current
	}
}

// Inset shrinks r by margin on every side. A negative margin grows the
// rect. Shrinking never collapses below 1x1.
func Inset(r Rect, margin int) Rect {
	out := Rect{
		X:      r.X + margin,
		Y:      r.Y + margin,
		Width:  r.Width - 2*margin,
		Height: r.Height - 2*margin,
	}
	if margin > 0 {
		if out.Width < 1 {
			out.Width = 1
		}
		if out.Height < 1 {
			out.Height = 1
		}
	}
	return out
}
