// Package render builds frames as flat display lists of solid quads and
// text runs. Backends rasterize or forward them; nothing here touches a
// device, which keeps composition testable without one.
package render

import (
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
)

// Quad is one solid-color rectangle. Alpha 1 is opaque.
type Quad struct {
	Rect  geom.Rect
	Color config.Color
	Alpha float64
}

// Text is one text run anchored at its top-left corner.
type Text struct {
	Pos   geom.Point
	Str   string
	Color config.Color
	Alpha float64
	Size  int
}

// Frame is a complete display list for one output, back to front.
type Frame struct {
	Size  geom.Rect
	Quads []Quad
	Texts []Text
}

// NewFrame returns an empty frame covering the output.
func NewFrame(size geom.Rect) *Frame {
	return &Frame{Size: size}
}

// Solid appends an opaque quad.
func (f *Frame) Solid(r geom.Rect, c config.Color) {
	f.Quads = append(f.Quads, Quad{Rect: r, Color: c, Alpha: 1})
}

// Tinted appends a translucent quad. Alpha is clamped to [0,1].
func (f *Frame) Tinted(r geom.Rect, c config.Color, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	f.Quads = append(f.Quads, Quad{Rect: r, Color: c, Alpha: alpha})
}

// Label appends a text run. Empty strings and invisible alpha are
// dropped at this boundary so backends never see them.
func (f *Frame) Label(pos geom.Point, s string, c config.Color, alpha float64, size int) {
	if s == "" || alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	f.Texts = append(f.Texts, Text{Pos: pos, Str: s, Color: c, Alpha: alpha, Size: size})
}

// ScaleRect scales r by factor around its center. Factors above 1 grow
// the rect, which the overshoot easing relies on.
func ScaleRect(r geom.Rect, factor float64) geom.Rect {
	if factor < 0 {
		factor = 0
	}
	w := int(float64(r.Width) * factor)
	h := int(float64(r.Height) * factor)
	return geom.Rect{
		X:      r.X + (r.Width-w)/2,
		Y:      r.Y + (r.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
