package render

import (
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
)

// WindowInfo is the per-window input to composition, already in stacking
// order bottom to top.
type WindowInfo struct {
	Rect    geom.Rect
	Title   string
	Focused bool
	// Glow scales the focused border color toward the glow accent;
	// session feeds it from the focus pulse.
	Glow float64
}

// Composer turns scene state into display lists.
type Composer struct {
	cfg *config.Config
}

func NewComposer(cfg *config.Config) *Composer {
	return &Composer{cfg: cfg}
}

// Compose builds the base scene: background fill, then every window with
// its border, bottom to top. Overlay content is appended by the caller
// afterwards so it always sits on top.
func (c *Composer) Compose(output geom.Rect, windows []WindowInfo) *Frame {
	f := NewFrame(output)
	f.Solid(output, c.cfg.Colors.Background)

	bw := c.cfg.BorderWidth
	for _, w := range windows {
		border := geom.Rect{
			X:      w.Rect.X - bw,
			Y:      w.Rect.Y - bw,
			Width:  w.Rect.Width + 2*bw,
			Height: w.Rect.Height + 2*bw,
		}
		if w.Focused {
			f.Solid(border, mixColor(c.cfg.Colors.BorderFocused, c.cfg.Colors.Glow, w.Glow))
		} else {
			f.Solid(border, c.cfg.Colors.BorderUnfocused)
		}
		f.Solid(w.Rect, c.cfg.Colors.OverlayCard)
		f.Label(geom.Point{X: w.Rect.X + 8, Y: w.Rect.Y + 6}, w.Title, c.cfg.Colors.TextPrimary, 1, 14)
	}
	return f
}

// mixColor blends a and b per channel; t is clamped to [0,1].
func mixColor(a, b config.Color, t float64) config.Color {
	if t <= 0 {
		return a
	}
	if t > 1 {
		t = 1
	}
	mix := func(x, y uint32) uint32 {
		return uint32(float64(x) + (float64(y)-float64(x))*t)
	}
	ar, ag, ab := uint32(a)>>16&0xff, uint32(a)>>8&0xff, uint32(a)&0xff
	br, bg, bb := uint32(b)>>16&0xff, uint32(b)>>8&0xff, uint32(b)&0xff
	return config.Color(mix(ar, br)<<16 | mix(ag, bg)<<8 | mix(ab, bb))
}
