package overlay

import (
	"fmt"
	"time"

	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/render"
)

// Compose appends the command center to a frame. A no-op unless the
// overlay is visible; during the exit animation it keeps drawing with
// the shrinking progress so the close never pops.
func (c *Controller) Compose(f *render.Frame, output geom.Rect, now time.Time) {
	if !c.Visible() {
		return
	}
	p := c.OpenProgress()
	if p <= 0 {
		return
	}
	fade := p
	if fade > 1 {
		fade = 1
	}

	colors := c.cfg.Colors
	layout := ComputeLayout(output, len(c.results))

	f.Tinted(layout.Scrim, 0x000000, 0.45*fade)

	container := render.ScaleRect(layout.Container, p)
	f.Tinted(container, colors.OverlayBg, 0.96*fade)

	// Search field with the breathing accent ring.
	glow := c.GlowValue()
	ring := geom.Inset(layout.Search, -2)
	f.Tinted(ring, colors.Glow, glow*fade)
	f.Tinted(layout.Search, colors.SearchBackground, fade)

	query := string(c.query)
	if query == "" {
		f.Label(textPos(layout.Search), "Search apps and windows", colors.TextSecondary, 0.7*fade, 18)
	} else {
		f.Label(textPos(layout.Search), query, colors.TextPrimary, fade, 18)
	}

	for i, tile := range layout.Tiles {
		tp := c.TileProgress(i)
		// Tiles slide up a few pixels as they fade in.
		r := tile
		r.Y += int((1 - tp) * 12)
		alpha := tp * fade

		if i == c.sel {
			f.Tinted(geom.Inset(r, -2), colors.OverlaySelected, 0.8*alpha)
		}
		f.Tinted(r, colors.OverlayCard, alpha)

		res := c.results[i]
		f.Label(textPos(r), res.Label, colors.TextPrimary, alpha, 16)
		f.Label(geom.Point{X: r.X + r.Width - 90, Y: textPos(r).Y}, kindTag(res.Kind), colors.TextSecondary, 0.8*alpha, 12)
	}

	w := ReadWidgets(now)
	bar := layout.SystemBar
	f.Tinted(bar, colors.OverlayCard, 0.9*fade)
	f.Label(textPos(bar), w.Clock, colors.TextPrimary, fade, 14)
	if w.Battery.Present {
		label := fmt.Sprintf("%d%%", w.Battery.Percent)
		if w.Battery.Charging {
			label += "+"
		}
		f.Label(geom.Point{X: bar.X + bar.Width - 60, Y: textPos(bar).Y}, label, colors.TextSecondary, fade, 14)
	}
}

func kindTag(k Kind) string {
	if k == KindWindow {
		return "window"
	}
	return "app"
}

// textPos vertically centers a 1em run inside r, with the usual left pad.
func textPos(r geom.Rect) geom.Point {
	return geom.Point{X: r.X + 12, Y: r.Y + r.Height/2 - 8}
}
