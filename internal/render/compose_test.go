package render

import (
	"testing"

	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
)

func TestComposeOrdersBackToFront(t *testing.T) {
	cfg := config.Default()
	c := NewComposer(cfg)
	output := geom.Rect{Width: 1920, Height: 1080}

	windows := []WindowInfo{
		{Rect: geom.Rect{X: 10, Y: 10, Width: 400, Height: 300}, Title: "back"},
		{Rect: geom.Rect{X: 200, Y: 100, Width: 400, Height: 300}, Title: "front", Focused: true},
	}
	f := c.Compose(output, windows)

	if len(f.Quads) != 5 {
		t.Fatalf("quads = %d, want background + 2x(border+body)", len(f.Quads))
	}
	if f.Quads[0].Rect != output || f.Quads[0].Color != cfg.Colors.Background {
		t.Fatalf("first quad is not the background: %+v", f.Quads[0])
	}

	// The focused window's border and body come last.
	body := f.Quads[4]
	if body.Rect != windows[1].Rect {
		t.Fatalf("last quad = %+v, want front window body", body)
	}
	border := f.Quads[3]
	if border.Rect.X != windows[1].Rect.X-cfg.BorderWidth {
		t.Fatalf("border = %+v, want inflated by border width", border.Rect)
	}
}

func TestFocusedBorderGlowBlends(t *testing.T) {
	cfg := config.Default()
	c := NewComposer(cfg)
	output := geom.Rect{Width: 800, Height: 600}
	w := WindowInfo{Rect: geom.Rect{X: 10, Y: 10, Width: 100, Height: 100}, Focused: true}

	w.Glow = 0
	cold := c.Compose(output, []WindowInfo{w}).Quads[1].Color
	if cold != cfg.Colors.BorderFocused {
		t.Fatalf("zero glow color = %v, want plain focused border", cold)
	}

	w.Glow = 1
	hot := c.Compose(output, []WindowInfo{w}).Quads[1].Color
	if hot != cfg.Colors.Glow {
		t.Fatalf("full glow color = %v, want glow accent", hot)
	}

	w.Glow = 0.5
	mid := c.Compose(output, []WindowInfo{w}).Quads[1].Color
	if mid == cold || mid == hot {
		t.Fatalf("half glow color %v did not blend", mid)
	}
}

func TestUnfocusedBorderIgnoresGlow(t *testing.T) {
	cfg := config.Default()
	c := NewComposer(cfg)
	w := WindowInfo{Rect: geom.Rect{X: 0, Y: 0, Width: 50, Height: 50}, Glow: 1}

	f := c.Compose(geom.Rect{Width: 800, Height: 600}, []WindowInfo{w})
	if f.Quads[1].Color != cfg.Colors.BorderUnfocused {
		t.Fatalf("unfocused border = %v", f.Quads[1].Color)
	}
}

func TestTintedDropsInvisible(t *testing.T) {
	f := NewFrame(geom.Rect{Width: 100, Height: 100})
	f.Tinted(geom.Rect{Width: 10, Height: 10}, 0xffffff, 0)
	f.Tinted(geom.Rect{Width: 10, Height: 10}, 0xffffff, -1)
	if len(f.Quads) != 0 {
		t.Fatalf("invisible quads kept: %d", len(f.Quads))
	}
	f.Tinted(geom.Rect{Width: 10, Height: 10}, 0xffffff, 3)
	if f.Quads[0].Alpha != 1 {
		t.Fatalf("alpha = %v, want clamp to 1", f.Quads[0].Alpha)
	}
}

func TestLabelDropsEmpty(t *testing.T) {
	f := NewFrame(geom.Rect{Width: 100, Height: 100})
	f.Label(geom.Point{}, "", 0xffffff, 1, 14)
	f.Label(geom.Point{}, "x", 0xffffff, 0, 14)
	if len(f.Texts) != 0 {
		t.Fatalf("empty labels kept: %d", len(f.Texts))
	}
}

func TestScaleRect(t *testing.T) {
	r := geom.Rect{X: 100, Y: 100, Width: 200, Height: 100}

	if got := ScaleRect(r, 1); got != r {
		t.Fatalf("identity scale = %+v", got)
	}

	half := ScaleRect(r, 0.5)
	if half.Width != 100 || half.Height != 50 {
		t.Fatalf("half scale size = %+v", half)
	}
	if half.Center() != r.Center() {
		t.Fatalf("scale moved center: %+v vs %+v", half.Center(), r.Center())
	}

	over := ScaleRect(r, 1.1)
	if over.Width <= r.Width {
		t.Fatalf("overshoot did not grow: %+v", over)
	}
}
