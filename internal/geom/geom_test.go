package geom

import "testing"

func TestSnapHalvesIdempotent(t *testing.T) {
	usable := Rect{Width: 1920, Height: 1080}
	start := Rect{X: 300, Y: 200, Width: 640, Height: 480}

	for _, h := range []Half{HalfLeft, HalfRight, HalfTop, HalfBottom, Maximize} {
		first := Snap(h, usable, start)
		second := Snap(h, usable, first)
		if first != second {
			t.Fatalf("%v: %+v then %+v, want idempotent", h, first, second)
		}
	}
}

func TestSnapOddWidthFloorSplit(t *testing.T) {
	usable := Rect{Width: 1921, Height: 1080}
	cur := Rect{Width: 640, Height: 480}

	left := Snap(HalfLeft, usable, cur)
	right := Snap(HalfRight, usable, cur)
	if left.Width != 960 {
		t.Fatalf("left width = %d, want 960", left.Width)
	}
	if right.X != 960 || right.Width != 961 {
		t.Fatalf("right = %+v, want x=960 w=961", right)
	}
	if left.Width+right.Width != usable.Width {
		t.Fatalf("halves cover %d, want %d", left.Width+right.Width, usable.Width)
	}
}

func TestSnapTopBottom(t *testing.T) {
	usable := Rect{X: 10, Y: 20, Width: 800, Height: 601}
	cur := Rect{Width: 100, Height: 100}

	top := Snap(HalfTop, usable, cur)
	bottom := Snap(HalfBottom, usable, cur)
	if top.Y != 20 || top.Height != 300 {
		t.Fatalf("top = %+v", top)
	}
	if bottom.Y != 320 || bottom.Height != 301 {
		t.Fatalf("bottom = %+v", bottom)
	}
}

func TestSnapCenterKeepsSize(t *testing.T) {
	usable := Rect{Width: 1920, Height: 1080}
	cur := Rect{X: -50, Y: 900, Width: 640, Height: 480}

	got := Snap(Center, usable, cur)
	if got.Width != 640 || got.Height != 480 {
		t.Fatalf("center resized: %+v", got)
	}
	if got.X != 640 || got.Y != 300 {
		t.Fatalf("center position = %+v", got)
	}
}

func TestSnapCenterClampsOversized(t *testing.T) {
	usable := Rect{Width: 800, Height: 600}
	cur := Rect{Width: 2000, Height: 100}

	got := Snap(Center, usable, cur)
	if got.Width != 800 || got.X != 0 {
		t.Fatalf("oversized center = %+v", got)
	}
}

func TestDirectionDeltas(t *testing.T) {
	if d := DirUp.Delta(50); d != (Point{Y: -50}) {
		t.Fatalf("up delta = %+v", d)
	}
	if d := DirRight.Delta(50); d != (Point{X: 50}) {
		t.Fatalf("right delta = %+v", d)
	}
	if dw, dh := DirLeft.SizeDelta(30); dw != -30 || dh != 0 {
		t.Fatalf("left size delta = %d,%d", dw, dh)
	}
	if dw, dh := DirDown.SizeDelta(30); dw != 0 || dh != 30 {
		t.Fatalf("down size delta = %d,%d", dw, dh)
	}
}

func TestHalfFromName(t *testing.T) {
	for _, name := range []string{"left", "right", "top", "bottom", "maximize", "center"} {
		h, ok := HalfFromName(name)
		if !ok || h.String() != name {
			t.Fatalf("round trip %q -> %v %v", name, h, ok)
		}
	}
	if _, ok := HalfFromName("diagonal"); ok {
		t.Fatalf("bogus name accepted")
	}
}

func TestInset(t *testing.T) {
	r := Inset(Rect{Width: 100, Height: 100}, 10)
	if r != (Rect{X: 10, Y: 10, Width: 80, Height: 80}) {
		t.Fatalf("inset = %+v", r)
	}

	tiny := Inset(Rect{Width: 10, Height: 10}, 20)
	if tiny.Width != 1 || tiny.Height != 1 {
		t.Fatalf("over-inset = %+v, want clamp to 1x1", tiny)
	}

	grown := Inset(Rect{X: 5, Y: 5, Width: 10, Height: 10}, -2)
	if grown != (Rect{X: 3, Y: 3, Width: 14, Height: 14}) {
		t.Fatalf("grown = %+v", grown)
	}
}

func TestRectContainsAndCenter(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}
	if !r.Contains(Point{X: 10, Y: 10}) || r.Contains(Point{X: 30, Y: 30}) {
		t.Fatalf("contains wrong at edges")
	}
	if c := r.Center(); c != (Point{X: 20, Y: 20}) {
		t.Fatalf("center = %+v", c)
	}
	if (Rect{Width: 0, Height: 5}).Empty() != true {
		t.Fatalf("empty wrong")
	}
}
