package registry

import (
	"errors"
	"testing"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/geom"
)

type fakeCloser struct {
	closed []backend.Surface
	err    error
}

func (f *fakeCloser) CloseSurface(s backend.Surface) error {
	f.closed = append(f.closed, s)
	return f.err
}

func newTestRegistry(t *testing.T) (*Registry, *fakeCloser) {
	t.Helper()
	closer := &fakeCloser{}
	r := New(closer, Limits{MinWidth: 100, MinHeight: 100})
	r.SetOutput(geom.Rect{Width: 1920, Height: 1080})
	return r, closer
}

func mapN(t *testing.T, r *Registry, n int) []Handle {
	t.Helper()
	handles := make([]Handle, n)
	for i := 0; i < n; i++ {
		h, err := r.Map(backend.Surface(i+1), "win", geom.Rect{Width: 400, Height: 300})
		if err != nil {
			t.Fatalf("map %d: %v", i, err)
		}
		handles[i] = h
	}
	return handles
}

func TestStackIsDensePermutation(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 5)

	checkDense := func() {
		seen := make(map[int]bool)
		for _, h := range r.Stack() {
			rank, ok := r.Rank(h)
			if !ok {
				t.Fatalf("no rank for %d", h)
			}
			if rank < 0 || rank >= r.Len() {
				t.Fatalf("rank %d out of range [0,%d)", rank, r.Len())
			}
			if seen[rank] {
				t.Fatalf("duplicate rank %d", rank)
			}
			seen[rank] = true
		}
		if len(seen) != r.Len() {
			t.Fatalf("got %d distinct ranks, want %d", len(seen), r.Len())
		}
	}

	checkDense()

	// Remove from the middle and re-check density.
	if _, err := r.UnmapSurface(backend.Surface(3)); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	checkDense()

	r.FocusRaise(hs[0])
	checkDense()
	r.CycleFocus()
	checkDense()
}

func TestMapFocusesAndRaises(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 3)

	if got := r.Focused(); got == nil || got.Handle != hs[2] {
		t.Fatalf("focused = %v, want handle %d", got, hs[2])
	}
	rank, _ := r.Rank(hs[2])
	if rank != 2 {
		t.Fatalf("new window rank = %d, want 2", rank)
	}
}

func TestUnmapFocusedMovesFocusToNextHighest(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 3)

	if _, err := r.UnmapSurface(backend.Surface(3)); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if got := r.Focused(); got == nil || got.Handle != hs[1] {
		t.Fatalf("focus after unmap = %v, want handle %d", got, hs[1])
	}

	r.UnmapSurface(backend.Surface(2))
	r.UnmapSurface(backend.Surface(1))
	if got := r.Focused(); got != nil {
		t.Fatalf("focus with no windows = %v, want nil", got)
	}
}

func TestProtocolViolations(t *testing.T) {
	r, _ := newTestRegistry(t)
	mapN(t, r, 1)

	_, err := r.Map(backend.Surface(1), "dup", geom.Rect{Width: 400, Height: 300})
	var pv *ErrProtocolViolation
	if !errors.As(err, &pv) {
		t.Fatalf("double map error = %v, want protocol violation", err)
	}

	_, err = r.UnmapSurface(backend.Surface(99))
	if !errors.As(err, &pv) {
		t.Fatalf("stray unmap error = %v, want protocol violation", err)
	}
	if r.Len() != 1 {
		t.Fatalf("window count after violations = %d, want 1", r.Len())
	}
}

func TestCycleFocusFullWalkRestoresOrder(t *testing.T) {
	r, _ := newTestRegistry(t)
	mapN(t, r, 4)

	before := r.Stack()
	focusedBefore := r.Focused().Handle

	visited := make(map[Handle]bool)
	for i := 0; i < 4; i++ {
		r.CycleFocus()
		visited[r.Focused().Handle] = true
	}

	if len(visited) != 4 {
		t.Fatalf("cycle visited %d windows, want 4", len(visited))
	}
	if got := r.Focused().Handle; got != focusedBefore {
		t.Fatalf("focus after full walk = %d, want %d", got, focusedBefore)
	}
	after := r.Stack()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("stack[%d] = %d after full walk, want %d", i, after[i], before[i])
		}
	}
}

func TestCycleFocusRaisesTarget(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 3)

	r.CycleFocus()
	foc := r.Focused()
	if foc.Handle != hs[0] {
		t.Fatalf("cycle focused %d, want least-recently-raised %d", foc.Handle, hs[0])
	}
	rank, _ := r.Rank(foc.Handle)
	if rank != 2 {
		t.Fatalf("focused rank = %d, want front (2)", rank)
	}
}

func TestCycleFocusReverseInvertsCycle(t *testing.T) {
	r, _ := newTestRegistry(t)
	mapN(t, r, 3)

	before := r.Stack()
	r.CycleFocus()
	r.CycleFocusReverse()
	after := r.Stack()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("stack[%d] = %d, want %d", i, after[i], before[i])
		}
	}
	if r.Focused().Handle != before[len(before)-1] {
		t.Fatalf("focus not restored after cycle+reverse")
	}
}

func TestCycleFocusSingleWindowNoop(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)

	r.CycleFocus()
	if r.Focused().Handle != hs[0] {
		t.Fatalf("single-window cycle changed focus")
	}
	r.CycleFocusReverse()
	if r.Focused().Handle != hs[0] {
		t.Fatalf("single-window reverse cycle changed focus")
	}
}

func TestSnapHalvesExactAndIdempotent(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)

	r.Snap(hs[0], geom.HalfLeft)
	w, _ := r.Get(hs[0])
	first := w.Geometry
	if first.X != 0 || first.Width != 960 || first.Height != 1080 {
		t.Fatalf("left snap = %+v, want x=0 w=960 h=1080", first)
	}

	r.Snap(hs[0], geom.HalfLeft)
	if w.Geometry != first {
		t.Fatalf("second snap = %+v, want %+v", w.Geometry, first)
	}

	r.Snap(hs[0], geom.HalfRight)
	if w.Geometry.X != 960 || w.Geometry.Width != 960 {
		t.Fatalf("right snap = %+v, want x=960 w=960", w.Geometry)
	}
}

func TestSnapRespectsGaps(t *testing.T) {
	closer := &fakeCloser{}
	r := New(closer, Limits{MinWidth: 100, MinHeight: 100, OuterGap: 10, InnerGap: 10})
	r.SetOutput(geom.Rect{Width: 1920, Height: 1080})
	hs := mapN(t, r, 1)

	r.Snap(hs[0], geom.HalfLeft)
	w, _ := r.Get(hs[0])
	if w.Geometry.X != 10 || w.Geometry.Y != 10 {
		t.Fatalf("left snap origin = (%d,%d), want (10,10)", w.Geometry.X, w.Geometry.Y)
	}
	if w.Geometry.Width != 945 {
		t.Fatalf("left snap width = %d, want 945", w.Geometry.Width)
	}
	left := w.Geometry

	// Gapped snaps must still be idempotent.
	r.Snap(hs[0], geom.HalfLeft)
	if w.Geometry != left {
		t.Fatalf("gapped snap not idempotent: %+v then %+v", left, w.Geometry)
	}

	r.Snap(hs[0], geom.HalfRight)
	if w.Geometry.X != 965 {
		t.Fatalf("right snap x = %d, want 965", w.Geometry.X)
	}
}

func TestSnapMaximizeAndCenter(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)

	r.Snap(hs[0], geom.Maximize)
	w, _ := r.Get(hs[0])
	if w.Geometry != r.Usable() {
		t.Fatalf("maximize = %+v, want %+v", w.Geometry, r.Usable())
	}

	r.Move(hs[0], geom.DirLeft, 5000)
	r.Snap(hs[0], geom.Center)
	if w.Geometry.Width != r.Usable().Width {
		t.Fatalf("center changed width to %d", w.Geometry.Width)
	}
	if w.Geometry.X != 0 {
		t.Fatalf("center x = %d, want 0", w.Geometry.X)
	}
}

func TestMovePermitsOffOutput(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)
	w, _ := r.Get(hs[0])

	for i := 0; i < 100; i++ {
		r.Move(hs[0], geom.DirLeft, 50)
	}
	if w.Geometry.X >= 0 {
		t.Fatalf("x = %d after repeated left moves, want negative", w.Geometry.X)
	}
}

func TestResizeStepsClampToMinimum(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)
	w, _ := r.Get(hs[0])

	r.BeginResize(hs[0])
	if !w.Resize.Active {
		t.Fatalf("resize not armed")
	}

	for i := 0; i < 50; i++ {
		r.ResizeStep(hs[0], geom.DirLeft, 50)
		r.ResizeStep(hs[0], geom.DirUp, 50)
	}
	if w.Geometry.Width != 100 || w.Geometry.Height != 100 {
		t.Fatalf("size = %dx%d after shrinking, want 100x100", w.Geometry.Width, w.Geometry.Height)
	}

	r.ResizeStep(hs[0], geom.DirRight, 50)
	if w.Geometry.Width != 150 {
		t.Fatalf("width = %d after grow, want 150", w.Geometry.Width)
	}

	r.EndResize(hs[0])
	if w.Resize.Active {
		t.Fatalf("resize still armed after end")
	}
	if w.Resize.Origin != (geom.Rect{}) {
		t.Fatalf("origin not cleared: %+v", w.Resize.Origin)
	}
}

func TestResizeStepIgnoredWhenNotArmed(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)
	w, _ := r.Get(hs[0])
	before := w.Geometry

	r.ResizeStep(hs[0], geom.DirRight, 50)
	if w.Geometry != before {
		t.Fatalf("resize step applied without begin")
	}
}

func TestCloseRequestsSurfaceButKeepsWindow(t *testing.T) {
	r, closer := newTestRegistry(t)
	hs := mapN(t, r, 2)

	r.Close(hs[1])
	if len(closer.closed) != 1 || closer.closed[0] != backend.Surface(2) {
		t.Fatalf("closed surfaces = %v, want [2]", closer.closed)
	}
	if r.Len() != 2 {
		t.Fatalf("window count after close request = %d, want 2", r.Len())
	}

	// The window goes away only once the substrate confirms.
	if _, err := r.UnmapSurface(backend.Surface(2)); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("window count after unmap = %d, want 1", r.Len())
	}
}

func TestReflowPullsWindowsOnOutput(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)
	w, _ := r.Get(hs[0])

	for i := 0; i < 100; i++ {
		r.Move(hs[0], geom.DirRight, 50)
	}
	r.SetOutput(geom.Rect{Width: 1280, Height: 720})
	r.Reflow()

	u := r.Usable()
	if w.Geometry.X < u.X || w.Geometry.X+w.Geometry.Width > u.X+u.Width {
		t.Fatalf("window %+v outside usable %+v after reflow", w.Geometry, u)
	}
}

func TestSetTitle(t *testing.T) {
	r, _ := newTestRegistry(t)
	hs := mapN(t, r, 1)

	r.SetTitle(backend.Surface(1), "editor")
	w, _ := r.Get(hs[0])
	if w.Title != "editor" {
		t.Fatalf("title = %q, want editor", w.Title)
	}
}
