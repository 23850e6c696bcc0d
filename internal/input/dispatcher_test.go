package input

import (
	"math/rand"
	"testing"
	"time"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/registry"
)

type nopCloser struct{}

func (nopCloser) CloseSurface(backend.Surface) error { return nil }

type fakeCenter struct {
	open       bool
	query      string
	selection  int
	activated  int
	closeOnAct bool
}

func (f *fakeCenter) Open(time.Time)  { f.open = true; f.query = ""; f.selection = 0 }
func (f *fakeCenter) Close(time.Time) { f.open = false }
func (f *fakeCenter) Opened() bool    { return f.open }
func (f *fakeCenter) Input(r rune, _ time.Time) {
	f.query += string(r)
}
func (f *fakeCenter) Backspace(time.Time) {
	if f.query != "" {
		f.query = f.query[:len(f.query)-1]
	}
}
func (f *fakeCenter) MoveSelection(delta int) { f.selection += delta }
func (f *fakeCenter) Activate(time.Time) {
	f.activated++
	if f.closeOnAct {
		f.open = false
	}
}

func newTestDispatcher(t *testing.T, nwindows int) (*Dispatcher, *registry.Registry, *fakeCenter, *int) {
	t.Helper()
	cfg := config.Default()
	reg := registry.New(nopCloser{}, registry.Limits{
		MinWidth:  cfg.MinWindowWidth,
		MinHeight: cfg.MinWindowHeight,
	})
	reg.SetOutput(geom.Rect{Width: 1920, Height: 1080})
	for i := 0; i < nwindows; i++ {
		if _, err := reg.Map(backend.Surface(i+1), "win", geom.Rect{Width: 400, Height: 300}); err != nil {
			t.Fatalf("map: %v", err)
		}
	}
	center := &fakeCenter{closeOnAct: true}
	quits := 0
	d := NewDispatcher(reg, center, cfg, func() { quits++ })
	return d, reg, center, &quits
}

func press(code uint16, mod, shift bool) backend.Key {
	return backend.Key{Code: code, Pressed: true, Mod: mod, Shift: shift}
}

func release(code uint16) backend.Key {
	return backend.Key{Code: code}
}

func TestMoveBindings(t *testing.T) {
	d, reg, _, _ := newTestDispatcher(t, 1)
	now := time.Now()
	w := reg.Focused()
	start := w.Geometry

	if got := d.Dispatch(press(KeyL, true, false), now); got != Consumed {
		t.Fatalf("mod+l decision = %v, want Consumed", got)
	}
	d.Dispatch(press(KeyK, true, false), now)
	if w.Geometry.X != start.X+50 || w.Geometry.Y != start.Y+50 {
		t.Fatalf("geometry = %+v, want +50,+50 from %+v", w.Geometry, start)
	}

	d.Dispatch(press(KeyJ, true, false), now)
	d.Dispatch(press(KeyI, true, false), now)
	if w.Geometry != start {
		t.Fatalf("geometry = %+v after round trip, want %+v", w.Geometry, start)
	}
}

func TestKeysWithoutModPassThrough(t *testing.T) {
	d, reg, _, _ := newTestDispatcher(t, 1)
	now := time.Now()
	before := reg.Focused().Geometry

	if got := d.Dispatch(press(KeyL, false, false), now); got != PassThrough {
		t.Fatalf("plain l decision = %v, want PassThrough", got)
	}
	if reg.Focused().Geometry != before {
		t.Fatalf("plain key moved the window")
	}
}

func TestSnapBindings(t *testing.T) {
	d, reg, _, _ := newTestDispatcher(t, 1)
	now := time.Now()
	w := reg.Focused()

	d.Dispatch(press(KeyLeft, true, false), now)
	if w.Geometry.X != 0 || w.Geometry.Width != 960 {
		t.Fatalf("snap left = %+v", w.Geometry)
	}
	d.Dispatch(press(KeyM, true, false), now)
	if w.Geometry != reg.Usable() {
		t.Fatalf("maximize = %+v, want %+v", w.Geometry, reg.Usable())
	}
}

func TestResizeModeLifecycle(t *testing.T) {
	d, reg, _, _ := newTestDispatcher(t, 1)
	now := time.Now()
	w := reg.Focused()

	d.Dispatch(press(KeyR, true, false), now)
	if d.Mode() != ModeResize {
		t.Fatalf("mode = %v after mod+r, want resize", d.Mode())
	}

	startW := w.Geometry.Width
	d.Dispatch(press(KeyL, true, false), now)
	if w.Geometry.Width != startW+50 {
		t.Fatalf("width = %d, want %d", w.Geometry.Width, startW+50)
	}

	// Snap bindings are inert while the resize is armed.
	d.Dispatch(press(KeyLeft, true, false), now)
	if w.Geometry.X == 0 && w.Geometry.Width == 960 {
		t.Fatalf("snap applied during resize mode")
	}

	d.Dispatch(release(KeyR), now)
	if d.Mode() != ModeNormal {
		t.Fatalf("mode = %v after r release, want normal", d.Mode())
	}
	if w.Resize.Active {
		t.Fatalf("resize still active after release")
	}
	if w.Geometry.Width != startW+50 {
		t.Fatalf("commit lost the resized width")
	}
}

func TestResizeModeForwardsUnboundKeys(t *testing.T) {
	d, reg, _, _ := newTestDispatcher(t, 1)
	now := time.Now()
	const keyE = 18

	d.Dispatch(press(KeyR, true, false), now)
	if d.Mode() != ModeResize {
		t.Fatalf("mode = %v after mod+r, want resize", d.Mode())
	}

	// Typing into the focused window keeps working while a resize is
	// armed; only the resize bindings are captured.
	before := reg.Focused().Geometry
	if got := d.Dispatch(press(keyE, false, false), now); got != PassThrough {
		t.Fatalf("unbound key decision = %v, want PassThrough", got)
	}
	if got := d.Dispatch(press(KeyL, true, false), now); got != Consumed {
		t.Fatalf("resize binding decision = %v, want Consumed", got)
	}
	if reg.Focused().Geometry.Width != before.Width+50 {
		t.Fatalf("resize binding stopped working")
	}
	if d.Mode() != ModeResize {
		t.Fatalf("mode = %v, want resize to stay armed", d.Mode())
	}
}

func TestResizeEscRestoresOrigin(t *testing.T) {
	d, reg, _, _ := newTestDispatcher(t, 1)
	now := time.Now()
	w := reg.Focused()
	origin := w.Geometry

	d.Dispatch(press(KeyR, true, false), now)
	d.Dispatch(press(KeyL, true, false), now)
	d.Dispatch(press(KeyK, true, false), now)
	d.Dispatch(press(KeyEsc, false, false), now)

	if d.Mode() != ModeNormal {
		t.Fatalf("mode = %v after esc, want normal", d.Mode())
	}
	if w.Geometry != origin {
		t.Fatalf("geometry = %+v after abort, want origin %+v", w.Geometry, origin)
	}
}

func TestResizeWithoutFocusedWindowStaysNormal(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t, 0)
	d.Dispatch(press(KeyR, true, false), time.Now())
	if d.Mode() != ModeNormal {
		t.Fatalf("mode = %v with no windows, want normal", d.Mode())
	}
}

func TestCommandCenterToggle(t *testing.T) {
	d, _, center, _ := newTestDispatcher(t, 1)
	now := time.Now()

	d.Dispatch(press(KeyS, true, false), now)
	if d.Mode() != ModeCommandCenter || !center.open {
		t.Fatalf("mod+s did not open the command center")
	}

	// mod+s toggles back closed.
	d.Dispatch(press(KeyS, true, false), now)
	if d.Mode() != ModeNormal || center.open {
		t.Fatalf("mod+s did not close the command center")
	}

	d.Dispatch(press(KeyS, true, false), now)
	d.Dispatch(press(KeyEsc, false, false), now)
	if d.Mode() != ModeNormal || center.open {
		t.Fatalf("esc did not close the command center")
	}
}

func TestCommandCenterCapturesQuery(t *testing.T) {
	d, reg, center, _ := newTestDispatcher(t, 1)
	now := time.Now()
	before := reg.Focused().Geometry

	const keyT, keyE = 20, 18

	d.Dispatch(press(KeyS, true, false), now)
	for _, code := range []uint16{keyT, keyE, KeyR, KeyM} {
		d.Dispatch(press(code, false, false), now)
	}
	if center.query != "term" {
		t.Fatalf("query = %q, want term", center.query)
	}

	// Window bindings are inert while the overlay is open.
	d.Dispatch(press(KeyL, true, false), now)
	if reg.Focused().Geometry != before {
		t.Fatalf("window moved while command center open")
	}
	if d.Mode() != ModeCommandCenter {
		t.Fatalf("mode left command center")
	}

	d.Dispatch(press(KeyBackspace, false, false), now)
	if center.query != "ter" {
		t.Fatalf("query = %q after backspace, want ter", center.query)
	}
}

func TestCommandCenterEnterActivatesAndExits(t *testing.T) {
	d, _, center, _ := newTestDispatcher(t, 1)
	now := time.Now()

	d.Dispatch(press(KeyS, true, false), now)
	d.Dispatch(press(KeyDown, false, false), now)
	d.Dispatch(press(KeyDown, false, false), now)
	d.Dispatch(press(KeyUp, false, false), now)
	if center.selection != 1 {
		t.Fatalf("selection = %d, want 1", center.selection)
	}

	d.Dispatch(press(KeyEnter, false, false), now)
	if center.activated != 1 {
		t.Fatalf("activated = %d, want 1", center.activated)
	}
	if d.Mode() != ModeNormal {
		t.Fatalf("mode = %v after enter, want normal", d.Mode())
	}
}

func TestQuitReachableFromEveryMode(t *testing.T) {
	now := time.Now()

	d, _, _, quits := newTestDispatcher(t, 1)
	d.Dispatch(press(KeyQ, true, false), now)
	if *quits != 1 {
		t.Fatalf("quit not fired from normal mode")
	}

	d, _, _, quits = newTestDispatcher(t, 1)
	d.Dispatch(press(KeyS, true, false), now)
	d.Dispatch(press(KeyQ, true, false), now)
	if *quits != 1 {
		t.Fatalf("quit not fired from command center")
	}
}

func TestCloseBindingRequestsFocused(t *testing.T) {
	cfg := config.Default()
	closer := &captureCloser{}
	reg := registry.New(closer, registry.Limits{MinWidth: 100, MinHeight: 100})
	reg.SetOutput(geom.Rect{Width: 1920, Height: 1080})
	reg.Map(backend.Surface(7), "win", geom.Rect{Width: 400, Height: 300})
	d := NewDispatcher(reg, &fakeCenter{}, cfg, func() {})

	d.Dispatch(press(KeyW, true, false), time.Now())
	if len(closer.closed) != 1 || closer.closed[0] != 7 {
		t.Fatalf("closed = %v, want [7]", closer.closed)
	}
	if reg.Len() != 1 {
		t.Fatalf("window removed before unmap arrived")
	}
}

type captureCloser struct{ closed []backend.Surface }

func (c *captureCloser) CloseSurface(s backend.Surface) error {
	c.closed = append(c.closed, s)
	return nil
}

// TestModesMutuallyExclusive drives the dispatcher with a random key
// stream and checks the modal invariant after every event: the command
// center is open exactly in command-center mode, and a resize is armed
// exactly in resize mode.
func TestModesMutuallyExclusive(t *testing.T) {
	d, reg, center, _ := newTestDispatcher(t, 3)
	now := time.Now()
	rng := rand.New(rand.NewSource(41))

	codes := []uint16{
		KeyI, KeyJ, KeyK, KeyL, KeyR, KeyS, KeyW, KeyTab,
		KeyUp, KeyDown, KeyLeft, KeyRight, KeyEsc, KeyEnter, KeyM, KeyC,
	}

	for i := 0; i < 2000; i++ {
		k := backend.Key{
			Code:    codes[rng.Intn(len(codes))],
			Pressed: rng.Intn(4) != 0,
			Mod:     rng.Intn(2) == 0,
			Shift:   rng.Intn(4) == 0,
		}
		d.Dispatch(k, now)
		now = now.Add(time.Millisecond)

		anyResize := false
		for _, w := range reg.Windows() {
			if w.Resize.Active {
				anyResize = true
			}
		}
		switch d.Mode() {
		case ModeNormal:
			if center.open || anyResize {
				t.Fatalf("event %d: normal mode with center=%v resize=%v", i, center.open, anyResize)
			}
		case ModeResize:
			if center.open {
				t.Fatalf("event %d: resize mode with command center open", i)
			}
		case ModeCommandCenter:
			if !center.open {
				t.Fatalf("event %d: command-center mode but overlay closed", i)
			}
			if anyResize {
				t.Fatalf("event %d: command-center mode with resize armed", i)
			}
		}
	}
}

func TestResetClearsModalState(t *testing.T) {
	d, reg, center, _ := newTestDispatcher(t, 1)
	now := time.Now()

	d.Dispatch(press(KeyR, true, false), now)
	d.Reset(now)
	if d.Mode() != ModeNormal || reg.Focused().Resize.Active {
		t.Fatalf("reset did not clear resize mode")
	}

	d.Dispatch(press(KeyS, true, false), now)
	d.Reset(now)
	if d.Mode() != ModeNormal || center.open {
		t.Fatalf("reset did not close the command center")
	}
}
