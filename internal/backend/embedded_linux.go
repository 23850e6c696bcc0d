package backend

import (
	"fmt"
	"log"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"

	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/render"
)

// Embedded hosts the compositor inside an X11 session for development.
// One top-level window acts as the output; frames are rasterized into it
// with core X fill and text requests. Client X windows mapped on the
// root become surfaces, so applications launched from the command center
// show up like they would on the real substrate.
type Embedded struct {
	cfg    *config.Config
	xu     *xgbutil.XUtil
	root   xproto.Window
	out    xproto.Window
	gc     xproto.Gcontext
	font   xproto.Font
	events chan<- Event

	output Output

	wmProtocols xproto.Atom
	wmDelete    xproto.Atom

	// titles caches WM_NAME per client so unmap events can be matched
	// even after the window is gone.
	known map[xproto.Window]bool

	done chan struct{}
}

const embeddedName = "embedded"

// NewEmbedded creates the development backend. Init does the actual
// connection work.
func NewEmbedded(cfg *config.Config) *Embedded {
	return &Embedded{cfg: cfg, known: make(map[xproto.Window]bool), done: make(chan struct{})}
}

// Init connects to the X server, creates the output window, and starts
// the translation goroutine. Connection refused is retried with backoff
// by the caller; a second failure surfaces as InitError.
func (b *Embedded) Init(events chan<- Event) ([]Output, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, &InitError{Backend: embeddedName, Err: err}
	}
	b.xu = xu
	b.root = xu.RootWin()
	b.events = events
	b.done = make(chan struct{})

	screen := xu.Screen()
	width := int(screen.WidthInPixels) * 3 / 4
	height := int(screen.HeightInPixels) * 3 / 4

	if err := b.createOutputWindow(width, height); err != nil {
		xu.Conn().Close()
		return nil, &InitError{Backend: embeddedName, Err: err}
	}

	// Watch the root so client windows become surfaces.
	xproto.ChangeWindowAttributes(xu.Conn(), b.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskSubstructureNotify})

	b.output = Output{
		Name:      "embedded-0",
		Bounds:    geom.Rect{Width: width, Height: height},
		RefreshHz: 60,
		Connected: true,
	}

	go b.translate()
	return []Output{b.output}, nil
}

func (b *Embedded) createOutputWindow(width, height int) error {
	conn := b.xu.Conn()
	screen := b.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		b.root,
		0, 0,
		uint16(width), uint16(height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			uint32(b.cfg.Colors.Background),
			xproto.EventMaskKeyPress | xproto.EventMaskKeyRelease |
				xproto.EventMaskPointerMotion | xproto.EventMaskButtonPress |
				xproto.EventMaskButtonRelease | xproto.EventMaskStructureNotify |
				xproto.EventMaskExposure,
		},
	).Check()
	if err != nil {
		return err
	}
	b.out = wid

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return err
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid),
		xproto.GcForeground, []uint32{0}).Check(); err != nil {
		return err
	}
	b.gc = gc

	font, err := xproto.NewFontId(conn)
	if err != nil {
		return err
	}
	if err := xproto.OpenFontChecked(conn, font, uint16(len("fixed")), "fixed").Check(); err != nil {
		return err
	}
	b.font = font
	xproto.ChangeGC(conn, gc, xproto.GcFont, []uint32{uint32(font)})

	b.wmProtocols = b.atom("WM_PROTOCOLS")
	b.wmDelete = b.atom("WM_DELETE_WINDOW")

	title := []byte("lumen (embedded)")
	xproto.ChangeProperty(conn, xproto.PropModeReplace, wid,
		xproto.AtomWmName, xproto.AtomString, 8, uint32(len(title)), title)

	return xproto.MapWindowChecked(conn, wid).Check()
}

func (b *Embedded) atom(name string) xproto.Atom {
	reply, err := xproto.InternAtom(b.xu.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0
	}
	return reply.Atom
}

// translate reads raw X events on its own goroutine and funnels them
// into the session's queue as normalized events.
func (b *Embedded) translate() {
	conn := b.xu.Conn()
	for {
		ev, xerr := conn.WaitForEvent()
		if ev == nil && xerr == nil {
			b.send(DeviceLost{Err: fmt.Errorf("%w: X connection closed", ErrDeviceLost)})
			return
		}
		if xerr != nil {
			log.Printf("x11 error: %v", xerr)
			continue
		}

		switch e := ev.(type) {
		case xproto.KeyPressEvent:
			b.send(b.key(e.Detail, e.State, true))
		case xproto.KeyReleaseEvent:
			b.send(b.key(e.Detail, e.State, false))
		case xproto.MotionNotifyEvent:
			if e.Event == b.out {
				b.send(PointerMotion{Pos: geom.Point{X: int(e.EventX), Y: int(e.EventY)}})
			}
		case xproto.ButtonPressEvent:
			b.send(PointerButton{Button: uint16(e.Detail), Pressed: true,
				Pos: geom.Point{X: int(e.EventX), Y: int(e.EventY)}})
		case xproto.ButtonReleaseEvent:
			b.send(PointerButton{Button: uint16(e.Detail), Pressed: false,
				Pos: geom.Point{X: int(e.EventX), Y: int(e.EventY)}})
		case xproto.ConfigureNotifyEvent:
			if e.Window == b.out {
				b.output.Bounds = geom.Rect{Width: int(e.Width), Height: int(e.Height)}
				b.send(OutputChanged{Output: b.output})
			}
		case xproto.MapNotifyEvent:
			if e.Window != b.out && !e.OverrideRedirect {
				b.known[e.Window] = true
				b.send(SurfaceMapped{
					Surface: Surface(e.Window),
					Title:   b.windowTitle(e.Window),
				})
			}
		case xproto.UnmapNotifyEvent:
			if b.known[e.Window] {
				delete(b.known, e.Window)
				b.send(SurfaceUnmapped{Surface: Surface(e.Window)})
			}
		case xproto.DestroyNotifyEvent:
			if b.known[e.Window] {
				delete(b.known, e.Window)
				b.send(SurfaceUnmapped{Surface: Surface(e.Window)})
			}
		case xproto.PropertyNotifyEvent:
			if b.known[e.Window] && e.Atom == xproto.AtomWmName {
				b.send(SurfaceTitleChanged{
					Surface: Surface(e.Window),
					Title:   b.windowTitle(e.Window),
				})
			}
		}
	}
}

func (b *Embedded) send(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// key normalizes an X key event. X keycodes are Linux keycodes offset by
// 8; the modifier comes from the state mask of the configured key.
func (b *Embedded) key(detail xproto.Keycode, state uint16, pressed bool) Key {
	var modMask uint16
	switch b.cfg.Modifier {
	case "alt":
		modMask = xproto.ModMask1
	case "ctrl":
		modMask = xproto.ModMaskControl
	default:
		modMask = xproto.ModMask4
	}
	return Key{
		Code:    uint16(detail) - 8,
		Pressed: pressed,
		Mod:     state&modMask != 0,
		Shift:   state&xproto.ModMaskShift != 0,
	}
}

func (b *Embedded) windowTitle(w xproto.Window) string {
	reply, err := xproto.GetProperty(b.xu.Conn(), false, w,
		xproto.AtomWmName, xproto.AtomString, 0, 256).Reply()
	if err != nil || reply == nil {
		return ""
	}
	return string(reply.Value)
}

// Outputs returns the single embedded output.
func (b *Embedded) Outputs() []Output {
	return []Output{b.output}
}

// Present rasterizes the frame into the output window. X11 core has no
// alpha, so translucent quads are drawn pre-blended toward black, which
// reads close enough for a development view.
func (b *Embedded) Present(output string, frame *render.Frame) error {
	if b.xu == nil {
		return ErrDeviceLost
	}
	conn := b.xu.Conn()

	for _, q := range frame.Quads {
		color := dimColor(uint32(q.Color), q.Alpha)
		xproto.ChangeGC(conn, b.gc, xproto.GcForeground, []uint32{color})
		xproto.PolyFillRectangle(conn, xproto.Drawable(b.out), b.gc, []xproto.Rectangle{{
			X:      int16(q.Rect.X),
			Y:      int16(q.Rect.Y),
			Width:  uint16(max(q.Rect.Width, 0)),
			Height: uint16(max(q.Rect.Height, 0)),
		}})
	}
	for _, t := range frame.Texts {
		s := t.Str
		if len(s) > 255 {
			s = s[:255]
		}
		xproto.ChangeGC(conn, b.gc, xproto.GcForeground, []uint32{dimColor(uint32(t.Color), t.Alpha)})
		xproto.ImageText8(conn, byte(len(s)), xproto.Drawable(b.out), b.gc,
			int16(t.Pos.X), int16(t.Pos.Y+12), s)
	}
	return nil
}

func dimColor(c uint32, alpha float64) uint32 {
	if alpha >= 1 {
		return c
	}
	if alpha < 0 {
		alpha = 0
	}
	r := uint32(float64(c>>16&0xff) * alpha)
	g := uint32(float64(c>>8&0xff) * alpha)
	bl := uint32(float64(c&0xff) * alpha)
	return r<<16 | g<<8 | bl
}

// CloseSurface asks the client to delete itself via WM_DELETE_WINDOW,
// falling back to destroying the window for clients that never set
// WM_PROTOCOLS. Either way the unmap arrives as a later event.
func (b *Embedded) CloseSurface(s Surface) error {
	if b.xu == nil {
		return ErrDeviceLost
	}
	conn := b.xu.Conn()
	win := xproto.Window(s)

	if b.wmProtocols != 0 && b.wmDelete != 0 && b.supportsDelete(win) {
		ev := xproto.ClientMessageEvent{
			Format: 32,
			Window: win,
			Type:   b.wmProtocols,
			Data: xproto.ClientMessageDataUnionData32New([]uint32{
				uint32(b.wmDelete), uint32(time.Now().Unix()), 0, 0, 0,
			}),
		}
		xproto.SendEvent(conn, false, win, xproto.EventMaskNoEvent, string(ev.Bytes()))
		return nil
	}
	xproto.DestroyWindow(conn, win)
	return nil
}

func (b *Embedded) supportsDelete(win xproto.Window) bool {
	reply, err := xproto.GetProperty(b.xu.Conn(), false, win,
		b.wmProtocols, xproto.AtomAtom, 0, 32).Reply()
	if err != nil || reply == nil {
		return false
	}
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		atom := xproto.Atom(xgb.Get32(reply.Value[i:]))
		if atom == b.wmDelete {
			return true
		}
	}
	return false
}

// Shutdown drops the X resources. Safe after a partial Init.
func (b *Embedded) Shutdown() error {
	select {
	case <-b.done:
	default:
		close(b.done)
	}
	if b.xu == nil {
		return nil
	}
	conn := b.xu.Conn()
	if b.font != 0 {
		xproto.CloseFont(conn, b.font)
	}
	if b.gc != 0 {
		xproto.FreeGC(conn, b.gc)
	}
	if b.out != 0 {
		xproto.DestroyWindow(conn, b.out)
	}
	conn.Close()
	return nil
}
