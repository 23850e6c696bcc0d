// Package input turns normalized key events into compositor actions. A
// small mode machine keeps the three input states mutually exclusive:
// normal dispatch, an armed interactive resize, and the command center
// capturing everything for its query.
package input

import (
	"time"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/registry"
)

// Mode is the dispatcher's current input state.
type Mode int

const (
	ModeNormal Mode = iota
	ModeResize
	ModeCommandCenter
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeResize:
		return "resize"
	case ModeCommandCenter:
		return "command-center"
	default:
		return "unknown"
	}
}

// Decision tells the session what to do with a key event.
type Decision int

const (
	// PassThrough leaves delivery to the substrate's normal focus path.
	PassThrough Decision = iota
	// Consumed means the dispatcher acted on the event.
	Consumed
)

// CommandCenter is the overlay surface the dispatcher drives while in
// ModeCommandCenter.
type CommandCenter interface {
	Open(now time.Time)
	Close(now time.Time)
	Opened() bool
	Input(r rune, now time.Time)
	Backspace(now time.Time)
	MoveSelection(delta int)
	Activate(now time.Time)
}

// Dispatcher routes key events according to the current mode.
type Dispatcher struct {
	reg    *registry.Registry
	center CommandCenter
	cfg    *config.Config
	quit   func()
	mode   Mode
}

func NewDispatcher(reg *registry.Registry, center CommandCenter, cfg *config.Config, quit func()) *Dispatcher {
	return &Dispatcher{reg: reg, center: center, cfg: cfg, quit: quit}
}

// Mode returns the current input mode.
func (d *Dispatcher) Mode() Mode { return d.mode }

// Reset forces the dispatcher back to normal mode, aborting any armed
// resize and closing the command center. Called on device loss so a
// reinitialized backend never resumes into a stale modal state.
func (d *Dispatcher) Reset(now time.Time) {
	switch d.mode {
	case ModeResize:
		if w := d.reg.Focused(); w != nil {
			d.reg.EndResize(w.Handle)
		}
	case ModeCommandCenter:
		if d.center.Opened() {
			d.center.Close(now)
		}
	}
	d.mode = ModeNormal
}

// Dispatch applies one key event and reports whether it was consumed.
func (d *Dispatcher) Dispatch(k backend.Key, now time.Time) Decision {
	switch d.mode {
	case ModeCommandCenter:
		return d.dispatchCommandCenter(k, now)
	case ModeResize:
		return d.dispatchResize(k, now)
	default:
		return d.dispatchNormal(k, now)
	}
}

func (d *Dispatcher) dispatchNormal(k backend.Key, now time.Time) Decision {
	if !k.Pressed || !k.Mod {
		return PassThrough
	}

	switch k.Code {
	case KeyI:
		d.moveFocused(geom.DirUp)
	case KeyK:
		d.moveFocused(geom.DirDown)
	case KeyJ:
		d.moveFocused(geom.DirLeft)
	case KeyL:
		d.moveFocused(geom.DirRight)
	case KeyUp:
		d.snapFocused(geom.HalfTop)
	case KeyDown:
		d.snapFocused(geom.HalfBottom)
	case KeyLeft:
		d.snapFocused(geom.HalfLeft)
	case KeyRight:
		d.snapFocused(geom.HalfRight)
	case KeyM:
		d.snapFocused(geom.Maximize)
	case KeyC:
		d.snapFocused(geom.Center)
	case KeyR:
		if w := d.reg.Focused(); w != nil {
			d.reg.BeginResize(w.Handle)
			d.mode = ModeResize
		}
	case KeyS:
		d.center.Open(now)
		d.mode = ModeCommandCenter
	case KeyTab:
		if k.Shift {
			d.reg.CycleFocusReverse()
		} else {
			d.reg.CycleFocus()
		}
	case KeyW:
		if w := d.reg.Focused(); w != nil {
			d.reg.Close(w.Handle)
		}
	case KeyQ:
		d.quit()
	default:
		return PassThrough
	}
	return Consumed
}

func (d *Dispatcher) dispatchResize(k backend.Key, now time.Time) Decision {
	if !k.Pressed {
		// Releasing R commits the gesture; other releases are the tail of
		// keystrokes that predate the mode and stay with their owner.
		if k.Code == KeyR {
			if w := d.reg.Focused(); w != nil {
				d.reg.EndResize(w.Handle)
			}
			d.mode = ModeNormal
			return Consumed
		}
		return PassThrough
	}

	switch k.Code {
	case KeyJ:
		d.resizeFocused(geom.DirLeft)
	case KeyL:
		d.resizeFocused(geom.DirRight)
	case KeyI:
		d.resizeFocused(geom.DirUp)
	case KeyK:
		d.resizeFocused(geom.DirDown)
	case KeyEsc:
		if w := d.reg.Focused(); w != nil {
			d.reg.CancelResize(w.Handle)
		}
		d.mode = ModeNormal
	case KeyR:
		// Repeats of the held mode key.
	default:
		// Unbound keys still belong to the focused window; only the
		// command center captures typing.
		return PassThrough
	}
	return Consumed
}

func (d *Dispatcher) dispatchCommandCenter(k backend.Key, now time.Time) Decision {
	if !k.Pressed {
		return Consumed
	}

	switch {
	case k.Code == KeyEsc, k.Mod && k.Code == KeyS:
		d.center.Close(now)
		d.mode = ModeNormal
	case k.Mod && k.Code == KeyQ:
		d.quit()
	case k.Code == KeyEnter:
		d.center.Activate(now)
		if !d.center.Opened() {
			d.mode = ModeNormal
		}
	case k.Code == KeyUp, k.Code == KeyTab && k.Shift:
		d.center.MoveSelection(-1)
	case k.Code == KeyDown, k.Code == KeyTab:
		d.center.MoveSelection(1)
	case k.Code == KeyBackspace:
		d.center.Backspace(now)
	default:
		if r, ok := RuneForCode(k.Code, k.Shift); ok {
			d.center.Input(r, now)
		}
	}
	return Consumed
}

func (d *Dispatcher) moveFocused(dir geom.Direction) {
	if w := d.reg.Focused(); w != nil {
		d.reg.Move(w.Handle, dir, d.cfg.MoveStep)
	}
}

func (d *Dispatcher) snapFocused(half geom.Half) {
	if w := d.reg.Focused(); w != nil {
		d.reg.Snap(w.Handle, half)
	}
}

func (d *Dispatcher) resizeFocused(dir geom.Direction) {
	if w := d.reg.Focused(); w != nil {
		d.reg.ResizeStep(w.Handle, dir, d.cfg.ResizeStep)
	}
}
