// Package backend abstracts the substrate the compositor runs on. Two
// implementations exist: an embedded backend that hosts the session inside
// an X11 window for development, and a direct backend that owns evdev
// input devices and a framebuffer on a bare TTY. Policy code never
// branches on which one is active.
package backend

import (
	"errors"
	"fmt"

	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/render"
)

// Surface identifies a substrate window for its mapped lifetime.
type Surface uint64

// Output describes one display the compositor composes onto.
type Output struct {
	Name      string
	Bounds    geom.Rect
	RefreshHz float64
	Connected bool
}

// ErrDeviceLost reports that the substrate connection or a required
// device went away. The session freezes animations and attempts reinit.
var ErrDeviceLost = errors.New("backend device lost")

// InitError wraps a failed backend bring-up with the backend's name so
// the operator can tell which path failed before logging was useful.
type InitError struct {
	Backend string
	Err     error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s backend init: %v", e.Backend, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Event is a substrate event delivered to the session loop. Exactly one
// concrete type below is carried per event.
type Event interface {
	isEvent()
}

// SurfaceMapped reports a new mappable surface.
type SurfaceMapped struct {
	Surface Surface
	Title   string
	Size    geom.Rect
}

// SurfaceUnmapped reports that a surface was destroyed. This is the only
// trigger for window removal.
type SurfaceUnmapped struct {
	Surface Surface
}

// SurfaceTitleChanged reports a title update on a mapped surface.
type SurfaceTitleChanged struct {
	Surface Surface
	Title   string
}

// Key is a normalized keyboard event. Code is a Linux input keycode.
type Key struct {
	Code    uint16
	Pressed bool
	Mod     bool
	Shift   bool
}

// PointerMotion is an absolute pointer position in output space.
type PointerMotion struct {
	Pos geom.Point
}

// PointerButton is a pointer button press or release.
type PointerButton struct {
	Button  uint16
	Pressed bool
	Pos     geom.Point
}

// OutputChanged reports an output appearing, resizing, or disconnecting.
type OutputChanged struct {
	Output Output
}

// InputDeviceChanged reports an input device arriving or departing.
type InputDeviceChanged struct {
	Path     string
	Added    bool
	Keyboard bool
}

// DeviceLost reports that the substrate died out from under us. Err
// wraps ErrDeviceLost.
type DeviceLost struct {
	Err error
}

func (SurfaceMapped) isEvent()       {}
func (DeviceLost) isEvent()          {}
func (SurfaceUnmapped) isEvent()     {}
func (SurfaceTitleChanged) isEvent() {}
func (Key) isEvent()                 {}
func (PointerMotion) isEvent()       {}
func (PointerButton) isEvent()       {}
func (OutputChanged) isEvent()       {}
func (InputDeviceChanged) isEvent()  {}

// Backend is the substrate contract. All methods are called from the
// session goroutine; implementations marshal their own device threads
// into the event queue handed to Init.
type Backend interface {
	// Init brings the substrate up and returns the initial outputs.
	Init(events chan<- Event) ([]Output, error)

	// Outputs returns the current output set.
	Outputs() []Output

	// Present displays a composed frame on the named output.
	Present(output string, frame *render.Frame) error

	// CloseSurface asks the substrate to destroy a surface. Removal is
	// reported later via SurfaceUnmapped.
	CloseSurface(Surface) error

	// Shutdown releases every acquired device. It must be safe to call
	// after a partial Init and must never leave input devices grabbed.
	Shutdown() error
}
