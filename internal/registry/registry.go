// Package registry is the authoritative set of managed windows: their
// geometry, stacking order and focus. The stacking order is a dense
// permutation over all mapped windows (rank 0 = back, N-1 = front), kept
// as an ordered slice next to the handle arena so ownership stays simple.
package registry

import (
	"fmt"
	"log"

	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/geom"
)

// Handle identifies one managed window for the lifetime of its mapping.
type Handle uint64

// SurfaceCloser requests destruction of a substrate surface. The registry
// never removes a window on close; it waits for the unmap event.
type SurfaceCloser interface {
	CloseSurface(backend.Surface) error
}

// ErrProtocolViolation marks substrate events that contradict an earlier
// event for the same surface (double map, unmap without map). The
// offending surface is dropped defensively and the compositor continues.
type ErrProtocolViolation struct {
	Surface backend.Surface
	Reason  string
}

func (e *ErrProtocolViolation) Error() string {
	return fmt.Sprintf("surface protocol violation on %d: %s", e.Surface, e.Reason)
}

// ResizeState tracks an in-flight interactive resize. Origin holds the
// geometry at begin so an aborted gesture can report where it started.
type ResizeState struct {
	Active bool
	Origin geom.Rect
}

// Window is one managed window. Geometry is in output-space.
type Window struct {
	Handle   Handle
	Surface  backend.Surface
	Title    string
	Geometry geom.Rect
	Resize   ResizeState
}

// Limits are the registry's slice of the static configuration.
type Limits struct {
	MinWidth  int
	MinHeight int
	OuterGap  int
	InnerGap  int
}

// Registry owns the handle arena and the derived stacking order.
type Registry struct {
	closer    SurfaceCloser
	limits    Limits
	windows   map[Handle]*Window
	bySurface map[backend.Surface]Handle
	order     []Handle // bottom to top; index == z-order rank
	focused   Handle   // 0 when no window is focused
	nextID    Handle
	usable    geom.Rect
}

// New creates an empty registry bound to the given surface closer.
func New(closer SurfaceCloser, limits Limits) *Registry {
	return &Registry{
		closer:    closer,
		limits:    limits,
		windows:   make(map[Handle]*Window),
		bySurface: make(map[backend.Surface]Handle),
	}
}

// SetOutput updates the output bounds windows snap against. The usable
// area is the output inset by the outer gap.
func (r *Registry) SetOutput(bounds geom.Rect) {
	r.usable = geom.Inset(bounds, r.limits.OuterGap)
}

// Usable returns the current usable output area.
func (r *Registry) Usable() geom.Rect {
	return r.usable
}

// Len returns the number of mapped windows.
func (r *Registry) Len() int {
	return len(r.order)
}

// Map admits a new surface as a managed window at the front of the stack
// and focuses it. The initial geometry is centered on the usable area.
func (r *Registry) Map(surface backend.Surface, title string, size geom.Rect) (Handle, error) {
	if _, dup := r.bySurface[surface]; dup {
		return 0, &ErrProtocolViolation{Surface: surface, Reason: "mapped twice"}
	}

	r.nextID++
	h := r.nextID

	g := size
	if g.Width <= 0 {
		g.Width = r.usable.Width / 2
	}
	if g.Height <= 0 {
		g.Height = r.usable.Height / 2
	}
	if g.Width < r.limits.MinWidth {
		g.Width = r.limits.MinWidth
	}
	if g.Height < r.limits.MinHeight {
		g.Height = r.limits.MinHeight
	}
	g.X = r.usable.X + (r.usable.Width-g.Width)/2
	g.Y = r.usable.Y + (r.usable.Height-g.Height)/2

	r.windows[h] = &Window{
		Handle:   h,
		Surface:  surface,
		Title:    title,
		Geometry: g,
	}
	r.bySurface[surface] = h
	r.order = append(r.order, h)
	r.focused = h

	return h, nil
}

// UnmapSurface removes the window for a destroyed surface. This is the
// only removal path; Close merely requests destruction. Ranks are
// compacted, and focus moves to the next-highest window if the removed
// window held it.
func (r *Registry) UnmapSurface(surface backend.Surface) (Handle, error) {
	h, ok := r.bySurface[surface]
	if !ok {
		return 0, &ErrProtocolViolation{Surface: surface, Reason: "unmap without map"}
	}
	r.unmap(h)
	return h, nil
}

func (r *Registry) unmap(h Handle) {
	w, ok := r.windows[h]
	if !ok {
		return
	}
	delete(r.windows, h)
	delete(r.bySurface, w.Surface)

	for i, other := range r.order {
		if other == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.focused == h {
		r.focused = 0
		if n := len(r.order); n > 0 {
			r.focused = r.order[n-1]
		}
	}
}

// Get returns the window for h.
func (r *Registry) Get(h Handle) (*Window, bool) {
	w, ok := r.windows[h]
	return w, ok
}

// Focused returns the focused window, or nil when none is mapped.
func (r *Registry) Focused() *Window {
	if r.focused == 0 {
		return nil
	}
	return r.windows[r.focused]
}

// Rank returns the z-order rank of h (0 = back).
func (r *Registry) Rank(h Handle) (int, bool) {
	for i, other := range r.order {
		if other == h {
			return i, true
		}
	}
	return 0, false
}

// Stack returns the window handles bottom to top.
func (r *Registry) Stack() []Handle {
	out := make([]Handle, len(r.order))
	copy(out, r.order)
	return out
}

// Windows returns the windows bottom to top.
func (r *Registry) Windows() []*Window {
	out := make([]*Window, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.windows[h])
	}
	return out
}

// Move translates a window by one step in the given direction. Overlap
// and off-output positions are permitted; this is a stacking compositor.
func (r *Registry) Move(h Handle, dir geom.Direction, step int) {
	w, ok := r.windows[h]
	if !ok {
		return
	}
	d := dir.Delta(step)
	w.Geometry.X += d.X
	w.Geometry.Y += d.Y
}

// Snap sets a window's geometry to one half of the usable area (or
// maximize/center). Repeating the same snap yields identical geometry.
func (r *Registry) Snap(h Handle, half geom.Half) {
	w, ok := r.windows[h]
	if !ok {
		return
	}
	g := geom.Snap(half, r.usable, w.Geometry)

	// Halves leave an inner gap between two windows snapped to opposite
	// sides. The adjustment depends only on the usable area, so snapping
	// stays idempotent.
	inner := r.limits.InnerGap
	if inner > 0 {
		switch half {
		case geom.HalfLeft:
			g.Width -= inner / 2
		case geom.HalfRight:
			g.X += inner / 2
			g.Width -= inner / 2
		case geom.HalfTop:
			g.Height -= inner / 2
		case geom.HalfBottom:
			g.Y += inner / 2
			g.Height -= inner / 2
		}
	}

	w.Geometry = g
}

// BeginResize arms an interactive resize, recording the origin geometry.
func (r *Registry) BeginResize(h Handle) {
	w, ok := r.windows[h]
	if !ok {
		return
	}
	if w.Resize.Active {
		return
	}
	w.Resize = ResizeState{Active: true, Origin: w.Geometry}
}

// ResizeStep adjusts width or height by one step, never below the
// configured minimums. Each step commits a full, valid geometry, so an
// interrupted gesture cannot leave a partial state.
func (r *Registry) ResizeStep(h Handle, dir geom.Direction, step int) {
	w, ok := r.windows[h]
	if !ok || !w.Resize.Active {
		return
	}
	dw, dh := dir.SizeDelta(step)

	width := w.Geometry.Width + dw
	height := w.Geometry.Height + dh
	if width < r.limits.MinWidth {
		width = r.limits.MinWidth
	}
	if height < r.limits.MinHeight {
		height = r.limits.MinHeight
	}
	w.Geometry.Width = width
	w.Geometry.Height = height
}

// EndResize commits the gesture and clears the resize state.
func (r *Registry) EndResize(h Handle) {
	w, ok := r.windows[h]
	if !ok {
		return
	}
	w.Resize = ResizeState{}
}

// CancelResize aborts the gesture, restoring the geometry recorded at
// BeginResize.
func (r *Registry) CancelResize(h Handle) {
	w, ok := r.windows[h]
	if !ok || !w.Resize.Active {
		return
	}
	w.Geometry = w.Resize.Origin
	w.Resize = ResizeState{}
}

// CycleFocus advances focus through the stack: the least-recently-raised
// window (rank 0) is raised to the front and focused. Applied N times this
// walks every window and restores the original stacking order.
func (r *Registry) CycleFocus() {
	n := len(r.order)
	if n < 2 {
		return
	}
	bottom := r.order[0]
	copy(r.order, r.order[1:])
	r.order[n-1] = bottom
	r.focused = bottom
}

// CycleFocusReverse is the inverse walk: the front window is pushed to the
// back and focus lands on the window revealed beneath it.
func (r *Registry) CycleFocusReverse() {
	n := len(r.order)
	if n < 2 {
		return
	}
	top := r.order[n-1]
	copy(r.order[1:], r.order[:n-1])
	r.order[0] = top
	r.focused = r.order[n-1]
}

// FocusRaise focuses h and raises it to the front of the stack.
func (r *Registry) FocusRaise(h Handle) {
	if _, ok := r.windows[h]; !ok {
		return
	}
	for i, other := range r.order {
		if other == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			r.order = append(r.order, h)
			break
		}
	}
	r.focused = h
}

// Close requests destruction of the window's surface from the substrate.
// The window stays mapped until the substrate reports the unmap.
func (r *Registry) Close(h Handle) {
	w, ok := r.windows[h]
	if !ok {
		return
	}
	if err := r.closer.CloseSurface(w.Surface); err != nil {
		log.Printf("close request for surface %d failed: %v", w.Surface, err)
	}
}

// SetTitle updates a window title from a substrate event.
func (r *Registry) SetTitle(surface backend.Surface, title string) {
	if h, ok := r.bySurface[surface]; ok {
		r.windows[h].Title = title
	}
}

// HandleForSurface resolves the managed window for a substrate surface.
func (r *Registry) HandleForSurface(surface backend.Surface) (Handle, bool) {
	h, ok := r.bySurface[surface]
	return h, ok
}

// Reflow clamps every window back onto the usable area. Used after an
// output change or device loss so no window is stranded off-screen.
func (r *Registry) Reflow() {
	for _, h := range r.order {
		w := r.windows[h]
		if w.Geometry.Width > r.usable.Width {
			w.Geometry.Width = r.usable.Width
		}
		if w.Geometry.Height > r.usable.Height {
			w.Geometry.Height = r.usable.Height
		}
		if w.Geometry.X+w.Geometry.Width > r.usable.X+r.usable.Width {
			w.Geometry.X = r.usable.X + r.usable.Width - w.Geometry.Width
		}
		if w.Geometry.Y+w.Geometry.Height > r.usable.Y+r.usable.Height {
			w.Geometry.Y = r.usable.Y + r.usable.Height - w.Geometry.Height
		}
		if w.Geometry.X < r.usable.X {
			w.Geometry.X = r.usable.X
		}
		if w.Geometry.Y < r.usable.Y {
			w.Geometry.Y = r.usable.Y
		}
	}
}
