// Package session runs the compositor's single control loop. All scene
// state, the window registry, the input mode machine, the animation
// engine, lives on this goroutine; backends and the control socket
// marshal into it through channels. One iteration handles pending
// events, advances animations on the frame clock, composes, and
// presents.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lumenwm/lumen/internal/anim"
	"github.com/lumenwm/lumen/internal/backend"
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/diag"
	"github.com/lumenwm/lumen/internal/geom"
	"github.com/lumenwm/lumen/internal/input"
	"github.com/lumenwm/lumen/internal/overlay"
	"github.com/lumenwm/lumen/internal/registry"
	"github.com/lumenwm/lumen/internal/render"
)

// initRetries and initBackoff govern backend bring-up: a refused
// connection is retried before giving up.
const (
	initRetries = 3
	initBackoff = 500 * time.Millisecond
)

// Session owns the compositor state machine.
type Session struct {
	cfg         *config.Config
	backendName string
	backend     backend.Backend

	reg        *registry.Registry
	engine     *anim.Engine
	dispatcher *input.Dispatcher
	center     *overlay.Controller
	composer   *render.Composer
	ring       *diag.Ring

	events  chan backend.Event
	control chan func()
	quit    chan struct{}
	stopped chan struct{}

	outputs []backend.Output
	primary backend.Output

	motions   map[registry.Handle]*motion
	focusGlow anim.Handle
}

// New wires a session around a backend. Run does the rest.
func New(cfg *config.Config, b backend.Backend, backendName string) *Session {
	s := &Session{
		cfg:         cfg,
		backendName: backendName,
		backend:     b,
		engine:      anim.NewEngine(),
		ring:        diag.NewRing(0),
		events:      make(chan backend.Event, 256),
		control:     make(chan func()),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		motions:     make(map[registry.Handle]*motion),
		focusGlow:   anim.NewHandle(),
	}
	s.reg = registry.New(b, registry.Limits{
		MinWidth:  cfg.MinWindowWidth,
		MinHeight: cfg.MinWindowHeight,
		OuterGap:  cfg.OuterGap,
		InnerGap:  cfg.InnerGap,
	})
	s.center = overlay.New(s.reg, s.engine, cfg, s.ring)
	s.dispatcher = input.NewDispatcher(s.reg, s.center, cfg, s.Quit)
	s.composer = render.NewComposer(cfg)
	return s
}

// Quit asks the loop to shut down. Safe to call more than once and from
// any goroutine.
func (s *Session) Quit() {
	select {
	case <-s.quit:
	default:
		close(s.quit)
	}
}

// Run drives the loop until the context is canceled, Quit is called, or
// the backend is lost beyond recovery.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.stopped)
	defer s.backend.Shutdown()

	if err := s.initBackend(); err != nil {
		return err
	}

	now := time.Now()
	s.engine.Pulse(s.focusGlow, 0.35, 0.35, s.cfg.Animations.GlowPeriod(), now)

	ticker := time.NewTicker(s.framePeriod())
	defer ticker.Stop()

	log.Printf("session running on %s backend, output %s (%dx%d)",
		s.backendName, s.primary.Name, s.primary.Bounds.Width, s.primary.Bounds.Height)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.quit:
			return nil
		case fn := <-s.control:
			fn()
		case ev := <-s.events:
			if err := s.handleEvent(ev, time.Now()); err != nil {
				return err
			}
		case t := <-ticker.C:
			if err := s.drainEvents(t); err != nil {
				return err
			}
			s.tick(t)
		}
	}
}

// initBackend brings the substrate up, retrying transient failures.
func (s *Session) initBackend() error {
	var lastErr error
	for attempt := 0; attempt < initRetries; attempt++ {
		if attempt > 0 {
			log.Printf("backend init retry %d/%d: %v", attempt, initRetries-1, lastErr)
			time.Sleep(initBackoff << (attempt - 1))
		}
		outputs, err := s.backend.Init(s.events)
		if err == nil {
			s.adoptOutputs(outputs)
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("backend failed to initialize: %w", lastErr)
}

// adoptOutputs records the output set and points the registry at the
// primary (first connected) output.
func (s *Session) adoptOutputs(outputs []backend.Output) {
	s.outputs = outputs
	for _, o := range outputs {
		if o.Connected {
			s.primary = o
			break
		}
	}
	if s.primary.Name == "" && len(outputs) > 0 {
		s.primary = outputs[0]
	}
	s.reg.SetOutput(s.primary.Bounds)
}

func (s *Session) framePeriod() time.Duration {
	hz := s.primary.RefreshHz
	if hz <= 0 {
		hz = 60
	}
	return time.Duration(float64(time.Second) / hz)
}

func (s *Session) handleEvent(ev backend.Event, now time.Time) error {
	switch e := ev.(type) {
	case backend.SurfaceMapped:
		h, err := s.reg.Map(e.Surface, e.Title, e.Size)
		if err != nil {
			s.ring.Record(diag.Error, "%v", err)
			return nil
		}
		if w, ok := s.reg.Get(h); ok {
			// New windows grow out of their final position.
			m := newMotion(w.Geometry)
			m.from = render.ScaleRect(w.Geometry, 0.85)
			m.to = w.Geometry
			s.engine.Animate(m.h, 0, 1, 0, s.cfg.Animations.OpenDuration(),
				anim.ByName(s.cfg.Animations.OvershootEasing), now)
			s.motions[h] = m
		}

	case backend.SurfaceUnmapped:
		h, err := s.reg.UnmapSurface(e.Surface)
		if err != nil {
			s.ring.Record(diag.Warning, "%v", err)
			return nil
		}
		if m, ok := s.motions[h]; ok {
			s.engine.Cancel(m.h)
			delete(s.motions, h)
		}

	case backend.SurfaceTitleChanged:
		s.reg.SetTitle(e.Surface, e.Title)

	case backend.Key:
		s.dispatcher.Dispatch(e, now)

	case backend.PointerButton:
		if e.Pressed {
			s.focusAt(e.Pos)
		}

	case backend.PointerMotion:
		// Focus follows clicks, not hover.

	case backend.OutputChanged:
		s.handleOutputChanged(e.Output)

	case backend.InputDeviceChanged:
		verb := "removed"
		if e.Added {
			verb = "added"
		}
		s.ring.Record(diag.Info, "input device %s: %s", verb, e.Path)

	case backend.DeviceLost:
		return s.handleDeviceLost(e.Err, now)
	}
	return nil
}

// focusAt raises the topmost window under the pointer.
func (s *Session) focusAt(p geom.Point) {
	windows := s.reg.Windows()
	for i := len(windows) - 1; i >= 0; i-- {
		if windows[i].Geometry.Contains(p) {
			s.reg.FocusRaise(windows[i].Handle)
			return
		}
	}
}

func (s *Session) handleOutputChanged(o backend.Output) {
	s.ring.Record(diag.Info, "output %s: connected=%v %dx%d",
		o.Name, o.Connected, o.Bounds.Width, o.Bounds.Height)

	replaced := false
	for i := range s.outputs {
		if s.outputs[i].Name == o.Name {
			s.outputs[i] = o
			replaced = true
			break
		}
	}
	if !replaced {
		s.outputs = append(s.outputs, o)
	}

	if o.Name == s.primary.Name && !o.Connected {
		// The primary went away; move the scene to the next output.
		s.adoptOutputs(s.outputs)
		s.reg.Reflow()
	} else if o.Name == s.primary.Name {
		s.primary = o
		s.reg.SetOutput(o.Bounds)
		s.reg.Reflow()
	}
}

// handleDeviceLost freezes all in-flight values where they are, resets
// modal input state, and tries to reinitialize the backend. Windows and
// focus survive; only the substrate is rebuilt.
func (s *Session) handleDeviceLost(err error, now time.Time) error {
	s.ring.Record(diag.Error, "device lost: %v", err)

	for _, m := range s.motions {
		m.freeze(s.engine)
	}
	s.dispatcher.Reset(now)
	s.engine.CancelAtCurrent(s.focusGlow)

	s.backend.Shutdown()
	if err := s.initBackend(); err != nil {
		return fmt.Errorf("backend did not come back: %w", err)
	}
	s.reg.Reflow()
	s.engine.Pulse(s.focusGlow, 0.35, 0.35, s.cfg.Animations.GlowPeriod(), time.Now())
	s.ring.Record(diag.Info, "backend reinitialized on %s", s.primary.Name)
	return nil
}

// drainEvents applies everything already queued so the frame about to
// be composed reflects all input that preceded the tick. The select in
// Run treats events and the ticker as peers, so without this a tick
// could present ahead of input that arrived first. Bounded by the
// channel capacity; anything newer waits for the next iteration.
func (s *Session) drainEvents(now time.Time) error {
	for i := 0; i < cap(s.events); i++ {
		select {
		case ev := <-s.events:
			if err := s.handleEvent(ev, now); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

// tick is one frame: advance the clock, settle finished overlay state,
// glide windows toward their targets, compose, present.
func (s *Session) tick(now time.Time) {
	s.engine.Advance(now)
	s.center.Tick(now)
	s.updateMotions(now)

	frame := s.compose(now)
	if err := s.backend.Present(s.primary.Name, frame); err != nil {
		if errors.Is(err, backend.ErrDeviceLost) {
			if lostErr := s.handleDeviceLost(err, now); lostErr != nil {
				s.Quit()
			}
			return
		}
		s.ring.Record(diag.Warning, "present failed: %v", err)
	}
}

// updateMotions retargets glides for windows whose registry geometry
// moved since the last frame. Interactive resizes track the hand and
// are applied without smoothing.
func (s *Session) updateMotions(now time.Time) {
	a := s.cfg.Animations
	for _, w := range s.reg.Windows() {
		m, ok := s.motions[w.Handle]
		if !ok {
			m = newMotion(w.Geometry)
			s.motions[w.Handle] = m
		}
		if m.to == w.Geometry {
			continue
		}
		if w.Resize.Active {
			m.settle(s.engine, w.Geometry)
			continue
		}
		m.retarget(s.engine, w.Geometry, a.SnapDuration(), anim.ByName(a.Easing), now)
	}
}

func (s *Session) compose(now time.Time) *render.Frame {
	windows := s.reg.Windows()
	focused := s.reg.Focused()
	glow, _ := s.engine.Value(s.focusGlow)

	infos := make([]render.WindowInfo, 0, len(windows))
	for _, w := range windows {
		info := render.WindowInfo{
			Rect:  w.Geometry,
			Title: w.Title,
		}
		if m, ok := s.motions[w.Handle]; ok {
			info.Rect = m.current(s.engine)
		}
		if focused != nil && focused.Handle == w.Handle {
			info.Focused = true
			info.Glow = glow
		}
		infos = append(infos, info)
	}

	frame := s.composer.Compose(s.primary.Bounds, infos)
	s.center.Compose(frame, s.primary.Bounds, now)
	return frame
}

// Exec runs fn on the session loop and waits for it. It is the bridge
// the control socket and MCP surface use to touch compositor state.
func (s *Session) Exec(fn func()) error {
	done := make(chan struct{})
	select {
	case s.control <- func() { fn(); close(done) }:
	case <-s.stopped:
		return errors.New("session is not running")
	}
	select {
	case <-done:
		return nil
	case <-s.stopped:
		return errors.New("session stopped before the command ran")
	}
}

// Registry exposes the window registry. Only touch it inside Exec.
func (s *Session) Registry() *registry.Registry { return s.reg }

// Outputs returns the current outputs. Only call it inside Exec.
func (s *Session) Outputs() []backend.Output { return s.outputs }

// BackendName reports which backend the session runs on.
func (s *Session) BackendName() string { return s.backendName }

// InputMode reports the dispatcher mode. Only call it inside Exec.
func (s *Session) InputMode() string { return s.dispatcher.Mode().String() }

// OverlayOpen reports whether the command center captures input. Only
// call it inside Exec.
func (s *Session) OverlayOpen() bool { return s.center.Opened() }

// Diagnostics returns the diagnostic ring, which is safe to read from
// any goroutine.
func (s *Session) Diagnostics() *diag.Ring { return s.ring }
