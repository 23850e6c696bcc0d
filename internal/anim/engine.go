// Package anim is the frame-clocked property interpolation engine. Every
// animated scalar (window position during a snap, overlay opacity, glow
// intensity) is a Value owned by the engine and advanced once per frame
// tick with an explicit clock, which keeps the whole engine deterministic
// under test.
package anim

import (
	"math"
	"sync/atomic"
	"time"
)

// Handle identifies one animated property.
type Handle uint64

var nextHandle atomic.Uint64

// NewHandle allocates a fresh property handle.
func NewHandle() Handle {
	return Handle(nextHandle.Add(1))
}

type valueKind int

const (
	kindOneShot valueKind = iota
	kindPulse
)

// value is one animated property. One-shot values interpolate from->to
// over a fixed duration; pulse values oscillate around a base forever.
type value struct {
	kind valueKind

	from     float64
	to       float64
	start    time.Time
	duration time.Duration
	easing   EasingFunc

	// pulse parameters
	base      float64
	amplitude float64
	period    time.Duration

	cur    float64
	done   bool
	doneAt time.Time
}

// Engine owns the active set of animated values. It is not safe for
// concurrent use; the session loop is its only caller.
type Engine struct {
	values map[Handle]*value
}

// NewEngine creates an empty animation engine.
func NewEngine() *Engine {
	return &Engine{values: make(map[Handle]*value)}
}

// Animate starts a one-shot interpolation on h. If h already has a value
// in flight, the animation restarts from the current interpolated value
// instead of the given from, so retargeting never snaps.
func (e *Engine) Animate(h Handle, from, to float64, delay, duration time.Duration, easing EasingFunc, now time.Time) {
	if easing == nil {
		easing = EaseOutCubic
	}
	if existing, ok := e.values[h]; ok && !existing.done {
		from = existing.cur
	}
	e.values[h] = &value{
		kind:     kindOneShot,
		from:     from,
		to:       to,
		start:    now.Add(delay),
		duration: duration,
		easing:   easing,
		cur:      from,
	}
}

// Pulse starts a continuous oscillation on h: base + amplitude*sin. Pulse
// values have no terminal duration and are never reclaimed until canceled.
func (e *Engine) Pulse(h Handle, base, amplitude float64, period time.Duration, now time.Time) {
	e.values[h] = &value{
		kind:      kindPulse,
		base:      base,
		amplitude: amplitude,
		period:    period,
		start:     now,
		cur:       base,
	}
}

// Cancel removes h from the active set immediately.
func (e *Engine) Cancel(h Handle) {
	delete(e.values, h)
}

// CancelAtCurrent removes h and returns the value it held at the moment of
// cancellation. Used when a device disappears mid-animation: the property
// freezes where it was rather than jumping to the target.
func (e *Engine) CancelAtCurrent(h Handle) (float64, bool) {
	v, ok := e.values[h]
	if !ok {
		return 0, false
	}
	delete(e.values, h)
	return v.cur, true
}

// Value returns the current interpolated value of h.
func (e *Engine) Value(h Handle) (float64, bool) {
	v, ok := e.values[h]
	if !ok {
		return 0, false
	}
	return v.cur, true
}

// Finished reports whether h has reached its target. Pulses never finish.
func (e *Engine) Finished(h Handle) bool {
	v, ok := e.values[h]
	if !ok {
		return true
	}
	return v.done
}

// Active returns the number of values in the active set.
func (e *Engine) Active() int {
	return len(e.values)
}

// Advance moves every value to its interpolation at now. Values are pure
// functions of the clock, so advancing twice within the same tick yields
// identical results. One-shot values that finished on an earlier tick are
// reclaimed here, keeping the active set bounded.
func (e *Engine) Advance(now time.Time) {
	for h, v := range e.values {
		switch v.kind {
		case kindPulse:
			elapsed := now.Sub(v.start).Seconds()
			phase := 2 * math.Pi * elapsed / v.period.Seconds()
			v.cur = v.base + v.amplitude*math.Sin(phase)

		case kindOneShot:
			if v.done {
				// Finished on a previous tick; reclaim.
				if now.After(v.doneAt) {
					delete(e.values, h)
				}
				continue
			}
			var t float64
			if v.duration <= 0 {
				t = 1
			} else {
				t = clamp01(float64(now.Sub(v.start)) / float64(v.duration))
			}
			v.cur = lerp(v.from, v.to, v.easing(t))
			if t >= 1 {
				v.cur = v.to
				v.done = true
				v.doneAt = now
			}
		}
	}
}
