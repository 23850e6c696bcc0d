package session

import (
	"time"

	"github.com/lumenwm/lumen/internal/anim"
	"github.com/lumenwm/lumen/internal/geom"
)

// motion smooths a window's presented geometry toward its registry
// target. One progress value drives all four rect fields, so a window
// never shears mid-flight.
type motion struct {
	h        anim.Handle
	from, to geom.Rect
}

func newMotion(at geom.Rect) *motion {
	return &motion{h: anim.NewHandle(), from: at, to: at}
}

// current returns the interpolated geometry.
func (m *motion) current(engine *anim.Engine) geom.Rect {
	p, ok := engine.Value(m.h)
	if !ok || p >= 1 {
		return m.to
	}
	if p <= 0 {
		return m.from
	}
	lerp := func(a, b int) int {
		return a + int(float64(b-a)*p)
	}
	return geom.Rect{
		X:      lerp(m.from.X, m.to.X),
		Y:      lerp(m.from.Y, m.to.Y),
		Width:  lerp(m.from.Width, m.to.Width),
		Height: lerp(m.from.Height, m.to.Height),
	}
}

// retarget starts a glide from the currently presented geometry to a new
// target. Retargeting mid-flight continues from where the window is.
func (m *motion) retarget(engine *anim.Engine, to geom.Rect, d time.Duration, easing anim.EasingFunc, now time.Time) {
	m.from = m.current(engine)
	m.to = to
	engine.Cancel(m.h)
	engine.Animate(m.h, 0, 1, 0, d, easing, now)
}

// settle pins the motion at the given geometry with no animation.
func (m *motion) settle(engine *anim.Engine, at geom.Rect) {
	engine.Cancel(m.h)
	m.from = at
	m.to = at
}

// freeze stops the glide where it is, used on device loss.
func (m *motion) freeze(engine *anim.Engine) {
	at := m.current(engine)
	engine.CancelAtCurrent(m.h)
	m.from = at
	m.to = at
}
