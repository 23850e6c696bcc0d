package anim

// EasingFunc maps normalized time progress (0-1) to value progress (0-1).
type EasingFunc func(t float64) float64

// Common easing functions.
var (
	// Linear - constant speed.
	Linear EasingFunc = func(t float64) float64 { return t }

	// EaseInQuad - accelerate from zero.
	EaseInQuad EasingFunc = func(t float64) float64 { return t * t }

	// EaseOutQuad - decelerate to zero.
	EaseOutQuad EasingFunc = func(t float64) float64 { return t * (2 - t) }

	// EaseInOutQuad - accelerate then decelerate.
	EaseInOutQuad EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	}

	// EaseOutCubic - smooth deceleration, the default for UI transitions.
	EaseOutCubic EasingFunc = func(t float64) float64 {
		t--
		return t*t*t + 1
	}

	// EaseInOutCubic - smooth acceleration and deceleration.
	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return (t-1)*(2*t-2)*(2*t-2) + 1
	}

	// EaseOutBack - slight overshoot then settle.
	EaseOutBack EasingFunc = func(t float64) float64 {
		c1 := 1.70158
		c3 := c1 + 1
		return 1 + c3*(t-1)*(t-1)*(t-1) + c1*(t-1)*(t-1)
	}
)

// ByName resolves a config easing name. Unknown names fall back to
// EaseOutCubic so a typo in the config degrades gracefully.
func ByName(name string) EasingFunc {
	switch name {
	case "linear":
		return Linear
	case "ease-in-quad":
		return EaseInQuad
	case "ease-out-quad":
		return EaseOutQuad
	case "ease-in-out-quad":
		return EaseInOutQuad
	case "ease-out-cubic":
		return EaseOutCubic
	case "ease-in-out-cubic":
		return EaseInOutCubic
	case "ease-out-back":
		return EaseOutBack
	default:
		return EaseOutCubic
	}
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
