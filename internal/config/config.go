package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Color is a packed 0xRRGGBB value. In YAML it is written as "#rrggbb".
type Color uint32

// UnmarshalYAML parses "#rrggbb" or "rrggbb" hex notation.
func (c *Color) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseColor(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML renders the color as "#rrggbb".
func (c Color) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// String returns the "#rrggbb" form.
func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c))
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// Palette holds the compositor color scheme.
type Palette struct {
	Background       Color `yaml:"background"`
	BorderFocused    Color `yaml:"border_focused"`
	BorderUnfocused  Color `yaml:"border_unfocused"`
	OverlayBg        Color `yaml:"overlay_bg"`
	OverlayCard      Color `yaml:"overlay_card"`
	OverlaySelected  Color `yaml:"overlay_selected"`
	Accent           Color `yaml:"accent"`
	Glow             Color `yaml:"glow"`
	TextPrimary      Color `yaml:"text_primary"`
	TextSecondary    Color `yaml:"text_secondary"`
	SearchBackground Color `yaml:"search_background"`
}

// Animations configures transition timing. Durations are in milliseconds
// so the config file stays readable; easing names are resolved by the
// animation engine.
type Animations struct {
	OpenDurationMs  int    `yaml:"open_duration_ms"`
	SnapDurationMs  int    `yaml:"snap_duration_ms"`
	StaggerDelayMs  int    `yaml:"stagger_delay_ms"`
	GlowPeriodMs    int    `yaml:"glow_period_ms"`
	Easing          string `yaml:"easing"`
	OvershootEasing string `yaml:"overshoot_easing"`
}

func (a Animations) OpenDuration() time.Duration { return time.Duration(a.OpenDurationMs) * time.Millisecond }
func (a Animations) SnapDuration() time.Duration { return time.Duration(a.SnapDurationMs) * time.Millisecond }
func (a Animations) StaggerDelay() time.Duration { return time.Duration(a.StaggerDelayMs) * time.Millisecond }
func (a Animations) GlowPeriod() time.Duration   { return time.Duration(a.GlowPeriodMs) * time.Millisecond }

// FuzzyWeights are the command-center ranking bonuses. These are tunable
// policy, not contract; see internal/overlay.
type FuzzyWeights struct {
	PrefixBonus      int `yaml:"prefix_bonus"`
	ContiguousBonus  int `yaml:"contiguous_bonus"`
	ScatteredPerChar int `yaml:"scattered_per_char"`
	ConsecutiveBonus int `yaml:"consecutive_bonus"`
}

// Config is the static compositor configuration. It is loaded once at
// startup and never mutated afterwards.
type Config struct {
	// Modifier is the compositor modifier key: "super", "alt" or "ctrl".
	Modifier string `yaml:"modifier"`

	// MoveStep is the pixel increment for mod+ijkl window moves.
	MoveStep int `yaml:"move_step"`

	// ResizeStep is the pixel increment per resize-mode step.
	ResizeStep int `yaml:"resize_step"`

	// MinWindowWidth/MinWindowHeight are the resize floor in pixels.
	MinWindowWidth  int `yaml:"min_window_width"`
	MinWindowHeight int `yaml:"min_window_height"`

	// OuterGap pads snapped windows away from output edges; InnerGap
	// separates two windows snapped to opposite halves.
	OuterGap int `yaml:"outer_gap"`
	InnerGap int `yaml:"inner_gap"`

	BorderWidth int `yaml:"border_width"`

	Animations Animations `yaml:"animations"`
	Colors     Palette    `yaml:"colors"`

	FuzzyWeights FuzzyWeights `yaml:"fuzzy_weights"`
}

// Default returns the builtin configuration.
func Default() *Config {
	return &Config{
		Modifier:        "super",
		MoveStep:        50,
		ResizeStep:      50,
		MinWindowWidth:  100,
		MinWindowHeight: 100,
		OuterGap:        10,
		InnerGap:        10,
		BorderWidth:     2,
		Animations: Animations{
			OpenDurationMs:  200,
			SnapDurationMs:  150,
			StaggerDelayMs:  30,
			GlowPeriodMs:    2000,
			Easing:          "ease-out-cubic",
			OvershootEasing: "ease-out-back",
		},
		Colors: Palette{
			Background:       0x0d0d14,
			BorderFocused:    0x00e5e5,
			BorderUnfocused:  0x4d4d59,
			OverlayBg:        0x14141f,
			OverlayCard:      0x1f1f2e,
			OverlaySelected:  0x00e5e5,
			Accent:           0xff3399,
			Glow:             0x00ffff,
			TextPrimary:      0xffffff,
			TextSecondary:    0xb3b3cc,
			SearchBackground: 0x26263a,
		},
		FuzzyWeights: FuzzyWeights{
			PrefixBonus:      1000,
			ContiguousBonus:  500,
			ScatteredPerChar: 10,
			ConsecutiveBonus: 5,
		},
	}
}

// Validate checks the configuration for values the compositor cannot run
// with. It is called on every load, including the builtin defaults.
func (c *Config) Validate() error {
	switch c.Modifier {
	case "super", "alt", "ctrl":
	default:
		return fmt.Errorf("modifier: unknown key %q (expected super, alt or ctrl)", c.Modifier)
	}
	if c.MoveStep <= 0 {
		return fmt.Errorf("move_step must be positive, got %d", c.MoveStep)
	}
	if c.ResizeStep <= 0 {
		return fmt.Errorf("resize_step must be positive, got %d", c.ResizeStep)
	}
	if c.MinWindowWidth <= 0 || c.MinWindowHeight <= 0 {
		return fmt.Errorf("minimum window dimensions must be positive, got %dx%d",
			c.MinWindowWidth, c.MinWindowHeight)
	}
	if c.OuterGap < 0 || c.InnerGap < 0 {
		return fmt.Errorf("gaps must not be negative, got outer=%d inner=%d", c.OuterGap, c.InnerGap)
	}
	if c.BorderWidth < 0 {
		return fmt.Errorf("border_width must not be negative, got %d", c.BorderWidth)
	}
	if c.Animations.OpenDurationMs <= 0 || c.Animations.SnapDurationMs <= 0 {
		return fmt.Errorf("animation durations must be positive")
	}
	if c.Animations.StaggerDelayMs < 0 {
		return fmt.Errorf("stagger_delay_ms must not be negative, got %d", c.Animations.StaggerDelayMs)
	}
	if c.Animations.GlowPeriodMs <= 0 {
		return fmt.Errorf("glow_period_ms must be positive, got %d", c.Animations.GlowPeriodMs)
	}
	if w := c.FuzzyWeights; w.PrefixBonus < w.ContiguousBonus {
		return fmt.Errorf("fuzzy_weights: prefix_bonus (%d) must not rank below contiguous_bonus (%d)",
			w.PrefixBonus, w.ContiguousBonus)
	}
	return nil
}
