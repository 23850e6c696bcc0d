// Package overlay implements the command center: a modal palette over
// the scene that fuzzy-searches launchable applications and open windows.
// All animation goes through the session's animation engine so the
// overlay shares the compositor's frame clock.
package overlay

import (
	"time"

	"github.com/lumenwm/lumen/internal/anim"
	"github.com/lumenwm/lumen/internal/apps"
	"github.com/lumenwm/lumen/internal/config"
	"github.com/lumenwm/lumen/internal/diag"
	"github.com/lumenwm/lumen/internal/registry"
)

// Kind separates the two result types.
type Kind int

const (
	KindApp Kind = iota
	KindWindow
)

// Item is one searchable candidate: an application from the catalog or a
// currently mapped window.
type Item struct {
	Kind   Kind
	Label  string
	App    apps.Entry
	Window registry.Handle
}

// Result is a ranked item. index is the item's position in the
// unfiltered list and breaks scoring ties.
type Result struct {
	Item
	Score int
	index int
}

// Controller owns the command center state machine. It is driven
// entirely from the session goroutine.
type Controller struct {
	reg    *registry.Registry
	engine *anim.Engine
	cfg    *config.Config
	diag   *diag.Ring

	// Injection points so tests run without a desktop environment.
	scan   func() []apps.Entry
	launch func(apps.Entry) error

	open    bool
	closing bool
	query   []rune
	items   []Item
	results []Result
	sel     int

	hOpen anim.Handle
	hGlow anim.Handle
	tiles []anim.Handle
}

// New creates a closed command center.
func New(reg *registry.Registry, engine *anim.Engine, cfg *config.Config, ring *diag.Ring) *Controller {
	return &Controller{
		reg:    reg,
		engine: engine,
		cfg:    cfg,
		diag:   ring,
		scan:   apps.Scan,
		launch: apps.Launch,
		hOpen:  anim.NewHandle(),
		hGlow:  anim.NewHandle(),
	}
}

// Opened reports whether the overlay currently captures input.
func (c *Controller) Opened() bool { return c.open }

// Visible reports whether the overlay still needs compositing, which
// outlives Opened while the exit animation plays.
func (c *Controller) Visible() bool { return c.open || c.closing }

// Open snapshots the application catalog and the window list, resets the
// query, and starts the entrance animations.
func (c *Controller) Open(now time.Time) {
	if c.open {
		return
	}
	c.open = true
	c.closing = false
	c.query = c.query[:0]
	c.sel = 0

	c.items = c.items[:0]
	for _, e := range c.scan() {
		c.items = append(c.items, Item{Kind: KindApp, Label: e.Name, App: e})
	}
	for _, w := range c.reg.Windows() {
		label := w.Title
		if label == "" {
			label = "untitled window"
		}
		c.items = append(c.items, Item{Kind: KindWindow, Label: label, Window: w.Handle})
	}

	c.results = rank(c.items, "", c.cfg.FuzzyWeights)

	a := c.cfg.Animations
	c.engine.Animate(c.hOpen, 0, 1, 0, a.OpenDuration(), anim.ByName(a.OvershootEasing), now)
	c.engine.Pulse(c.hGlow, 0.75, 0.25, a.GlowPeriod(), now)
	c.restartTiles(now)
}

// Close starts the exit animation. The entrance (or a previous exit) is
// retargeted from its current value, so rapid toggling never jumps.
func (c *Controller) Close(now time.Time) {
	if !c.open {
		return
	}
	c.open = false
	c.closing = true

	a := c.cfg.Animations
	c.engine.Animate(c.hOpen, 1, 0, 0, a.SnapDuration(), anim.ByName(a.Easing), now)
	for _, h := range c.tiles {
		c.engine.Cancel(h)
	}
	c.tiles = c.tiles[:0]
}

// Tick finalizes a completed exit. Call once per frame after the engine
// advanced.
func (c *Controller) Tick(now time.Time) {
	if c.closing && c.engine.Finished(c.hOpen) {
		c.closing = false
		c.engine.Cancel(c.hGlow)
		c.results = nil
		c.items = nil
	}
}

// Input appends a rune to the query and reranks.
func (c *Controller) Input(r rune, now time.Time) {
	if !c.open {
		return
	}
	c.query = append(c.query, r)
	c.rerank(now)
}

// Backspace removes the last query rune and reranks.
func (c *Controller) Backspace(now time.Time) {
	if !c.open || len(c.query) == 0 {
		return
	}
	c.query = c.query[:len(c.query)-1]
	c.rerank(now)
}

// MoveSelection shifts the highlighted result, clamped to the list.
func (c *Controller) MoveSelection(delta int) {
	if !c.open {
		return
	}
	c.sel += delta
	if c.sel < 0 {
		c.sel = 0
	}
	if n := len(c.results); c.sel >= n && n > 0 {
		c.sel = n - 1
	}
	if len(c.results) == 0 {
		c.sel = 0
	}
}

// Activate launches or focuses the selected result and closes the
// overlay. With no results it does nothing and stays open.
func (c *Controller) Activate(now time.Time) {
	if !c.open || len(c.results) == 0 {
		return
	}
	r := c.results[c.sel]
	switch r.Kind {
	case KindApp:
		if err := c.launch(r.App); err != nil {
			c.diag.Record(diag.Error, "%v", err)
		}
	case KindWindow:
		c.reg.FocusRaise(r.Window)
	}
	c.Close(now)
}

// Query returns the current query text.
func (c *Controller) Query() string { return string(c.query) }

// Results returns the ranked results.
func (c *Controller) Results() []Result { return c.results }

// Selection returns the highlighted result index.
func (c *Controller) Selection() int { return c.sel }

// OpenProgress is the container entrance/exit progress; the overshoot
// easing may push it past 1 briefly.
func (c *Controller) OpenProgress() float64 {
	if v, ok := c.engine.Value(c.hOpen); ok {
		return v
	}
	// The entrance was reclaimed after settling; an open overlay sits at
	// its target until the exit starts.
	if c.open {
		return 1
	}
	return 0
}

// GlowValue is the breathing accent intensity around the search field.
func (c *Controller) GlowValue() float64 {
	v, ok := c.engine.Value(c.hGlow)
	if !ok {
		return 0
	}
	return v
}

// TileProgress is the entrance progress of result tile i. Tiles beyond
// the animated set (or after close) report fully settled.
func (c *Controller) TileProgress(i int) float64 {
	if i < 0 || i >= len(c.tiles) {
		return 1
	}
	v, ok := c.engine.Value(c.tiles[i])
	if !ok {
		return 1
	}
	return v
}

func (c *Controller) rerank(now time.Time) {
	c.results = rank(c.items, string(c.query), c.cfg.FuzzyWeights)
	// Every query edit starts the selection over; the old index points
	// at a different item in the reranked list.
	c.sel = 0
	c.restartTiles(now)
}

// restartTiles plays the staggered entrance over the visible results.
func (c *Controller) restartTiles(now time.Time) {
	for _, h := range c.tiles {
		c.engine.Cancel(h)
	}
	c.tiles = c.tiles[:0]

	a := c.cfg.Animations
	for i := range c.results {
		if i >= maxVisibleTiles {
			break
		}
		h := anim.NewHandle()
		delay := time.Duration(i) * a.StaggerDelay()
		c.engine.Animate(h, 0, 1, delay, a.OpenDuration(), anim.ByName(a.Easing), now)
		c.tiles = append(c.tiles, h)
	}
}
