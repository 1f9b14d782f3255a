/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package gesture turns pointer input into ink strokes and region captures.
//
// Three gesture families share one contact: draw-pan and long-press are
// enabled while the tool draws and observe the same input concurrently;
// region-select-pan is enabled only in region-select mode. Geometry is
// accumulated inline on the caller's goroutine. Everything that touches
// application state (history commits, tool switches, capture requests) is
// posted to an Executor so input handling never waits on it.
package gesture

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"inknote/internal/ink"
	applog "inknote/internal/log"
	"inknote/internal/tool"
	"inknote/internal/vector"
)

// Executor runs state changes off the input track, in post order.
type Executor interface {
	Post(fn func()) bool
}

// Committer receives finished strokes.
type Committer interface {
	Commit(s ink.Stroke)
}

// CaptureSink receives finalized selection rectangles.
type CaptureSink interface {
	Submit(r vector.Rect)
}

// Config holds arbiter thresholds.
type Config struct {
	// MinSelection is the size both sides of a selection must exceed.
	MinSelection float32
}

func DefaultConfig() Config { return Config{MinSelection: 2} }

// drawGesture is the state of the draw family between begin and end.
type drawGesture struct {
	active bool
	// params are snapshotted at begin so mode changes mid-gesture do not
	// reach the stroke in flight.
	params tool.Params
	// longPress is the one-shot auto-revert flag.
	longPress bool
}

type regionGesture struct {
	active bool
	anchor vector.Pt
}

// Arbiter routes family lifecycle events to the path builder, the
// selection and, on end, to history or region capture.
type Arbiter struct {
	cfg      Config
	tools    *tool.State
	builder  *ink.Builder
	sel      *Selection
	exec     Executor
	history  Committer
	captures CaptureSink
	log      *slog.Logger

	mu     sync.Mutex
	draw   drawGesture
	region regionGesture
	// inflight mirrors draw.params for readers that must not take mu, such
	// as renderer hooks fired while mu is held.
	inflight atomic.Pointer[tool.Params]
}

// NewArbiter wires the arbiter. The tool state is owned by the caller and
// shared with the UI; the arbiter reads it at gesture begin and writes it
// only for the long-press switch and its revert.
func NewArbiter(cfg Config, tools *tool.State, builder *ink.Builder, exec Executor, history Committer, captures CaptureSink) *Arbiter {
	if cfg.MinSelection < 0 {
		cfg.MinSelection = 0
	}
	return &Arbiter{
		cfg:      cfg,
		tools:    tools,
		builder:  builder,
		sel:      &Selection{},
		exec:     exec,
		history:  history,
		captures: captures,
		log:      applog.WithComponent("gesture"),
	}
}

// Selection exposes the region rectangle for rendering.
func (a *Arbiter) Selection() *Selection { return a.sel }

// DrawEnabled reports whether the draw-pan and long-press families accept
// new gestures.
func (a *Arbiter) DrawEnabled() bool { return a.tools.Mode().Draws() }

// RegionEnabled reports whether the region-select family accepts gestures.
func (a *Arbiter) RegionEnabled() bool { return a.tools.Mode() == tool.RegionSelect }

// InFlight returns the parameters of the stroke being drawn, if any.
func (a *Arbiter) InFlight() (tool.Params, bool) {
	p := a.inflight.Load()
	if p == nil {
		return tool.Params{}, false
	}
	return *p, true
}

// DrawBegan starts a stroke at p.
func (a *Arbiter) DrawBegan(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draw.active {
		// A long-press already seeded this contact: keep its eraser
		// parameters and continue from where the pan was recognized.
		if a.draw.longPress {
			a.builder.Extend(p)
		}
		return
	}
	if !a.DrawEnabled() {
		return
	}
	a.draw = drawGesture{active: true, params: a.tools.Params()}
	a.publishLocked()
	a.builder.Begin(p)
	a.log.Debug("draw began", slog.Float64("x", float64(p.X)), slog.Float64("y", float64(p.Y)), slog.Bool("eraser", a.draw.params.Eraser()))
}

// DrawMoved extends the stroke in progress.
func (a *Arbiter) DrawMoved(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.draw.active {
		return
	}
	a.builder.Extend(p)
}

// DrawEnded commits the stroke in progress. Lifting always commits, a tap
// without movement yields a dot. After a long-press the tool reverts to Pen.
func (a *Arbiter) DrawEnded() {
	a.mu.Lock()
	if !a.draw.active {
		a.mu.Unlock()
		return
	}
	g := a.draw
	a.draw = drawGesture{}
	a.publishLocked()
	path := a.builder.SnapshotAndReset()
	a.mu.Unlock()

	if !path.Empty() {
		s := ink.NewStroke(path, g.params)
		a.exec.Post(func() { a.history.Commit(s) })
		a.log.Debug("draw ended", slog.Int("cmds", path.Len()), slog.Bool("eraser", s.Eraser()))
	}
	if g.longPress {
		a.exec.Post(func() { a.tools.Select(tool.Pen) })
	}
}

// LongPressed switches the contact to erasing at p. The concurrently
// running draw-pan is not cancelled; its end commits the erase stroke.
func (a *Arbiter) LongPressed(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.draw.active && !a.DrawEnabled() {
		return
	}
	a.draw = drawGesture{
		active:    true,
		params:    a.tools.ParamsFor(tool.Eraser),
		longPress: true,
	}
	a.publishLocked()
	a.builder.Begin(p)
	a.exec.Post(func() { a.tools.Select(tool.Eraser) })
	a.log.Debug("long press", slog.Float64("x", float64(p.X)), slog.Float64("y", float64(p.Y)))
}

func (a *Arbiter) publishLocked() {
	if !a.draw.active {
		a.inflight.Store(nil)
		return
	}
	p := a.draw.params
	a.inflight.Store(&p)
}

// RegionBegan anchors a zero-size visible selection at p.
func (a *Arbiter) RegionBegan(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.RegionEnabled() {
		return
	}
	a.region = regionGesture{active: true, anchor: p}
	a.sel.show(vector.Span(p, p))
}

// RegionMoved stretches the selection to the box spanned by anchor and p.
func (a *Arbiter) RegionMoved(p vector.Pt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.region.active {
		return
	}
	a.sel.show(vector.Span(a.region.anchor, p))
}

// RegionEnded hides the selection and hands it to region capture when both
// sides exceed the minimum size. Smaller rectangles are dropped silently.
func (a *Arbiter) RegionEnded() {
	a.mu.Lock()
	if !a.region.active {
		a.mu.Unlock()
		return
	}
	a.region = regionGesture{}
	r := a.sel.hide()
	a.mu.Unlock()

	if r.W <= a.cfg.MinSelection || r.H <= a.cfg.MinSelection {
		a.log.Debug("selection below threshold", slog.Float64("w", float64(r.W)), slog.Float64("h", float64(r.H)))
		return
	}
	a.exec.Post(func() { a.captures.Submit(r) })
}
