/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package board wires the ink canvas together: tool state, stroke history,
// gesture recognition, the state track and region capture. It is the one
// surface the desktop UI and the headless replay talk to.
package board

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"inknote/internal/capture"
	"inknote/internal/dispatch"
	"inknote/internal/export"
	"inknote/internal/gesture"
	"inknote/internal/history"
	"inknote/internal/ink"
	applog "inknote/internal/log"
	"inknote/internal/render"
	"inknote/internal/telemetry"
	"inknote/internal/tool"
	"inknote/internal/vector"
)

// Change says which part of the board changed.
type Change uint8

const (
	ChangedStrokes Change = 1 << iota
	ChangedInFlight
	ChangedSelection
	ChangedTool
	ChangedCapture
)

// Options configures a Board.
type Options struct {
	Style        tool.Style
	Gesture      gesture.Config
	Recognizer   gesture.RecognizerConfig
	HistoryDepth int
	// Clock drives the long-press timer; the system clock when nil.
	Clock    gesture.Clock
	Analyzer capture.Analyzer
	// Recorder is told about every finished capture, e.g. the journal.
	Recorder  capture.Recorder
	Telemetry *telemetry.Client
}

// DefaultOptions uses the default style and thresholds. Analyzer must
// still be set.
func DefaultOptions() Options {
	return Options{
		Style:      tool.DefaultStyle(),
		Gesture:    gesture.DefaultConfig(),
		Recognizer: gesture.DefaultRecognizerConfig(),
	}
}

// Board is safe for concurrent use. Pointer events are expected from a
// single input goroutine.
type Board struct {
	opt     Options
	log     *slog.Logger
	clock   gesture.Clock
	tools   *tool.State
	hist    *history.History
	builder *ink.Builder
	loop    *dispatch.Loop
	arb     *gesture.Arbiter
	recog   *gesture.Recognizer
	caps    *capture.Service

	mu        sync.Mutex
	listeners []func(Change)
}

func New(opt Options) *Board {
	if opt.Clock == nil {
		opt.Clock = gesture.SystemClock
	}
	b := &Board{
		opt:     opt,
		log:     applog.WithComponent("board"),
		clock:   opt.Clock,
		tools:   tool.NewState(opt.Style),
		hist:    history.New(history.Config{MaxDepth: opt.HistoryDepth}),
		builder: ink.NewBuilder(),
		loop:    dispatch.New(),
	}
	b.caps = capture.New(b.hist, opt.Analyzer, capture.Options{
		Background: opt.Style.Background,
		Recorder:   capture.RecorderFunc(b.record),
		Now:        opt.Clock.Now,
	})
	b.arb = gesture.NewArbiter(opt.Gesture, b.tools, b.builder, b.loop, committer{b}, b.caps)
	b.recog = gesture.NewRecognizer(b.arb, opt.Clock, opt.Recognizer)

	b.tools.OnChange(func(m tool.Mode) {
		b.log.Debug("tool changed", slog.String("mode", m.String()))
		b.notify(ChangedTool)
	})
	b.hist.OnChange(func(history.Stats) { b.notify(ChangedStrokes) })
	b.builder.OnChange(func() { b.notify(ChangedInFlight) })
	b.arb.Selection().OnChange(func(vector.Rect, bool) { b.notify(ChangedSelection) })
	b.caps.OnChange(func(capture.Result, bool) { b.notify(ChangedCapture) })
	return b
}

// committer routes arbiter commits through the board so they are counted.
type committer struct{ b *Board }

func (c committer) Commit(s ink.Stroke) {
	c.b.hist.Commit(s)
	c.b.opt.Telemetry.StrokeCommitted(s.Eraser(), s.Len())
}

func (b *Board) record(ctx context.Context, r capture.Result) error {
	b.opt.Telemetry.CaptureFinished(r.Status.String(), r.Superseded, r.Finished.Sub(r.Started))
	if b.opt.Recorder == nil {
		return nil
	}
	return b.opt.Recorder.Record(ctx, r)
}

// OnChange subscribes fn. Listeners run on whichever goroutine made the
// change and must not block.
func (b *Board) OnChange(fn func(Change)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

func (b *Board) notify(c Change) {
	b.mu.Lock()
	ls := append([]func(Change){}, b.listeners...)
	b.mu.Unlock()
	for _, fn := range ls {
		fn(c)
	}
}

// call runs fn on the state track and waits for it, keeping it ordered
// after commits and tool reverts already posted by gestures.
func (b *Board) call(fn func()) {
	done := make(chan struct{})
	if !b.loop.Post(func() { fn(); close(done) }) {
		return
	}
	<-done
}

// SelectTool switches the active tool.
func (b *Board) SelectTool(m tool.Mode) { b.call(func() { b.tools.Select(m) }) }

// Tool returns the active tool.
func (b *Board) Tool() tool.Mode { return b.tools.Mode() }

// Style returns the configured widths and colors.
func (b *Board) Style() tool.Style { return b.opt.Style }

// Undo removes the most recent stroke. It reports whether anything changed.
func (b *Board) Undo() (ok bool) {
	b.call(func() { ok = b.hist.Undo() })
	return ok
}

// Redo restores the most recently undone stroke.
func (b *Board) Redo() (ok bool) {
	b.call(func() { ok = b.hist.Redo() })
	return ok
}

// Clear drops all strokes and the redo buffer.
func (b *Board) Clear() (ok bool) {
	b.call(func() { ok = b.hist.Clear() })
	return ok
}

// CanUndo drives the enablement of the undo control.
func (b *Board) CanUndo() bool { return b.hist.CanUndo() }

// CanRedo drives the enablement of the redo control.
func (b *Board) CanRedo() bool { return b.hist.CanRedo() }

// Strokes returns the committed strokes in paint order.
func (b *Board) Strokes() []ink.Stroke { return b.hist.Strokes() }

// PointerDown, PointerMove and PointerUp feed raw input in canvas space.
func (b *Board) PointerDown(p vector.Pt) { b.recog.Down(p) }
func (b *Board) PointerMove(p vector.Pt) { b.recog.Move(p) }
func (b *Board) PointerUp(p vector.Pt)   { b.recog.Up(p) }

// PointerCancel ends the contact without a final position.
func (b *Board) PointerCancel() { b.recog.Cancel() }

// Advance moves a manual gesture clock. It does nothing on the system clock.
func (b *Board) Advance(d time.Duration) {
	if mc, ok := b.clock.(*gesture.ManualClock); ok {
		mc.Advance(d)
	}
}

// FireLongPress advances a manual clock past the hold threshold.
func (b *Board) FireLongPress() { b.Advance(b.opt.Recognizer.LongPress) }

// Capture returns the visible capture result.
func (b *Board) Capture() (capture.Result, bool) { return b.caps.Current() }

// DismissCapture hides the capture result panel.
func (b *Board) DismissCapture() { b.caps.Dismiss() }

// Scene snapshots everything the canvas shows.
func (b *Board) Scene() render.Scene {
	sel, visible := b.arb.Selection().Get()
	s := render.Scene{
		Strokes:          b.hist.Strokes(),
		SelectionVisible: visible,
		Selection:        sel,
	}
	if p, ok := b.arb.InFlight(); ok {
		s.Drawing = true
		s.InFlight = b.builder.Current()
		s.InFlightPen = render.Pen{Width: p.Width, Color: p.Color, Blend: p.Blend, Cap: vector.CapRound, Join: vector.JoinRound}
	}
	return s
}

// Render paints the scene into a w by h image.
func (b *Board) Render(w, h int) *image.RGBA { return b.Scene().Paint(w, h, b.opt.Style.Background) }

// Bounds is the area covered by committed ink.
func (b *Board) Bounds() (vector.Rect, bool) {
	var (
		out   vector.Rect
		found bool
	)
	for _, s := range b.hist.Strokes() {
		r, ok := s.InkBounds()
		if !ok {
			continue
		}
		if !found {
			out, found = r, true
			continue
		}
		out = out.Union(r)
	}
	return out, found
}

// Autosave writes the inked area as a PNG into dir.
func (b *Board) Autosave(dir string) (string, error) {
	r, ok := b.Bounds()
	if !ok {
		r = vector.R(0, 0, 1, 1)
	}
	img := render.Region(b.hist.Strokes(), r, b.opt.Style.Background)
	path := filepath.Join(dir, "inknote-autosave-"+time.Now().Format("20060102-150405")+".png")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return path, export.WriteImage(img, path)
}

// Sync waits until every state change posted so far has been applied.
func (b *Board) Sync(ctx context.Context) error { return b.loop.Sync(ctx) }

// WaitCaptures waits for pending state changes and every capture in flight.
func (b *Board) WaitCaptures(ctx context.Context) error {
	if err := b.Sync(ctx); err != nil {
		return err
	}
	b.caps.Wait()
	return nil
}

// Close stops the state track and aborts exports in flight.
func (b *Board) Close() {
	b.loop.Close()
	b.caps.Close()
}
