/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"testing"
	"time"

	"inknote/internal/ink"
	"inknote/internal/tool"
	"inknote/internal/vector"
)

// inline runs posted work immediately so assertions need no barrier.
type inline struct{}

func (inline) Post(fn func()) bool { fn(); return true }

type strokes struct{ got []ink.Stroke }

func (s *strokes) Commit(st ink.Stroke) { s.got = append(s.got, st) }

type captures struct{ got []vector.Rect }

func (c *captures) Submit(r vector.Rect) { c.got = append(c.got, r) }

type fixture struct {
	tools *tool.State
	arb   *Arbiter
	hist  *strokes
	caps  *captures
}

func newFixture() *fixture {
	f := &fixture{tools: tool.NewState(tool.DefaultStyle()), hist: &strokes{}, caps: &captures{}}
	f.arb = NewArbiter(DefaultConfig(), f.tools, ink.NewBuilder(), inline{}, f.hist, f.caps)
	return f
}

func pt(x, y float32) vector.Pt { return vector.Pt{X: x, Y: y} }

func TestTapCommitsDot(t *testing.T) {
	f := newFixture()
	f.arb.DrawBegan(pt(20, 20))
	f.arb.DrawEnded()
	if len(f.hist.got) != 1 {
		t.Fatalf("expected one stroke, got %d", len(f.hist.got))
	}
	b, ok := f.hist.got[0].Bounds()
	if !ok || b.W <= 0 || b.H <= 0 || b.W > 0.1 || b.H > 0.1 {
		t.Fatalf("expected negligible dot bounds, got %+v", b)
	}
	if f.hist.got[0].Eraser() {
		t.Fatalf("tap in pen mode must not erase")
	}
}

func TestLongPressMidPanErasesAndReverts(t *testing.T) {
	f := newFixture()
	f.arb.DrawBegan(pt(10, 10))
	f.arb.DrawMoved(pt(12, 11))
	f.arb.LongPressed(pt(12, 11))
	if f.tools.Mode() != tool.Eraser {
		t.Fatalf("long press should force eraser, got %v", f.tools.Mode())
	}
	f.arb.DrawMoved(pt(40, 40))
	f.arb.DrawEnded()
	if len(f.hist.got) != 1 || !f.hist.got[0].Eraser() {
		t.Fatalf("expected one eraser stroke, got %d", len(f.hist.got))
	}
	if f.hist.got[0].Blend() != vector.BlendClear {
		t.Fatalf("expected destructive blend")
	}
	if f.tools.Mode() != tool.Pen {
		t.Fatalf("expected auto revert to pen, got %v", f.tools.Mode())
	}
	// the revert is one-shot
	f.tools.Select(tool.Eraser)
	f.arb.DrawBegan(pt(0, 0))
	f.arb.DrawEnded()
	if f.tools.Mode() != tool.Eraser {
		t.Fatalf("revert flag leaked into the next gesture")
	}
}

func TestModeChangeMidGestureKeepsSnapshot(t *testing.T) {
	f := newFixture()
	f.arb.DrawBegan(pt(0, 0))
	f.tools.Select(tool.Eraser)
	f.arb.DrawMoved(pt(10, 0))
	f.arb.DrawEnded()
	if len(f.hist.got) != 1 || f.hist.got[0].Eraser() || f.hist.got[0].Width() != 3 {
		t.Fatalf("stroke picked up a mid-gesture mode change")
	}
}

func TestDrawDisabledInRegionMode(t *testing.T) {
	f := newFixture()
	f.tools.Select(tool.RegionSelect)
	f.arb.DrawBegan(pt(0, 0))
	f.arb.DrawMoved(pt(5, 5))
	f.arb.DrawEnded()
	f.arb.LongPressed(pt(5, 5))
	if len(f.hist.got) != 0 {
		t.Fatalf("draw family must be disabled in region mode")
	}
	if f.tools.Mode() != tool.RegionSelect {
		t.Fatalf("long press must not switch tools in region mode")
	}
}

func TestRegionSelectThresholdAndNormalization(t *testing.T) {
	f := newFixture()
	f.tools.Select(tool.RegionSelect)
	var seen []bool
	f.arb.Selection().OnChange(func(_ vector.Rect, visible bool) { seen = append(seen, visible) })

	f.arb.RegionBegan(pt(10, 10))
	f.arb.RegionMoved(pt(11, 11))
	f.arb.RegionEnded()
	if len(f.caps.got) != 0 {
		t.Fatalf("1x1 selection must be discarded")
	}

	f.arb.RegionBegan(pt(110, 110))
	if r, visible := f.arb.Selection().Get(); !visible || r.W != 0 || r.H != 0 {
		t.Fatalf("selection should start visible with zero size: %+v %v", r, visible)
	}
	f.arb.RegionMoved(pt(10, 10))
	f.arb.RegionEnded()
	if len(f.caps.got) != 1 {
		t.Fatalf("expected one capture, got %d", len(f.caps.got))
	}
	if got := f.caps.got[0]; got != vector.R(10, 10, 100, 100) {
		t.Fatalf("unexpected rect %+v", got)
	}
	if _, visible := f.arb.Selection().Get(); visible {
		t.Fatalf("selection must be hidden after end")
	}
	if len(seen) == 0 || seen[len(seen)-1] {
		t.Fatalf("renderer was not told the selection was hidden: %v", seen)
	}
}

func TestRecognizerLongPressWithoutMovementCommitsEraseDot(t *testing.T) {
	f := newFixture()
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRecognizer(f.arb, clock, RecognizerConfig{LongPress: 2 * time.Second, Jitter: 10, MinDistance: 5})
	r.Down(pt(30, 30))
	clock.Advance(2 * time.Second)
	r.Up(pt(30, 30))
	if len(f.hist.got) != 1 || !f.hist.got[0].Eraser() {
		t.Fatalf("expected an erase dot, got %d strokes", len(f.hist.got))
	}
	if f.tools.Mode() != tool.Pen {
		t.Fatalf("expected revert to pen, got %v", f.tools.Mode())
	}
}

func TestRecognizerShortTapCommitsDotBelowMinDistance(t *testing.T) {
	f := newFixture()
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRecognizer(f.arb, clock, RecognizerConfig{LongPress: 2 * time.Second, Jitter: 10, MinDistance: 5})
	r.Down(pt(30, 30))
	r.Up(pt(30, 30))
	if len(f.hist.got) != 1 || f.hist.got[0].Eraser() {
		t.Fatalf("expected one pen dot, got %d strokes", len(f.hist.got))
	}
	b, _ := f.hist.got[0].Bounds()
	if b.X != 30 || b.Y != 30 || b.W > 0.1 || b.H > 0.1 {
		t.Fatalf("expected a dot at the contact, got %+v", b)
	}

	r.Down(pt(0, 0))
	r.Move(pt(2, 0))
	r.Cancel()
	if len(f.hist.got) != 2 {
		t.Fatalf("cancel must commit too, got %d strokes", len(f.hist.got))
	}
	if b, _ := f.hist.got[1].Bounds(); b.W != 2 {
		t.Fatalf("cancelled contact should keep its short travel, got %+v", b)
	}
}

func TestRecognizerUpExtendsToLiftPoint(t *testing.T) {
	f := newFixture()
	r := NewRecognizer(f.arb, NewManualClock(time.Unix(0, 0)), DefaultRecognizerConfig())
	r.Down(pt(0, 0))
	r.Move(pt(50, 0))
	r.Up(pt(100, 0))
	if len(f.hist.got) != 1 {
		t.Fatalf("expected one stroke, got %d", len(f.hist.got))
	}
	if b, _ := f.hist.got[0].Bounds(); b.X != 0 || b.W != 100 {
		t.Fatalf("stroke should end at the lift point, got %+v", b)
	}
}

func TestRecognizerLongPressBeforePanKeepsEraseGeometry(t *testing.T) {
	f := newFixture()
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRecognizer(f.arb, clock, RecognizerConfig{LongPress: time.Second, Jitter: 10, MinDistance: 5})
	r.Down(pt(0, 0))
	clock.Advance(time.Second)
	r.Move(pt(50, 0))
	r.Move(pt(100, 0))
	r.Up(pt(100, 0))
	if len(f.hist.got) != 1 {
		t.Fatalf("expected one stroke, got %d", len(f.hist.got))
	}
	s := f.hist.got[0]
	b, _ := s.Bounds()
	if !s.Eraser() || b.X != 0 || b.W != 100 {
		t.Fatalf("expected eraser geometry from the first point, got eraser=%v bounds=%+v", s.Eraser(), b)
	}
}

func TestRecognizerJitterCancelsLongPress(t *testing.T) {
	f := newFixture()
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRecognizer(f.arb, clock, DefaultRecognizerConfig())
	r.Down(pt(0, 0))
	r.Move(pt(30, 0))
	if clock.Pending() != 0 {
		t.Fatalf("hold timer should be cancelled by movement")
	}
	clock.Advance(5 * time.Second)
	r.Up(pt(30, 0))
	if len(f.hist.got) != 1 || f.hist.got[0].Eraser() {
		t.Fatalf("expected a plain pen stroke")
	}
}

func TestRecognizerRegionFamily(t *testing.T) {
	f := newFixture()
	f.tools.Select(tool.RegionSelect)
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRecognizer(f.arb, clock, DefaultRecognizerConfig())
	r.Down(pt(10, 10))
	if clock.Pending() != 0 {
		t.Fatalf("region family must not arm the long press")
	}
	r.Move(pt(60, 40))
	r.Up(pt(110, 110))
	if len(f.caps.got) != 1 || f.caps.got[0] != vector.R(10, 10, 100, 100) {
		t.Fatalf("unexpected captures %+v", f.caps.got)
	}
}

func TestRecognizerIgnoresStaleHoldTimer(t *testing.T) {
	f := newFixture()
	clock := NewManualClock(time.Unix(0, 0))
	r := NewRecognizer(f.arb, clock, RecognizerConfig{LongPress: time.Second, Jitter: 10})
	r.Down(pt(0, 0))
	r.Up(pt(0, 0))
	r.Down(pt(5, 5))
	clock.Advance(500 * time.Millisecond)
	r.Up(pt(5, 5))
	clock.Advance(time.Second)
	for _, s := range f.hist.got {
		if s.Eraser() {
			t.Fatalf("a released contact must never long press")
		}
	}
	if len(f.hist.got) != 2 {
		t.Fatalf("expected two taps, got %d", len(f.hist.got))
	}
}
