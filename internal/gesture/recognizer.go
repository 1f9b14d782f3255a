/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"sync"
	"time"

	"inknote/internal/tool"
	"inknote/internal/vector"
)

// RecognizerConfig holds the thresholds of the three families.
type RecognizerConfig struct {
	// LongPress is the minimum hold before the eraser switch fires.
	LongPress time.Duration
	// Jitter is the radius the contact may wander while still holding.
	Jitter float32
	// MinDistance is how far a contact must travel before a pan begins.
	MinDistance float32
}

func DefaultRecognizerConfig() RecognizerConfig {
	return RecognizerConfig{LongPress: 2 * time.Second, Jitter: 10}
}

type family uint8

const (
	familyNone family = iota
	familyDraw
	familyRegion
)

// Recognizer turns raw pointer events of a single contact into the family
// callbacks of an Arbiter. The family is chosen from the tool mode at
// pointer down. A second concurrent contact is ignored.
type Recognizer struct {
	arb   *Arbiter
	clock Clock
	cfg   RecognizerConfig

	mu      sync.Mutex
	fam     family
	start   vector.Pt
	last    vector.Pt
	panning bool
	hold    Timer
	// gen invalidates hold timers that fire after their contact ended.
	gen uint64
}

func NewRecognizer(arb *Arbiter, clock Clock, cfg RecognizerConfig) *Recognizer {
	if clock == nil {
		clock = SystemClock
	}
	return &Recognizer{arb: arb, clock: clock, cfg: cfg}
}

// Down starts a contact at p.
func (r *Recognizer) Down(p vector.Pt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fam != familyNone {
		return
	}
	r.gen++
	r.start, r.last, r.panning = p, p, false
	switch mode := r.arb.tools.Mode(); {
	case mode == tool.RegionSelect:
		r.fam = familyRegion
	case mode.Draws():
		r.fam = familyDraw
		if r.cfg.LongPress > 0 {
			gen := r.gen
			r.hold = r.clock.AfterFunc(r.cfg.LongPress, func() { r.longPress(gen) })
		}
	default:
		return
	}
	if r.cfg.MinDistance <= 0 {
		r.beginPanLocked()
	}
}

// Move reports the contact at p.
func (r *Recognizer) Move(p vector.Pt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fam == familyNone {
		return
	}
	r.last = p
	dist := p.Dist(r.start)
	if r.hold != nil && dist > r.cfg.Jitter {
		r.hold.Stop()
		r.hold = nil
	}
	if !r.panning && dist >= r.cfg.MinDistance {
		r.beginPanLocked()
	}
	if !r.panning {
		return
	}
	if r.fam == familyRegion {
		r.arb.RegionMoved(p)
	} else {
		r.arb.DrawMoved(p)
	}
}

// Up ends the contact at p.
func (r *Recognizer) Up(p vector.Pt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fam == familyNone {
		return
	}
	if r.fam == familyRegion {
		if r.panning {
			r.arb.RegionMoved(p)
			r.arb.RegionEnded()
		}
	} else {
		r.finishDrawLocked(p)
	}
	r.resetLocked()
}

// Cancel ends the contact without a final position. Draw gestures still
// commit; lifting is never a discard.
func (r *Recognizer) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.fam {
	case familyRegion:
		r.arb.RegionEnded()
	case familyDraw:
		r.finishDrawLocked(r.last)
	}
	r.resetLocked()
}

// finishDrawLocked commits the draw contact at its lift point p. A contact
// that never travelled MinDistance is started here, so a short tap still
// leaves a dot.
func (r *Recognizer) finishDrawLocked(p vector.Pt) {
	if !r.panning {
		r.beginPanLocked()
		if r.last != r.start {
			r.arb.DrawMoved(r.last)
		}
	}
	if p != r.last {
		r.arb.DrawMoved(p)
	}
	r.arb.DrawEnded()
}

func (r *Recognizer) beginPanLocked() {
	r.panning = true
	if r.fam == familyRegion {
		r.arb.RegionBegan(r.start)
	} else {
		r.arb.DrawBegan(r.start)
	}
}

func (r *Recognizer) longPress(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen || r.fam != familyDraw || r.hold == nil {
		return
	}
	r.hold = nil
	r.arb.LongPressed(r.last)
}

func (r *Recognizer) resetLocked() {
	if r.hold != nil {
		r.hold.Stop()
		r.hold = nil
	}
	r.fam = familyNone
	r.panning = false
}
