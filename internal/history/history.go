/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history is the ordered record of committed strokes plus the redo
// buffer filled by undo. It is the sole owner of permanent ink.
package history

import (
	"sync"

	"inknote/internal/ink"
)

// Config controls depth caps.
type Config struct {
	// MaxDepth limits the number of committed strokes kept (0 means unlimited).
	// The oldest strokes are dropped first and cannot be undone.
	MaxDepth int
}

// Stats summarizes both stacks; it drives undo/redo enablement in the UI.
type Stats struct {
	Committed int
	Redo      int
}

func (s Stats) CanUndo() bool { return s.Committed > 0 }
func (s Stats) CanRedo() bool { return s.Redo > 0 }

// History provides commit/undo/redo/clear over an append-only stroke list.
// Mutations are serialized by an internal lock, so no interleaving of two
// mutations is observable. It is safe for concurrent use.
type History struct {
	cfg Config
	mu  sync.Mutex
	// committed is in append order, which is also paint order.
	committed []ink.Stroke
	// redo is a stack: the most recently undone stroke is last.
	redo     []ink.Stroke
	onChange func(Stats)
}

func New(cfg Config) *History {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return &History{cfg: cfg}
}

// OnChange registers a listener called after every effective mutation,
// outside the lock.
func (h *History) OnChange(fn func(Stats)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Commit appends s and discards the redo buffer unconditionally.
func (h *History) Commit(s ink.Stroke) {
	h.mu.Lock()
	h.committed = append(h.committed, s)
	h.redo = nil
	h.enforceCapsLocked()
	st, fn := h.statsLocked(), h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// Undo moves the last committed stroke to the front of the redo buffer.
// It reports whether anything changed; an empty history is a no-op.
func (h *History) Undo() bool {
	h.mu.Lock()
	n := len(h.committed)
	if n == 0 {
		h.mu.Unlock()
		return false
	}
	s := h.committed[n-1]
	h.committed[n-1] = ink.Stroke{}
	h.committed = h.committed[:n-1]
	h.redo = append(h.redo, s)
	st, fn := h.statsLocked(), h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(st)
	}
	return true
}

// Redo moves the most recently undone stroke back to the end of the
// committed list. An empty redo buffer is a no-op.
func (h *History) Redo() bool {
	h.mu.Lock()
	n := len(h.redo)
	if n == 0 {
		h.mu.Unlock()
		return false
	}
	s := h.redo[n-1]
	h.redo[n-1] = ink.Stroke{}
	h.redo = h.redo[:n-1]
	h.committed = append(h.committed, s)
	h.enforceCapsLocked()
	st, fn := h.statsLocked(), h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(st)
	}
	return true
}

// Clear drops both stacks. It reports whether anything was removed.
func (h *History) Clear() bool {
	h.mu.Lock()
	if len(h.committed) == 0 && len(h.redo) == 0 {
		h.mu.Unlock()
		return false
	}
	h.committed = nil
	h.redo = nil
	st, fn := h.statsLocked(), h.onChange
	h.mu.Unlock()
	if fn != nil {
		fn(st)
	}
	return true
}

// Strokes returns the committed strokes in paint order. The slice is a copy;
// strokes themselves are immutable.
func (h *History) Strokes() []ink.Stroke {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ink.Stroke(nil), h.committed...)
}

// RedoBuffer returns the undone strokes, most recent first.
func (h *History) RedoBuffer() []ink.Stroke {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ink.Stroke, len(h.redo))
	for i, s := range h.redo {
		out[len(h.redo)-1-i] = s
	}
	return out
}

// Stats returns current sizes for diagnostics and control enablement.
func (h *History) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statsLocked()
}

func (h *History) CanUndo() bool { return h.Stats().CanUndo() }
func (h *History) CanRedo() bool { return h.Stats().CanRedo() }

func (h *History) statsLocked() Stats {
	return Stats{Committed: len(h.committed), Redo: len(h.redo)}
}

func (h *History) enforceCapsLocked() {
	if h.cfg.MaxDepth > 0 && len(h.committed) > h.cfg.MaxDepth {
		// drop the oldest extras
		toDrop := len(h.committed) - h.cfg.MaxDepth
		h.committed = append([]ink.Stroke{}, h.committed[toDrop:]...)
	}
}
