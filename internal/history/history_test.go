/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"testing"

	"inknote/internal/ink"
	"inknote/internal/tool"
	"inknote/internal/vector"
)

// stroke builds a distinguishable stroke whose single point encodes id.
func stroke(id int) ink.Stroke {
	var p vector.Path
	p.MoveTo(float32(id), 0)
	return ink.NewStroke(p, tool.DefaultStyle().ParamsFor(tool.Pen))
}

func id(s ink.Stroke) int {
	b, _ := s.Bounds()
	return int(b.X)
}

func TestCommitsThenUndos(t *testing.T) {
	for n := 0; n <= 5; n++ {
		for k := 0; k <= n; k++ {
			h := New(Config{})
			for i := 1; i <= n; i++ {
				h.Commit(stroke(i))
			}
			for i := 0; i < k; i++ {
				if !h.Undo() {
					t.Fatalf("n=%d k=%d: undo %d reported no change", n, k, i)
				}
			}
			st := h.Stats()
			if st.Committed != n-k || st.Redo != k {
				t.Fatalf("n=%d k=%d: got %+v", n, k, st)
			}
			// most recently undone first: undo order is the reverse of commit order
			for i, s := range h.RedoBuffer() {
				if want := n - k + 1 + i; id(s) != want {
					t.Fatalf("n=%d k=%d: redo[%d]=%d want %d", n, k, i, id(s), want)
				}
			}
		}
	}
}

func TestUndoRedoOnEmptyIsNoop(t *testing.T) {
	h := New(Config{})
	if h.Undo() || h.Redo() {
		t.Fatalf("expected no-ops on empty history")
	}
	if h.CanUndo() || h.CanRedo() {
		t.Fatalf("controls should be disabled")
	}
}

func TestCommitAfterUndoDiscardsRedo(t *testing.T) {
	h := New(Config{})
	h.Commit(stroke(1))
	h.Commit(stroke(2))
	h.Undo()
	h.Redo()
	h.Undo()
	h.Commit(stroke(3))
	if h.CanRedo() {
		t.Fatalf("redo must be empty after commit")
	}
	if h.Redo() {
		t.Fatalf("undone stroke must be unreachable")
	}
	got := h.Strokes()
	if len(got) != 2 || id(got[0]) != 1 || id(got[1]) != 3 {
		t.Fatalf("unexpected committed order: %v %v", len(got), got)
	}
}

func TestRedoRestoresMostRecentFirst(t *testing.T) {
	h := New(Config{})
	h.Commit(stroke(1))
	h.Commit(stroke(2))
	h.Undo()
	h.Undo()
	h.Redo()
	got := h.Strokes()
	if len(got) != 1 || id(got[0]) != 1 {
		t.Fatalf("expected stroke 1 back first, got %d strokes", len(got))
	}
}

func TestMaxDepthDropsOldest(t *testing.T) {
	h := New(Config{MaxDepth: 2})
	for i := 1; i <= 4; i++ {
		h.Commit(stroke(i))
	}
	got := h.Strokes()
	if len(got) != 2 || id(got[0]) != 3 {
		t.Fatalf("expected last two strokes kept, got %d", len(got))
	}
}

func TestListenerSeesStats(t *testing.T) {
	h := New(Config{})
	var last Stats
	calls := 0
	h.OnChange(func(s Stats) { last = s; calls++ })
	h.Commit(stroke(1))
	h.Undo()
	h.Undo() // no-op, no notification
	if calls != 2 || last.Committed != 0 || last.Redo != 1 {
		t.Fatalf("calls=%d last=%+v", calls, last)
	}
	if !h.Clear() || h.Clear() {
		t.Fatalf("Clear should report a change exactly once")
	}
}
