/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ink

import (
	"testing"

	"inknote/internal/tool"
	"inknote/internal/vector"
)

func TestBuilderBeginProducesDot(t *testing.T) {
	b := NewBuilder()
	b.Begin(vector.Pt{X: 5, Y: 5})
	p := b.SnapshotAndReset()
	r, ok := p.Bounds()
	if !ok {
		t.Fatalf("dot path has no bounds")
	}
	if r.W <= 0 || r.H <= 0 || r.W > 0.1 || r.H > 0.1 {
		t.Fatalf("expected negligible non-zero bounds, got %+v", r)
	}
	if b.Active() {
		t.Fatalf("builder should be empty after snapshot")
	}
}

func TestBuilderNotifiesOnEveryMutation(t *testing.T) {
	b := NewBuilder()
	n := 0
	b.OnChange(func() { n++ })
	b.Begin(vector.Pt{})
	b.Extend(vector.Pt{X: 1})
	b.Extend(vector.Pt{X: 2})
	_ = b.SnapshotAndReset()
	if n != 4 {
		t.Fatalf("expected 4 notifications, got %d", n)
	}
}

func TestExtendSkipsRepeatedPoint(t *testing.T) {
	b := NewBuilder()
	n := 0
	b.OnChange(func() { n++ })
	b.Begin(vector.Pt{})
	b.Extend(vector.Pt{X: 3})
	b.Extend(vector.Pt{X: 3})
	p := b.Current()
	if p.Len() != 3 || n != 2 {
		t.Fatalf("expected 3 commands and 2 notifications, got %d and %d", p.Len(), n)
	}
}

func TestSnapshotIsIndependentOfBuilder(t *testing.T) {
	b := NewBuilder()
	b.Begin(vector.Pt{X: 1, Y: 1})
	b.Extend(vector.Pt{X: 9, Y: 9})
	snap := b.SnapshotAndReset()
	b.Begin(vector.Pt{X: 50, Y: 50})
	if last, _ := snap.Last(); last != (vector.Pt{X: 9, Y: 9}) {
		t.Fatalf("snapshot changed after reuse: %+v", last)
	}
}

func TestStrokeCopiesPathAndDerivesBlend(t *testing.T) {
	var p vector.Path
	p.MoveTo(0, 0)
	p.LineTo(4, 0)
	s := NewStroke(p, tool.DefaultStyle().ParamsFor(tool.Eraser))
	p.Cmds[1].Pt.X = 400
	b, _ := s.Bounds()
	if b.W != 4 {
		t.Fatalf("stroke aliased caller path: %+v", b)
	}
	if !s.Eraser() || s.Blend() != vector.BlendClear {
		t.Fatalf("expected destructive eraser stroke")
	}
	ib, _ := s.InkBounds()
	if ib.X != -12 || ib.W != 28 {
		t.Fatalf("unexpected ink bounds: %+v", ib)
	}
}
