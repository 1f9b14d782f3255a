/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestPathBoundsAndPolylines(t *testing.T) {
	var p Path
	if _, ok := p.Bounds(); ok {
		t.Fatalf("empty path must not report bounds")
	}
	p.MoveTo(0, 0)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.MoveTo(20, 20)
	p.LineTo(25, 30)

	b, ok := p.Bounds()
	if !ok || b.X != 0 || b.Y != 0 || b.W != 25 || b.H != 30 {
		t.Fatalf("unexpected bounds: %+v ok=%v", b, ok)
	}
	lines := p.Polylines()
	if len(lines) != 2 || len(lines[0]) != 3 || len(lines[1]) != 2 {
		t.Fatalf("unexpected polylines: %+v", lines)
	}
}

func TestLineToOnEmptyPathStartsSubpath(t *testing.T) {
	var p Path
	p.LineTo(3, 4)
	if p.Len() != 1 || p.Cmds[0].Op != MoveTo {
		t.Fatalf("expected implicit MoveTo, got %+v", p.Cmds)
	}
}

func TestCloneAndTransformDoNotAlias(t *testing.T) {
	var p Path
	p.MoveTo(1, 1)
	p.LineTo(2, 2)
	c := p.Clone()
	moved := p.Transform(Translate(-1, -1))
	p.Cmds[0].Pt = Pt{100, 100}
	if c.Cmds[0].Pt != (Pt{1, 1}) {
		t.Fatalf("clone aliased the source: %+v", c.Cmds[0])
	}
	if moved.Cmds[1].Pt != (Pt{1, 1}) {
		t.Fatalf("unexpected transformed point: %+v", moved.Cmds[1])
	}
}
