/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands. Freehand ink only ever needs moves and straight segments.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
)

type PathCmd struct {
	Op PathOp
	Pt Pt
}

// Path is an ordered, mutable sequence of move/line commands.
// The zero value is an empty path.
type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Pt: Pt{x, y}})
}

// LineTo appends a segment from the current point. On an empty path it
// behaves like MoveTo so a path never starts with a dangling segment.
func (p *Path) LineTo(x, y float32) {
	if len(p.Cmds) == 0 {
		p.MoveTo(x, y)
		return
	}
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Pt: Pt{x, y}})
}

func (p *Path) Len() int    { return len(p.Cmds) }
func (p *Path) Empty() bool { return len(p.Cmds) == 0 }
func (p *Path) Reset()      { p.Cmds = p.Cmds[:0] }

// Last returns the current point, if any.
func (p *Path) Last() (Pt, bool) {
	if len(p.Cmds) == 0 {
		return Pt{}, false
	}
	return p.Cmds[len(p.Cmds)-1].Pt, true
}

// Clone returns a deep copy that shares no memory with p.
func (p *Path) Clone() Path {
	if len(p.Cmds) == 0 {
		return Path{}
	}
	return Path{Cmds: append([]PathCmd(nil), p.Cmds...)}
}

// Transform returns a copy of p with m applied to every point.
func (p *Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		out.Cmds[i] = PathCmd{Op: c.Op, Pt: m.Apply(c.Pt)}
	}
	return out
}

// Polylines splits the path into its subpaths, one point slice per MoveTo.
func (p *Path) Polylines() [][]Pt {
	var out [][]Pt
	var cur []Pt
	for _, c := range p.Cmds {
		if c.Op == MoveTo && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, c.Pt)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// Bounds returns the axis-aligned bounding box of all points. The second
// result is false for an empty path, which has no bounds.
func (p *Path) Bounds() (Rect, bool) {
	if len(p.Cmds) == 0 {
		return Rect{}, false
	}
	first := p.Cmds[0].Pt
	minX, minY, maxX, maxY := first.X, first.Y, first.X, first.Y
	for _, c := range p.Cmds[1:] {
		minX = min(minX, c.Pt.X)
		minY = min(minY, c.Pt.Y)
		maxX = max(maxX, c.Pt.X)
		maxY = max(maxY, c.Pt.Y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}
