/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/draw"

	"inknote/internal/ink"
	"inknote/internal/vector"
)

// SelectionColor outlines the region-select rectangle.
var SelectionColor = vector.Color{R: 30, G: 110, B: 230, A: 200}

// Scene is everything the live canvas shows, back to front: committed
// strokes, the stroke in progress, then the selection outline.
type Scene struct {
	Strokes []ink.Stroke

	Drawing     bool
	InFlight    vector.Path
	InFlightPen Pen

	SelectionVisible bool
	Selection        vector.Rect
}

// Paint renders the scene into a w by h image over bg.
func (s Scene) Paint(w, h int, bg vector.Color) *image.RGBA {
	c := NewCanvas(w, h, bg)
	for _, st := range s.Strokes {
		c.Stroke(st)
	}
	if s.Drawing {
		c.Path(s.InFlight, s.InFlightPen)
	}
	out := c.Image()
	if s.SelectionVisible {
		overlay := NewCanvas(w, h, vector.Transparent)
		r := s.Selection.Norm()
		minP, maxP := r.Min(), r.Max()
		outlinePts := []vector.Pt{minP, {X: maxP.X, Y: minP.Y}, maxP, {X: minP.X, Y: maxP.Y}, minP}
		overlay.Polylines([][]vector.Pt{outlinePts}, Pen{Width: 1, Color: SelectionColor, Cap: vector.CapButt, Join: vector.JoinBevel})
		draw.Draw(out, out.Bounds(), overlay.Ink(), image.Point{}, draw.Over)
	}
	return out
}
