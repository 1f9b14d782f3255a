/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image/color"
	"testing"

	"inknote/internal/ink"
	"inknote/internal/tool"
	"inknote/internal/vector"
)

func line(pts ...vector.Pt) vector.Path {
	var p vector.Path
	for i, pt := range pts {
		if i == 0 {
			p.MoveTo(pt.X, pt.Y)
			continue
		}
		p.LineTo(pt.X, pt.Y)
	}
	return p
}

var (
	pen    = tool.Params{Width: 4, Color: vector.Black}
	eraser = tool.Params{Width: 10, Color: vector.White, Blend: vector.BlendClear}
	red    = vector.Color{R: 255, A: 255}
)

func at(t *testing.T, img interface{ RGBAAt(x, y int) color.RGBA }, x, y int, want vector.Color) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != want.RGBA() {
		t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want.RGBA())
	}
}

func TestPenStrokePaintsOverBackground(t *testing.T) {
	c := NewCanvas(50, 20, vector.White)
	c.Stroke(ink.NewStroke(line(vector.Pt{X: 5, Y: 10}, vector.Pt{X: 45, Y: 10}), pen))
	img := c.Image()
	at(t, img, 25, 10, vector.Black)
	at(t, img, 25, 2, vector.White)
}

func TestEraserClearsToBackground(t *testing.T) {
	c := NewCanvas(50, 20, red)
	c.Stroke(ink.NewStroke(line(vector.Pt{X: 5, Y: 10}, vector.Pt{X: 45, Y: 10}), pen))
	c.Stroke(ink.NewStroke(line(vector.Pt{X: 25, Y: 0}, vector.Pt{X: 25, Y: 20}), eraser))
	img := c.Image()
	// the eraser's own color is never painted, the background shows through
	at(t, img, 25, 10, red)
	at(t, img, 10, 10, vector.Black)
	if a := c.Ink().RGBAAt(25, 10).A; a != 0 {
		t.Fatalf("ink layer should be cleared, alpha=%d", a)
	}
}

func TestDotIsVisible(t *testing.T) {
	var p vector.Path
	p.MoveTo(25.5, 10.5)
	p.LineTo(25.5+ink.DotEpsilon, 10.5+ink.DotEpsilon)
	c := NewCanvas(50, 20, vector.White)
	c.Stroke(ink.NewStroke(p, tool.Params{Width: 6, Color: vector.Black}))
	at(t, c.Image(), 25, 10, vector.Black)
}

func TestSharpReversalDoesNotCancel(t *testing.T) {
	c := NewCanvas(50, 20, vector.White)
	c.Stroke(ink.NewStroke(line(vector.Pt{X: 5, Y: 10}, vector.Pt{X: 40, Y: 10}, vector.Pt{X: 5, Y: 11}), pen))
	at(t, c.Image(), 20, 10, vector.Black)
}

func TestRegionTranslatesAndClips(t *testing.T) {
	inside := ink.NewStroke(line(vector.Pt{X: 20, Y: 20}, vector.Pt{X: 40, Y: 20}), pen)
	img := Region([]ink.Stroke{inside}, vector.R(10, 10, 40, 20), vector.White)
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("unexpected size %v", b)
	}
	at(t, img, 20, 10, vector.Black)
	at(t, img, 5, 10, vector.White)
}

func TestRegionTranslatesEraserWithInk(t *testing.T) {
	strokes := []ink.Stroke{
		ink.NewStroke(line(vector.Pt{X: 20, Y: 20}, vector.Pt{X: 60, Y: 20}), pen),
		ink.NewStroke(line(vector.Pt{X: 40, Y: 10}, vector.Pt{X: 40, Y: 30}), eraser),
	}
	img := Region(strokes, vector.R(10, 10, 60, 20), red)
	at(t, img, 15, 10, vector.Black)
	at(t, img, 30, 10, red)
	at(t, img, 45, 10, vector.Black)
}

func TestRegionOutsideStrokeLeavesNoInk(t *testing.T) {
	small := ink.NewStroke(line(vector.Pt{X: 0, Y: 0}, vector.Pt{X: 5, Y: 5}), pen)
	img := Region([]ink.Stroke{small}, vector.R(10, 10, 100, 100), vector.White)
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("unexpected size %v", b)
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if img.RGBAAt(x, y) != vector.White.RGBA() {
				t.Fatalf("found ink at (%d,%d)", x, y)
			}
		}
	}
}

func TestRegionRoundsSizeUp(t *testing.T) {
	img := Region(nil, vector.R(0.5, 0.5, 10.2, 3.01), vector.White)
	if b := img.Bounds(); b.Dx() != 11 || b.Dy() != 4 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestScenePaintsInFlightAndSelection(t *testing.T) {
	s := Scene{
		Drawing:          true,
		InFlight:         line(vector.Pt{X: 5, Y: 10}, vector.Pt{X: 45, Y: 10}),
		InFlightPen:      Pen{Width: 4, Color: vector.Black, Cap: vector.CapRound, Join: vector.JoinRound},
		SelectionVisible: true,
		Selection:        vector.R(2, 2, 10, 10),
	}
	img := s.Paint(50, 20, vector.White)
	at(t, img, 25, 10, vector.Black)
	if img.RGBAAt(7, 2) == vector.White.RGBA() {
		t.Fatalf("selection outline missing")
	}
	if img.RGBAAt(7, 7) != vector.White.RGBA() {
		t.Fatalf("selection interior must stay clear")
	}
}
