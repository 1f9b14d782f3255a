/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestSpanNormalizes(t *testing.T) {
	r := Span(Pt{50, 40}, Pt{10, 60})
	if r.X != 10 || r.Y != 40 || r.W != 40 || r.H != 20 {
		t.Fatalf("unexpected span: %+v", r)
	}
	if got := R(10, 10, -5, -5); got.X != 5 || got.Y != 5 || got.W != 5 || got.H != 5 {
		t.Fatalf("R did not normalize: %+v", got)
	}
}

func TestRectIntersectsAndPixelSize(t *testing.T) {
	a := R(0, 0, 5, 5)
	b := R(10, 10, 100, 100)
	if a.Intersects(b) {
		t.Fatalf("disjoint rects must not intersect")
	}
	if !b.Intersects(R(50, 50, 1, 1)) {
		t.Fatalf("expected intersection")
	}
	w, h := R(0, 0, 10.2, 3).PixelSize()
	if w != 11 || h != 3 {
		t.Fatalf("PixelSize = %d,%d", w, h)
	}
}

func TestTranslateMovesToRegionLocal(t *testing.T) {
	if got := Translate(-10, -20).Apply(Pt{15, 20}); got != (Pt{5, 0}) {
		t.Fatalf("unexpected apply: %+v", got)
	}
}

func TestColorPremultiplies(t *testing.T) {
	c := Color{R: 255, G: 0, B: 0, A: 128}.RGBA()
	if c.R != 128 || c.A != 128 {
		t.Fatalf("unexpected premultiplied color: %+v", c)
	}
}
