/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render paints ink strokes to bitmaps.
//
// Strokes are tessellated into filled polygons (one quad per segment plus
// a disc per vertex for round caps and joins) and rasterized with
// golang.org/x/image/vector. Ink lives on its own transparent layer so
// eraser strokes can clear it destructively; the background is composited
// underneath when the image is taken.
package render

import (
	"image"
	"image/draw"
	"math"

	rast "golang.org/x/image/vector"

	"inknote/internal/ink"
	"inknote/internal/vector"
)

// Pen describes how a polyline set is stroked.
type Pen struct {
	Width float32
	Color vector.Color
	Blend vector.BlendMode
	Cap   vector.LineCap
	Join  vector.LineJoin
}

// PenFor returns the round-capped pen a committed stroke was drawn with.
func PenFor(s ink.Stroke) Pen {
	return Pen{Width: s.Width(), Color: s.Color(), Blend: s.Blend(), Cap: vector.CapRound, Join: vector.JoinRound}
}

// Canvas is an offscreen target with a background color and an ink layer.
type Canvas struct {
	bg   vector.Color
	ink  *image.RGBA
	mask *image.Alpha
	r    *rast.Rasterizer
}

// NewCanvas allocates a w by h canvas. Non-positive sizes yield an empty
// canvas that paints nothing.
func NewCanvas(w, h int, bg vector.Color) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Canvas{bg: bg, ink: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (int, int) {
	b := c.ink.Bounds()
	return b.Dx(), b.Dy()
}

// Stroke paints a committed stroke with its own width and compositing mode.
func (c *Canvas) Stroke(s ink.Stroke) { c.Polylines(s.Polylines(), PenFor(s)) }

// Path paints an in-progress path.
func (c *Canvas) Path(p vector.Path, pen Pen) { c.Polylines(p.Polylines(), pen) }

// Polylines strokes every polyline with pen.
func (c *Canvas) Polylines(lines [][]vector.Pt, pen Pen) {
	w, h := c.Size()
	if w == 0 || h == 0 || pen.Width <= 0 {
		return
	}
	polys := outline(lines, pen)
	bounds := vector.Rect{W: float32(w), H: float32(h)}
	if c.r == nil {
		c.r = rast.NewRasterizer(w, h)
	} else {
		c.r.Reset(w, h)
	}
	n := 0
	for _, poly := range polys {
		if !polyBounds(poly).Intersects(bounds) {
			continue
		}
		c.r.MoveTo(poly[0].X, poly[0].Y)
		for _, p := range poly[1:] {
			c.r.LineTo(p.X, p.Y)
		}
		c.r.ClosePath()
		n++
	}
	if n == 0 {
		return
	}
	if pen.Blend == vector.BlendClear {
		c.erase()
		return
	}
	c.r.DrawOp = draw.Over
	c.r.Draw(c.ink, c.ink.Bounds(), image.NewUniform(pen.Color.RGBA()), image.Point{})
}

// erase removes ink under the coverage accumulated in the rasterizer.
func (c *Canvas) erase() {
	if c.mask == nil {
		c.mask = image.NewAlpha(c.ink.Bounds())
	} else {
		clear(c.mask.Pix)
	}
	c.r.DrawOp = draw.Src
	c.r.Draw(c.mask, c.mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(c.ink, c.ink.Bounds(), image.Transparent, image.Point{}, c.mask, image.Point{}, draw.Src)
}

// Ink returns the transparent ink layer without the background.
func (c *Canvas) Ink() *image.RGBA { return c.ink }

// Image composites the ink layer over the background into a new image.
func (c *Canvas) Image() *image.RGBA {
	out := image.NewRGBA(c.ink.Bounds())
	draw.Draw(out, out.Bounds(), image.NewUniform(c.bg.RGBA()), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), c.ink, image.Point{}, draw.Over)
	return out
}

// Region rasterizes strokes, in order, into a bitmap covering rect. The
// target is rect's size rounded up; every path is translated by -rect.Min
// so geometry outside it is clipped away.
func Region(strokes []ink.Stroke, rect vector.Rect, bg vector.Color) *image.RGBA {
	rect = rect.Norm()
	w, h := rect.PixelSize()
	c := NewCanvas(w, h, bg)
	toLocal := vector.Translate(-rect.X, -rect.Y)
	for _, s := range strokes {
		p := s.Path()
		c.Path(p.Transform(toLocal), PenFor(s))
	}
	return c.Image()
}

// outline tessellates polylines into closed polygons, all wound the same
// way so overlapping pieces accumulate instead of cancelling.
func outline(lines [][]vector.Pt, pen Pen) [][]vector.Pt {
	hw := pen.Width / 2
	var polys [][]vector.Pt
	add := func(poly []vector.Pt) {
		if len(poly) < 3 {
			return
		}
		if signedArea(poly) < 0 {
			for i, j := 0, len(poly)-1; i < j; i, j = i+1, j-1 {
				poly[i], poly[j] = poly[j], poly[i]
			}
		}
		polys = append(polys, poly)
	}
	for _, line := range lines {
		pts := make([]vector.Pt, 0, len(line))
		for _, p := range line {
			if n := len(pts); n > 0 && pts[n-1] == p {
				continue
			}
			pts = append(pts, p)
		}
		if len(pts) == 0 {
			continue
		}
		if len(pts) == 1 {
			// A lone point has no direction; only a round cap can show it.
			add(disc(pts[0], hw))
			continue
		}
		var prev vector.Pt
		for i := 1; i < len(pts); i++ {
			p0, p1 := pts[i-1], pts[i]
			n := normal(p0, p1, hw)
			add([]vector.Pt{p0.Add(n), p1.Add(n), p1.Sub(n), p0.Sub(n)})
			if i > 1 {
				add(joinAt(p0, prev, n, hw, pen.Join))
			}
			prev = n
		}
		if pen.Cap == vector.CapRound {
			add(disc(pts[0], hw))
			add(disc(pts[len(pts)-1], hw))
		}
	}
	return polys
}

func joinAt(p, nIn, nOut vector.Pt, hw float32, j vector.LineJoin) []vector.Pt {
	if j == vector.JoinRound {
		return disc(p, hw)
	}
	// Bevel: the quad spanning both segment ends covers the outer wedge on
	// whichever side it opens.
	return []vector.Pt{p.Add(nIn), p.Add(nOut), p.Sub(nIn), p.Sub(nOut)}
}

func normal(p0, p1 vector.Pt, hw float32) vector.Pt {
	d := p1.Sub(p0)
	l := float32(math.Hypot(float64(d.X), float64(d.Y)))
	return vector.Pt{X: -d.Y / l * hw, Y: d.X / l * hw}
}

// disc approximates a circle with enough segments to stay smooth at r.
func disc(c vector.Pt, r float32) []vector.Pt {
	n := int(math.Ceil(float64(r) * math.Pi))
	n = min(max(n, 8), 64)
	pts := make([]vector.Pt, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = vector.Pt{X: c.X + r*float32(math.Cos(a)), Y: c.Y + r*float32(math.Sin(a))}
	}
	return pts
}

func signedArea(poly []vector.Pt) float32 {
	var a float32
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func polyBounds(poly []vector.Pt) vector.Rect {
	minP, maxP := poly[0], poly[0]
	for _, p := range poly[1:] {
		minP.X, minP.Y = min(minP.X, p.X), min(minP.Y, p.Y)
		maxP.X, maxP.Y = max(maxP.X, p.X), max(maxP.Y, p.Y)
	}
	return vector.Rect{X: minP.X, Y: minP.Y, W: maxP.X - minP.X, H: maxP.Y - minP.Y}
}
