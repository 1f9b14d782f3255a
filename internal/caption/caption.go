/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package caption renders a captured region with its reply text below it.
package caption

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Line is one wrapped line and its advance in pixels.
type Line struct {
	Text  string
	Width int
}

// Wrap breaks text on spaces and newlines so no line is wider than
// maxWidth. Words wider than maxWidth are split between runes. A
// non-positive maxWidth only breaks on newlines.
func Wrap(face font.Face, text string, maxWidth int) []Line {
	d := &font.Drawer{Face: face}
	measure := func(s string) int { return d.MeasureString(s).Ceil() }
	space := measure(" ")

	var out []Line
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		var cur []string
		curW := 0
		flush := func() {
			out = append(out, Line{Text: strings.Join(cur, " "), Width: curW})
			cur, curW = nil, 0
		}
		for _, word := range strings.Fields(para) {
			w := measure(word)
			if maxWidth > 0 && w > maxWidth {
				if len(cur) > 0 {
					flush()
				}
				pieces := splitWord(word, maxWidth, measure)
				for _, piece := range pieces[:len(pieces)-1] {
					cur, curW = []string{piece}, measure(piece)
					flush()
				}
				last := pieces[len(pieces)-1]
				cur, curW = []string{last}, measure(last)
				continue
			}
			switch {
			case len(cur) == 0:
				cur, curW = []string{word}, w
			case maxWidth > 0 && curW+space+w > maxWidth:
				flush()
				cur, curW = []string{word}, w
			default:
				cur = append(cur, word)
				curW += space + w
			}
		}
		flush()
	}
	return out
}

func splitWord(word string, maxWidth int, measure func(string) int) []string {
	var parts []string
	var b strings.Builder
	for _, r := range word {
		if b.Len() > 0 && measure(b.String()+string(r)) > maxWidth {
			parts = append(parts, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// Options controls the card layout. Zero values take the defaults.
type Options struct {
	// Padding around the image and between image and text; default 12.
	Padding int
	// MinWidth keeps narrow captures readable; default 240.
	MinWidth int
	// MaxLines truncates long replies with an ellipsis; 0 means no limit.
	MaxLines   int
	Background color.Color
	Foreground color.Color
}

// Card draws img centered at the top with text wrapped below it.
func Card(img image.Image, text string, face font.Face, opt Options) *image.RGBA {
	if opt.Padding <= 0 {
		opt.Padding = 12
	}
	if opt.MinWidth <= 0 {
		opt.MinWidth = 240
	}
	if opt.Background == nil {
		opt.Background = color.White
	}
	if opt.Foreground == nil {
		opt.Foreground = color.Black
	}
	pad := opt.Padding
	ib := img.Bounds()
	w := ib.Dx() + 2*pad
	if w < opt.MinWidth {
		w = opt.MinWidth
	}

	lines := Wrap(face, text, w-2*pad)
	if opt.MaxLines > 0 && len(lines) > opt.MaxLines {
		lines = lines[:opt.MaxLines]
		lines[len(lines)-1].Text += " …"
	}
	m := face.Metrics()
	lineH := m.Height.Ceil()
	textH := 0
	if strings.TrimSpace(text) != "" {
		textH = len(lines)*lineH + pad
	}
	h := ib.Dy() + 2*pad + textH

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(opt.Background), image.Point{}, draw.Src)
	at := image.Pt((w-ib.Dx())/2, pad)
	draw.Draw(out, image.Rectangle{Min: at, Max: at.Add(ib.Size())}, img, ib.Min, draw.Over)

	if textH == 0 {
		return out
	}
	d := &font.Drawer{Dst: out, Src: image.NewUniform(opt.Foreground), Face: face}
	y := ib.Dy() + 2*pad + m.Ascent.Ceil()
	for _, ln := range lines {
		d.Dot = fixed.P(pad, y)
		d.DrawString(ln.Text)
		y += lineH
	}
	return out
}
