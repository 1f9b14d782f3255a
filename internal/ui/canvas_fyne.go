//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"inknote/internal/board"
	"inknote/internal/vector"
)

// InkCanvas forwards pointer input to a board and shows its scene.
// Coordinates are the widget's own, in device independent units.
type InkCanvas struct {
	widget.BaseWidget

	board  *board.Board
	raster *canvas.Raster

	// contact tracks the primary button between press and release so a
	// drag end and a mouse up for the same contact lift only once.
	contact bool
	last    vector.Pt
}

func NewInkCanvas(b *board.Board) *InkCanvas {
	c := &InkCanvas{board: b}
	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer paints the board at the widget size; the raster scales
// the image to the output pixels.
func (c *InkCanvas) CreateRenderer() fyne.WidgetRenderer {
	c.raster = canvas.NewRaster(func(_, _ int) image.Image {
		sz := c.Size()
		w, h := int(sz.Width+0.5), int(sz.Height+0.5)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		return c.board.Render(w, h)
	})
	return widget.NewSimpleRenderer(c.raster)
}

func (c *InkCanvas) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func (c *InkCanvas) Cursor() desktop.Cursor { return desktop.CrosshairCursor }

func (c *InkCanvas) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.press(toPt(e.Position))
}

func (c *InkCanvas) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.lift(toPt(e.Position))
}

// Dragged moves the contact. Drivers that report no press first still
// start a gesture here.
func (c *InkCanvas) Dragged(e *fyne.DragEvent) {
	p := toPt(e.Position)
	if !c.contact {
		c.press(vector.Pt{X: p.X - e.Dragged.DX, Y: p.Y - e.Dragged.DY})
	}
	c.last = p
	c.board.PointerMove(p)
}

func (c *InkCanvas) DragEnd() { c.lift(c.last) }

func (c *InkCanvas) press(p vector.Pt) {
	if c.contact {
		c.board.PointerCancel()
	}
	c.contact = true
	c.last = p
	c.board.PointerDown(p)
}

func (c *InkCanvas) lift(p vector.Pt) {
	if !c.contact {
		return
	}
	c.contact = false
	c.board.PointerUp(p)
}

// Redraw repaints the scene. It must run on the fyne goroutine.
func (c *InkCanvas) Redraw() {
	if c.raster != nil {
		c.raster.Refresh()
	}
}

func toPt(p fyne.Position) vector.Pt { return vector.Pt{X: p.X, Y: p.Y} }
