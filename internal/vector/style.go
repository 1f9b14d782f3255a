/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "image/color"

// Styles and paint definitions.

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// RGBA converts to a premultiplied image/color value.
func (c Color) RGBA() color.RGBA {
	a := uint32(c.A)
	return color.RGBA{
		R: uint8(uint32(c.R) * a / 255),
		G: uint8(uint32(c.G) * a / 255),
		B: uint8(uint32(c.B) * a / 255),
		A: c.A,
	}
}

// FromColor converts any image/color value.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// BlendMode says how new pixels combine with the ones already painted.
type BlendMode uint8

const (
	// BlendNormal paints source over destination.
	BlendNormal BlendMode = iota
	// BlendClear removes destination coverage where the source paints.
	BlendClear
)

func (b BlendMode) String() string {
	if b == BlendClear {
		return "clear"
	}
	return "normal"
}

type LineCap uint8

const (
	CapButt LineCap = iota
	CapRound
)

type LineJoin uint8

const (
	JoinBevel LineJoin = iota
	JoinRound
)
