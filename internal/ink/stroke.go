/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ink holds committed strokes and the builder that accumulates the
// path of the gesture in progress.
package ink

import (
	"time"

	"inknote/internal/tool"
	"inknote/internal/vector"
)

// Stroke is one committed ink or erase mark. It is immutable: the path is
// copied on construction and every accessor hands out copies.
type Stroke struct {
	path   vector.Path
	width  float32
	color  vector.Color
	eraser bool
	at     time.Time
}

// NewStroke snapshots path with the parameters captured at gesture begin.
func NewStroke(path vector.Path, p tool.Params) Stroke {
	return Stroke{
		path:   path.Clone(),
		width:  p.Width,
		color:  p.Color,
		eraser: p.Eraser(),
		at:     time.Now(),
	}
}

func (s Stroke) Width() float32         { return s.width }
func (s Stroke) Color() vector.Color    { return s.color }
func (s Stroke) Eraser() bool           { return s.eraser }
func (s Stroke) CommittedAt() time.Time { return s.at }
func (s Stroke) Len() int               { return s.path.Len() }

// Blend is destructive for eraser strokes and normal otherwise.
func (s Stroke) Blend() vector.BlendMode {
	if s.eraser {
		return vector.BlendClear
	}
	return vector.BlendNormal
}

// Path returns a copy of the stroke geometry.
func (s Stroke) Path() vector.Path { return s.path.Clone() }

// Polylines returns the subpaths as fresh point slices.
func (s Stroke) Polylines() [][]vector.Pt { return s.path.Polylines() }

// Bounds is the geometric bounding box, not including the line width.
func (s Stroke) Bounds() (vector.Rect, bool) { return s.path.Bounds() }

// InkBounds grows Bounds by half the line width, covering every painted pixel.
func (s Stroke) InkBounds() (vector.Rect, bool) {
	b, ok := s.path.Bounds()
	if !ok {
		return b, false
	}
	hw := s.width / 2
	return b.Inset(-hw, -hw), true
}
