/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tool tracks the active drawing tool and the stroke parameters it
// implies for the next gesture.
package tool

import (
	"fmt"
	"strings"
	"sync"

	"inknote/internal/vector"
)

// Mode is the active tool. Exactly one is active at a time.
type Mode uint8

const (
	Pen Mode = iota
	Eraser
	RegionSelect
)

func (m Mode) String() string {
	switch m {
	case Pen:
		return "pen"
	case Eraser:
		return "eraser"
	case RegionSelect:
		return "select"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode accepts the names produced by String plus a few aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pen", "ink", "draw":
		return Pen, nil
	case "eraser", "erase":
		return Eraser, nil
	case "select", "region", "regionselect", "region-select":
		return RegionSelect, nil
	}
	return Pen, fmt.Errorf("unknown tool %q", s)
}

// Draws reports whether the mode belongs to the draw gesture family.
func (m Mode) Draws() bool { return m == Pen || m == Eraser }

// Params are the drawing parameters derived from a Mode. They are
// snapshotted at gesture begin; later mode changes never touch them.
type Params struct {
	Width float32
	Color vector.Color
	Blend vector.BlendMode
}

// Eraser reports whether strokes drawn with p remove ink.
func (p Params) Eraser() bool { return p.Blend == vector.BlendClear }

// Style configures the widths and colors each mode derives.
type Style struct {
	PenWidth    float32
	PenColor    vector.Color
	EraserWidth float32
	// Background is what erased areas show on the live canvas.
	Background vector.Color
}

// DefaultStyle is a narrow black pen and a wide eraser on white paper.
func DefaultStyle() Style {
	return Style{PenWidth: 3, PenColor: vector.Black, EraserWidth: 24, Background: vector.White}
}

// ParamsFor derives drawing parameters for m. RegionSelect does not draw,
// its parameters are those of the pen and are never used.
func (s Style) ParamsFor(m Mode) Params {
	if m == Eraser {
		return Params{Width: s.EraserWidth, Color: s.Background, Blend: vector.BlendClear}
	}
	return Params{Width: s.PenWidth, Color: s.PenColor, Blend: vector.BlendNormal}
}

// State holds the active mode. It is safe for concurrent use: recognizers
// read it from the input track while selections come from the UI.
type State struct {
	mu       sync.RWMutex
	mode     Mode
	style    Style
	onChange func(Mode)
}

// NewState starts in Pen mode.
func NewState(style Style) *State {
	return &State{mode: Pen, style: style}
}

// OnChange registers a listener invoked after the mode actually changes.
func (s *State) OnChange(fn func(Mode)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Select sets the active mode. Selecting the active mode is a no-op.
func (s *State) Select(m Mode) {
	s.mu.Lock()
	if s.mode == m {
		s.mu.Unlock()
		return
	}
	s.mode = m
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Params returns the parameters the next gesture will snapshot.
func (s *State) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style.ParamsFor(s.mode)
}

// ParamsFor returns the parameters of m under the configured style.
func (s *State) ParamsFor(m Mode) Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style.ParamsFor(m)
}

func (s *State) Style() Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style
}
