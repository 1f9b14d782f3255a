/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package gesture

import (
	"sync"

	"inknote/internal/vector"
)

// Selection is the transient region-select rectangle. It only exists
// between a region gesture's begin and its end; the renderer observes it
// through OnChange.
type Selection struct {
	mu       sync.Mutex
	rect     vector.Rect
	visible  bool
	onChange func(vector.Rect, bool)
}

// OnChange registers the renderer hook fired on every change.
func (s *Selection) OnChange(fn func(r vector.Rect, visible bool)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Get returns the current rectangle and whether it is shown.
func (s *Selection) Get() (vector.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect, s.visible
}

func (s *Selection) show(r vector.Rect) { s.set(r, true) }

// hide makes the rectangle invisible and returns its final value.
func (s *Selection) hide() vector.Rect {
	s.mu.Lock()
	r := s.rect
	s.mu.Unlock()
	s.set(vector.Rect{}, false)
	return r
}

func (s *Selection) set(r vector.Rect, visible bool) {
	s.mu.Lock()
	s.rect, s.visible = r, visible
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(r, visible)
	}
}
