/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ink

import (
	"sync"

	"inknote/internal/vector"
)

// DotEpsilon is the length of the synthetic segment Begin adds so a tap
// without movement still renders as a round dot.
const DotEpsilon = 0.01

// Builder accumulates the points of one gesture into a growing path. It
// owns no history and is reused gesture after gesture.
//
// Mutations happen on the input track; Current may be called from the
// renderer concurrently.
type Builder struct {
	mu       sync.Mutex
	path     vector.Path
	onChange func()
}

func NewBuilder() *Builder { return &Builder{} }

// OnChange registers the renderer hook fired after every geometry change.
func (b *Builder) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Begin resets the path to a near zero-length segment at p.
func (b *Builder) Begin(p vector.Pt) {
	b.mu.Lock()
	b.path.Reset()
	b.path.MoveTo(p.X, p.Y)
	b.path.LineTo(p.X+DotEpsilon, p.Y+DotEpsilon)
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Extend appends a segment from the last point to p. Repeating the last
// point adds nothing and fires no change.
func (b *Builder) Extend(p vector.Pt) {
	b.mu.Lock()
	if last, ok := b.path.Last(); ok && last == p {
		b.mu.Unlock()
		return
	}
	b.path.LineTo(p.X, p.Y)
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SnapshotAndReset hands out the accumulated path and clears the builder.
// The returned path shares no memory with the builder.
func (b *Builder) SnapshotAndReset() vector.Path {
	b.mu.Lock()
	out := b.path.Clone()
	b.path.Reset()
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
	return out
}

// Current returns a copy of the in-progress path for rendering.
func (b *Builder) Current() vector.Path {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path.Clone()
}

// Active reports whether a gesture path is being accumulated.
func (b *Builder) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.path.Empty()
}
