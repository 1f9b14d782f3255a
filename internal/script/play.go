/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"context"
	"time"

	"inknote/internal/tool"
	"inknote/internal/vector"
)

// Player is the surface a script drives.
type Player interface {
	SelectTool(m tool.Mode)
	PointerDown(p vector.Pt)
	PointerMove(p vector.Pt)
	PointerUp(p vector.Pt)
	// Advance moves the gesture clock, firing due hold timers.
	Advance(d time.Duration)
	// FireLongPress advances the clock past the hold threshold.
	FireLongPress()
	Undo() bool
	Redo() bool
	Clear() bool
	DismissCapture()
}

// Play runs steps in order against p. It stops early when ctx is done.
func Play(ctx context.Context, steps []Step, p Player) error {
	var last vector.Pt
	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch st.Op {
		case OpTool:
			p.SelectTool(st.Mode)
		case OpDown:
			last = st.Pt
			p.PointerDown(st.Pt)
		case OpMove:
			last = st.Pt
			p.PointerMove(st.Pt)
		case OpUp:
			if st.HasPt {
				last = st.Pt
			}
			p.PointerUp(last)
		case OpWait:
			p.Advance(st.Wait)
		case OpLongPress:
			p.FireLongPress()
		case OpUndo:
			p.Undo()
		case OpRedo:
			p.Redo()
		case OpClear:
			p.Clear()
		case OpDismiss:
			p.DismissCapture()
		}
	}
	return nil
}
