/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"time"

	"inknote/internal/tool"
	"inknote/internal/vector"
)

// A gesture script drives the canvas headlessly, one command per line:
//
//	tool pen|eraser|select
//	down X Y
//	move X Y
//	up [X Y]
//	wait DURATION      (Go duration, e.g. 500ms)
//	longpress          (fires a pending hold timer)
//	undo | redo | clear | dismiss
//	# comment

type Op int

const (
	OpTool Op = iota
	OpDown
	OpMove
	OpUp
	OpWait
	OpLongPress
	OpUndo
	OpRedo
	OpClear
	OpDismiss
)

var opNames = map[string]Op{
	"tool":      OpTool,
	"down":      OpDown,
	"move":      OpMove,
	"up":        OpUp,
	"wait":      OpWait,
	"longpress": OpLongPress,
	"undo":      OpUndo,
	"redo":      OpRedo,
	"clear":     OpClear,
	"dismiss":   OpDismiss,
}

func (o Op) String() string {
	for k, v := range opNames {
		if v == o {
			return k
		}
	}
	return "unknown"
}

// Step is one parsed command. Only the fields its Op uses are set.
type Step struct {
	Op   Op
	Mode tool.Mode
	Pt   vector.Pt
	// HasPt is false for a bare "up", which lifts at the last position.
	HasPt  bool
	Wait   time.Duration
	LineNo int // 1-based line number in the source
}

// Error represents a parse error with position context.

type Error struct {
	Line    int
	Column  int
	Message string
}
