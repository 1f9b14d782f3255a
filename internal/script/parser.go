/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"inknote/internal/tool"
	"inknote/internal/vector"
)

var (
	reCommand = regexp.MustCompile(`^([A-Za-z]+)\b\s*(.*)$`)
	reNumber  = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)$`)
)

// Parse parses a gesture script into steps. Bad lines are reported and
// skipped; the remaining steps are still returned.
func Parse(input string) ([]Step, []Error) {
	var (
		steps []Step
		errs  []Error
	)
	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	fail := func(col int, format string, args ...any) {
		errs = append(errs, Error{Line: lineNo, Column: col, Message: fmt.Sprintf(format, args...)})
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trim := strings.TrimSpace(line)
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		col := strings.Index(line, trim) + 1
		// trailing comments
		if i := strings.Index(trim, "#"); i >= 0 {
			trim = strings.TrimSpace(trim[:i])
		}
		m := reCommand.FindStringSubmatch(trim)
		if m == nil {
			fail(col, "expected a command, got %q", trim)
			continue
		}
		op, ok := opNames[strings.ToLower(m[1])]
		if !ok {
			fail(col, "unknown command %q", m[1])
			continue
		}
		args := strings.Fields(m[2])
		st := Step{Op: op, LineNo: lineNo}

		switch op {
		case OpTool:
			if len(args) != 1 {
				fail(col, "tool takes one argument")
				continue
			}
			mode, err := tool.ParseMode(args[0])
			if err != nil {
				fail(col, "%v", err)
				continue
			}
			st.Mode = mode
		case OpDown, OpMove, OpUp:
			if op == OpUp && len(args) == 0 {
				break
			}
			if len(args) != 2 {
				fail(col, "%s takes x and y", op)
				continue
			}
			p, err := parsePoint(args[0], args[1])
			if err != nil {
				fail(col, "%s: %v", op, err)
				continue
			}
			st.Pt, st.HasPt = p, true
		case OpWait:
			if len(args) != 1 {
				fail(col, "wait takes a duration")
				continue
			}
			d, err := time.ParseDuration(args[0])
			if err != nil || d < 0 {
				fail(col, "bad duration %q", args[0])
				continue
			}
			st.Wait = d
		default:
			if len(args) != 0 {
				fail(col, "%s takes no arguments", op)
				continue
			}
		}
		steps = append(steps, st)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return steps, errs
}

func parsePoint(xs, ys string) (vector.Pt, error) {
	if !reNumber.MatchString(xs) || !reNumber.MatchString(ys) {
		return vector.Pt{}, fmt.Errorf("bad coordinates %q %q", xs, ys)
	}
	x, err := strconv.ParseFloat(xs, 32)
	if err != nil {
		return vector.Pt{}, err
	}
	y, err := strconv.ParseFloat(ys, 32)
	if err != nil {
		return vector.Pt{}, err
	}
	return vector.Pt{X: float32(x), Y: float32(y)}, nil
}
