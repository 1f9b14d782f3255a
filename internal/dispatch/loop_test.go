/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dispatch

import (
	"context"
	"testing"
	"time"
)

func TestLoopRunsInPostOrder(t *testing.T) {
	l := New()
	defer l.Close()
	var got []int
	for i := 0; i < 100; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(got) != 100 {
		t.Fatalf("expected 100 tasks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestLoopSurvivesPanickingTask(t *testing.T) {
	l := New()
	defer l.Close()
	ran := false
	l.Post(func() { panic("boom") })
	l.Post(func() { ran = true })
	if err := l.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !ran {
		t.Fatalf("task after panic did not run")
	}
}

func TestCloseDrainsAndRejects(t *testing.T) {
	l := New()
	n := 0
	for i := 0; i < 10; i++ {
		l.Post(func() { n++ })
	}
	l.Close()
	if n != 10 {
		t.Fatalf("expected queued tasks to drain, got %d", n)
	}
	if l.Post(func() {}) {
		t.Fatalf("Post after Close must report false")
	}
	if err := l.Sync(context.Background()); err != nil {
		t.Fatalf("Sync after Close: %v", err)
	}
}
