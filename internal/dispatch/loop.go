/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dispatch hands work from the latency-sensitive input track to a
// single goroutine that owns application-visible state changes.
package dispatch

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	applog "inknote/internal/log"
)

// Loop runs posted functions one at a time, in post order, on its own
// goroutine. Post never blocks: the queue is unbounded because dropping a
// commit would lose ink.
type Loop struct {
	log     *slog.Logger
	mu      sync.Mutex
	queue   []func()
	closing bool
	wake    chan struct{}
	done    chan struct{}
}

func New() *Loop {
	l := &Loop{
		log:  applog.WithComponent("dispatch"),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post enqueues fn. It reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return true
	}
	l.mu.Lock()
	if l.closing {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
	return true
}

// Sync waits until everything posted before the call has run.
func (l *Loop) Sync(ctx context.Context) error {
	barrier := make(chan struct{})
	if !l.Post(func() { close(barrier) }) {
		<-l.done
		return nil
	}
	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close runs what is already queued, then stops the goroutine.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closing = true
	l.mu.Unlock()
	l.signal()
	<-l.done
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			closing := l.closing
			l.mu.Unlock()
			if closing {
				return
			}
			<-l.wake
			continue
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		l.exec(fn)
	}
}

// exec keeps one failing task from taking the loop down with it.
func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("dispatched task panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	fn()
}
