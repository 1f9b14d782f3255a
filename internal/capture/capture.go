/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package capture rasterizes a selected region of the stroke history and
// exports it for analysis.
//
// Every Submit starts a new capture identified by a monotonically
// increasing sequence number and a random ID. Only the newest capture may
// change the visible result; older ones keep running to completion and are
// recorded as superseded, but their outcome never overwrites newer state.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"inknote/internal/analysis"
	"inknote/internal/ink"
	applog "inknote/internal/log"
	"inknote/internal/render"
	"inknote/internal/vector"
)

// Status is the export state of a capture.
type Status uint8

const (
	Idle Status = iota
	Sending
	Sent
	Failed
	MissingCredential
)

func (s Status) String() string {
	switch s {
	case Sending:
		return "sending"
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	case MissingCredential:
		return "missing_credential"
	default:
		return "idle"
	}
}

// Terminal reports whether no further transition follows s.
func (s Status) Terminal() bool { return s == Sent || s == Failed || s == MissingCredential }

// Result is one capture and its export outcome.
type Result struct {
	Seq  uint64
	ID   string
	Rect vector.Rect
	// Image is the PNG encoding of the rasterized region.
	Image         []byte
	Width, Height int
	Status        Status
	// Text is the analysis reply once Sent.
	Text string
	// Reason explains Failed: an opaque server body or a transport error.
	Reason     string
	Started    time.Time
	Finished   time.Time
	Superseded bool
}

// Source provides the committed strokes, read once per capture.
type Source interface {
	Strokes() []ink.Stroke
}

// Analyzer is the export endpoint.
type Analyzer interface {
	HasCredential() bool
	Analyze(ctx context.Context, pngData []byte) (string, error)
}

// Recorder receives every capture that reached a terminal status,
// superseded ones included.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, r Result) error

func (f RecorderFunc) Record(ctx context.Context, r Result) error { return f(ctx, r) }

// Options configures a Service.
type Options struct {
	Background vector.Color
	Recorder   Recorder
	// Now is the clock stamped on results; time.Now when nil.
	Now func() time.Time
}

// Service runs captures. It implements the region sink of the gesture
// arbiter.
type Service struct {
	src Source
	an  Analyzer
	bg  vector.Color
	rec Recorder
	now func() time.Time
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	seq      uint64
	current  Result
	visible  bool
	onChange func(Result, bool)
}

func New(src Source, an Analyzer, opt Options) *Service {
	if opt.Now == nil {
		opt.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		src:    src,
		an:     an,
		bg:     opt.Background,
		rec:    opt.Recorder,
		now:    opt.Now,
		log:    applog.WithComponent("capture"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// OnChange registers the listener for the visible result. It fires with
// visible=false after Dismiss.
func (s *Service) OnChange(fn func(r Result, visible bool)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Submit starts a capture of rect.
func (s *Service) Submit(rect vector.Rect) { s.Start(rect) }

// Start starts a capture of rect and returns its sequence number. The
// strokes are read here; rasterizing and exporting continue in the
// background.
func (s *Service) Start(rect vector.Rect) uint64 {
	strokes := s.src.Strokes()
	s.mu.Lock()
	s.seq++
	r := Result{Seq: s.seq, ID: uuid.NewString(), Rect: rect.Norm(), Started: s.now()}
	s.mu.Unlock()
	s.publish(r)

	s.wg.Add(1)
	go s.run(r, strokes)
	return r.Seq
}

func (s *Service) run(r Result, strokes []ink.Stroke) {
	defer s.wg.Done()
	l := applog.WithCapture(s.log, r.Seq, r.ID)
	defer func() {
		if p := recover(); p != nil {
			l.Error("capture panicked", slog.Any("panic", p))
			r.Status, r.Reason = Failed, fmt.Sprint("internal error: ", p)
			s.finish(l, r)
		}
	}()

	img := render.Region(strokes, r.Rect, s.bg)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		r.Status, r.Reason = Failed, fmt.Sprintf("encode: %v", err)
		s.finish(l, r)
		return
	}
	r.Image = buf.Bytes()
	r.Width, r.Height = img.Bounds().Dx(), img.Bounds().Dy()

	if !s.an.HasCredential() {
		r.Status = MissingCredential
		s.finish(l, r)
		return
	}
	r.Status = Sending
	s.publish(r)
	l.Debug("export started", slog.Int("bytes", len(r.Image)))

	text, err := s.an.Analyze(applog.ContextWithCapture(s.ctx, r.Seq, r.ID), r.Image)
	switch {
	case errors.Is(err, analysis.ErrMissingCredential):
		r.Status = MissingCredential
	case err != nil:
		r.Status = Failed
		var se *analysis.StatusError
		if errors.As(err, &se) {
			r.Reason = se.Body
		} else {
			r.Reason = err.Error()
		}
	default:
		r.Status, r.Text = Sent, text
	}
	s.finish(l, r)
}

// finish stamps a terminal result, publishes it when still current and
// hands it to the recorder either way.
func (s *Service) finish(l *slog.Logger, r Result) {
	r.Finished = s.now()
	r.Superseded = !s.publish(r)
	l.Info("capture finished", slog.String("status", r.Status.String()), slog.Bool("superseded", r.Superseded), slog.Duration("took", r.Finished.Sub(r.Started)))
	if r.Status == Failed {
		l.Warn("export failed", slog.String("reason", r.Reason))
	}
	if s.rec == nil {
		return
	}
	ctx := applog.ContextWithCapture(context.WithoutCancel(s.ctx), r.Seq, r.ID)
	if err := s.rec.Record(ctx, r); err != nil {
		l.Warn("record capture failed", slog.Any("err", err))
	}
}

// publish makes r the visible result if it belongs to the newest capture.
// It reports whether r was current.
func (s *Service) publish(r Result) bool {
	s.mu.Lock()
	if r.Seq != s.seq {
		s.mu.Unlock()
		return false
	}
	s.current, s.visible = r, true
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(r, true)
	}
	return true
}

// Current returns the visible result.
func (s *Service) Current() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.visible
}

// Dismiss hides the visible result. A capture still in flight is
// superseded so its outcome does not bring the panel back.
func (s *Service) Dismiss() {
	s.mu.Lock()
	if !s.visible {
		s.mu.Unlock()
		return
	}
	if !s.current.Status.Terminal() {
		s.seq++
	}
	s.visible = false
	r := s.current
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(r, false)
	}
}

// Wait blocks until every started capture has finished.
func (s *Service) Wait() { s.wg.Wait() }

// Close aborts exports in flight and waits for them.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
