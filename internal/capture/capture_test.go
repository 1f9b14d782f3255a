/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package capture

import (
	"bytes"
	"context"
	"image/png"
	"sync"
	"testing"
	"time"

	"inknote/internal/analysis"
	"inknote/internal/ink"
	"inknote/internal/tool"
	"inknote/internal/vector"
)

type strokeList []ink.Stroke

func (l strokeList) Strokes() []ink.Stroke { return l }

type reply struct {
	text string
	err  error
}

// gated answers the n-th Analyze call with whatever is sent on replies[n].
type gated struct {
	cred    bool
	mu      sync.Mutex
	calls   int
	started []chan struct{}
	replies []chan reply
}

func newGated(n int, cred bool) *gated {
	g := &gated{cred: cred}
	for i := 0; i < n; i++ {
		g.started = append(g.started, make(chan struct{}))
		g.replies = append(g.replies, make(chan reply, 1))
	}
	return g
}

func (g *gated) HasCredential() bool { return g.cred }

func (g *gated) Analyze(ctx context.Context, _ []byte) (string, error) {
	g.mu.Lock()
	i := g.calls
	g.calls++
	g.mu.Unlock()
	close(g.started[i])
	r := <-g.replies[i]
	if r.err != nil && r.err.Error() == "boom" {
		panic("boom")
	}
	return r.text, r.err
}

func (g *gated) waitStarted(t *testing.T, i int) {
	t.Helper()
	select {
	case <-g.started[i]:
	case <-time.After(5 * time.Second):
		t.Fatalf("analyze call %d never started", i)
	}
}

type records struct {
	mu  sync.Mutex
	got []Result
}

func (r *records) Record(_ context.Context, res Result) error {
	r.mu.Lock()
	r.got = append(r.got, res)
	r.mu.Unlock()
	return nil
}

func (r *records) bySeq(seq uint64) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, res := range r.got {
		if res.Seq == seq {
			return res, true
		}
	}
	return Result{}, false
}

func oneStroke() strokeList {
	var p vector.Path
	p.MoveTo(0, 0)
	p.LineTo(5, 5)
	return strokeList{ink.NewStroke(p, tool.DefaultStyle().ParamsFor(tool.Pen))}
}

func TestNewerCaptureSupersedesOlder(t *testing.T) {
	an := newGated(2, true)
	rec := &records{}
	svc := New(oneStroke(), an, Options{Background: vector.White, Recorder: rec})
	defer svc.Close()

	first := svc.Start(vector.R(0, 0, 10, 10))
	an.waitStarted(t, 0)
	second := svc.Start(vector.R(0, 0, 20, 20))
	an.waitStarted(t, 1)
	if second <= first {
		t.Fatalf("sequence must increase: %d then %d", first, second)
	}

	an.replies[1] <- reply{text: "new"}
	an.replies[0] <- reply{text: "old"}
	svc.Wait()

	cur, visible := svc.Current()
	if !visible || cur.Seq != second || cur.Status != Sent || cur.Text != "new" {
		t.Fatalf("stale result overwrote newer state: %+v", cur)
	}
	old, ok := rec.bySeq(first)
	if !ok || !old.Superseded || old.Text != "old" {
		t.Fatalf("superseded capture not recorded as such: %+v", old)
	}
	if newer, _ := rec.bySeq(second); newer.Superseded {
		t.Fatalf("current capture marked superseded")
	}
}

func TestMissingCredentialIsTerminalWithImage(t *testing.T) {
	an := newGated(0, false)
	rec := &records{}
	svc := New(oneStroke(), an, Options{Background: vector.White, Recorder: rec})
	defer svc.Close()

	svc.Submit(vector.R(10, 10, 100, 100))
	svc.Wait()
	cur, visible := svc.Current()
	if !visible || cur.Status != MissingCredential {
		t.Fatalf("expected MissingCredential, got %+v", cur)
	}
	img, err := png.Decode(bytes.NewReader(cur.Image))
	if err != nil {
		t.Fatalf("decode capture: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 || cur.Width != 100 || cur.Height != 100 {
		t.Fatalf("unexpected capture size %v", b)
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected one record, got %d", len(rec.got))
	}
}

func TestFailureKeepsServerBodyAsReason(t *testing.T) {
	an := newGated(1, true)
	svc := New(oneStroke(), an, Options{})
	defer svc.Close()

	var mu sync.Mutex
	var seen []Status
	svc.OnChange(func(r Result, _ bool) {
		mu.Lock()
		seen = append(seen, r.Status)
		mu.Unlock()
	})
	svc.Submit(vector.R(0, 0, 10, 10))
	an.waitStarted(t, 0)
	an.replies[0] <- reply{err: &analysis.StatusError{Code: 500, Body: "upstream down"}}
	svc.Wait()

	cur, _ := svc.Current()
	if cur.Status != Failed || cur.Reason != "upstream down" {
		t.Fatalf("unexpected result %+v", cur)
	}
	mu.Lock()
	defer mu.Unlock()
	want := []Status{Idle, Sending, Failed}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transitions = %v, want %v", seen, want)
		}
	}
}

func TestPanicInExportBecomesFailed(t *testing.T) {
	an := newGated(1, true)
	svc := New(oneStroke(), an, Options{})
	defer svc.Close()

	svc.Submit(vector.R(0, 0, 10, 10))
	an.waitStarted(t, 0)
	an.replies[0] <- reply{err: errBoom}
	svc.Wait()
	if cur, _ := svc.Current(); cur.Status != Failed {
		t.Fatalf("expected Failed after panic, got %v", cur.Status)
	}
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom error = boomErr{}

func TestDismissHidesAndSupersedesInFlight(t *testing.T) {
	an := newGated(1, true)
	rec := &records{}
	svc := New(oneStroke(), an, Options{Recorder: rec})
	defer svc.Close()

	seq := svc.Start(vector.R(0, 0, 10, 10))
	an.waitStarted(t, 0)
	svc.Dismiss()
	an.replies[0] <- reply{text: "late"}
	svc.Wait()

	if _, visible := svc.Current(); visible {
		t.Fatalf("dismissed result came back")
	}
	if r, ok := rec.bySeq(seq); !ok || !r.Superseded || r.Status != Sent {
		t.Fatalf("late result not recorded as superseded: %+v", r)
	}
}

func TestDismissAfterTerminalKeepsSequence(t *testing.T) {
	an := newGated(0, false)
	svc := New(oneStroke(), an, Options{})
	defer svc.Close()

	first := svc.Start(vector.R(0, 0, 10, 10))
	svc.Wait()
	svc.Dismiss()
	if _, visible := svc.Current(); visible {
		t.Fatalf("expected hidden result")
	}
	if next := svc.Start(vector.R(0, 0, 10, 10)); next != first+1 {
		t.Fatalf("sequence jumped: %d -> %d", first, next)
	}
	svc.Wait()
}
