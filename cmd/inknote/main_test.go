/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const replayScript = `tool pen
down 10 10
move 60 10
up
tool select
down 0 0
move 50 50
up 100 100
`

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("INK_CONFIG", filepath.Join(dir, "config.yaml"))
	// A key in the environment keeps the OS keychain out of the test.
	t.Setenv("INK_ANALYSIS_KEY", "unused")
	t.Setenv("INK_JOURNAL_DRIVER", "sqlite")
	t.Setenv("INK_JOURNAL_DSN", filepath.Join(dir, "journal.db"))
	t.Setenv("INK_TELEMETRY_OPT_IN", "")
	return dir
}

func TestParseReplayFlags(t *testing.T) {
	path, f, err := parseReplayFlags([]string{"s.ink", "-out", "a.png", "-offline"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if path != "s.ink" || f.out != "a.png" || !f.offline || f.size != "800x600" {
		t.Fatalf("unexpected result %q %+v", path, f)
	}
	path, f, err = parseReplayFlags([]string{"-report", "r.pdf", "s.ink"})
	if err != nil || path != "s.ink" || f.report != "r.pdf" {
		t.Fatalf("flags before path: %q %+v %v", path, f, err)
	}
	_, _, err = parseReplayFlags(nil)
	var ue usageError
	if !errors.As(err, &ue) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestParseSize(t *testing.T) {
	if w, h, err := parseSize("640X480"); err != nil || w != 640 || h != 480 {
		t.Fatalf("got %d %d %v", w, h, err)
	}
	for _, bad := range []string{"640", "0x10", "ax10", "10x-1"} {
		if _, _, err := parseSize(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestReplayOfflineWritesArtifactsAndJournal(t *testing.T) {
	dir := isolate(t)
	scriptPath := filepath.Join(dir, "draw.ink")
	if err := os.WriteFile(scriptPath, []byte(replayScript), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "canvas.png")
	report := filepath.Join(dir, "report.pdf")
	card := filepath.Join(dir, "card.png")

	var buf bytes.Buffer
	if err := runReplay([]string{scriptPath, "-offline", "-size", "200x120", "-out", out, "-report", report, "-card", card}, &buf); err != nil {
		t.Fatalf("replay: %v\n%s", err, buf.String())
	}
	got := buf.String()
	if !strings.Contains(got, "strokes: 1") || !strings.Contains(got, "missing_credential") || !strings.Contains(got, "(100x100)") {
		t.Fatalf("unexpected output:\n%s", got)
	}
	for _, p := range []string{out, report, card} {
		if fi, err := os.Stat(p); err != nil || fi.Size() == 0 {
			t.Fatalf("expected %s to be written: %v", p, err)
		}
	}

	buf.Reset()
	if err := runJournal([]string{"5"}, &buf); err != nil {
		t.Fatalf("journal: %v", err)
	}
	if !strings.Contains(buf.String(), "missing_credential") {
		t.Fatalf("journal should list the capture:\n%s", buf.String())
	}

	buf.Reset()
	if err := runSearch([]string{"no such reply"}, &buf); err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(buf.String(), "No captures recorded.") {
		t.Fatalf("unexpected search output:\n%s", buf.String())
	}
}

func TestReplayReportsScriptErrors(t *testing.T) {
	dir := isolate(t)
	scriptPath := filepath.Join(dir, "bad.ink")
	if err := os.WriteFile(scriptPath, []byte("tool pen\nscribble 1 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := runReplay([]string{scriptPath}, &buf); err == nil {
		t.Fatal("expected error for bad script")
	}
	if !strings.Contains(buf.String(), "bad.ink:2:") {
		t.Fatalf("expected a positioned error, got %q", buf.String())
	}
}
