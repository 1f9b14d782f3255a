/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"inknote/internal/board"
	"inknote/internal/capture"
	"inknote/internal/config"
	"inknote/internal/crash"
	"inknote/internal/export"
	"inknote/internal/gesture"
	"inknote/internal/journal"
	applog "inknote/internal/log"
	"inknote/internal/script"
	"inknote/internal/ui"
	"inknote/internal/version"
)

func usage() {
	fmt.Println("InkNote: freehand ink with region capture")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inknote version|-v|--version                 Show version")
	fmt.Println("  inknote ui                                   Launch desktop UI (build with -tags fyne for full UI)")
	fmt.Println("  inknote replay <script> [flags]              Play a gesture script on a headless board")
	fmt.Println("      -out <file.png>      write the final canvas")
	fmt.Println("      -report <file.pdf>   write a report of the visible capture")
	fmt.Println("      -card <file.png>     write the visible capture with its reply below it")
	fmt.Println("      -size WxH            canvas size for -out (default 800x600)")
	fmt.Println("      -offline             never call the analysis endpoint")
	fmt.Println("  inknote journal [n]                          List the n most recent captures (default 20)")
	fmt.Println("  inknote search <text> [n]                    List captures whose reply or failure mentions <text>")
	fmt.Println("  inknote login                                Read an API key from stdin into the OS keychain")
	fmt.Println("  inknote logout                               Remove the stored API key")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(crash.Options{})

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("InkNote")
		fmt.Println(version.String())
		return
	case "ui":
		err = runUI()
	case "replay":
		err = runReplay(args[2:], os.Stdout)
	case "journal":
		err = runJournal(args[2:], os.Stdout)
	case "search":
		err = runSearch(args[2:], os.Stdout)
	case "login":
		err = runLogin(os.Stdin)
	case "logout":
		if err = config.ForgetCredential(); err == nil {
			fmt.Println("Removed stored API key.")
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Println(ue.msg)
			usage()
			os.Exit(2)
		}
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func loadConfig() (config.AppConfig, string) {
	cfg, key, err := config.Load()
	if err != nil {
		applog.WithComponent("cli").Warn("config load failed, using defaults", slog.Any("err", err))
	}
	// The config file's logging section replaces the env-only setup from main.
	applog.Init(cfg.Logging.Options())
	return cfg, key
}

func runUI() error {
	cfg, key := loadConfig()
	s, err := openSession(context.Background(), cfg, key)
	if err != nil {
		return err
	}
	defer s.Close()
	face, err := cfg.Export.CaptionFace()
	if err != nil {
		applog.WithComponent("cli").Warn("caption font unavailable, using built-in", slog.Any("err", err))
	}
	return ui.Run(ui.Options{Board: s.opt, CaptionFace: face})
}

type replayFlags struct {
	out     string
	report  string
	card    string
	size    string
	offline bool
}

func parseReplayFlags(args []string) (string, replayFlags, error) {
	var f replayFlags
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&f.out, "out", "", "")
	fs.StringVar(&f.report, "report", "", "")
	fs.StringVar(&f.card, "card", "", "")
	fs.StringVar(&f.size, "size", "800x600", "")
	fs.BoolVar(&f.offline, "offline", false, "")
	// Allow the script path before or after the flags.
	var path string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", f, usageError{msg: "replay: " + err.Error()}
	}
	if path == "" && fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		return "", f, usageError{msg: "replay requires <script>"}
	}
	return path, f, nil
}

func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("size %q: bad width", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("size %q: bad height", s)
	}
	return w, h, nil
}

func runReplay(args []string, stdout io.Writer) error {
	l := applog.WithComponent("cli")
	path, f, err := parseReplayFlags(args)
	if err != nil {
		return err
	}
	w, h, err := parseSize(f.size)
	if err != nil {
		return usageError{msg: err.Error()}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	steps, perrs := script.Parse(string(src))
	if len(perrs) > 0 {
		for _, e := range perrs {
			fmt.Fprintf(stdout, "%s:%d:%d: %s\n", path, e.Line, e.Column, e.Message)
		}
		return fmt.Errorf("%d script error(s)", len(perrs))
	}

	cfg, key := loadConfig()
	if f.offline {
		key = ""
	}
	ctx := context.Background()
	s, err := openSession(ctx, cfg, key)
	if err != nil {
		return err
	}
	defer s.Close()

	opt := s.opt
	opt.Clock = gesture.NewManualClock(time.Unix(0, 0).UTC())
	b := board.New(opt)
	defer b.Close()
	defer crash.Recover(crash.Options{Autosave: b})

	l.Info("replay", slog.String("script", path), slog.Int("steps", len(steps)))
	if err := script.Play(ctx, steps, b); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(ctx, cfg.Analysis.Timeout()+5*time.Second)
	defer cancel()
	if err := b.WaitCaptures(waitCtx); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "strokes: %d  tool: %s  undo: %t  redo: %t\n", len(b.Strokes()), b.Tool(), b.CanUndo(), b.CanRedo())
	r, visible := b.Capture()
	if visible {
		printCapture(stdout, r)
	}
	if f.out != "" {
		if err := export.WriteImage(b.Render(w, h), f.out); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "canvas written to", f.out)
	}
	if f.report != "" {
		if !visible {
			return fmt.Errorf("no visible capture to report")
		}
		if err := export.WritePDFReport(r, f.report, export.PDFOptions{}); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "report written to", f.report)
	}
	if f.card != "" {
		if !visible {
			return fmt.Errorf("no visible capture for a card")
		}
		face, err := cfg.Export.CaptionFace()
		if err != nil {
			return err
		}
		if err := export.WriteCard(r, f.card, face); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "card written to", f.card)
	}
	return nil
}

func printCapture(out io.Writer, r capture.Result) {
	fmt.Fprintf(out, "capture #%d %s: %s (%dx%d)\n", r.Seq, r.ID, r.Status, r.Width, r.Height)
	switch {
	case r.Status == capture.Sent:
		fmt.Fprintln(out, r.Text)
	case r.Reason != "":
		fmt.Fprintln(out, r.Reason)
	}
}

func parseCount(args []string, cmd string) (int, error) {
	if len(args) == 0 {
		return 20, nil
	}
	v, err := strconv.Atoi(args[0])
	if err != nil || v <= 0 {
		return 0, usageError{msg: cmd + ": n must be a positive number"}
	}
	return v, nil
}

func runJournal(args []string, stdout io.Writer) error {
	n, err := parseCount(args, "journal")
	if err != nil {
		return err
	}
	return withJournal(func(ctx context.Context, j *journal.Journal) error {
		entries, err := j.Recent(ctx, n)
		if err != nil {
			return err
		}
		printEntries(stdout, entries)
		return nil
	})
}

func runSearch(args []string, stdout io.Writer) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return usageError{msg: "search requires <text>"}
	}
	n, err := parseCount(args[1:], "search")
	if err != nil {
		return err
	}
	return withJournal(func(ctx context.Context, j *journal.Journal) error {
		entries, err := j.Search(ctx, args[0], n)
		if err != nil {
			return err
		}
		printEntries(stdout, entries)
		return nil
	})
}

func withJournal(fn func(context.Context, *journal.Journal) error) error {
	cfg, _ := loadConfig()
	if cfg.Journal.Driver == "" || cfg.Journal.Driver == "none" {
		return fmt.Errorf("journal is disabled (driver %q)", cfg.Journal.Driver)
	}
	ctx := context.Background()
	j, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.JournalDSN())
	if err != nil {
		return err
	}
	defer j.Close()
	return fn(ctx, j)
}

func printEntries(stdout io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No captures recorded.")
		return
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  #%d  %-18s %4dx%-4d %s",
			e.Finished.Local().Format("2006-01-02 15:04:05"), e.Seq, e.Status, e.Width, e.Height, e.ID)
		if e.Superseded {
			line += "  (superseded)"
		}
		fmt.Fprintln(stdout, line)
		if t := firstLine(e.Text); t != "" {
			fmt.Fprintln(stdout, "    "+t)
		} else if t := firstLine(e.Reason); t != "" {
			fmt.Fprintln(stdout, "    "+t)
		}
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100]) + "…"
	}
	return s
}

func runLogin(in io.Reader) error {
	fmt.Println("Paste the analysis API key and press Enter:")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return usageError{msg: "login: empty key"}
	}
	cfg, _ := loadConfig()
	if err := config.Save(cfg, key); err != nil {
		return err
	}
	fmt.Println("API key stored in the OS keychain.")
	return nil
}
