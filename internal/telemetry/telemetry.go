/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends opt-in anonymous usage counts (strokes committed,
// capture outcomes) and crash reports. Nothing is sent unless the user opted
// in and an endpoint is configured. Events never carry ink geometry, region
// images or reply text.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "inknote/internal/log"
	"inknote/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
//
// Environment variables (read by FromEnv):
//   - INK_TELEMETRY_OPT_IN: "1", "true", "yes" or "on" to enable
//   - INK_TELEMETRY_URL: endpoint events are POSTed to as JSON
//   - INK_CRASH_UPLOAD_URL: endpoint crash reports are POSTed to
//   - INK_TELEMETRY_TIMEOUT_MS: request timeout, default 1500ms
//   - INK_TELEMETRY_DEBUG: if set, logs send attempts
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("INK_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("INK_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("INK_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("INK_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("INK_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Event names.
const (
	EventStrokeCommitted = "stroke_committed"
	EventCaptureFinished = "capture_finished"
)

type event struct {
	name  string
	at    time.Time
	props map[string]any
}

// payload flattens e into the wire object. Base fields win over props.
func (e event) payload() map[string]any {
	m := make(map[string]any, len(e.props)+5)
	for k, v := range e.props {
		m[k] = v
	}
	m["name"] = e.name
	m["ts"] = e.at.UTC().Format(time.RFC3339Nano)
	m["version"] = version.String()
	m["os"] = runtime.GOOS
	m["arch"] = runtime.GOARCH
	return m
}

// Client sends events from a single background goroutine. The queue is
// bounded and full queues drop, so callers on the input track never block.
// A nil *Client is valid and sends nothing.
type Client struct {
	cfg  Config
	log  *slog.Logger
	cli  *http.Client
	q    chan event
	stop chan struct{}
	once sync.Once
	// pending counts queued events and crash uploads not yet finished.
	pending atomic.Int64
}

// New constructs a client and starts its sender.
func New(cfg Config) *Client {
	c := &Client{
		cfg:  cfg,
		log:  applog.WithComponent("telemetry"),
		cli:  &http.Client{Timeout: cfg.Timeout},
		q:    make(chan event, 64),
		stop: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether events would be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event queues name with props. props must not hold personal data.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	c.pending.Add(1)
	select {
	case c.q <- event{name: name, at: time.Now(), props: props}:
	default:
		c.pending.Add(-1)
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry queue full, event dropped", slog.String("event", name))
		}
	}
}

// StrokeCommitted counts a committed stroke.
func (c *Client) StrokeCommitted(eraser bool, segments int) {
	c.Event(EventStrokeCommitted, map[string]any{"eraser": eraser, "segments": segments})
}

// CaptureFinished reports a capture's terminal status.
func (c *Client) CaptureFinished(status string, superseded bool, took time.Duration) {
	c.Event(EventCaptureFinished, map[string]any{
		"status":     status,
		"superseded": superseded,
		"ms":         took.Milliseconds(),
	})
}

// UploadCrash posts an already serialized crash report when opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.pending.Add(1)
	go func(b []byte) {
		defer c.pending.Add(-1)
		if err := c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b); err != nil {
			c.debug("crash upload failed", slog.Any("err", err))
			return
		}
		c.debug("crash report uploaded")
	}(append([]byte(nil), report...))
}

// Flush waits until queued events and crash uploads are done, ctx ends or
// the request timeout has passed twice over.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	deadline := time.Now().Add(2*c.cfg.Timeout + 100*time.Millisecond)
	for c.pending.Load() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Close stops the sender. Events still queued are dropped.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

func (c *Client) loop() {
	for {
		select {
		case <-c.stop:
			return
		case e := <-c.q:
			c.send(e)
			c.pending.Add(-1)
		}
	}
}

func (c *Client) send(e event) {
	buf, err := json.Marshal(e.payload())
	if err != nil {
		c.debug("telemetry encode failed", slog.String("event", e.name), slog.Any("err", err))
		return
	}
	if err := c.post(c.cfg.EventsURL, "application/json", buf); err != nil {
		c.debug("telemetry send failed", slog.String("event", e.name), slog.Any("err", err))
		return
	}
	c.debug("telemetry event sent", slog.String("event", e.name))
}

func (c *Client) post(url, contentType string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *Client) debug(msg string, attrs ...any) {
	if c.cfg.DebugLogging {
		c.log.Debug(msg, attrs...)
	}
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// SetDefault installs c as the client used by the package-level helpers,
// so crash uploads share the session's sender.
func SetDefault(c *Client) {
	defaultMu.Lock()
	defaultClient = c
	defaultMu.Unlock()
}

// Default returns the installed client, creating one from the environment
// on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// Enabled reports whether the default client sends events.
func Enabled() bool { return Default().Enabled() }

// UploadCrash uploads through the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }

// Flush waits for the default client.
func Flush(ctx context.Context) { Default().Flush(ctx) }
