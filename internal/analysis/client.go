/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package analysis sends captured ink to a multimodal analysis endpoint and
// extracts the reply text.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "inknote/internal/log"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel    = "gemini-1.5-flash"
	DefaultPrompt   = "Describe and transcribe the handwritten content in this image. " +
		"If it contains a question, a formula or a diagram, explain or solve it concisely."
	DefaultTimeout = 30 * time.Second

	// Placeholder is the reply text when a successful response carries none.
	Placeholder = "(no text in response)"

	// maxBody caps how much of a response is read.
	maxBody = 4 << 20
)

var (
	// ErrMissingCredential means no API key is configured. It is terminal
	// and never retried.
	ErrMissingCredential = errors.New("analysis: no credential configured")
	// ErrEmptyImage rejects a capture that encoded to nothing.
	ErrEmptyImage = errors.New("analysis: empty image")
)

// StatusError is a non-2xx reply. Body is kept verbatim as the reason.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("analysis: server returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("analysis: server returned %d: %s", e.Code, body)
}

// Options configures a Client. Zero fields take the defaults above.
type Options struct {
	Endpoint   string
	Model      string
	Prompt     string
	Credential string
	Timeout    time.Duration
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the generateContent method of the configured model.
type Client struct {
	endpoint   string
	model      string
	prompt     string
	credential string
	client     *http.Client
	log        *slog.Logger
}

// NewClient normalizes opt and returns a client. A trailing slash on the
// endpoint is ignored.
func NewClient(opt Options) *Client {
	if opt.Endpoint == "" {
		opt.Endpoint = DefaultEndpoint
	}
	if opt.Model == "" {
		opt.Model = DefaultModel
	}
	if opt.Prompt == "" {
		opt.Prompt = DefaultPrompt
	}
	if opt.Timeout <= 0 {
		opt.Timeout = DefaultTimeout
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opt.Timeout}
	}
	return &Client{
		endpoint:   strings.TrimRight(opt.Endpoint, "/"),
		model:      opt.Model,
		prompt:     opt.Prompt,
		credential: strings.TrimSpace(opt.Credential),
		client:     hc,
		log:        applog.WithComponent("analysis"),
	}
}

// HasCredential reports whether a request can be attempted at all.
func (c *Client) HasCredential() bool { return c.credential != "" }

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string { return c.model }

// Analyze sends one PNG image with the fixed prompt and returns the reply
// text. There is no retry.
func (c *Client) Analyze(ctx context.Context, pngData []byte) (string, error) {
	if !c.HasCredential() {
		return "", ErrMissingCredential
	}
	if len(pngData) == 0 {
		return "", ErrEmptyImage
	}
	body, err := json.Marshal(NewRequest(c.prompt, "image/png", pngData))
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	u, err := url.Parse(c.endpoint + "/models/" + url.PathEscape(c.model) + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("endpoint: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.credential)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.log.DebugContext(ctx, "analysis response", slog.Int("status", resp.StatusCode), slog.Int("bytes", len(data)), slog.Duration("took", time.Since(start)))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	return ExtractText(data)
}
