/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"
	"gopkg.in/yaml.v3"

	"inknote/internal/analysis"
	"inknote/internal/caption"
	applog "inknote/internal/log"
	"inknote/internal/tool"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// CanvasConfig holds the drawing surface defaults and gesture thresholds.
type CanvasConfig struct {
	Background   string  `yaml:"background"`
	PenColor     string  `yaml:"pen_color"`
	PenWidth     float32 `yaml:"pen_width"`
	EraserWidth  float32 `yaml:"eraser_width"`
	MinSelection float32 `yaml:"min_selection"`
	LongPressMs  int     `yaml:"long_press_ms"`
	JitterRadius float32 `yaml:"jitter_radius"`
	MinDistance  float32 `yaml:"min_distance"`
	// HistoryDepth caps committed strokes; 0 keeps everything.
	HistoryDepth int `yaml:"history_depth"`
}

type AnalysisConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	Prompt    string `yaml:"prompt"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The API key is not stored on disk; it lives in the OS keychain.
}

type JournalConfig struct {
	// Driver is "sqlite", "pgx" or "none".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite (default: user cache dir) or a
	// connection string for pgx.
	DSN string `yaml:"dsn"`
}

// ExportConfig controls captioned capture cards.
type ExportConfig struct {
	// CaptionFont is a .ttf/.otf path; empty uses the built-in bitmap font.
	CaptionFont string  `yaml:"caption_font"`
	CaptionSize float64 `yaml:"caption_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Options maps the logging section onto logger options.
func (c LoggingConfig) Options() applog.Options {
	return applog.Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Canvas        CanvasConfig   `yaml:"canvas"`
	Analysis      AnalysisConfig `yaml:"analysis"`
	Journal       JournalConfig  `yaml:"journal"`
	Export        ExportConfig   `yaml:"export"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false},
		Canvas: CanvasConfig{
			Background:   "white",
			PenColor:     "black",
			PenWidth:     3,
			EraserWidth:  24,
			MinSelection: 2,
			LongPressMs:  2000,
			JitterRadius: 10,
		},
		Analysis: AnalysisConfig{
			Endpoint:  analysis.DefaultEndpoint,
			Model:     analysis.DefaultModel,
			Prompt:    analysis.DefaultPrompt,
			TimeoutMs: int(analysis.DefaultTimeout / time.Millisecond),
		},
		Journal: JournalConfig{Driver: "sqlite"},
		Export:  ExportConfig{CaptionSize: 14},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "INK_CONFIG"
	EnvTelemetryOptIn   = "INK_TELEMETRY_OPT_IN"
	EnvAnalysisEndpoint = "INK_ANALYSIS_ENDPOINT"
	EnvAnalysisModel    = "INK_ANALYSIS_MODEL"
	EnvAnalysisTimeout  = "INK_ANALYSIS_TIMEOUT_MS"
	EnvAnalysisKey      = "INK_ANALYSIS_KEY"
	EnvJournalDriver    = "INK_JOURNAL_DRIVER"
	EnvJournalDSN       = "INK_JOURNAL_DSN"
	EnvCaptionFont      = "INK_CAPTION_FONT"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "INK_LOG_LEVEL"
	EnvLogFormat = "INK_LOG_FORMAT"
	EnvLogSource = "INK_LOG_SOURCE"
	EnvLogFile   = "INK_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "InkNote"
	keyringKey     = "analysis_api_key"
)

// credentialStore abstracts keyring, so we can stub in tests.
var credentialStore CredentialStore = osKeyring{}

type CredentialStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// ConfigPath returns the per-user config file path. INK_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "InkNote")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "InkNote")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "inknote")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DataDir returns the per-user cache directory for the journal and crash reports.
func DataDir() string {
	if d, err := os.UserCacheDir(); err == nil && d != "" {
		return filepath.Join(d, "inknote")
	}
	return filepath.Join(os.TempDir(), "inknote")
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the analysis API key (not kept inside the struct; returned separately):
// INK_ANALYSIS_KEY wins over the keyring. A malformed file is reported but defaults are still returned.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	key := strings.TrimSpace(os.Getenv(EnvAnalysisKey))
	if key == "" {
		key, _ = credentialStore.Get(keyringService, keyringKey)
	}
	return cfg, key, loadErr
}

// Save writes the user config YAML and persists the API key into OS keyring (if non-empty).
func Save(cfg AppConfig, credential string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if credential != "" {
		if err := credentialStore.Set(keyringService, keyringKey, credential); err != nil {
			return fmt.Errorf("store credential: %w", err)
		}
	}
	return nil
}

// ForgetCredential removes the stored API key.
func ForgetCredential() error {
	return credentialStore.Delete(keyringService, keyringKey)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// canvas
	c, s := &dst.Canvas, src.Canvas
	if v := strings.TrimSpace(s.Background); v != "" {
		c.Background = v
	}
	if v := strings.TrimSpace(s.PenColor); v != "" {
		c.PenColor = v
	}
	if s.PenWidth > 0 {
		c.PenWidth = s.PenWidth
	}
	if s.EraserWidth > 0 {
		c.EraserWidth = s.EraserWidth
	}
	if s.MinSelection > 0 {
		c.MinSelection = s.MinSelection
	}
	if s.LongPressMs > 0 {
		c.LongPressMs = s.LongPressMs
	}
	if s.JitterRadius > 0 {
		c.JitterRadius = s.JitterRadius
	}
	if s.MinDistance > 0 {
		c.MinDistance = s.MinDistance
	}
	if s.HistoryDepth > 0 {
		c.HistoryDepth = s.HistoryDepth
	}
	// analysis
	if v := strings.TrimSpace(src.Analysis.Endpoint); v != "" {
		dst.Analysis.Endpoint = v
	}
	if v := strings.TrimSpace(src.Analysis.Model); v != "" {
		dst.Analysis.Model = v
	}
	if v := strings.TrimSpace(src.Analysis.Prompt); v != "" {
		dst.Analysis.Prompt = v
	}
	if src.Analysis.TimeoutMs > 0 {
		dst.Analysis.TimeoutMs = src.Analysis.TimeoutMs
	}
	// journal
	if v := strings.TrimSpace(src.Journal.Driver); v != "" {
		dst.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Journal.DSN); v != "" {
		dst.Journal.DSN = v
	}
	// export
	if v := strings.TrimSpace(src.Export.CaptionFont); v != "" {
		dst.Export.CaptionFont = v
	}
	if src.Export.CaptionSize > 0 {
		dst.Export.CaptionSize = src.Export.CaptionSize
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAnalysisEndpoint)); v != "" {
		cfg.Analysis.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAnalysisModel)); v != "" {
		cfg.Analysis.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAnalysisTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDriver)); v != "" {
		cfg.Journal.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvJournalDSN)); v != "" {
		cfg.Journal.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCaptionFont)); v != "" {
		cfg.Export.CaptionFont = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"analysis.endpoint":        EnvAnalysisEndpoint,
	"analysis.model":           EnvAnalysisModel,
	"analysis.timeout_ms":      EnvAnalysisTimeout,
	"analysis.api_key":         EnvAnalysisKey,
	"journal.driver":           EnvJournalDriver,
	"journal.dsn":              EnvJournalDSN,
	"export.caption_font":      EnvCaptionFont,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Style converts the canvas colors and widths to tool parameters.
func (c CanvasConfig) Style() (tool.Style, error) {
	st := tool.DefaultStyle()
	var err error
	if st.Background, err = ParseColor(c.Background); err != nil {
		return st, fmt.Errorf("canvas.background: %w", err)
	}
	if st.PenColor, err = ParseColor(c.PenColor); err != nil {
		return st, fmt.Errorf("canvas.pen_color: %w", err)
	}
	if c.PenWidth > 0 {
		st.PenWidth = c.PenWidth
	}
	if c.EraserWidth > 0 {
		st.EraserWidth = c.EraserWidth
	}
	return st, nil
}

// LongPress returns the hold duration; non-positive disables long-press.
func (c CanvasConfig) LongPress() time.Duration {
	return time.Duration(c.LongPressMs) * time.Millisecond
}

// Timeout returns the analysis request timeout, falling back to the default.
func (a AnalysisConfig) Timeout() time.Duration {
	if a.TimeoutMs <= 0 {
		return analysis.DefaultTimeout
	}
	return time.Duration(a.TimeoutMs) * time.Millisecond
}

// JournalDSN resolves the journal location, defaulting sqlite to the cache dir.
func (j JournalConfig) JournalDSN() string {
	if j.DSN != "" || j.Driver != "sqlite" {
		return j.DSN
	}
	return filepath.Join(DataDir(), "journal.db")
}

// CaptionFace loads the configured caption font, or the built-in one.
func (e ExportConfig) CaptionFace() (font.Face, error) {
	var fn *caption.Font
	if e.CaptionFont != "" {
		var err error
		if fn, err = caption.LoadFont(e.CaptionFont); err != nil {
			return nil, err
		}
	}
	return fn.Face(e.CaptionSize)
}
