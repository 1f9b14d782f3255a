/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"

	"inknote/internal/analysis"
	"inknote/internal/board"
	"inknote/internal/config"
	"inknote/internal/gesture"
	"inknote/internal/journal"
	applog "inknote/internal/log"
	"inknote/internal/telemetry"
)

// session holds what a board needs from the environment and closes it.
type session struct {
	cfg     config.AppConfig
	opt     board.Options
	journal *journal.Journal
	tel     *telemetry.Client
}

// openSession builds board options from cfg. An empty credential leaves
// captures in the missing_credential state.
func openSession(ctx context.Context, cfg config.AppConfig, credential string) (*session, error) {
	l := applog.WithComponent("cli")
	style, err := cfg.Canvas.Style()
	if err != nil {
		return nil, fmt.Errorf("canvas config: %w", err)
	}

	tc := telemetry.FromEnv()
	tc.OptIn = cfg.General.TelemetryOptIn
	s := &session{cfg: cfg, tel: telemetry.New(tc)}
	// Crash uploads go through the same sender as board events.
	telemetry.SetDefault(s.tel)

	opt := board.DefaultOptions()
	opt.Style = style
	opt.Gesture = gesture.Config{MinSelection: cfg.Canvas.MinSelection}
	opt.Recognizer = gesture.RecognizerConfig{
		LongPress:   cfg.Canvas.LongPress(),
		Jitter:      cfg.Canvas.JitterRadius,
		MinDistance: cfg.Canvas.MinDistance,
	}
	opt.HistoryDepth = cfg.Canvas.HistoryDepth
	opt.Telemetry = s.tel
	opt.Analyzer = analysis.NewClient(analysis.Options{
		Endpoint:   cfg.Analysis.Endpoint,
		Model:      cfg.Analysis.Model,
		Prompt:     cfg.Analysis.Prompt,
		Credential: credential,
		Timeout:    cfg.Analysis.Timeout(),
	})

	if cfg.Journal.Driver != "" && cfg.Journal.Driver != "none" {
		j, err := journal.Open(ctx, cfg.Journal.Driver, cfg.Journal.JournalDSN())
		if err != nil {
			// Captures still work without a journal.
			l.Warn("journal unavailable", slog.String("driver", cfg.Journal.Driver), slog.Any("err", err))
		} else {
			s.journal = j
			opt.Recorder = j
		}
	}
	s.opt = opt
	return s, nil
}

func (s *session) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			applog.WithComponent("cli").Warn("journal close failed", slog.Any("err", err))
		}
	}
	s.tel.Flush(context.Background())
	s.tel.Close()
}
