/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package journal keeps a log of capture outcomes in SQLite (default,
// pure Go) or PostgreSQL through the pgx database/sql driver.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
	// PostgreSQL via database/sql
	_ "github.com/jackc/pgx/v5/stdlib"

	"inknote/internal/capture"
	applog "inknote/internal/log"
	"inknote/internal/version"
)

const (
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"

	// schemaVersion tracks the journal schema. Bump it with a migration.
	schemaVersion = 1

	// tsLayout is fixed width so text timestamps sort chronologically.
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// Entry is one journaled capture.
type Entry struct {
	ID         string
	Seq        uint64
	Status     string
	Superseded bool
	X, Y, W, H float64
	Width      int
	Height     int
	ImageBytes int
	Text       string
	Reason     string
	Started    time.Time
	Finished   time.Time
}

// Journal records capture results. It implements capture.Recorder.
type Journal struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

// Open opens or creates the journal. For sqlite dsn is a file path; for
// pgx it is a connection URL.
func Open(ctx context.Context, driver, dsn string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("journal"), "open").With(slog.String("driver", driver))
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("journal dsn is required")
	}
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
		// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
		db, err = sql.Open("sqlite", fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(dsn)))
		if err == nil {
			db.SetMaxOpenConns(1)
			db.SetMaxIdleConns(1)
		}
	case DriverPgx:
		db, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("unknown journal driver %q", driver)
	}
	if err != nil {
		l.Error("open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	j := &Journal{db: db, driver: driver, log: applog.WithComponent("journal")}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = db.Close()
			l.Error("enable WAL failed", slog.Any("err", err))
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if err := j.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready")
	return j, nil
}

func (j *Journal) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS captures (
			id            TEXT PRIMARY KEY,
			seq           BIGINT NOT NULL,
			status        TEXT NOT NULL,
			superseded    BOOLEAN NOT NULL,
			rect_x        DOUBLE PRECISION NOT NULL,
			rect_y        DOUBLE PRECISION NOT NULL,
			rect_w        DOUBLE PRECISION NOT NULL,
			rect_h        DOUBLE PRECISION NOT NULL,
			width         INTEGER NOT NULL,
			height        INTEGER NOT NULL,
			image_bytes   INTEGER NOT NULL,
			response_text TEXT NOT NULL,
			reason        TEXT NOT NULL,
			started_at    TEXT NOT NULL,
			finished_at   TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS captures_finished_idx ON captures(finished_at);`,
	}
	for _, q := range ddl {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(tsLayout)
	q := `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET app = excluded.app, updated_at = excluded.updated_at`
	if _, err := j.db.ExecContext(ctx, j.rebind(q), schemaVersion, version.String(), now, now); err != nil {
		return fmt.Errorf("upsert version: %w", err)
	}
	var cur int
	if err := j.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if cur > schemaVersion {
		return fmt.Errorf("journal schema %d is newer than supported %d", cur, schemaVersion)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (j *Journal) rebind(q string) string {
	if j.driver != DriverPgx {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Record stores a terminal capture result. Recording the same capture
// twice keeps the first row.
func (j *Journal) Record(ctx context.Context, r capture.Result) error {
	q := `INSERT INTO captures (id, seq, status, superseded, rect_x, rect_y, rect_w, rect_h,
			width, height, image_bytes, response_text, reason, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`
	_, err := j.db.ExecContext(ctx, j.rebind(q),
		r.ID, int64(r.Seq), r.Status.String(), r.Superseded,
		float64(r.Rect.X), float64(r.Rect.Y), float64(r.Rect.W), float64(r.Rect.H),
		r.Width, r.Height, len(r.Image), r.Text, r.Reason,
		r.Started.UTC().Format(tsLayout), r.Finished.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("record capture %s: %w", r.ID, err)
	}
	j.log.DebugContext(ctx, "capture recorded", slog.String("capture_id", r.ID), slog.String("status", r.Status.String()))
	return nil
}

const entryColumns = `id, seq, status, superseded, rect_x, rect_y, rect_w, rect_h, width, height,
			image_bytes, response_text, reason, started_at, finished_at`

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	q := `SELECT ` + entryColumns + `
		FROM captures ORDER BY finished_at DESC, seq DESC LIMIT ?`
	return j.query(ctx, q, n)
}

// Search returns up to n entries whose reply text or failure reason
// contains text, case-insensitively, newest first.
func (j *Journal) Search(ctx context.Context, text string, n int) ([]Entry, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return j.Recent(ctx, n)
	}
	if n <= 0 {
		n = 20
	}
	like := likeContains(text)
	q := `SELECT ` + entryColumns + `
		FROM captures
		WHERE lower(response_text) LIKE ? ESCAPE '\' OR lower(reason) LIKE ? ESCAPE '\'
		ORDER BY finished_at DESC, seq DESC LIMIT ?`
	return j.query(ctx, q, like, like, n)
}

// likeContains escapes LIKE wildcards in s and wraps it in %.
func likeContains(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func (j *Journal) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, j.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			seq               int64
			started, finished string
		)
		if err := rows.Scan(&e.ID, &seq, &e.Status, &e.Superseded, &e.X, &e.Y, &e.W, &e.H, &e.Width, &e.Height,
			&e.ImageBytes, &e.Text, &e.Reason, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		e.Seq = uint64(seq)
		e.Started, _ = time.Parse(tsLayout, started)
		e.Finished, _ = time.Parse(tsLayout, finished)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error { return j.db.Close() }
