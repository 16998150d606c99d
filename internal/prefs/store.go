/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package prefs persists small pieces of local state (editor tool and aspect
// choices, export history) in an embedded SQLite database in the workspace.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "campaignwizard/internal/log"
	"campaignwizard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// FileName is the database file inside the workspace.
const FileName = "prefs.sqlite"

// migration brings the schema from version-1 to version. The schema version
// lives in PRAGMA user_version.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{1, "preferences", []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS prefs (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}},
	{2, "export history", []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			brand      TEXT NOT NULL,
			path       TEXT NOT NULL,
			files      INTEGER NOT NULL,
			bytes      INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at)`,
	}},
}

// schemaVersion is the version this build migrates to.
var schemaVersion = migrations[len(migrations)-1].version

// Store is a handle on the preferences database. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Path returns the database location inside a workspace directory.
func Path(workspace string) string { return filepath.Join(workspace, FileName) }

// Open creates or opens the preferences database under workspace in WAL mode
// and applies pending migrations.
func Open(workspace string) (*Store, error) {
	if strings.TrimSpace(workspace) == "" {
		return nil, errors.New("workspace directory is required")
	}
	l := applog.WithOperation(applog.WithComponent("prefs"), "open")
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	path := Path(workspace)
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the pragmas and serialises writers.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	from, err := migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		l.Error("prefs unavailable", slog.String("path", path), slog.Any("err", err))
		return nil, err
	}
	if from != schemaVersion {
		l.Info("prefs schema migrated", slog.Int("from", from), slog.Int("to", schemaVersion))
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SchemaVersion reports the database's user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return userVersion(ctx, s.db)
}

func userVersion(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (int, error) {
	var v int
	if err := q.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrate applies every step above the stored version, each in its own
// transaction, and returns the version found on entry. A database written by
// a newer build is left untouched.
func migrate(ctx context.Context, db *sql.DB) (int, error) {
	from, err := userVersion(ctx, db)
	if err != nil {
		return 0, err
	}
	for _, m := range migrations {
		if m.version <= from {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return from, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		for _, q := range m.stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return from, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		// PRAGMA does not take bind parameters.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, m.version)); err != nil {
			_ = tx.Rollback()
			return from, fmt.Errorf("migration %d (%s): stamp version: %w", m.version, m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return from, fmt.Errorf("migration %d (%s): commit: %w", m.version, m.name, err)
		}
	}
	if from > schemaVersion {
		return from, nil
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES('app_version', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, version.String()); err != nil {
		return from, fmt.Errorf("stamp app version: %w", err)
	}
	return from, nil
}
