/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Get returns the stored value for key. ok is false when the key is unset.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key=?`, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("read pref %q: %w", key, err)
	}
	return v, true, nil
}

// Set upserts key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(tsLayout)
	_, err := s.db.ExecContext(ctx, `INSERT INTO prefs(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value, now)
	if err != nil {
		return fmt.Errorf("write pref %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE key=?`, key); err != nil {
		return fmt.Errorf("delete pref %q: %w", key, err)
	}
	return nil
}

// tsLayout is fixed width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ExportRecord describes one archive written to disk.
type ExportRecord struct {
	ID        int64
	Brand     string
	Path      string
	Files     int
	Bytes     int64
	CreatedAt time.Time
}

// RecordExport appends an entry to the export history.
func (s *Store) RecordExport(ctx context.Context, rec ExportRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO exports(brand, path, files, bytes, created_at) VALUES(?, ?, ?, ?, ?)`,
		rec.Brand, rec.Path, rec.Files, rec.Bytes, rec.CreatedAt.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("record export: %w", err)
	}
	return res.LastInsertId()
}

// RecentExports lists the newest exports first. limit <= 0 means 20.
func (s *Store) RecentExports(ctx context.Context, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, brand, path, files, bytes, created_at FROM exports ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()
	var out []ExportRecord
	for rows.Next() {
		var r ExportRecord
		var ts string
		if err := rows.Scan(&r.ID, &r.Brand, &r.Path, &r.Files, &r.Bytes, &ts); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if t, err := time.Parse(tsLayout, ts); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
