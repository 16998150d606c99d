/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestFileSinkCarriesStaticAndContextAttrs(t *testing.T) {
	// os.TempDir rather than t.TempDir: the rotated file stays open.
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("cw_log_%d.json", time.Now().UnixNano()))
	t.Cleanup(func() { _ = os.Remove(fpath) })
	var console bytes.Buffer
	Init(Options{Level: "debug", File: fpath, Console: &console})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	ctx := ContextWithSession(context.Background(), "sess-7")
	l := WithOperation(WithComponent("backend"), "analyze brief")
	l.InfoContext(ctx, "request sent", slog.String("token", "s3cret"), slog.Int("status", 200))

	m := lastJSONLine(t, fpath)
	checks := map[string]any{
		"app": "campaignwizard", "component": "backend", "op": "analyze brief",
		"msg": "request sent", "session": "sess-7", "token": "***", "status": float64(200),
	}
	for k, want := range checks {
		if m[k] != want {
			t.Fatalf("%s = %v, want %v (record %v)", k, m[k], want, m)
		}
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if !strings.Contains(console.String(), "request sent") {
		t.Fatalf("console sink missed the record: %q", console.String())
	}
	if strings.Contains(console.String(), "s3cret") {
		t.Fatalf("secret leaked to console: %q", console.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "console", Console: &buf})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	ctx := ContextWithSession(context.Background(), "s1")
	WithOperation(WithComponent("editor"), "crop").InfoContext(ctx, "crop applied",
		slog.String("rect", "(0,0)-(10,10)"), slog.String("note", "two words"))

	out := buf.String()
	for _, want := range []string{" INF editor/crop crop applied", "rect=(0,0)-(10,10)", `note="two words"`, "session=s1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "app=") {
		t.Fatalf("static attrs belong to the file sink only: %q", out)
	}
}

func TestConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "warn", Console: &buf})
	t.Cleanup(func() { Init(Options{Level: "info"}) })

	L().Info("quiet")
	L().Warn("loud")
	out := buf.String()
	if strings.Contains(out, "quiet") || !strings.Contains(out, "WRN loud") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConsoleGroupsAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	h := slog.Handler(&contextHandler{next: newConsoleHandler(&buf, slog.LevelDebug, false)})
	h = h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")

	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("pi", 3.14),
		slog.Group("auth", slog.String("Authorization", "Bearer x"), slog.String("user", "ann")))
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ERR boom", "k=v", "grp.n=42", "grp.pi=3.14", "grp.auth.Authorization=***", "grp.auth.user=ann"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestFromEnvAndLevels(t *testing.T) {
	t.Setenv("CW_LOG_LEVEL", "warn")
	t.Setenv("CW_LOG_FORMAT", "json")
	t.Setenv("CW_LOG_SOURCE", "true")
	t.Setenv("CW_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "WARNING": slog.LevelWarn, "error": slog.LevelError,
		"": slog.LevelInfo, "chatty": slog.LevelInfo,
	} {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextWithEmptySessionIsNoop(t *testing.T) {
	ctx := context.Background()
	if got := ContextWithSession(ctx, ""); got != ctx {
		t.Fatalf("expected unchanged context for empty id")
	}
	if SessionFrom(nil) != "" { //nolint:staticcheck // nil context is accepted
		t.Fatalf("nil context should yield empty session")
	}
}
