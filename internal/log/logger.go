/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log configures the process-wide slog logger: a compact console
// format for people, JSON for machines, an optional rotated log file, and
// per-session correlation through the context.
//
// Packages obtain loggers with WithComponent and narrow them with
// WithOperation. Records logged with a context carrying a session id (see
// ContextWithSession) get a "session" attribute, and attributes that look
// like credentials are masked before they reach any sink.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"campaignwizard/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation bounds the log file. Zero fields take the defaults (10 MB, 3
// backups, 28 days).
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Options controls Init. FromEnv fills it from CW_LOG_LEVEL, CW_LOG_FORMAT,
// CW_LOG_SOURCE and CW_LOG_FILE.
type Options struct {
	Level     string // debug|info|warn|error
	Format    string // console|json
	AddSource bool
	File      string // JSON log file, rotated; empty disables
	Rotation  Rotation
	Console   io.Writer // nil means os.Stderr
}

type sessionKey struct{}

// ContextWithSession tags ctx with an editor or campaign session id; records
// logged with that context carry it as the "session" attribute.
func ContextWithSession(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id stored by ContextWithSession.
func SessionFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

var (
	mu      sync.RWMutex
	current *slog.Logger
)

// L returns the application logger. Before Init it is built from the
// environment.
func L() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	return Init(FromEnv())
}

// Init replaces the application logger and slog.Default and returns it.
func Init(opts Options) *slog.Logger {
	lvl := parseLevel(opts.Level)
	out := opts.Console
	if out == nil {
		out = os.Stderr
	}

	var sinks []slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "json":
		sinks = append(sinks, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	default:
		sinks = append(sinks, newConsoleHandler(out, lvl, opts.AddSource))
	}
	if f := strings.TrimSpace(opts.File); f != "" {
		sinks = append(sinks, slog.NewJSONHandler(rotatingFile(f, opts.Rotation), &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	var h slog.Handler = sinks[0]
	if len(sinks) > 1 {
		h = fanout(sinks)
	}
	l := slog.New(&contextHandler{next: h}).With(
		slog.String("app", "campaignwizard"),
		slog.String("ver", version.Version),
	)

	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
	return l
}

func rotatingFile(path string, r Rotation) io.Writer {
	def := func(v, d int) int {
		if v <= 0 {
			return d
		}
		return v
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    def(r.MaxSizeMB, 10),
		MaxBackups: def(r.MaxBackups, 3),
		MaxAge:     def(r.MaxAgeDays, 28),
		Compress:   true,
	}
}

// FromEnv reads Options from the CW_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     envOr("CW_LOG_LEVEL", "info"),
		Format:    envOr("CW_LOG_FORMAT", "console"),
		AddSource: strings.EqualFold(os.Getenv("CW_LOG_SOURCE"), "true") || os.Getenv("CW_LOG_SOURCE") == "1",
		File:      os.Getenv("CW_LOG_FILE"),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger tagged with the emitting package.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation tags l with the operation being performed.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
