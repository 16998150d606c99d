/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic in the CLI into a written report, an optional
// session snapshot and an optional opt-in upload.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "campaignwizard/internal/log"
	"campaignwizard/internal/version"
)

// DirName is the report directory below the workspace.
const DirName = "crash"

// exitFn is swapped in tests.
var exitFn = os.Exit

// Uploader sends a finished report somewhere. telemetry.Client satisfies it.
type Uploader interface {
	UploadCrash(ctx context.Context, report []byte) error
}

// Options says where reports go and what else to save.
type Options struct {
	Workspace string
	Command   string
	// Snapshot saves whatever session state can be rescued into dir and
	// returns the written path.
	Snapshot func(dir string) (string, error)
	Uploader Uploader
}

// Recover must be deferred directly: defer crash.Recover(&opts). opts is
// read at panic time, so callers may fill it in after deferring.
func Recover(opts *Options) {
	r := recover()
	if r == nil {
		return
	}
	if opts == nil {
		opts = &Options{}
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	dir := reportDir(opts.Workspace)
	reportPath, report, err := writeReport(dir, opts.Command, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if opts.Snapshot != nil {
		if path, err := opts.Snapshot(dir); err != nil {
			l.Error("session snapshot failed", slog.Any("err", err))
		} else {
			l.Info("session snapshot written", slog.String("path", path))
		}
	}
	if opts.Uploader != nil && report != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := opts.Uploader.UploadCrash(ctx, report); err != nil {
			l.Warn("crash upload failed", slog.Any("err", err))
		}
		cancel()
	}

	_, _ = fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func reportDir(workspace string) string {
	if workspace == "" {
		return os.TempDir()
	}
	dir := filepath.Join(workspace, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return os.TempDir()
	}
	return dir
}

func writeReport(dir, command string, panicVal any, stack []byte) (string, []byte, error) {
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Campaign Wizard Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if command != "" {
		_, _ = fmt.Fprintf(&buf, "Command: %s\n", command)
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, buf.Bytes(), err
	}
	return path, buf.Bytes(), nil
}
