/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	applog "campaignwizard/internal/log"
	"campaignwizard/internal/raster"
	"campaignwizard/internal/telemetry"
)

// EditKind selects the remote endpoint an edit goes to.
type EditKind string

const (
	KindFilter     EditKind = "filter"
	KindAdjustment EditKind = "adjustment"
)

func (k EditKind) Valid() bool { return k == KindFilter || k == KindAdjustment }

var (
	ErrEditInProgress = errors.New("editor: a remote edit is already in progress")
	ErrStaleResponse  = errors.New("editor: remote edit result discarded, image changed")
	ErrEmptyPrompt    = errors.New("editor: edit prompt is empty")
)

// RemoteEditor performs an AI edit on encoded image bytes and returns the
// encoded result.
type RemoteEditor interface {
	EditImage(ctx context.Context, kind EditKind, image []byte, mime, prompt string) ([]byte, string, error)
}

// RemoteEditFailed reports a failed remote edit. The buffer is left untouched.
type RemoteEditFailed struct {
	Kind   EditKind
	Reason string
	Err    error
}

func (e *RemoteEditFailed) Error() string {
	return fmt.Sprintf("remote %s edit failed: %s", e.Kind, e.Reason)
}

func (e *RemoteEditFailed) Unwrap() error { return e.Err }

func editFailed(kind EditKind, err error) *RemoteEditFailed {
	return &RemoteEditFailed{Kind: kind, Reason: err.Error(), Err: err}
}

// ApplyRemoteEdit sends the current image with prompt to the remote editor
// and, on success, replaces the image with the result and pushes it onto the
// history. Only one edit may be in flight per open image; a second call fails
// with ErrEditInProgress. If the shown image changed while the request was
// pending (crop, undo, redo, reset, reopen or close) the result is dropped
// with ErrStaleResponse.
func (s *Session) ApplyRemoteEdit(ctx context.Context, kind EditKind, prompt string) (raster.Image, error) {
	if !kind.Valid() {
		return raster.Image{}, fmt.Errorf("editor: unknown edit kind %q", kind)
	}
	if strings.TrimSpace(prompt) == "" {
		return raster.Image{}, ErrEmptyPrompt
	}
	if s.opts.Remote == nil {
		return raster.Image{}, editFailed(kind, errors.New("no remote editor configured"))
	}

	s.mu.Lock()
	if s.gen == "" {
		s.mu.Unlock()
		return raster.Image{}, ErrNotOpen
	}
	if s.inflight == s.gen {
		s.mu.Unlock()
		return raster.Image{}, ErrEditInProgress
	}
	gen, rev := s.gen, s.rev
	s.inflight = gen
	cur, err := s.buf.Snapshot()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.inflight == gen {
			s.inflight = ""
		}
		s.mu.Unlock()
	}()
	if err != nil {
		return raster.Image{}, err
	}

	l := applog.WithOperation(logger(ctx), "remote_edit").With(slog.String("kind", string(kind)))
	payload, mime, err := raster.Encode(cur, s.opts.TransportMime)
	if err != nil {
		return raster.Image{}, editFailed(kind, err)
	}
	l.Debug("sending image", slog.Int("bytes", len(payload)), slog.String("mime", mime))
	res, _, err := s.opts.Remote.EditImage(ctx, kind, payload, mime, prompt)
	if err != nil {
		l.Warn("remote edit failed", slog.Any("err", err))
		return raster.Image{}, editFailed(kind, err)
	}
	out, _, err := raster.Decode(ctx, res, s.opts.LoadTimeout)
	if err != nil {
		l.Warn("remote result undecodable", slog.Any("err", err))
		return raster.Image{}, editFailed(kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.rev != rev {
		l.Info("discarding stale remote edit", slog.String("gen", gen), slog.Uint64("rev", rev), slog.Uint64("now", s.rev))
		return raster.Image{}, ErrStaleResponse
	}
	if err := s.show(out); err != nil {
		return raster.Image{}, editFailed(kind, err)
	}
	s.hist.Push(out)
	s.crop.Done()
	l.Info("remote edit applied", slog.Int("w", out.Width), slog.Int("h", out.Height), slog.Int("history", s.hist.Len()))
	s.opts.Events.Emit(telemetry.RemoteEditApplied, telemetry.Props{"kind": string(kind)})
	return out, nil
}

// ApplyPreset runs a named adjust or filter preset.
func (s *Session) ApplyPreset(ctx context.Context, name string) (raster.Image, error) {
	p, ok := LookupPreset(name)
	if !ok {
		return raster.Image{}, fmt.Errorf("editor: unknown preset %q", name)
	}
	return s.ApplyRemoteEdit(ctx, p.Kind, p.Prompt)
}

// Busy reports whether a remote edit is pending for the open image.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != "" && s.inflight == s.gen
}
