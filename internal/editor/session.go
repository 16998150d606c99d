/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor is the image editing session: a raster buffer, its undo
// history, the crop engine and the remote edit adapter, kept consistent under
// a single lock.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"campaignwizard/internal/crop"
	applog "campaignwizard/internal/log"
	"campaignwizard/internal/raster"
	"campaignwizard/internal/telemetry"
	"campaignwizard/internal/undo"
)

var (
	ErrNotOpen     = errors.New("editor: no image open")
	ErrNoSelection = crop.ErrNoSelection
)

// Options configures a Session. Zero values select the defaults.
type Options struct {
	HistoryDepth int
	// HistoryBytes caps retained snapshot pixels; 0 means no cap.
	HistoryBytes  int
	LoadTimeout   time.Duration
	MinCropPx     int
	TransportMime string
	Remote        RemoteEditor
	Prefs         PrefStore
	Events        telemetry.Emitter
	Now           func() time.Time
}

// Session owns one open image. Every method is safe for concurrent use.
type Session struct {
	opts Options

	mu       sync.Mutex
	buf      raster.Buffer
	hist     *undo.History
	crop     *crop.Engine
	original raster.Image
	mime     string
	tool     Tool
	// gen identifies the open image; it changes on Open and Close so late
	// remote responses can be told apart.
	gen      string
	inflight string
	// rev counts changes of the shown image; a remote result computed from
	// an older revision is stale.
	rev uint64
}

func NewSession(opts Options) *Session {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = raster.DefaultLoadTimeout
	}
	if opts.TransportMime == "" {
		opts.TransportMime = "image/png"
	}
	if opts.Events == nil {
		opts.Events = telemetry.Nop{}
	}
	s := &Session{
		opts: opts,
		hist: undo.NewHistory(undo.Config{MaxEntries: opts.HistoryDepth, MaxBytes: opts.HistoryBytes, Now: opts.Now}),
		crop: crop.NewEngine(opts.MinCropPx),
		tool: ToolCrop,
	}
	return s
}

// show puts img on screen. Callers hold s.mu.
func (s *Session) show(img raster.Image) error {
	if err := s.buf.Replace(img); err != nil {
		return err
	}
	s.rev++
	return nil
}

func logger(ctx context.Context) *slog.Logger {
	l := applog.WithComponent("editor")
	if id := applog.SessionFrom(ctx); id != "" {
		l = l.With(slog.String("session", id))
	}
	return l
}

// Open decodes data and starts a fresh editing session on it. The history is
// reset to a single entry and the stored tool/aspect preferences are restored.
func (s *Session) Open(ctx context.Context, data []byte, mime string) error {
	l := applog.WithOperation(logger(ctx), "open")
	img, format, err := raster.Decode(ctx, data, s.opts.LoadTimeout)
	if err != nil {
		l.Warn("image load failed", slog.Any("err", err))
		return err
	}
	tool, aspect := loadPrefs(ctx, s.opts.Prefs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.show(img); err != nil {
		return err
	}
	s.original = img
	if mime == "" {
		mime = raster.MimeForFormat(format)
	}
	s.mime = raster.NormalizeMime(mime)
	s.hist.Reset(img)
	s.crop.ResetSelection()
	s.crop.SetAspect(aspect)
	s.tool = tool
	s.gen = uuid.NewString()
	s.inflight = ""
	l.Info("image opened", slog.Int("w", img.Width), slog.Int("h", img.Height), slog.String("format", format), slog.String("gen", s.gen))
	return nil
}

// Close tears the session down. Remote responses arriving later are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen = ""
	s.inflight = ""
	s.rev++
	s.buf.Clear()
	s.hist.Clear()
	s.crop.ResetSelection()
	s.original = raster.Image{}
}

func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != ""
}

// Image returns a copy of the image currently shown.
func (s *Session) Image() (raster.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == "" {
		return raster.Image{}, ErrNotOpen
	}
	return s.buf.Snapshot()
}

func (s *Session) HistoryLen() int    { return s.hist.Len() }
func (s *Session) HistoryCursor() int { return s.hist.Cursor() }
func (s *Session) CanUndo() bool      { return s.hist.CanUndo() }
func (s *Session) CanRedo() bool      { return s.hist.CanRedo() }

// PointerDown, PointerMove and PointerUp drive the crop selection. They are
// ignored unless the crop tool is active and an image is open.
func (s *Session) PointerDown(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == "" || s.tool != ToolCrop {
		return
	}
	s.crop.PointerDown(x, y)
}

func (s *Session) PointerMove(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crop.PointerMove(x, y)
}

func (s *Session) PointerUp() crop.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop.PointerUp()
}

func (s *Session) CropState() crop.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop.State()
}

func (s *Session) Selection() (crop.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop.Selection()
}

func (s *Session) Aspect() crop.Aspect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.crop.Aspect()
}

// SetAspect changes the crop constraint, clearing any selection, and remembers it.
func (s *Session) SetAspect(ctx context.Context, a crop.Aspect) error {
	s.mu.Lock()
	s.crop.SetAspect(a)
	s.mu.Unlock()
	if s.opts.Prefs == nil {
		return nil
	}
	v, err := encodeAspect(a)
	if err != nil {
		return err
	}
	return s.opts.Prefs.Set(ctx, KeyLastAspect, v)
}

// ResetSelection clears the crop rectangle and returns the aspect to free.
func (s *Session) ResetSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crop.ResetSelection()
}

func (s *Session) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// SetTool switches the active panel and remembers it.
func (s *Session) SetTool(ctx context.Context, t Tool) error {
	if _, err := ParseTool(string(t)); err != nil {
		return err
	}
	s.mu.Lock()
	s.tool = t
	if t != ToolCrop {
		s.crop.Done()
	}
	s.mu.Unlock()
	if s.opts.Prefs == nil {
		return nil
	}
	return s.opts.Prefs.Set(ctx, KeyLastTool, string(t))
}

// ApplyCrop cuts the ready selection out of the current image, records it in
// the history and returns the crop engine to idle. Without a ready selection
// it returns ErrNoSelection and changes nothing.
func (s *Session) ApplyCrop(ctx context.Context) (raster.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == "" {
		return raster.Image{}, ErrNotOpen
	}
	cur, err := s.buf.Snapshot()
	if err != nil {
		return raster.Image{}, err
	}
	r, err := s.crop.Normalized(cur.Bounds())
	if err != nil {
		return raster.Image{}, err
	}
	out, err := cur.SubImage(r)
	if err != nil {
		return raster.Image{}, fmt.Errorf("crop %v: %w", r, err)
	}
	if err := s.show(out); err != nil {
		return raster.Image{}, err
	}
	s.hist.Push(out)
	s.crop.Done()
	bytes, _ := s.hist.Stats()
	applog.WithOperation(logger(ctx), "crop").Info("crop applied", slog.String("rect", r.String()), slog.Int("history", s.hist.Len()), slog.Int("history_bytes", bytes))
	return out, nil
}

// Undo steps back one history entry. ok is false at the first entry.
func (s *Session) Undo() (raster.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.hist.Undo()
	if !ok {
		return raster.Image{}, false
	}
	if err := s.show(img); err != nil {
		// Keep the cursor on the image still shown.
		s.hist.Redo()
		applog.WithOperation(logger(context.Background()), "undo").Error("history entry not shown", slog.Any("err", err))
		return raster.Image{}, false
	}
	s.crop.Done()
	return img, true
}

// Redo steps forward one history entry. ok is false at the newest entry.
func (s *Session) Redo() (raster.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.hist.Redo()
	if !ok {
		return raster.Image{}, false
	}
	if err := s.show(img); err != nil {
		s.hist.Undo()
		applog.WithOperation(logger(context.Background()), "redo").Error("history entry not shown", slog.Any("err", err))
		return raster.Image{}, false
	}
	s.crop.Done()
	return img, true
}

// ResetToOriginal restores the image as loaded, collapses the history to it
// and clears the crop selection and aspect.
func (s *Session) ResetToOriginal() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == "" {
		return ErrNotOpen
	}
	if err := s.show(s.original); err != nil {
		return err
	}
	s.hist.Reset(s.original)
	s.crop.ResetSelection()
	return nil
}

// HasChanges reports whether the shown image differs from the loaded one.
func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == "" {
		return false
	}
	cur, err := s.buf.Snapshot()
	if err != nil {
		return false
	}
	return !cur.Equal(s.original)
}

// Export encodes the current image in the source mime type (PNG when the
// type has no encoder) and names it edited_image.<ext>.
func (s *Session) Export() (data []byte, mime, name string, err error) {
	s.mu.Lock()
	cur, err := s.buf.Snapshot()
	want := s.mime
	open := s.gen != ""
	s.mu.Unlock()
	if !open {
		return nil, "", "", ErrNotOpen
	}
	if err != nil {
		return nil, "", "", err
	}
	data, mime, err = raster.Encode(cur, want)
	if err != nil {
		return nil, "", "", err
	}
	return data, mime, EditedImageName(mime), nil
}

// EditedImageName is the download name of an exported edit.
func EditedImageName(mime string) string {
	return "edited_image." + raster.ExtForMime(mime)
}
