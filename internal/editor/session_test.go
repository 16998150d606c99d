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
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"campaignwizard/internal/crop"
	"campaignwizard/internal/raster"
)

func encodePNG(t *testing.T, w, h int, seed uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x) + seed, G: uint8(y), B: seed, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

type memPrefs struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemPrefs() *memPrefs { return &memPrefs{m: map[string]string{}} }

func (p *memPrefs) Get(_ context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memPrefs) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = value
	return nil
}

func openSession(t *testing.T, opts Options, w, h int) *Session {
	t.Helper()
	s := NewSession(opts)
	if err := s.Open(context.Background(), encodePNG(t, w, h, 0), "image/png"); err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestCropScenario(t *testing.T) {
	s := openSession(t, Options{}, 200, 100)
	if s.HistoryLen() != 1 || s.HistoryCursor() != 0 {
		t.Fatalf("fresh session history len=%d cursor=%d", s.HistoryLen(), s.HistoryCursor())
	}
	s.PointerDown(10, 10)
	s.PointerMove(110, 60)
	if st := s.PointerUp(); st != crop.SelectionReady {
		t.Fatalf("state = %v", st)
	}
	sel, _ := s.Selection()
	if sel.W != 100 || sel.H != 50 {
		t.Fatalf("selection %+v", sel)
	}
	out, err := s.ApplyCrop(context.Background())
	if err != nil {
		t.Fatalf("apply crop: %v", err)
	}
	if out.Width != 100 || out.Height != 50 {
		t.Fatalf("cropped %dx%d", out.Width, out.Height)
	}
	cur, _ := s.Image()
	if cur.Width != 100 || cur.Height != 50 || cur.At(0, 0) != [4]byte{10, 10, 0, 255} {
		t.Fatalf("buffer not replaced: %dx%d %v", cur.Width, cur.Height, cur.At(0, 0))
	}
	if s.HistoryLen() != 2 {
		t.Fatalf("history len = %d", s.HistoryLen())
	}
	if s.CropState() != crop.Idle {
		t.Fatalf("crop should be idle after apply")
	}
	if !s.HasChanges() {
		t.Fatalf("crop should count as a change")
	}
}

func TestApplyCropWithoutSelectionIsNoop(t *testing.T) {
	s := openSession(t, Options{}, 50, 50)
	s.PointerDown(10, 10)
	s.PointerMove(15, 40)
	s.PointerUp()
	if _, err := s.ApplyCrop(context.Background()); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	cur, _ := s.Image()
	if cur.Width != 50 || s.HistoryLen() != 1 {
		t.Fatalf("no-op crop changed state")
	}
}

func TestUndoRedoThroughSession(t *testing.T) {
	s := openSession(t, Options{}, 60, 40)
	before, _ := s.Image()
	s.PointerDown(0, 0)
	s.PointerMove(30, 20)
	s.PointerUp()
	cropped, err := s.ApplyCrop(context.Background())
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	img, ok := s.Undo()
	if !ok || !img.Equal(before) {
		t.Fatalf("undo did not restore original")
	}
	if s.HasChanges() {
		t.Fatalf("after undo to base there are no changes")
	}
	img, ok = s.Redo()
	if !ok || !img.Equal(cropped) {
		t.Fatalf("redo did not restore crop")
	}
	cur, _ := s.Image()
	if !cur.Equal(cropped) {
		t.Fatalf("buffer out of sync with history")
	}
}

func TestResetToOriginal(t *testing.T) {
	s := openSession(t, Options{}, 60, 40)
	orig, _ := s.Image()
	_ = s.SetAspect(context.Background(), crop.Presets[1])
	s.PointerDown(0, 0)
	s.PointerMove(30, 30)
	s.PointerUp()
	if _, err := s.ApplyCrop(context.Background()); err != nil {
		t.Fatalf("crop: %v", err)
	}
	if err := s.ResetToOriginal(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	cur, _ := s.Image()
	if !cur.Equal(orig) || s.HistoryLen() != 1 || s.HistoryCursor() != 0 {
		t.Fatalf("reset did not restore base state")
	}
	if !s.Aspect().Free() {
		t.Fatalf("reset should return aspect to free")
	}
}

func TestOpenInvalidBytes(t *testing.T) {
	s := NewSession(Options{})
	if err := s.Open(context.Background(), []byte("nope"), "image/png"); !errors.Is(err, raster.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if s.IsOpen() {
		t.Fatalf("session must stay closed")
	}
	if _, err := s.Image(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestExportNamesFile(t *testing.T) {
	s := NewSession(Options{})
	if err := s.Open(context.Background(), encodePNG(t, 8, 8, 1), ""); err != nil {
		t.Fatalf("open: %v", err)
	}
	data, mime, name, err := s.Export()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if mime != "image/png" || name != "edited_image.png" || len(data) == 0 {
		t.Fatalf("export mime=%s name=%s len=%d", mime, name, len(data))
	}
	if EditedImageName("image/jpeg") != "edited_image.jpeg" {
		t.Fatalf("jpeg name mismatch")
	}
}

func TestPrefsRestoredOnOpen(t *testing.T) {
	p := newMemPrefs()
	s := openSession(t, Options{Prefs: p}, 20, 20)
	if err := s.SetTool(context.Background(), ToolFilters); err != nil {
		t.Fatalf("set tool: %v", err)
	}
	if err := s.SetAspect(context.Background(), crop.Presets[4]); err != nil {
		t.Fatalf("set aspect: %v", err)
	}
	if p.m[KeyLastTool] != "filters" {
		t.Fatalf("tool not persisted: %q", p.m[KeyLastTool])
	}
	if p.m[KeyLastAspect] == "" {
		t.Fatalf("aspect not persisted")
	}

	s2 := openSession(t, Options{Prefs: p}, 20, 20)
	if s2.Tool() != ToolFilters {
		t.Fatalf("tool = %s", s2.Tool())
	}
	if a := s2.Aspect(); a.Name != "16:9" || a.Free() {
		t.Fatalf("aspect = %+v", a)
	}
	if err := s2.SetTool(context.Background(), Tool("paint")); err == nil {
		t.Fatalf("unknown tool must be rejected")
	}
}

func TestFreeAspectStoredAsNull(t *testing.T) {
	p := newMemPrefs()
	s := openSession(t, Options{Prefs: p}, 20, 20)
	if err := s.SetAspect(context.Background(), crop.AspectFree); err != nil {
		t.Fatalf("set aspect: %v", err)
	}
	if got := p.m[KeyLastAspect]; got != `{"name":"Free","value":null}` {
		t.Fatalf("stored %s", got)
	}
	p.m[KeyLastAspect] = "{broken"
	s2 := openSession(t, Options{Prefs: p}, 20, 20)
	if !s2.Aspect().Free() {
		t.Fatalf("corrupt pref should fall back to free")
	}
}

func TestPointerIgnoredOutsideCropTool(t *testing.T) {
	s := openSession(t, Options{}, 40, 40)
	_ = s.SetTool(context.Background(), ToolAdjust)
	s.PointerDown(0, 0)
	s.PointerMove(30, 30)
	if st := s.PointerUp(); st != crop.Idle {
		t.Fatalf("selection started outside crop tool: %v", st)
	}
}

func TestUndoKeepsCursorWhenEntryCannotBeShown(t *testing.T) {
	s := openSession(t, Options{}, 30, 30)
	shown, _ := s.Image()
	// An entry the buffer refuses sits below the current one.
	s.hist.Reset(raster.Image{Width: 5, Height: 5})
	s.hist.Push(shown)

	if _, ok := s.Undo(); ok {
		t.Fatalf("undo onto an invalid entry reported success")
	}
	if s.HistoryCursor() != 1 {
		t.Fatalf("cursor moved to %d without the image changing", s.HistoryCursor())
	}
	cur, _ := s.Image()
	if !cur.Equal(shown) {
		t.Fatalf("shown image changed")
	}
}
