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
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"
)

// fakeRemote returns result for every call. When gate is non-nil each call
// signals on started and blocks until gate yields.
type fakeRemote struct {
	result  func(n int) []byte
	err     error
	started chan struct{}
	gate    chan struct{}
	calls   atomic.Int32

	lastKind   EditKind
	lastPrompt string
	lastMime   string
}

func (f *fakeRemote) EditImage(ctx context.Context, kind EditKind, img []byte, mime, prompt string) ([]byte, string, error) {
	n := int(f.calls.Add(1))
	f.lastKind, f.lastPrompt, f.lastMime = kind, prompt, mime
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	if f.err != nil {
		return nil, "", f.err
	}
	return f.result(n), "image/png", nil
}

func TestSecondRemoteEditRejectedWhileFirstPending(t *testing.T) {
	defer goleak.VerifyNone(t)
	fr := &fakeRemote{
		result:  func(int) []byte { return encodePNG(t, 30, 30, 9) },
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := openSession(t, Options{Remote: fr}, 40, 40)

	type res struct{ err error }
	done := make(chan res, 1)
	go func() {
		_, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "x")
		done <- res{err}
	}()
	<-fr.started
	if !s.Busy() {
		t.Fatalf("session should report a pending edit")
	}
	if _, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "x"); !errors.Is(err, ErrEditInProgress) {
		t.Fatalf("expected ErrEditInProgress, got %v", err)
	}
	close(fr.gate)
	if r := <-done; r.err != nil {
		t.Fatalf("first edit: %v", r.err)
	}
	if fr.calls.Load() != 1 {
		t.Fatalf("remote called %d times", fr.calls.Load())
	}
	if s.HistoryLen() != 2 {
		t.Fatalf("buffer should mutate exactly once, history len=%d", s.HistoryLen())
	}
	cur, _ := s.Image()
	if cur.Width != 30 || cur.Height != 30 {
		t.Fatalf("result with new dimensions should replace buffer: %dx%d", cur.Width, cur.Height)
	}
	if s.Busy() {
		t.Fatalf("in-flight flag not cleared")
	}
}

func TestRemoteEditFailureLeavesBuffer(t *testing.T) {
	boom := errors.New("backend down")
	fr := &fakeRemote{err: boom}
	s := openSession(t, Options{Remote: fr}, 40, 40)
	before, _ := s.Image()
	_, err := s.ApplyRemoteEdit(context.Background(), KindAdjustment, "warmer")
	var ref *RemoteEditFailed
	if !errors.As(err, &ref) {
		t.Fatalf("expected *RemoteEditFailed, got %T %v", err, err)
	}
	if ref.Kind != KindAdjustment || !errors.Is(err, boom) {
		t.Fatalf("failure lost its cause: %+v", ref)
	}
	after, _ := s.Image()
	if !after.Equal(before) || s.HistoryLen() != 1 {
		t.Fatalf("failed edit mutated the session")
	}
	if s.Busy() {
		t.Fatalf("failed edit left the session busy")
	}
}

func TestRemoteResultUndecodable(t *testing.T) {
	fr := &fakeRemote{result: func(int) []byte { return []byte("garbage") }}
	s := openSession(t, Options{Remote: fr}, 10, 10)
	_, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "glitch")
	var ref *RemoteEditFailed
	if !errors.As(err, &ref) {
		t.Fatalf("expected *RemoteEditFailed, got %v", err)
	}
	if s.HistoryLen() != 1 {
		t.Fatalf("history changed on undecodable result")
	}
}

func TestStaleResponseAfterReopenIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)
	fr := &fakeRemote{
		result:  func(int) []byte { return encodePNG(t, 12, 12, 3) },
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := openSession(t, Options{Remote: fr}, 40, 40)
	done := make(chan error, 1)
	go func() {
		_, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "anime")
		done <- err
	}()
	<-fr.started
	if err := s.Open(context.Background(), encodePNG(t, 25, 25, 5), "image/png"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s.Busy() {
		t.Fatalf("new image must not inherit the pending edit")
	}
	close(fr.gate)
	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	cur, _ := s.Image()
	if cur.Width != 25 || s.HistoryLen() != 1 {
		t.Fatalf("stale result leaked into new session: %dx%d len=%d", cur.Width, cur.Height, s.HistoryLen())
	}
}

func TestStaleResponseAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	fr := &fakeRemote{
		result:  func(int) []byte { return encodePNG(t, 12, 12, 3) },
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := openSession(t, Options{Remote: fr}, 40, 40)
	done := make(chan error, 1)
	go func() {
		_, err := s.ApplyRemoteEdit(context.Background(), KindAdjustment, "studio")
		done <- err
	}()
	<-fr.started
	s.Close()
	close(fr.gate)
	if err := <-done; !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	if s.IsOpen() {
		t.Fatalf("closed session reopened itself")
	}
}

func TestTwentyOneEditsCapHistory(t *testing.T) {
	fr := &fakeRemote{result: func(n int) []byte { return encodePNG(t, 16, 16, uint8(n)) }}
	s := openSession(t, Options{Remote: fr}, 16, 16)
	for i := 0; i < 21; i++ {
		if _, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "lomo"); err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
	}
	if s.HistoryLen() != 20 || s.HistoryCursor() != 19 {
		t.Fatalf("len=%d cursor=%d", s.HistoryLen(), s.HistoryCursor())
	}
}

func TestRemoteEditValidatesInput(t *testing.T) {
	fr := &fakeRemote{result: func(int) []byte { return nil }}
	s := openSession(t, Options{Remote: fr}, 10, 10)
	if _, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if _, err := s.ApplyRemoteEdit(context.Background(), EditKind("sharpen"), "x"); err == nil {
		t.Fatalf("unknown kind must fail")
	}
	closed := NewSession(Options{Remote: fr})
	if _, err := closed.ApplyRemoteEdit(context.Background(), KindFilter, "x"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if fr.calls.Load() != 0 {
		t.Fatalf("remote must not be called for rejected input")
	}
}

func TestApplyPresetSendsPrompt(t *testing.T) {
	fr := &fakeRemote{result: func(int) []byte { return encodePNG(t, 10, 10, 1) }}
	s := openSession(t, Options{Remote: fr}, 10, 10)
	if _, err := s.ApplyPreset(context.Background(), "warmer lighting"); err != nil {
		t.Fatalf("preset: %v", err)
	}
	if fr.lastKind != KindAdjustment || fr.lastPrompt != AdjustPresets[2].Prompt || fr.lastMime != "image/png" {
		t.Fatalf("sent kind=%s prompt=%q mime=%s", fr.lastKind, fr.lastPrompt, fr.lastMime)
	}
	if _, err := s.ApplyPreset(context.Background(), "sepia"); err == nil {
		t.Fatalf("unknown preset must fail")
	}
}

// startGatedEdit begins a filter edit that blocks in the remote until the
// returned release func is called.
func startGatedEdit(t *testing.T, s *Session, fr *fakeRemote) (release func() error) {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		_, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "synthwave")
		done <- err
	}()
	<-fr.started
	return func() error {
		close(fr.gate)
		return <-done
	}
}

func TestStaleResponseAfterCropIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)
	fr := &fakeRemote{
		result:  func(int) []byte { return encodePNG(t, 200, 100, 7) },
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := openSession(t, Options{Remote: fr}, 200, 100)
	release := startGatedEdit(t, s, fr)

	s.PointerDown(10, 10)
	s.PointerMove(110, 60)
	s.PointerUp()
	if _, err := s.ApplyCrop(context.Background()); err != nil {
		t.Fatalf("crop while edit pending: %v", err)
	}
	if err := release(); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	cur, _ := s.Image()
	if cur.Width != 100 || cur.Height != 50 || s.HistoryLen() != 2 {
		t.Fatalf("crop overwritten by stale edit: %dx%d history=%d", cur.Width, cur.Height, s.HistoryLen())
	}
}

func TestStaleResponseAfterUndoIsDiscarded(t *testing.T) {
	defer goleak.VerifyNone(t)
	fr := &fakeRemote{
		result:  func(int) []byte { return encodePNG(t, 20, 20, 7) },
		started: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := openSession(t, Options{Remote: fr}, 80, 80)
	s.PointerDown(0, 0)
	s.PointerMove(40, 40)
	s.PointerUp()
	if _, err := s.ApplyCrop(context.Background()); err != nil {
		t.Fatalf("crop: %v", err)
	}
	release := startGatedEdit(t, s, fr)
	if _, ok := s.Undo(); !ok {
		t.Fatalf("undo refused")
	}
	if err := release(); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	cur, _ := s.Image()
	if cur.Width != 80 || s.HistoryCursor() != 0 || !s.CanRedo() {
		t.Fatalf("undo lost to stale edit: w=%d cursor=%d", cur.Width, s.HistoryCursor())
	}
}

func TestHistoryByteCapEvictsOldest(t *testing.T) {
	fr := &fakeRemote{result: func(n int) []byte { return encodePNG(t, 40, 40, uint8(n)) }}
	// Room for two 40x40 RGBA snapshots.
	s := openSession(t, Options{Remote: fr, HistoryBytes: 2 * 40 * 40 * 4}, 40, 40)
	for i := 0; i < 4; i++ {
		if _, err := s.ApplyRemoteEdit(context.Background(), KindFilter, "lomo"); err != nil {
			t.Fatalf("edit %d: %v", i, err)
		}
	}
	if s.HistoryLen() != 2 || s.HistoryCursor() != 1 {
		t.Fatalf("history len=%d cursor=%d, want 2/1", s.HistoryLen(), s.HistoryCursor())
	}
}
