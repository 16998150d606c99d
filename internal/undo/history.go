/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"campaignwizard/internal/raster"
)

// DefaultMaxEntries is the number of snapshots retained per editor session.
const DefaultMaxEntries = 20

// Entry is one raster snapshot in the history.
// TS is when the snapshot was captured.
type Entry struct {
	Image raster.Image
	TS    time.Time
}

// Config controls depth and memory caps.
type Config struct {
	// MaxEntries caps the log length; the oldest entry is evicted first.
	MaxEntries int
	// MaxBytes is a soft cap on retained pixel bytes (0 disables it). The entry
	// under the cursor is never evicted to satisfy it.
	MaxBytes int
	// Now overrides the clock used for entry timestamps.
	Now func() time.Time
}

// History is a bounded linear undo/redo log with a single cursor.
// When non-empty, 0 <= cursor < len(entries) and the cursor entry is the image
// currently shown. It is safe for concurrent use.
type History struct {
	cfg     Config
	mu      sync.Mutex
	entries []Entry
	cursor  int
	// accounting
	totalBytes int
}

func NewHistory(cfg Config) *History {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &History{cfg: cfg, cursor: -1}
}

// Push appends a clone of img after dropping every entry past the cursor,
// enforces the caps and moves the cursor onto the new entry.
func (h *History) Push(img raster.Image) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Any new change invalidates redo
	for _, e := range h.entries[h.cursor+1:] {
		h.totalBytes -= len(e.Image.Pix)
	}
	h.entries = h.entries[:h.cursor+1]

	e := Entry{Image: img.Clone(), TS: h.cfg.Now()}
	h.entries = append(h.entries, e)
	h.totalBytes += len(e.Image.Pix)
	h.cursor = len(h.entries) - 1
	h.enforceCapsLocked()
	return e
}

// Undo moves the cursor back and returns that entry's image. It is a no-op at
// the first entry.
func (h *History) Undo() (raster.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor <= 0 {
		return raster.Image{}, false
	}
	h.cursor--
	return h.entries[h.cursor].Image.Clone(), true
}

// Redo moves the cursor forward and returns that entry's image. It is a no-op
// at the last entry.
func (h *History) Redo() (raster.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < 0 || h.cursor >= len(h.entries)-1 {
		return raster.Image{}, false
	}
	h.cursor++
	return h.entries[h.cursor].Image.Clone(), true
}

// Reset clears the log down to a single base entry with the cursor at 0.
func (h *History) Reset(base raster.Image) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := Entry{Image: base.Clone(), TS: h.cfg.Now()}
	h.entries = []Entry{e}
	h.cursor = 0
	h.totalBytes = len(e.Image.Pix)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.cursor = -1
	h.totalBytes = 0
}

// Current returns the image under the cursor.
func (h *History) Current() (raster.Image, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cursor < 0 {
		return raster.Image{}, false
	}
	return h.entries[h.cursor].Image.Clone(), true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cursor returns the current position, -1 when empty.
func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor >= 0 && h.cursor < len(h.entries)-1
}

// Stats returns current sizes for diagnostics.
func (h *History) Stats() (totalBytes int, entries int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.totalBytes, len(h.entries)
}

func (h *History) enforceCapsLocked() {
	// Depth cap: drop the oldest extras
	if over := len(h.entries) - h.cfg.MaxEntries; over > 0 {
		h.dropFrontLocked(over)
	}
	// Memory cap: prune oldest while something older than the cursor exists
	for h.cfg.MaxBytes > 0 && h.totalBytes > h.cfg.MaxBytes && h.cursor > 0 {
		h.dropFrontLocked(1)
	}
}

func (h *History) dropFrontLocked(n int) {
	for i := 0; i < n; i++ {
		h.totalBytes -= len(h.entries[i].Image.Pix)
	}
	h.entries = append([]Entry(nil), h.entries[n:]...)
	h.cursor -= n
	if h.cursor < 0 {
		h.cursor = 0
	}
}
