/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrNotLoaded = errors.New("raster: no image loaded")

// Buffer holds the image currently open in the editor. It is safe for concurrent use.
type Buffer struct {
	mu     sync.RWMutex
	cur    Image
	format string
	loaded bool
}

// Load decodes data and makes it the active image. On failure the previous
// contents are kept.
func (b *Buffer) Load(ctx context.Context, data []byte, timeout time.Duration) error {
	img, format, err := Decode(ctx, data, timeout)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.cur, b.format, b.loaded = img, format, true
	b.mu.Unlock()
	return nil
}

// Snapshot returns an independent copy of the active image.
func (b *Buffer) Snapshot() (Image, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.loaded {
		return Image{}, ErrNotLoaded
	}
	return b.cur.Clone(), nil
}

// Replace swaps the active image atomically. The buffer keeps its own clone.
func (b *Buffer) Replace(img Image) error {
	if !img.Valid() {
		return fmt.Errorf("raster: replace with invalid image %dx%d", img.Width, img.Height)
	}
	c := img.Clone()
	b.mu.Lock()
	b.cur, b.loaded = c, true
	b.mu.Unlock()
	return nil
}

// Size reports the active dimensions, zero when nothing is loaded.
func (b *Buffer) Size() (int, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cur.Width, b.cur.Height
}

// Format is the decoder name of the originally loaded bytes.
func (b *Buffer) Format() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.format
}

func (b *Buffer) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Clear drops the active image.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.cur, b.format, b.loaded = Image{}, "", false
	b.mu.Unlock()
}
