/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultLoadTimeout bounds how long Decode may take before failing with ErrLoadTimeout.
const DefaultLoadTimeout = 10 * time.Second

// MaxSide rejects images whose width or height exceed it before allocating pixels.
const MaxSide = 16384

var (
	ErrDecode      = errors.New("raster: invalid image data")
	ErrLoadTimeout = errors.New("raster: image loading timed out")
)

// DecodeError wraps the underlying decoder failure. errors.Is(err, ErrDecode) holds.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return ErrDecode.Error()
	}
	return fmt.Sprintf("%s: %v", ErrDecode.Error(), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// decodeFn is swapped in tests to simulate slow decoders.
var decodeFn = func(r io.Reader) (image.Image, string, error) { return image.Decode(r) }

type decodeResult struct {
	img    Image
	format string
	err    error
}

// Decode turns encoded bytes into an Image at natural size. A non-positive
// timeout selects DefaultLoadTimeout. The returned format is the registered
// decoder name (png, jpeg, gif, webp, bmp).
func Decode(ctx context.Context, data []byte, timeout time.Duration) (Image, string, error) {
	if len(data) == 0 {
		return Image{}, "", &DecodeError{Err: errors.New("no image data provided")}
	}
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, "", &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxSide || cfg.Height > MaxSide {
		return Image{}, "", &DecodeError{Err: fmt.Errorf("unsupported dimensions %dx%d", cfg.Width, cfg.Height)}
	}

	done := make(chan decodeResult, 1)
	go func() {
		src, format, err := decodeFn(bytes.NewReader(data))
		if err != nil {
			done <- decodeResult{err: &DecodeError{Err: err}}
			return
		}
		done <- decodeResult{img: FromImage(src), format: format}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		return res.img, res.format, res.err
	case <-timer.C:
		return Image{}, "", ErrLoadTimeout
	case <-ctx.Done():
		return Image{}, "", ctx.Err()
	}
}

// NormalizeMime maps aliases onto the canonical mime types used on the wire.
func NormalizeMime(mime string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch m {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "":
		return "image/png"
	}
	return m
}

// MimeForFormat returns the mime type of a decoder format name.
func MimeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	default:
		return "image/png"
	}
}

// ExtForMime returns a file extension (without dot) for a mime type.
func ExtForMime(mime string) string {
	m := NormalizeMime(mime)
	if i := strings.IndexByte(m, '/'); i >= 0 && i+1 < len(m) {
		return m[i+1:]
	}
	return "png"
}

// Encode serialises the image for transport. JPEG is honoured; every other
// type falls back to PNG since only those two encoders ship with the toolchain.
// The mime type actually produced is returned.
func Encode(im Image, mime string) ([]byte, string, error) {
	if !im.Valid() {
		return nil, "", fmt.Errorf("raster: cannot encode %dx%d image with %d bytes", im.Width, im.Height, len(im.Pix))
	}
	var buf bytes.Buffer
	switch NormalizeMime(mime) {
	case "image/jpeg":
		if err := jpeg.Encode(&buf, im.NRGBA(), &jpeg.Options{Quality: 92}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		if err := png.Encode(&buf, im.NRGBA()); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
}
