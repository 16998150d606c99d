/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster holds the editable in-memory pixel representation used by the
// image editor. Image is a value type: every operation that changes pixels
// returns a new Image and never writes through a shared Pix slice.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Image is a non-premultiplied RGBA pixel grid. len(Pix) == Width*Height*4.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

var ErrBounds = errors.New("raster: rectangle outside image bounds")

// New returns a transparent image of the given size.
func New(w, h int) Image {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Image{Width: w, Height: h, Pix: make([]byte, w*h*4)}
}

// FromImage converts any decoded image into an Image sized to its bounds.
func FromImage(src image.Image) Image {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return Image{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// Valid reports whether the buffer length matches the dimensions.
func (im Image) Valid() bool {
	return im.Width > 0 && im.Height > 0 && len(im.Pix) == im.Width*im.Height*4
}

// Empty reports a zero-sized image.
func (im Image) Empty() bool { return im.Width == 0 || im.Height == 0 }

// Bounds returns the image rectangle anchored at the origin.
func (im Image) Bounds() image.Rectangle { return image.Rect(0, 0, im.Width, im.Height) }

// Clone returns a deep copy.
func (im Image) Clone() Image {
	pix := make([]byte, len(im.Pix))
	copy(pix, im.Pix)
	return Image{Width: im.Width, Height: im.Height, Pix: pix}
}

// Equal compares dimensions and pixels bit for bit.
func (im Image) Equal(o Image) bool {
	return im.Width == o.Width && im.Height == o.Height && bytes.Equal(im.Pix, o.Pix)
}

// NRGBA returns a standard library view over a copy of the pixels.
func (im Image) NRGBA() *image.NRGBA {
	c := im.Clone()
	return &image.NRGBA{Pix: c.Pix, Stride: c.Width * 4, Rect: c.Bounds()}
}

// At returns the RGBA quadruple at (x, y).
func (im Image) At(x, y int) [4]byte {
	i := (y*im.Width + x) * 4
	return [4]byte{im.Pix[i], im.Pix[i+1], im.Pix[i+2], im.Pix[i+3]}
}

// SubImage copies the region r into a new image. r must lie inside the bounds
// and have a positive area.
func (im Image) SubImage(r image.Rectangle) (Image, error) {
	if r.Empty() || !r.In(im.Bounds()) {
		return Image{}, fmt.Errorf("%w: %v not in %v", ErrBounds, r, im.Bounds())
	}
	out := New(r.Dx(), r.Dy())
	rowLen := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		src := ((r.Min.Y+y)*im.Width + r.Min.X) * 4
		copy(out.Pix[y*rowLen:(y+1)*rowLen], im.Pix[src:src+rowLen])
	}
	return out, nil
}

// Thumbnail scales the image so its longest side is at most maxSide, keeping
// the aspect ratio. Images already small enough are returned as a clone.
func (im Image) Thumbnail(maxSide int) Image {
	if maxSide <= 0 || im.Empty() || (im.Width <= maxSide && im.Height <= maxSide) {
		return im.Clone()
	}
	w, h := maxSide, maxSide
	if im.Width >= im.Height {
		h = max(1, im.Height*maxSide/im.Width)
	} else {
		w = max(1, im.Width*maxSide/im.Height)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), im.NRGBA(), im.Bounds(), xdraw.Src, nil)
	return Image{Width: w, Height: h, Pix: dst.Pix}
}
