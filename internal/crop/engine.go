/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crop implements the interactive crop selection: pointer driven
// rectangle tracking with an optional aspect constraint and a minimum size.
package crop

import (
	"errors"
	"image"
	"math"
)

// DefaultMinSize is the smallest accepted selection side in pixels.
const DefaultMinSize = 10

var (
	ErrNoSelection = errors.New("crop: no selection ready")
	ErrTooSmall    = errors.New("crop: selection below minimum size")
)

type State int

const (
	Idle State = iota
	Selecting
	SelectionReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case SelectionReady:
		return "selection-ready"
	default:
		return "unknown"
	}
}

// Rect is a selection in raster pixel coordinates. W and H are signed while
// dragging; a negative value means the drag went left or up from X,Y.
type Rect struct {
	X, Y, W, H float64
}

// Normalize returns the rectangle with a top-left origin and non-negative size.
func (r Rect) Normalize() Rect {
	x, y, w, h := r.X, r.Y, r.W, r.H
	if w < 0 {
		x, w = x+w, -w
	}
	if h < 0 {
		y, h = y+h, -h
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// Engine tracks one crop interaction. It is not safe for concurrent use; the
// editor session serialises access.
type Engine struct {
	state   State
	sel     Rect
	aspect  Aspect
	minSize float64
}

// NewEngine returns an idle engine. minSize <= 0 selects DefaultMinSize.
func NewEngine(minSize int) *Engine {
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return &Engine{aspect: AspectFree, minSize: float64(minSize)}
}

func (e *Engine) State() State   { return e.state }
func (e *Engine) Aspect() Aspect { return e.aspect }

// Selection returns the raw (possibly negative) rectangle while one exists.
func (e *Engine) Selection() (Rect, bool) {
	if e.state == Idle {
		return Rect{}, false
	}
	return e.sel, true
}

// PointerDown anchors a new selection at (x,y). Any previous selection is dropped.
func (e *Engine) PointerDown(x, y float64) {
	e.state = Selecting
	e.sel = Rect{X: x, Y: y}
}

// PointerMove resizes the selection while dragging. With a fixed aspect the
// height is w / ratio, so it carries the sign of the horizontal drag.
func (e *Engine) PointerMove(x, y float64) {
	if e.state != Selecting {
		return
	}
	w := x - e.sel.X
	h := y - e.sel.Y
	if !e.aspect.Free() && w != 0 {
		h = w / e.aspect.Ratio
	}
	e.sel.W, e.sel.H = w, h
}

// PointerUp ends the drag. The selection is kept only when both sides reach
// the minimum size.
func (e *Engine) PointerUp() State {
	if e.state != Selecting {
		return e.state
	}
	if math.Abs(e.sel.W) >= e.minSize && math.Abs(e.sel.H) >= e.minSize {
		e.state = SelectionReady
	} else {
		e.clear()
	}
	return e.state
}

// SetAspect changes the constraint. An existing selection is discarded rather
// than reshaped.
func (e *Engine) SetAspect(a Aspect) {
	e.aspect = a
	if e.state != Idle {
		e.clear()
	}
}

// ResetSelection clears the rectangle and returns the constraint to free.
func (e *Engine) ResetSelection() {
	e.clear()
	e.aspect = AspectFree
}

// Done returns the engine to Idle after a crop was applied. The aspect stays.
func (e *Engine) Done() { e.clear() }

// Normalized converts the ready selection into an integer rectangle inside
// bounds. Negative origins are clamped to the bounds and the rectangle is
// clipped; if clipping leaves less than the minimum size ErrTooSmall is returned.
func (e *Engine) Normalized(bounds image.Rectangle) (image.Rectangle, error) {
	if e.state != SelectionReady {
		return image.Rectangle{}, ErrNoSelection
	}
	n := e.sel.Normalize()
	x0 := int(math.Round(n.X))
	y0 := int(math.Round(n.Y))
	r := image.Rect(x0, y0, x0+int(math.Round(n.W)), y0+int(math.Round(n.H))).Intersect(bounds)
	if float64(r.Dx()) < e.minSize || float64(r.Dy()) < e.minSize {
		return image.Rectangle{}, ErrTooSmall
	}
	return r, nil
}

func (e *Engine) clear() {
	e.state = Idle
	e.sel = Rect{}
}
