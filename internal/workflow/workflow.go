/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package workflow is the four-step wizard: upload, mapping, generate, review.
// Forward moves are gated on the data each step produces.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

type Step int

const (
	Upload Step = iota
	Mapping
	Generate
	Review
)

// MinBriefTextChars is the pasted-brief length required to leave Upload.
const MinBriefTextChars = 100

var Steps = []Step{Upload, Mapping, Generate, Review}

func (s Step) String() string {
	switch s {
	case Upload:
		return "upload"
	case Mapping:
		return "mapping"
	case Generate:
		return "generate"
	case Review:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) Title() string {
	switch s {
	case Upload:
		return "Upload Brief"
	case Mapping:
		return "Brief Analysis"
	case Generate:
		return "Generate Assets"
	case Review:
		return "Review & Export"
	default:
		return s.String()
	}
}

var (
	ErrGateClosed     = errors.New("workflow: required data for this step is missing")
	ErrNoPrev         = errors.New("workflow: already at the first step")
	ErrTerminal       = errors.New("workflow: review is the last step")
	ErrJumpNotAllowed = errors.New("workflow: step not reached yet")
)

// GateError says which step refused to advance and why.
type GateError struct {
	Step   Step
	Reason string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("workflow: cannot leave %s: %s", e.Step, e.Reason)
}

func (e *GateError) Is(target error) bool { return target == ErrGateClosed }

// Inputs is what the wizard knows at the moment of a transition.
type Inputs struct {
	HasFile         bool
	BriefText       string
	HasBrief        bool
	HasPrompts      bool
	HasProductImage bool
	// EnabledFormats counts output formats selected for generation.
	EnabledFormats int
}

// TextLongEnough applies the pasted-text rule: trimmed length in characters.
func TextLongEnough(text string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) >= MinBriefTextChars
}

// canLeave reports whether step's exit condition holds.
func canLeave(step Step, in Inputs) error {
	switch step {
	case Upload:
		if in.HasFile || TextLongEnough(in.BriefText) {
			return nil
		}
		return &GateError{Step: step, Reason: fmt.Sprintf("upload a brief file or paste at least %d characters", MinBriefTextChars)}
	case Mapping:
		if in.HasBrief {
			return nil
		}
		return &GateError{Step: step, Reason: "the brief has not been analysed"}
	case Generate:
		switch {
		case !in.HasPrompts:
			return &GateError{Step: step, Reason: "creative prompts are missing"}
		case !in.HasProductImage:
			return &GateError{Step: step, Reason: "please upload a product SKU image"}
		case in.EnabledFormats == 0:
			return &GateError{Step: step, Reason: "please select at least one output format"}
		}
		return nil
	case Review:
		return ErrTerminal
	}
	return fmt.Errorf("workflow: unknown step %d", step)
}

// Machine tracks the current and furthest reached step. It is safe for
// concurrent use.
type Machine struct {
	mu       sync.Mutex
	current  Step
	furthest Step
	onChange func(from, to Step)
}

func New() *Machine { return &Machine{} }

// OnChange registers a callback fired after every successful transition.
func (m *Machine) OnChange(fn func(from, to Step)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Machine) Current() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Furthest is the highest step whose entry conditions were met this session.
func (m *Machine) Furthest() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.furthest
}

// CanNext reports whether Next would succeed with in.
func (m *Machine) CanNext(in Inputs) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return canLeave(m.current, in) == nil
}

// Next advances one step if the current step's data is present.
func (m *Machine) Next(in Inputs) (Step, error) {
	m.mu.Lock()
	from := m.current
	if err := canLeave(from, in); err != nil {
		m.mu.Unlock()
		return from, err
	}
	m.current++
	if m.current > m.furthest {
		m.furthest = m.current
	}
	to, cb := m.current, m.onChange
	m.mu.Unlock()
	if cb != nil {
		cb(from, to)
	}
	return to, nil
}

// Prev goes back one step. It always succeeds except at Upload.
func (m *Machine) Prev() (Step, error) {
	m.mu.Lock()
	from := m.current
	if from == Upload {
		m.mu.Unlock()
		return from, ErrNoPrev
	}
	m.current--
	to, cb := m.current, m.onChange
	m.mu.Unlock()
	if cb != nil {
		cb(from, to)
	}
	return to, nil
}

// JumpTo moves to n if n does not exceed the furthest step reached.
func (m *Machine) JumpTo(n Step) (Step, error) {
	m.mu.Lock()
	from := m.current
	if n < Upload || n > Review {
		m.mu.Unlock()
		return from, fmt.Errorf("workflow: invalid step %d", n)
	}
	if n > m.furthest {
		m.mu.Unlock()
		return from, fmt.Errorf("%w: %s (furthest is %s)", ErrJumpNotAllowed, n, m.furthest)
	}
	m.current = n
	cb := m.onChange
	m.mu.Unlock()
	if cb != nil && from != n {
		cb(from, n)
	}
	return n, nil
}

// Invalidate lowers the furthest reachable step, e.g. after upstream data was
// cleared. The current step is pulled back if it is now out of reach.
func (m *Machine) Invalidate(furthest Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if furthest < Upload {
		furthest = Upload
	}
	if furthest < m.furthest {
		m.furthest = furthest
	}
	if m.current > m.furthest {
		m.current = m.furthest
	}
}

// Reset returns to Upload and forgets progress.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current, m.furthest = Upload, Upload
}
