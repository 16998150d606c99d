/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Format is an output format of asset generation.
type Format string

const (
	FormatImages Format = "Images"
	FormatVideo  Format = "Video"
	FormatCopy   Format = "Copy"
)

// FormatSpec describes the models available for a format.
type FormatSpec struct {
	Format             Format
	DefaultModel       string
	Models             []string
	SupportsVariations bool
}

var Formats = []FormatSpec{
	{Format: FormatVideo, DefaultModel: "Veo 3", Models: []string{"Veo 3", "Veo 2"}},
	{Format: FormatImages, DefaultModel: "Nano banana", Models: []string{"Nano banana"}, SupportsVariations: true},
	{Format: FormatCopy, DefaultModel: "Gemini 2.5 pro", Models: []string{"Gemini 2.5 pro", "Gemini 3 Pro Preview"}, SupportsVariations: true},
}

func SpecFor(f Format) (FormatSpec, bool) {
	for _, s := range Formats {
		if s.Format == f {
			return s, true
		}
	}
	return FormatSpec{}, false
}

const (
	DefaultVariations    = 3
	DefaultVideoDuration = 5
	DefaultCreativity    = 75
)

// CreativityLabel buckets a 0-100 slider value the way the wizard displays it.
func CreativityLabel(level int) string {
	switch {
	case level <= 25:
		return "Conservative"
	case level <= 50:
		return "Balanced"
	case level <= 75:
		return "Creative"
	default:
		return "Experimental"
	}
}

// CreativityParam maps a slider value to the nearest level the backend
// accepts. Ties resolve to the lower level.
func CreativityParam(level int) string {
	keys := []int{25, 50, 75, 100}
	names := map[int]string{25: "conservative", 50: "balanced", 75: "creative", 100: "experimental"}
	best := keys[0]
	for _, k := range keys[1:] {
		if abs(k-level) < abs(best-level) {
			best = k
		}
	}
	return names[best]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Languages are the translation targets offered for ad copy.
var Languages = []string{
	"Spanish", "French", "German", "Italian", "Portuguese",
	"Dutch", "Polish", "Romanian", "Czech", "Greek",
	"Hungarian", "Swedish", "Danish", "Finnish", "Norwegian",
	"Croatian", "Bulgarian", "Slovak", "Lithuanian", "Slovenian",
}

// NormalizeLanguage returns the catalogue spelling of lang.
func NormalizeLanguage(lang string) (string, error) {
	l := strings.TrimSpace(lang)
	i := slices.IndexFunc(Languages, func(s string) bool { return strings.EqualFold(s, l) })
	if i < 0 {
		return "", fmt.Errorf("unsupported language %q", lang)
	}
	return Languages[i], nil
}
