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
	"fmt"
	"strings"
)

// Tool is the editor panel the user last worked in.
type Tool string

const (
	ToolCrop    Tool = "crop"
	ToolAdjust  Tool = "adjust"
	ToolFilters Tool = "filters"
)

func ParseTool(s string) (Tool, error) {
	switch t := Tool(strings.ToLower(strings.TrimSpace(s))); t {
	case ToolCrop, ToolAdjust, ToolFilters:
		return t, nil
	}
	return "", fmt.Errorf("unknown editor tool %q", s)
}

// Preset is a canned prompt for a remote edit.
type Preset struct {
	Name   string
	Kind   EditKind
	Prompt string
}

var AdjustPresets = []Preset{
	{Name: "Blur Background", Kind: KindAdjustment, Prompt: "Apply a realistic depth-of-field effect, making the background blurry while keeping the main subject in sharp focus."},
	{Name: "Enhance Details", Kind: KindAdjustment, Prompt: "Slightly enhance the sharpness and details of the image without making it look unnatural."},
	{Name: "Warmer Lighting", Kind: KindAdjustment, Prompt: "Adjust the color temperature to give the image warmer, golden-hour style lighting."},
	{Name: "Studio Light", Kind: KindAdjustment, Prompt: "Add dramatic, professional studio lighting to the main subject."},
}

var FilterPresets = []Preset{
	{Name: "Synthwave", Kind: KindFilter, Prompt: "Apply a vibrant 80s synthwave aesthetic with neon colors and retro vibes."},
	{Name: "Anime", Kind: KindFilter, Prompt: "Give the image a vibrant Japanese anime style look."},
	{Name: "Lomo", Kind: KindFilter, Prompt: "Apply a vintage lomography film camera effect."},
	{Name: "Glitch", Kind: KindFilter, Prompt: "Add a digital glitch art effect with color distortions."},
}

// LookupPreset finds an adjust or filter preset by name, case-insensitively.
func LookupPreset(name string) (Preset, bool) {
	n := strings.TrimSpace(name)
	for _, list := range [][]Preset{AdjustPresets, FilterPresets} {
		for _, p := range list {
			if strings.EqualFold(p.Name, n) {
				return p, true
			}
		}
	}
	return Preset{}, false
}
