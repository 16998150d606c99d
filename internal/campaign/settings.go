/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package campaign

import (
	"fmt"
	"maps"
	"slices"

	"campaignwizard/internal/domain"
)

// FormatConfig is the per-format part of a generation run.
type FormatConfig struct {
	Enabled    bool
	Model      string
	Variations int // ignored for formats without variations
}

// Settings are the user's choices on the Generate step.
type Settings struct {
	Formats       map[domain.Format]FormatConfig
	Creativity    int // 0-100 slider
	VideoDuration int // seconds
}

// DefaultSettings enables every format with its default model.
func DefaultSettings() Settings {
	fs := make(map[domain.Format]FormatConfig, len(domain.Formats))
	for _, spec := range domain.Formats {
		fc := FormatConfig{Enabled: true, Model: spec.DefaultModel}
		if spec.SupportsVariations {
			fc.Variations = domain.DefaultVariations
		}
		fs[spec.Format] = fc
	}
	return Settings{Formats: fs, Creativity: domain.DefaultCreativity, VideoDuration: domain.DefaultVideoDuration}
}

func (s Settings) clone() Settings {
	s.Formats = maps.Clone(s.Formats)
	return s
}

// EnabledCount counts enabled formats.
func (s Settings) EnabledCount() int {
	n := 0
	for _, fc := range s.Formats {
		if fc.Enabled {
			n++
		}
	}
	return n
}

func (s Settings) Enabled(f domain.Format) bool { return s.Formats[f].Enabled }

// Validate checks models against the catalogue and bounds the numbers.
func (s Settings) Validate() error {
	if s.Creativity < 0 || s.Creativity > 100 {
		return fmt.Errorf("creativity %d outside 0..100", s.Creativity)
	}
	if s.VideoDuration < 0 {
		return fmt.Errorf("negative video duration %d", s.VideoDuration)
	}
	for f, fc := range s.Formats {
		spec, ok := domain.SpecFor(f)
		if !ok {
			return fmt.Errorf("unknown format %q", f)
		}
		if fc.Model != "" && !slices.Contains(spec.Models, fc.Model) {
			return fmt.Errorf("model %q is not available for %s", fc.Model, f)
		}
		if spec.SupportsVariations && fc.Enabled && (fc.Variations < 1 || fc.Variations > 4) {
			return fmt.Errorf("%s variations must be 1..4, got %d", f, fc.Variations)
		}
	}
	return nil
}
