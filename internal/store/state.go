/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store holds the wizard's session state. State only changes through
// Reduce, which never mutates its input.
package store

import "campaignwizard/internal/domain"

type BriefState struct {
	Data      *domain.BriefRecord
	IsLoading bool
	Err       string
}

type CreativeState struct {
	Prompts      *domain.CreativePrompts
	IsGenerating bool
	Err          string
}

type AssetsState struct {
	Images       []domain.GeneratedImage
	Video        *domain.GeneratedVideo
	Copies       []domain.GeneratedCopy
	Translations []domain.Translation
	IsGenerating bool
	IsEvaluating bool
	Err          string
}

// State is the whole session. Treat values obtained from a Store as read-only.
type State struct {
	Brief    BriefState
	Creative CreativeState
	Assets   AssetsState
}

// AssetSet returns the generated assets as one record.
func (s State) AssetSet() domain.AssetSet {
	return domain.AssetSet{Images: s.Assets.Images, Video: s.Assets.Video, Copies: s.Assets.Copies}
}

// Translation returns the stored translation of a copy variation, if any.
func (s State) Translation(variation int) (domain.Translation, bool) {
	for _, t := range s.Assets.Translations {
		if t.Variation == variation {
			return t, true
		}
	}
	return domain.Translation{}, false
}

// Slice names a state slice for slice-scoped actions.
type Slice string

const (
	SliceBrief    Slice = "brief"
	SliceCreative Slice = "creative"
	SliceAssets   Slice = "assets"
)
