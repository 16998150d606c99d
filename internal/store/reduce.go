/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"slices"

	"campaignwizard/internal/domain"
)

// Reduce returns the state that results from applying a to s. It never
// modifies s or anything reachable from it; touched slices and pointers are
// copied. Unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	// brief
	case SetBriefData:
		s.Brief.Data = a.Brief.Clone()
		s.Brief.Err = ""
	case UpdateBriefData:
		s.Brief.Data = a.Brief.Clone()
	case ClearBriefData:
		s.Brief.Data = nil
		s.Brief.Err = ""
	case SetBriefLoading:
		s.Brief.IsLoading = a.Loading
	case SetBriefError:
		s.Brief.Err = a.Err
		s.Brief.IsLoading = false

	// creative
	case SetCreativePrompts:
		p := a.Prompts
		s.Creative.Prompts = &p
		s.Creative.Err = ""
	case UpdateImagePrompt:
		s.Creative.Prompts = editPrompts(s.Creative.Prompts, func(p *domain.CreativePrompts) { p.ImagePrompt = a.Prompt })
	case UpdateCopyPrompt:
		s.Creative.Prompts = editPrompts(s.Creative.Prompts, func(p *domain.CreativePrompts) { p.CopyPrompt = a.Prompt })
	case UpdateVideoPrompt:
		s.Creative.Prompts = editPrompts(s.Creative.Prompts, func(p *domain.CreativePrompts) { p.VideoPrompt = a.Prompt })
	case ClearCreativePrompts:
		s.Creative.Prompts = nil
		s.Creative.Err = ""
	case SetCreativeGenerating:
		s.Creative.IsGenerating = a.Generating
	case SetCreativeError:
		s.Creative.Err = a.Err
		s.Creative.IsGenerating = false

	// assets
	case SetGeneratedImages:
		s.Assets.Images = cloneImages(a.Images)
		s.Assets.Err = ""
	case SetGeneratedVideo:
		v := a.Video
		s.Assets.Video = &v
		s.Assets.Err = ""
	case SetGeneratedCopies:
		s.Assets.Copies = slices.Clone(a.Copies)
		s.Assets.Translations = nil
		s.Assets.Err = ""
	case ClearGeneratedAssets:
		s.Assets.Images = nil
		s.Assets.Video = nil
		s.Assets.Copies = nil
		s.Assets.Translations = nil
		s.Assets.Err = ""
	case SetAssetsGenerating:
		s.Assets.IsGenerating = a.Generating
	case SetAssetsError:
		s.Assets.Err = a.Err
		s.Assets.IsGenerating = false
	case SetImageEvaluation:
		i := slices.IndexFunc(s.Assets.Images, func(g domain.GeneratedImage) bool { return g.Variation == a.Variation })
		if i < 0 {
			return s
		}
		imgs := slices.Clone(s.Assets.Images)
		ev := a.Evaluation
		imgs[i].Evaluation = &ev
		s.Assets.Images = imgs
	case SetEvaluating:
		s.Assets.IsEvaluating = a.Evaluating
	case SetTranslation:
		ts := slices.DeleteFunc(slices.Clone(s.Assets.Translations), func(t domain.Translation) bool {
			return t.Variation == a.Translation.Variation
		})
		s.Assets.Translations = append(ts, a.Translation)

	// cross-slice
	case DismissError:
		switch a.Slice {
		case SliceBrief:
			s.Brief.Err = ""
		case SliceCreative:
			s.Creative.Err = ""
		case SliceAssets:
			s.Assets.Err = ""
		}
	case ResetAll:
		return State{}
	}
	return s
}

// editPrompts applies fn to a copy of p. Edits without prompts are ignored.
func editPrompts(p *domain.CreativePrompts, fn func(*domain.CreativePrompts)) *domain.CreativePrompts {
	if p == nil {
		return nil
	}
	c := *p
	fn(&c)
	return &c
}

func cloneImages(in []domain.GeneratedImage) []domain.GeneratedImage {
	if in == nil {
		return nil
	}
	out := make([]domain.GeneratedImage, len(in))
	for i, img := range in {
		out[i] = img
		if img.Evaluation != nil {
			ev := *img.Evaluation
			out[i].Evaluation = &ev
		}
	}
	return out
}
