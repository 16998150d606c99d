/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import "campaignwizard/internal/domain"

// Action is a state transition request. The set is closed; see Reduce.
type Action interface {
	ActionName() string
}

// Brief slice.
type (
	SetBriefData    struct{ Brief *domain.BriefRecord }
	UpdateBriefData struct{ Brief *domain.BriefRecord }
	ClearBriefData  struct{}
	SetBriefLoading struct{ Loading bool }
	SetBriefError   struct{ Err string }
)

// Creative slice.
type (
	SetCreativePrompts    struct{ Prompts domain.CreativePrompts }
	UpdateImagePrompt     struct{ Prompt string }
	UpdateCopyPrompt      struct{ Prompt string }
	UpdateVideoPrompt     struct{ Prompt string }
	ClearCreativePrompts  struct{}
	SetCreativeGenerating struct{ Generating bool }
	SetCreativeError      struct{ Err string }
)

// Assets slice.
type (
	SetGeneratedImages   struct{ Images []domain.GeneratedImage }
	SetGeneratedVideo    struct{ Video domain.GeneratedVideo }
	SetGeneratedCopies   struct{ Copies []domain.GeneratedCopy }
	ClearGeneratedAssets struct{}
	SetAssetsGenerating  struct{ Generating bool }
	SetAssetsError       struct{ Err string }
	SetImageEvaluation   struct {
		Variation  int
		Evaluation domain.EvaluationScores
	}
	SetEvaluating  struct{ Evaluating bool }
	SetTranslation struct{ Translation domain.Translation }
)

// Cross-slice.
type (
	DismissError struct{ Slice Slice }
	ResetAll     struct{}
)

func (SetBriefData) ActionName() string          { return "brief/setBriefData" }
func (UpdateBriefData) ActionName() string       { return "brief/updateBriefData" }
func (ClearBriefData) ActionName() string        { return "brief/clearBriefData" }
func (SetBriefLoading) ActionName() string       { return "brief/setBriefLoading" }
func (SetBriefError) ActionName() string         { return "brief/setBriefError" }
func (SetCreativePrompts) ActionName() string    { return "creative/setCreativePrompts" }
func (UpdateImagePrompt) ActionName() string     { return "creative/updateImagePrompt" }
func (UpdateCopyPrompt) ActionName() string      { return "creative/updateCopyPrompt" }
func (UpdateVideoPrompt) ActionName() string     { return "creative/updateVideoPrompt" }
func (ClearCreativePrompts) ActionName() string  { return "creative/clearCreativePrompts" }
func (SetCreativeGenerating) ActionName() string { return "creative/setCreativeGenerating" }
func (SetCreativeError) ActionName() string      { return "creative/setCreativeError" }
func (SetGeneratedImages) ActionName() string    { return "assets/setGeneratedImages" }
func (SetGeneratedVideo) ActionName() string     { return "assets/setGeneratedVideo" }
func (SetGeneratedCopies) ActionName() string    { return "assets/setGeneratedCopies" }
func (ClearGeneratedAssets) ActionName() string  { return "assets/clearGeneratedAssets" }
func (SetAssetsGenerating) ActionName() string   { return "assets/setAssetsGenerating" }
func (SetAssetsError) ActionName() string        { return "assets/setAssetsError" }
func (SetImageEvaluation) ActionName() string    { return "assets/setImageEvaluation" }
func (SetEvaluating) ActionName() string         { return "assets/setEvaluating" }
func (SetTranslation) ActionName() string        { return "assets/setTranslation" }
func (DismissError) ActionName() string          { return "dismissError" }
func (ResetAll) ActionName() string              { return "resetAll" }
