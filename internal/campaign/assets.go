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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"campaignwizard/internal/backend"
	"campaignwizard/internal/domain"
	"campaignwizard/internal/store"
	"campaignwizard/internal/telemetry"
)

// assetRequest builds the generation request. A format is only requested
// when it is enabled and has a prompt.
func (s *Service) assetRequest(st store.State) (backend.AssetRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.product == nil {
		return backend.AssetRequest{}, ErrNoProduct
	}
	if st.Creative.Prompts == nil {
		return backend.AssetRequest{}, ErrNoPrompts
	}
	if s.settings.EnabledCount() == 0 {
		return backend.AssetRequest{}, ErrNoFormat
	}
	p := *st.Creative.Prompts
	set := s.settings
	req := backend.AssetRequest{
		ProductName:     s.product.Name,
		ProductMime:     s.product.Mime,
		Product:         s.product.Data,
		CreativityLevel: domain.CreativityParam(set.Creativity),
	}
	if st.Brief.Data != nil {
		b, err := json.Marshal(st.Brief.Data)
		if err != nil {
			return backend.AssetRequest{}, fmt.Errorf("encode brief context: %w", err)
		}
		req.BriefContext = string(b)
	}
	if fc := set.Formats[domain.FormatImages]; fc.Enabled && p.ImagePrompt != "" {
		req.ImagePrompt, req.ImageVariations, req.ImageModel = p.ImagePrompt, fc.Variations, fc.Model
	}
	if fc := set.Formats[domain.FormatVideo]; fc.Enabled && p.VideoPrompt != "" {
		req.VideoPrompt, req.VideoModel, req.VideoDuration = p.VideoPrompt, fc.Model, set.VideoDuration
	}
	if fc := set.Formats[domain.FormatCopy]; fc.Enabled && p.CopyPrompt != "" {
		req.CopyPrompt, req.CopyVariations, req.CopyModel = p.CopyPrompt, fc.Variations, fc.Model
	}
	return req, nil
}

// GenerateAssets runs one generation request and stores whatever came back.
// Formats missing from the response keep their previous results.
func (s *Service) GenerateAssets(ctx context.Context) (domain.AssetSet, error) {
	l := s.logger("generate_assets")
	if !s.begin(opAssets) {
		return domain.AssetSet{}, ErrBusy
	}
	defer s.end(opAssets)
	st := s.st.State()
	req, err := s.assetRequest(st)
	if err != nil {
		return domain.AssetSet{}, err
	}
	s.st.Dispatch(store.SetAssetsGenerating{Generating: true})
	defer s.st.Dispatch(store.SetAssetsGenerating{Generating: false})

	set, err := s.api.GenerateAssets(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "asset generation failed", slog.Any("err", err))
		s.st.Dispatch(store.SetAssetsError{Err: userMessage(err, "Failed to generate assets")})
		return domain.AssetSet{}, err
	}
	if len(set.Images) > 0 {
		s.st.Dispatch(store.SetGeneratedImages{Images: set.Images})
	}
	if set.Video != nil {
		s.st.Dispatch(store.SetGeneratedVideo{Video: *set.Video})
	}
	if len(set.Copies) > 0 {
		s.st.Dispatch(store.SetGeneratedCopies{Copies: set.Copies})
	}
	l.InfoContext(ctx, "assets generated",
		slog.Int("images", len(set.Images)), slog.Bool("video", set.Video != nil), slog.Int("copies", len(set.Copies)))
	s.events.Emit(telemetry.AssetsGenerated, telemetry.Props{
		"images":     len(set.Images),
		"video":      set.Video != nil,
		"copies":     len(set.Copies),
		"creativity": req.CreativityLevel,
	})
	return set, nil
}

// EvaluationResult summarises an evaluation pass.
type EvaluationResult struct {
	Skipped   bool // every image already had scores
	Evaluated int
	Failed    int
}

// EvaluateImages scores every generated image concurrently. Each success is
// dispatched for its own variation as soon as it arrives; a failure is logged
// and leaves that variation unevaluated. Only context cancellation is
// returned as an error.
func (s *Service) EvaluateImages(ctx context.Context) (EvaluationResult, error) {
	l := s.logger("evaluate_images")
	st := s.st.State()
	if len(st.Assets.Images) == 0 {
		return EvaluationResult{}, ErrNoImages
	}
	if st.Creative.Prompts == nil || st.Creative.Prompts.ImagePrompt == "" {
		return EvaluationResult{}, ErrNoImagePrompt
	}
	if st.AssetSet().AllEvaluated() {
		return EvaluationResult{Skipped: true}, nil
	}
	if !s.begin(opEvaluate) {
		return EvaluationResult{}, ErrBusy
	}
	defer s.end(opEvaluate)
	prompt := st.Creative.Prompts.ImagePrompt

	s.st.Dispatch(store.SetEvaluating{Evaluating: true})
	defer s.st.Dispatch(store.SetEvaluating{Evaluating: false})

	var ok, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.evalN)
	for _, img := range st.Assets.Images {
		img := img
		g.Go(func() error {
			data, err := img.Bytes()
			if err == nil {
				var scores domain.EvaluationScores
				scores, err = s.api.EvaluateAdCreative(gctx, data, img.MimeType, prompt)
				if err == nil {
					s.st.Dispatch(store.SetImageEvaluation{Variation: img.Variation, Evaluation: scores})
					ok.Add(1)
					return nil
				}
			}
			failed.Add(1)
			l.WarnContext(ctx, "image evaluation failed", slog.Int("variation", img.Variation), slog.Any("err", err))
			return nil
		})
	}
	_ = g.Wait()
	res := EvaluationResult{Evaluated: int(ok.Load()), Failed: int(failed.Load())}
	s.events.Emit(telemetry.ImagesEvaluated, telemetry.Props{"evaluated": res.Evaluated, "failed": res.Failed})
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// TranslateCopy translates one copy variation and stores the result next to
// the original.
func (s *Service) TranslateCopy(ctx context.Context, variation int, language string) (domain.Translation, error) {
	l := s.logger("translate_copy")
	lang, err := domain.NormalizeLanguage(language)
	if err != nil {
		return domain.Translation{}, err
	}
	var src *domain.GeneratedCopy
	for _, c := range s.st.State().Assets.Copies {
		if c.Variation == variation {
			src = &c
			break
		}
	}
	if src == nil {
		return domain.Translation{}, fmt.Errorf("%w: %d", ErrUnknownCopy, variation)
	}
	out, to, err := s.api.Translate(ctx, src.CopyText, lang)
	if err != nil {
		l.ErrorContext(ctx, "translation failed", slog.Int("variation", variation), slog.Any("err", err))
		s.st.Dispatch(store.SetAssetsError{Err: userMessage(err, "Failed to translate copy")})
		return domain.Translation{}, err
	}
	if to == "" {
		to = lang
	}
	tr := domain.Translation{Variation: variation, Language: to, Copy: out}
	s.st.Dispatch(store.SetTranslation{Translation: tr})
	s.events.Emit(telemetry.CopyTranslated, telemetry.Props{"language": to})
	return tr, nil
}
