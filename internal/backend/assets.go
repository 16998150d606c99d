/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"campaignwizard/internal/domain"
)

// AssetRequest parameterises one generation run. A format is requested when
// its prompt is non-empty.
type AssetRequest struct {
	ProductName string
	ProductMime string
	Product     []byte

	ImagePrompt     string
	ImageVariations int
	ImageModel      string

	VideoPrompt   string
	VideoModel    string
	VideoDuration int

	CopyPrompt     string
	CopyVariations int
	CopyModel      string

	CreativityLevel string
	BriefContext    string
}

func (r AssetRequest) parts() []formPart {
	name := r.ProductName
	if name == "" {
		name = "product.png"
	}
	ps := []formPart{{Name: "product_sku", FileName: name, Mime: r.ProductMime, Data: r.Product}}
	add := func(k, v string) {
		if v != "" {
			ps = append(ps, formPart{Name: k, Value: v})
		}
	}
	addInt := func(k string, v int) {
		if v > 0 {
			ps = append(ps, formPart{Name: k, Value: strconv.Itoa(v)})
		}
	}
	add("image_prompt", r.ImagePrompt)
	addInt("image_variations", r.ImageVariations)
	add("image_model", r.ImageModel)
	add("video_prompt", r.VideoPrompt)
	add("video_model", r.VideoModel)
	addInt("video_duration", r.VideoDuration)
	add("copy_prompt", r.CopyPrompt)
	addInt("copy_variations", r.CopyVariations)
	add("copy_model", r.CopyModel)
	add("creativity_level", r.CreativityLevel)
	add("brief_context", r.BriefContext)
	return ps
}

// GenerateAssets runs image, video and copy generation in one request.
func (c *Client) GenerateAssets(ctx context.Context, req AssetRequest) (domain.AssetSet, error) {
	var out domain.AssetSet
	if len(req.Product) == 0 {
		return out, errors.New("generate assets: product image is required")
	}
	err := c.doMultipart(ctx, "generate assets", "/api/generate-assets", req.parts(), &out)
	return out, err
}

// EvaluateAdCreative scores one image against the prompt it was made from.
func (c *Client) EvaluateAdCreative(ctx context.Context, image []byte, mime, prompt string) (domain.EvaluationScores, error) {
	var out domain.EvaluationScores
	parts := []formPart{
		{Name: "image", FileName: "image.png", Mime: mime, Data: image},
		{Name: "image_prompt", Value: prompt},
	}
	if err := c.doMultipart(ctx, "evaluate ad creative", "/api/evaluate-ad-creative", parts, &out); err != nil {
		return out, err
	}
	if err := out.Validate(); err != nil {
		return out, &RemoteCallFailed{Op: "evaluate ad creative", Status: http.StatusOK, Detail: "Failed to evaluate ad creative: " + err.Error(), Err: err}
	}
	return out, nil
}

// Translate renders a copy variation in another language.
func (c *Client) Translate(ctx context.Context, copyText domain.CopyText, language string) (domain.CopyText, string, error) {
	req := struct {
		CopyText       domain.CopyText `json:"copy_text"`
		TargetLanguage string          `json:"target_language"`
	}{copyText, language}
	var resp struct {
		Translated   domain.CopyText `json:"translated_copy"`
		TranslatedTo string          `json:"translated_to"`
	}
	if err := c.doJSON(ctx, "translate", http.MethodPost, "/api/translate", req, &resp); err != nil {
		return domain.CopyText{}, "", err
	}
	return resp.Translated, resp.TranslatedTo, nil
}
