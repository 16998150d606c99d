/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/base64"
	"fmt"
)

// EvaluationScores are the backend's 0-10 ratings of an ad creative.
type EvaluationScores struct {
	Conversion float64 `json:"conversion_score"`
	Retention  float64 `json:"retention_score"`
	Traffic    float64 `json:"traffic_score"`
	Engagement float64 `json:"engagement_score"`
}

// Average is the mean of the four scores.
func (s EvaluationScores) Average() float64 {
	return (s.Conversion + s.Retention + s.Traffic + s.Engagement) / 4
}

func (s EvaluationScores) Validate() error {
	for name, v := range map[string]float64{
		"conversion": s.Conversion, "retention": s.Retention,
		"traffic": s.Traffic, "engagement": s.Engagement,
	} {
		if v < 0 || v > 10 {
			return fmt.Errorf("%s score %v outside 0..10", name, v)
		}
	}
	return nil
}

type GeneratedImage struct {
	ImageBase64 string            `json:"image_base64"`
	Variation   int               `json:"variation_number"`
	MimeType    string            `json:"mime_type"`
	Evaluation  *EvaluationScores `json:"evaluation,omitempty"`
}

// Bytes decodes the base64 payload.
func (g GeneratedImage) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(g.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("image variation %d: %w", g.Variation, err)
	}
	return b, nil
}

// GeneratedVideo carries either inline bytes or a URL.
type GeneratedVideo struct {
	VideoBase64 string  `json:"video_base64,omitempty"`
	VideoURL    string  `json:"video_url,omitempty"`
	MimeType    string  `json:"mime_type"`
	Duration    float64 `json:"duration_seconds,omitempty"`
}

func (v GeneratedVideo) Bytes() ([]byte, error) {
	if v.VideoBase64 == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(v.VideoBase64)
	if err != nil {
		return nil, fmt.Errorf("video: %w", err)
	}
	return b, nil
}

// CopyText is the translatable part of an ad copy.
type CopyText struct {
	Headline     string `json:"headline"`
	BodyText     string `json:"body_text"`
	CallToAction string `json:"call_to_action"`
}

type GeneratedCopy struct {
	CopyText
	Variation int `json:"variation_number"`
}

// Translation is a translated copy variation.
type Translation struct {
	Variation int      `json:"variation_number"`
	Language  string   `json:"translated_to"`
	Copy      CopyText `json:"translated_copy"`
}

// AssetSet is everything one generation run produced.
type AssetSet struct {
	Images []GeneratedImage `json:"images,omitempty"`
	Video  *GeneratedVideo  `json:"video,omitempty"`
	Copies []GeneratedCopy  `json:"copy_variations,omitempty"`
}

func (a AssetSet) Empty() bool {
	return len(a.Images) == 0 && a.Video == nil && len(a.Copies) == 0
}

// AllEvaluated reports whether every image already has scores.
func (a AssetSet) AllEvaluated() bool {
	for _, img := range a.Images {
		if img.Evaluation == nil {
			return false
		}
	}
	return true
}
