/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the structured brief the backend extracts from an uploaded
// marketing brief. Every field carries its provenance.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source records where a brief field value came from.
type Source int

const (
	SourceUnknown Source = iota
	// SourceExtracted values were read from the brief document.
	SourceExtracted
	// SourceGenerated values were inferred by the model.
	SourceGenerated
)

func (s Source) String() string {
	switch s {
	case SourceExtracted:
		return "extracted"
	case SourceGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

func ParseSource(v string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "extracted":
		return SourceExtracted, nil
	case "generated":
		return SourceGenerated, nil
	}
	return SourceUnknown, fmt.Errorf("invalid field source %q", v)
}

func (s Source) MarshalJSON() ([]byte, error) {
	if s != SourceExtracted && s != SourceGenerated {
		return nil, fmt.Errorf("cannot marshal field source %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *Source) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("field source: %w", err)
	}
	p, err := ParseSource(v)
	if err != nil {
		return err
	}
	*s = p
	return nil
}

// Text is a single-valued brief field.
type Text struct {
	Value  string `json:"value"`
	Source Source `json:"source"`
}

// List is a multi-valued brief field.
type List struct {
	Value  []string `json:"value"`
	Source Source   `json:"source"`
}

type Objectives struct {
	Business      Text `json:"business_objective"`
	Marketing     Text `json:"marketing_objective"`
	Communication Text `json:"communication_objective"`
	KeyMetrics    List `json:"key_metrics"`
	KeyIndicators List `json:"key_indicators"`
}

type Audience struct {
	Demographics      Text `json:"demographics"`
	Psychographics    Text `json:"psychographics"`
	NeedsProblems     Text `json:"needs_problems"`
	DecisionBehaviour Text `json:"decision_behaviour"`
}

// BriefRecord is the analysed brief.
type BriefRecord struct {
	BrandName      Text       `json:"brand_name"`
	CampaignTitle  Text       `json:"campaign_title"`
	BriefSummary   Text       `json:"brief_summary"`
	Objectives     Objectives `json:"project_objectives"`
	TargetAudience Audience   `json:"target_audience"`
	KeyMessage     Text       `json:"key_message"`
	VisualStyle    Text       `json:"visual_style"`
	Channels       List       `json:"channels"`
	USP            Text       `json:"usp"`
}

// Complete reports whether the record can drive prompt generation: the
// identifying fields and the key message must be present.
func (b *BriefRecord) Complete() bool {
	if b == nil {
		return false
	}
	for _, f := range []Text{b.BrandName, b.CampaignTitle, b.BriefSummary, b.KeyMessage} {
		if strings.TrimSpace(f.Value) == "" {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (b *BriefRecord) Clone() *BriefRecord {
	if b == nil {
		return nil
	}
	c := *b
	c.Objectives.KeyMetrics.Value = append([]string(nil), b.Objectives.KeyMetrics.Value...)
	c.Objectives.KeyIndicators.Value = append([]string(nil), b.Objectives.KeyIndicators.Value...)
	c.Channels.Value = append([]string(nil), b.Channels.Value...)
	return &c
}

// FieldPath names a brief field by its JSON path, e.g. "target_audience.demographics".
type FieldPath string

// SetText overwrites a single-valued field. Edited values become "extracted"
// since the user confirmed them.
func (b *BriefRecord) SetText(path FieldPath, value string) error {
	f := b.textField(path)
	if f == nil {
		return fmt.Errorf("unknown text field %q", path)
	}
	*f = Text{Value: value, Source: SourceExtracted}
	return nil
}

// SetList overwrites a multi-valued field.
func (b *BriefRecord) SetList(path FieldPath, value []string) error {
	var f *List
	switch path {
	case "project_objectives.key_metrics":
		f = &b.Objectives.KeyMetrics
	case "project_objectives.key_indicators":
		f = &b.Objectives.KeyIndicators
	case "channels":
		f = &b.Channels
	default:
		return fmt.Errorf("unknown list field %q", path)
	}
	*f = List{Value: append([]string(nil), value...), Source: SourceExtracted}
	return nil
}

func (b *BriefRecord) textField(path FieldPath) *Text {
	switch path {
	case "brand_name":
		return &b.BrandName
	case "campaign_title":
		return &b.CampaignTitle
	case "brief_summary":
		return &b.BriefSummary
	case "project_objectives.business_objective":
		return &b.Objectives.Business
	case "project_objectives.marketing_objective":
		return &b.Objectives.Marketing
	case "project_objectives.communication_objective":
		return &b.Objectives.Communication
	case "target_audience.demographics":
		return &b.TargetAudience.Demographics
	case "target_audience.psychographics":
		return &b.TargetAudience.Psychographics
	case "target_audience.needs_problems":
		return &b.TargetAudience.NeedsProblems
	case "target_audience.decision_behaviour":
		return &b.TargetAudience.DecisionBehaviour
	case "key_message":
		return &b.KeyMessage
	case "visual_style":
		return &b.VisualStyle
	case "usp":
		return &b.USP
	}
	return nil
}

// GeneratedCount returns how many fields were inferred rather than extracted.
func (b *BriefRecord) GeneratedCount() int {
	n := 0
	texts := []Text{
		b.BrandName, b.CampaignTitle, b.BriefSummary,
		b.Objectives.Business, b.Objectives.Marketing, b.Objectives.Communication,
		b.TargetAudience.Demographics, b.TargetAudience.Psychographics,
		b.TargetAudience.NeedsProblems, b.TargetAudience.DecisionBehaviour,
		b.KeyMessage, b.VisualStyle, b.USP,
	}
	for _, t := range texts {
		if t.Source == SourceGenerated {
			n++
		}
	}
	for _, l := range []List{b.Objectives.KeyMetrics, b.Objectives.KeyIndicators, b.Channels} {
		if l.Source == SourceGenerated {
			n++
		}
	}
	return n
}

// CreativePrompts are the per-format prompts derived from a brief.
type CreativePrompts struct {
	ImagePrompt string `json:"image_prompt"`
	CopyPrompt  string `json:"copy_prompt"`
	VideoPrompt string `json:"video_prompt"`
}

// Ready reports whether at least one prompt is present.
func (p *CreativePrompts) Ready() bool {
	return p != nil && (strings.TrimSpace(p.ImagePrompt) != "" || strings.TrimSpace(p.CopyPrompt) != "" || strings.TrimSpace(p.VideoPrompt) != "")
}
