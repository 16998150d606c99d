/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

const sampleBrief = `{
  "brand_name": {"value": "Acme", "source": "extracted"},
  "campaign_title": {"value": "Spring Launch", "source": "extracted"},
  "brief_summary": {"value": "Launch the new shoe.", "source": "generated"},
  "project_objectives": {
    "business_objective": {"value": "Grow revenue", "source": "extracted"},
    "marketing_objective": {"value": "Awareness", "source": "generated"},
    "communication_objective": {"value": "Comfort first", "source": "extracted"},
    "key_metrics": {"value": ["CTR", "ROAS"], "source": "extracted"},
    "key_indicators": {"value": ["Reach"], "source": "generated"}
  },
  "target_audience": {
    "demographics": {"value": "25-40", "source": "extracted"},
    "psychographics": {"value": "Active", "source": "generated"},
    "needs_problems": {"value": "Sore feet", "source": "extracted"},
    "decision_behaviour": {"value": "Research online", "source": "generated"}
  },
  "key_message": {"value": "Walk on clouds", "source": "extracted"},
  "visual_style": {"value": "Bright", "source": "generated"},
  "channels": {"value": ["Instagram", "TikTok"], "source": "extracted"},
  "usp": {"value": "Recycled foam", "source": "extracted"}
}`

func TestBriefRecordDecodesSources(t *testing.T) {
	var b BriefRecord
	if err := json.Unmarshal([]byte(sampleBrief), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.BrandName.Value != "Acme" || b.BrandName.Source != SourceExtracted {
		t.Fatalf("brand = %+v", b.BrandName)
	}
	if b.Objectives.Marketing.Source != SourceGenerated {
		t.Fatalf("marketing source = %v", b.Objectives.Marketing.Source)
	}
	if len(b.Channels.Value) != 2 || b.Channels.Value[1] != "TikTok" {
		t.Fatalf("channels = %+v", b.Channels)
	}
	if !b.Complete() {
		t.Fatalf("sample brief should be complete")
	}
	if got := b.GeneratedCount(); got != 6 {
		t.Fatalf("generated count = %d, want 6", got)
	}
}

func TestUnknownSourceRejected(t *testing.T) {
	var tx Text
	err := json.Unmarshal([]byte(`{"value":"x","source":"guessed"}`), &tx)
	if err == nil || !strings.Contains(err.Error(), "guessed") {
		t.Fatalf("expected invalid source error, got %v", err)
	}
	if _, err := json.Marshal(Text{Value: "x"}); err == nil {
		t.Fatalf("unset source must not marshal")
	}
}

func TestSetFieldMarksExtracted(t *testing.T) {
	var b BriefRecord
	_ = json.Unmarshal([]byte(sampleBrief), &b)
	if err := b.SetText("target_audience.psychographics", "Outdoorsy"); err != nil {
		t.Fatalf("SetText: %v", err)
	}
	if b.TargetAudience.Psychographics != (Text{Value: "Outdoorsy", Source: SourceExtracted}) {
		t.Fatalf("field = %+v", b.TargetAudience.Psychographics)
	}
	if err := b.SetList("channels", []string{"YouTube"}); err != nil {
		t.Fatalf("SetList: %v", err)
	}
	if err := b.SetText("nope", "x"); err == nil {
		t.Fatalf("unknown path must fail")
	}
	if err := b.SetList("brand_name", nil); err == nil {
		t.Fatalf("text field is not a list")
	}
}

func TestCloneIsDeep(t *testing.T) {
	var b BriefRecord
	_ = json.Unmarshal([]byte(sampleBrief), &b)
	c := b.Clone()
	c.Channels.Value[0] = "Radio"
	c.BrandName.Value = "Other"
	if b.Channels.Value[0] != "Instagram" || b.BrandName.Value != "Acme" {
		t.Fatalf("clone aliases original")
	}
	var nilRec *BriefRecord
	if nilRec.Clone() != nil || nilRec.Complete() {
		t.Fatalf("nil record handling")
	}
}

func TestScoresAverageAndValidate(t *testing.T) {
	s := EvaluationScores{Conversion: 8, Retention: 6, Traffic: 7, Engagement: 9}
	if math.Abs(s.Average()-7.5) > 1e-9 {
		t.Fatalf("average = %v", s.Average())
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s.Traffic = 11
	if err := s.Validate(); err == nil {
		t.Fatalf("out of range score must fail")
	}
}

func TestGeneratedCopyFlattensJSON(t *testing.T) {
	var c GeneratedCopy
	in := `{"headline":"H","body_text":"B","call_to_action":"C","variation_number":2}`
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Headline != "H" || c.BodyText != "B" || c.CallToAction != "C" || c.Variation != 2 {
		t.Fatalf("copy = %+v", c)
	}
}

func TestAssetSetEvaluationState(t *testing.T) {
	a := AssetSet{Images: []GeneratedImage{{Variation: 1}, {Variation: 2, Evaluation: &EvaluationScores{}}}}
	if a.AllEvaluated() {
		t.Fatalf("one image lacks scores")
	}
	a.Images[0].Evaluation = &EvaluationScores{}
	if !a.AllEvaluated() || a.Empty() {
		t.Fatalf("all images evaluated")
	}
}

func TestCatalog(t *testing.T) {
	if len(Languages) != 20 {
		t.Fatalf("languages = %d", len(Languages))
	}
	if l, err := NormalizeLanguage("  german "); err != nil || l != "German" {
		t.Fatalf("normalize = %q %v", l, err)
	}
	if _, err := NormalizeLanguage("Klingon"); err == nil {
		t.Fatalf("unknown language must fail")
	}
	cases := map[int]string{0: "conservative", 37: "conservative", 38: "balanced", 75: "creative", 90: "experimental"}
	for in, want := range cases {
		if got := CreativityParam(in); got != want {
			t.Fatalf("CreativityParam(%d) = %s, want %s", in, got, want)
		}
	}
	if CreativityLabel(75) != "Creative" || CreativityLabel(76) != "Experimental" {
		t.Fatalf("labels")
	}
	if s, ok := SpecFor(FormatCopy); !ok || s.DefaultModel != "Gemini 2.5 pro" || !s.SupportsVariations {
		t.Fatalf("copy spec = %+v", s)
	}
}
