/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"campaignwizard/internal/domain"
)

func brief(name string) *domain.BriefRecord {
	return &domain.BriefRecord{
		BrandName:     domain.Text{Value: name, Source: domain.SourceExtracted},
		CampaignTitle: domain.Text{Value: "Launch", Source: domain.SourceGenerated},
		Channels:      domain.List{Value: []string{"Instagram"}, Source: domain.SourceExtracted},
	}
}

func images(n int) []domain.GeneratedImage {
	out := make([]domain.GeneratedImage, n)
	for i := range out {
		out[i] = domain.GeneratedImage{Variation: i + 1, MimeType: "image/png", ImageBase64: "AA=="}
	}
	return out
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s0 := Reduce(State{}, SetGeneratedImages{Images: images(3)})
	s0 = Reduce(s0, SetBriefData{Brief: brief("Acme")})
	snapshot := Reduce(State{}, SetGeneratedImages{Images: images(3)})
	snapshot = Reduce(snapshot, SetBriefData{Brief: brief("Acme")})

	_ = Reduce(s0, SetImageEvaluation{Variation: 2, Evaluation: domain.EvaluationScores{Conversion: 9}})
	_ = Reduce(s0, SetTranslation{Translation: domain.Translation{Variation: 1, Language: "German"}})
	_ = Reduce(s0, UpdateBriefData{Brief: brief("Other")})

	if diff := cmp.Diff(snapshot, s0); diff != "" {
		t.Fatalf("input state mutated (-want +got):\n%s", diff)
	}
}

func TestBriefSliceReducers(t *testing.T) {
	s := Reduce(State{}, SetBriefLoading{Loading: true})
	require.True(t, s.Brief.IsLoading)

	s = Reduce(s, SetBriefError{Err: "boom"})
	require.Equal(t, "boom", s.Brief.Err)
	require.False(t, s.Brief.IsLoading, "error clears loading")

	s = Reduce(s, SetBriefData{Brief: brief("Acme")})
	require.Empty(t, s.Brief.Err, "data clears error")
	require.Equal(t, "Acme", s.Brief.Data.BrandName.Value)

	in := brief("Mutable")
	s = Reduce(s, UpdateBriefData{Brief: in})
	in.BrandName.Value = "changed later"
	require.Equal(t, "Mutable", s.Brief.Data.BrandName.Value, "stored record must not alias the payload")

	s = Reduce(s, ClearBriefData{})
	require.Nil(t, s.Brief.Data)
}

func TestCreativeSliceReducers(t *testing.T) {
	s := Reduce(State{}, UpdateImagePrompt{Prompt: "ignored"})
	require.Nil(t, s.Creative.Prompts, "updates without prompts are ignored")

	s = Reduce(s, SetCreativePrompts{Prompts: domain.CreativePrompts{ImagePrompt: "i", CopyPrompt: "c", VideoPrompt: "v"}})
	before := s
	s = Reduce(s, UpdateImagePrompt{Prompt: "i2"})
	s = Reduce(s, UpdateCopyPrompt{Prompt: "c2"})
	s = Reduce(s, UpdateVideoPrompt{Prompt: "v2"})
	require.Equal(t, domain.CreativePrompts{ImagePrompt: "i2", CopyPrompt: "c2", VideoPrompt: "v2"}, *s.Creative.Prompts)
	require.Equal(t, "i", before.Creative.Prompts.ImagePrompt)

	s = Reduce(s, SetCreativeGenerating{Generating: true})
	s = Reduce(s, SetCreativeError{Err: "quota"})
	require.False(t, s.Creative.IsGenerating)
	require.Equal(t, "quota", s.Creative.Err)

	s = Reduce(s, ClearCreativePrompts{})
	require.Nil(t, s.Creative.Prompts)
	require.Empty(t, s.Creative.Err)
}

func TestImageEvaluationTargetsOneVariation(t *testing.T) {
	s := Reduce(State{}, SetGeneratedImages{Images: images(3)})
	s = Reduce(s, SetImageEvaluation{Variation: 2, Evaluation: domain.EvaluationScores{Conversion: 8, Retention: 8, Traffic: 8, Engagement: 8}})
	require.Nil(t, s.Assets.Images[0].Evaluation)
	require.NotNil(t, s.Assets.Images[1].Evaluation)
	require.Nil(t, s.Assets.Images[2].Evaluation)
	require.InDelta(t, 8.0, s.Assets.Images[1].Evaluation.Average(), 1e-9)

	same := Reduce(s, SetImageEvaluation{Variation: 99})
	if diff := cmp.Diff(s, same); diff != "" {
		t.Fatalf("unknown variation changed state:\n%s", diff)
	}
}

func TestAssetsSliceReducers(t *testing.T) {
	s := Reduce(State{}, SetAssetsGenerating{Generating: true})
	s = Reduce(s, SetAssetsError{Err: "timeout"})
	require.False(t, s.Assets.IsGenerating)

	s = Reduce(s, SetGeneratedVideo{Video: domain.GeneratedVideo{VideoURL: "https://x/v.mp4", MimeType: "video/mp4"}})
	require.Empty(t, s.Assets.Err)
	require.Equal(t, "https://x/v.mp4", s.Assets.Video.VideoURL)

	s = Reduce(s, SetGeneratedCopies{Copies: []domain.GeneratedCopy{{CopyText: domain.CopyText{Headline: "H"}, Variation: 1}}})
	s = Reduce(s, SetTranslation{Translation: domain.Translation{Variation: 1, Language: "French"}})
	s = Reduce(s, SetTranslation{Translation: domain.Translation{Variation: 1, Language: "German"}})
	require.Len(t, s.Assets.Translations, 1, "one translation per variation")
	tr, ok := s.Translation(1)
	require.True(t, ok)
	require.Equal(t, "German", tr.Language)

	s = Reduce(s, SetEvaluating{Evaluating: true})
	require.True(t, s.Assets.IsEvaluating)

	s = Reduce(s, ClearGeneratedAssets{})
	require.True(t, s.AssetSet().Empty())
	require.Empty(t, s.Assets.Translations)
}

func TestDismissErrorAndReset(t *testing.T) {
	s := Reduce(State{}, SetBriefError{Err: "a"})
	s = Reduce(s, SetCreativeError{Err: "b"})
	s = Reduce(s, SetAssetsError{Err: "c"})
	s = Reduce(s, DismissError{Slice: SliceCreative})
	require.Equal(t, "a", s.Brief.Err)
	require.Empty(t, s.Creative.Err)
	require.Equal(t, "c", s.Assets.Err)

	s = Reduce(s, ResetAll{})
	if diff := cmp.Diff(State{}, s); diff != "" {
		t.Fatalf("reset left state behind:\n%s", diff)
	}
}

func TestStoreDispatchNotifiesSubscribers(t *testing.T) {
	st := New(State{})
	var mu sync.Mutex
	var names []string
	unsub := st.Subscribe(func(a Action, s State) {
		mu.Lock()
		names = append(names, a.ActionName())
		mu.Unlock()
	})
	st.Dispatch(SetBriefLoading{Loading: true})
	st.Dispatch(SetBriefData{Brief: brief("Acme")})
	unsub()
	st.Dispatch(ClearBriefData{})

	require.Equal(t, []string{"brief/setBriefLoading", "brief/setBriefData"}, names)
	require.Nil(t, st.State().Brief.Data)
}

func TestStoreConcurrentEvaluations(t *testing.T) {
	st := New(State{})
	st.Dispatch(SetGeneratedImages{Images: images(8)})
	var wg sync.WaitGroup
	for v := 1; v <= 8; v++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			st.Dispatch(SetImageEvaluation{Variation: v, Evaluation: domain.EvaluationScores{Conversion: float64(v)}})
		}(v)
	}
	wg.Wait()
	for i, img := range st.State().Assets.Images {
		require.NotNil(t, img.Evaluation, "variation %d", i+1)
		require.Equal(t, float64(i+1), img.Evaluation.Conversion)
	}
}
