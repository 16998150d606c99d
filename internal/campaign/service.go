/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package campaign drives one wizard session: it calls the backend, records
// outcomes in the store and keeps the step machine's gates fed.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"campaignwizard/internal/backend"
	"campaignwizard/internal/domain"
	"campaignwizard/internal/intake"
	applog "campaignwizard/internal/log"
	"campaignwizard/internal/store"
	"campaignwizard/internal/telemetry"
	"campaignwizard/internal/workflow"
)

var (
	ErrNoBrief       = errors.New("campaign: no analysed brief")
	ErrNoPrompts     = errors.New("campaign: no creative prompts")
	ErrNoProduct     = errors.New("campaign: no product image")
	ErrNoBriefInput  = errors.New("campaign: no brief file or text")
	ErrNoImages      = errors.New("campaign: no generated images")
	ErrUnknownCopy   = errors.New("campaign: unknown copy variation")
	ErrBusy          = errors.New("campaign: request already running")
	ErrNoFormat      = errors.New("campaign: no output format enabled")
	ErrNoImagePrompt = errors.New("campaign: image prompt is empty")
)

// Backend is the subset of the AI backend the wizard uses.
type Backend interface {
	AnalyzeBrief(ctx context.Context, in backend.BriefInput) (*domain.BriefRecord, error)
	GenerateCreative(ctx context.Context, brief *domain.BriefRecord) (domain.CreativePrompts, error)
	GenerateAssets(ctx context.Context, req backend.AssetRequest) (domain.AssetSet, error)
	EvaluateAdCreative(ctx context.Context, image []byte, mime, prompt string) (domain.EvaluationScores, error)
	Translate(ctx context.Context, copyText domain.CopyText, language string) (domain.CopyText, string, error)
}

// Options configures a Service. Zero values pick defaults.
type Options struct {
	Store    *store.Store
	Flow     *workflow.Machine
	Events   telemetry.Emitter
	Settings Settings
	// EvalConcurrency bounds parallel evaluation calls.
	EvalConcurrency int
}

// Service owns one wizard session's inputs and orchestrates remote calls.
// It is safe for concurrent use.
type Service struct {
	api    Backend
	st     *store.Store
	flow   *workflow.Machine
	events telemetry.Emitter
	log    *slog.Logger
	evalN  int

	// running marks remote operations in progress. It has its own lock so
	// store subscribers may call back into the service.
	runMu   sync.Mutex
	running map[op]bool

	mu        sync.Mutex
	briefFile *intake.BriefFile
	briefText string
	product   *intake.ProductImage
	settings  Settings
}

func New(api Backend, opts Options) *Service {
	if opts.Store == nil {
		opts.Store = store.New(store.State{})
	}
	if opts.Flow == nil {
		opts.Flow = workflow.New()
	}
	if opts.Events == nil {
		opts.Events = telemetry.Nop{}
	}
	if opts.Settings.Formats == nil {
		opts.Settings = DefaultSettings()
	}
	if opts.EvalConcurrency <= 0 {
		opts.EvalConcurrency = 4
	}
	return &Service{
		api:      api,
		st:       opts.Store,
		flow:     opts.Flow,
		events:   opts.Events,
		log:      applog.WithComponent("campaign"),
		evalN:    opts.EvalConcurrency,
		settings: opts.Settings,
		running:  make(map[op]bool),
	}
}

// op names a remote operation that may run at most once at a time.
type op string

const (
	opAnalyze  op = "analyze_brief"
	opPrompts  op = "generate_prompts"
	opAssets   op = "generate_assets"
	opEvaluate op = "evaluate_images"
)

// begin claims o, reporting false when it is already running.
func (s *Service) begin(o op) bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running[o] {
		return false
	}
	s.running[o] = true
	return true
}

func (s *Service) end(o op) {
	s.runMu.Lock()
	delete(s.running, o)
	s.runMu.Unlock()
}

func (s *Service) Store() *store.Store           { return s.st }
func (s *Service) Flow() *workflow.Machine       { return s.flow }
func (s *Service) State() store.State            { return s.st.State() }
func (s *Service) logger(op string) *slog.Logger { return applog.WithOperation(s.log, op) }

// SetBriefFile validates and stages a brief document. A file takes
// precedence over pasted text.
func (s *Service) SetBriefFile(name string, data []byte) error {
	f, err := intake.ValidateBriefFile(name, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.briefFile = &f
	s.mu.Unlock()
	return nil
}

// SetBriefText stages pasted brief text. Short text is accepted here and
// rejected by the Upload gate.
func (s *Service) SetBriefText(text string) {
	s.mu.Lock()
	s.briefText = text
	s.mu.Unlock()
}

// SetProductImage validates and stages the product reference image.
func (s *Service) SetProductImage(name string, data []byte) error {
	p, err := intake.ValidateProductImage(name, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.product = &p
	s.mu.Unlock()
	return nil
}

// Settings returns a copy of the generation settings.
func (s *Service) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.clone()
}

// UpdateSettings applies fn to the generation settings.
func (s *Service) UpdateSettings(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.settings.clone()
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// Inputs derives the step gates' view of the session.
func (s *Service) Inputs() workflow.Inputs {
	st := s.st.State()
	s.mu.Lock()
	defer s.mu.Unlock()
	return workflow.Inputs{
		HasFile:         s.briefFile != nil,
		BriefText:       s.briefText,
		HasBrief:        st.Brief.Data != nil,
		HasPrompts:      st.Creative.Prompts != nil && st.Creative.Prompts.Ready(),
		HasProductImage: s.product != nil,
		EnabledFormats:  s.settings.EnabledCount(),
	}
}

// Next advances the wizard if the current step's gate is open.
func (s *Service) Next() (workflow.Step, error) { return s.flow.Next(s.Inputs()) }

// Reset clears every slice, staged input and wizard progress.
func (s *Service) Reset() {
	s.mu.Lock()
	s.briefFile, s.briefText, s.product = nil, "", nil
	s.settings = DefaultSettings()
	s.mu.Unlock()
	s.st.Dispatch(store.ResetAll{})
	s.flow.Reset()
}

// AnalyzeBrief sends the staged file, or the staged text, for analysis. A
// new brief discards prompts and assets derived from the previous one.
func (s *Service) AnalyzeBrief(ctx context.Context) (*domain.BriefRecord, error) {
	l := s.logger("analyze_brief")
	s.mu.Lock()
	in := backend.BriefInput{Text: s.briefText}
	if f := s.briefFile; f != nil {
		in = backend.BriefInput{FileName: f.Name, FileMime: f.Mime, File: f.Data}
	}
	s.mu.Unlock()
	if len(in.File) == 0 {
		t, err := intake.ValidateBriefText(in.Text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoBriefInput, err)
		}
		in.Text = t
	}
	if !s.begin(opAnalyze) {
		return nil, ErrBusy
	}
	defer s.end(opAnalyze)

	s.st.Dispatch(store.SetBriefLoading{Loading: true})
	defer s.st.Dispatch(store.SetBriefLoading{Loading: false})

	rec, err := s.api.AnalyzeBrief(ctx, in)
	if err != nil {
		l.ErrorContext(ctx, "brief analysis failed", slog.Any("err", err))
		s.st.Dispatch(store.SetBriefError{Err: userMessage(err, "Failed to analyze brief")})
		return nil, err
	}
	s.st.Dispatch(store.SetBriefData{Brief: rec})
	s.st.Dispatch(store.ClearCreativePrompts{})
	s.st.Dispatch(store.ClearGeneratedAssets{})
	s.flow.Invalidate(workflow.Mapping)
	l.InfoContext(ctx, "brief analysed", slog.Bool("complete", rec.Complete()), slog.Int("generated_fields", rec.GeneratedCount()))
	s.events.Emit(telemetry.BriefAnalyzed, telemetry.Props{
		"from_file":        len(in.File) > 0,
		"generated_fields": rec.GeneratedCount(),
	})
	return rec, nil
}

// EditBriefText changes one text field of the brief and marks it extracted.
func (s *Service) EditBriefText(path domain.FieldPath, value string) error {
	cur := s.st.State().Brief.Data
	if cur == nil {
		return ErrNoBrief
	}
	next := cur.Clone()
	if err := next.SetText(path, value); err != nil {
		return err
	}
	s.st.Dispatch(store.UpdateBriefData{Brief: next})
	return nil
}

// EditBriefList changes one list field of the brief and marks it extracted.
func (s *Service) EditBriefList(path domain.FieldPath, value []string) error {
	cur := s.st.State().Brief.Data
	if cur == nil {
		return ErrNoBrief
	}
	next := cur.Clone()
	if err := next.SetList(path, value); err != nil {
		return err
	}
	s.st.Dispatch(store.UpdateBriefData{Brief: next})
	return nil
}

// GeneratePrompts asks the backend for image, copy and video prompts.
func (s *Service) GeneratePrompts(ctx context.Context) (domain.CreativePrompts, error) {
	l := s.logger("generate_prompts")
	st := s.st.State()
	if st.Brief.Data == nil {
		return domain.CreativePrompts{}, ErrNoBrief
	}
	if !s.begin(opPrompts) {
		return domain.CreativePrompts{}, ErrBusy
	}
	defer s.end(opPrompts)
	s.st.Dispatch(store.SetCreativeGenerating{Generating: true})
	defer s.st.Dispatch(store.SetCreativeGenerating{Generating: false})

	p, err := s.api.GenerateCreative(ctx, st.Brief.Data)
	if err != nil {
		l.ErrorContext(ctx, "prompt generation failed", slog.Any("err", err))
		s.st.Dispatch(store.SetCreativeError{Err: userMessage(err, "Failed to generate creative prompts")})
		return domain.CreativePrompts{}, err
	}
	s.st.Dispatch(store.SetCreativePrompts{Prompts: p})
	s.events.Emit(telemetry.PromptsGenerated, telemetry.Props{"ready": p.Ready()})
	return p, nil
}

// EditPrompt replaces one of the creative prompts.
func (s *Service) EditPrompt(f domain.Format, prompt string) error {
	if s.st.State().Creative.Prompts == nil {
		return ErrNoPrompts
	}
	switch f {
	case domain.FormatImages:
		s.st.Dispatch(store.UpdateImagePrompt{Prompt: prompt})
	case domain.FormatCopy:
		s.st.Dispatch(store.UpdateCopyPrompt{Prompt: prompt})
	case domain.FormatVideo:
		s.st.Dispatch(store.UpdateVideoPrompt{Prompt: prompt})
	default:
		return fmt.Errorf("campaign: unknown format %q", f)
	}
	return nil
}

// userMessage is what ends up in a slice's Err field.
func userMessage(err error, fallback string) string {
	var rf *backend.RemoteCallFailed
	if errors.As(err, &rf) && rf.Detail != "" {
		return rf.Detail
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fallback + ": " + err.Error()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
