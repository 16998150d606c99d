/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"campaignwizard/internal/campaign"
	"campaignwizard/internal/domain"
	"campaignwizard/internal/export"
	"campaignwizard/internal/intake"
	"campaignwizard/internal/telemetry"
	"campaignwizard/internal/workflow"
)

var (
	runBrief      string
	runText       string
	runProduct    string
	runFormats    []string
	runCreativity int
	runVariations int
	runTranslate  []string
	runOut        string
	runReport     bool
	runNoEval     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whole wizard: analyse, prompt, generate, review and export",
	Long: `Run all four wizard steps against the backend.

The brief comes from --brief (PDF or DOCX) or --text (at least 100 characters).
--product is the product image used for generation. The resulting archive is
written to --out, the configured export directory, or <workspace>/exports.`,
	RunE: runWizard,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse a brief and print the structured result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := campaign.New(newBackend(), campaign.Options{Events: telemetry.Default()})
		if err := stageBrief(svc); err != nil {
			return err
		}
		rec, err := svc.AnalyzeBrief(sessionContext(cmd.Context()))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, analyzeCmd} {
		c.Flags().StringVar(&runBrief, "brief", "", "Brief document (.pdf or .docx)")
		c.Flags().StringVar(&runText, "text", "", "Brief text; use @file to read it from a file")
	}
	f := runCmd.Flags()
	f.StringVar(&runProduct, "product", "", "Product image (JPG, PNG or WebP)")
	f.StringSliceVar(&runFormats, "formats", []string{"images", "video", "copy"}, "Output formats to generate")
	f.IntVar(&runCreativity, "creativity", domain.DefaultCreativity, "Creativity level 0-100")
	f.IntVar(&runVariations, "variations", domain.DefaultVariations, "Image and copy variations (1-4)")
	f.StringSliceVar(&runTranslate, "translate", nil, "Translate every copy variation into these languages")
	f.StringVarP(&runOut, "out", "o", "", "Output directory for the archive")
	f.BoolVar(&runReport, "report", false, "Include a PDF campaign report in the archive")
	f.BoolVar(&runNoEval, "no-eval", false, "Skip image evaluation")
	_ = runCmd.MarkFlagRequired("product")
}

func stageBrief(svc *campaign.Service) error {
	switch {
	case runBrief != "":
		data, err := os.ReadFile(runBrief)
		if err != nil {
			return err
		}
		return svc.SetBriefFile(filepath.Base(runBrief), data)
	case runText != "":
		text := runText
		if strings.HasPrefix(text, "@") {
			b, err := os.ReadFile(text[1:])
			if err != nil {
				return err
			}
			text = string(b)
		}
		text, err := intake.ValidateBriefText(text)
		if err != nil {
			return err
		}
		svc.SetBriefText(text)
		return nil
	}
	return errors.New("either --brief or --text is required")
}

func parseFormats(names []string) (map[domain.Format]bool, error) {
	on := map[domain.Format]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		matched := false
		for _, spec := range domain.Formats {
			if strings.EqualFold(string(spec.Format), n) {
				on[spec.Format] = true
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("unknown format %q", n)
		}
	}
	return on, nil
}

func runWizard(cmd *cobra.Command, args []string) error {
	ctx := sessionContext(cmd.Context())
	out := cmd.OutOrStdout()
	svc := campaign.New(newBackend(), campaign.Options{Events: telemetry.Default()})
	crashOpts.Snapshot = briefSnapshot(svc)

	if err := stageBrief(svc); err != nil {
		return err
	}
	if err := step(out, svc, "Analysing brief", func() error {
		_, err := svc.AnalyzeBrief(ctx)
		return err
	}); err != nil {
		return err
	}
	if err := step(out, svc, "Generating creative prompts", func() error {
		_, err := svc.GeneratePrompts(ctx)
		return err
	}); err != nil {
		return err
	}

	data, err := os.ReadFile(runProduct)
	if err != nil {
		return err
	}
	if err := svc.SetProductImage(filepath.Base(runProduct), data); err != nil {
		return err
	}
	on, err := parseFormats(runFormats)
	if err != nil {
		return err
	}
	if err := svc.UpdateSettings(func(s *campaign.Settings) {
		s.Creativity = runCreativity
		for f, fc := range s.Formats {
			fc.Enabled = on[f]
			if fc.Variations > 0 {
				fc.Variations = runVariations
			}
			s.Formats[f] = fc
		}
	}); err != nil {
		return err
	}
	if err := step(out, svc, "Generating assets", func() error {
		_, err := svc.GenerateAssets(ctx)
		return err
	}); err != nil {
		return err
	}

	if !runNoEval && len(svc.State().Assets.Images) > 0 {
		res, err := svc.EvaluateImages(ctx)
		if err != nil && !errors.Is(err, campaign.ErrNoImagePrompt) {
			return err
		}
		fmt.Fprintf(out, "Evaluated %d image(s), %d failed\n", res.Evaluated, res.Failed)
	}
	for _, lang := range runTranslate {
		for _, c := range svc.State().Assets.Copies {
			if _, err := svc.TranslateCopy(ctx, c.Variation, lang); err != nil {
				return fmt.Errorf("translate variation %d: %w", c.Variation, err)
			}
		}
	}
	printReview(out, svc)

	dir := runOut
	if dir == "" {
		if dir, err = exportDir(); err != nil {
			return err
		}
	}
	ps, err := openPrefs()
	if err != nil {
		return err
	}
	defer ps.Close()
	path, m, err := export.ExportArchive(ctx, dir, svc.State(), export.Options{
		IncludeReport: runReport || cfg.Export.IncludeReport,
		Recorder:      ps,
		Events:        telemetry.Default(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%d files)\n", path, len(m.Files))
	return nil
}

// step runs fn and then advances the wizard.
func step(out io.Writer, svc *campaign.Service, title string, fn func() error) error {
	fmt.Fprintf(out, "[%s] %s...\n", svc.Flow().Current().Title(), title)
	if err := fn(); err != nil {
		return err
	}
	if _, err := svc.Next(); err != nil && !errors.Is(err, workflow.ErrTerminal) {
		return err
	}
	return nil
}

func printReview(out io.Writer, svc *campaign.Service) {
	st := svc.State()
	for _, img := range st.Assets.Images {
		if ev := img.Evaluation; ev != nil {
			fmt.Fprintf(out, "Image %d: average %.1f\n", img.Variation, ev.Average())
		} else {
			fmt.Fprintf(out, "Image %d: not evaluated\n", img.Variation)
		}
	}
	if v := st.Assets.Video; v != nil && v.VideoURL != "" && v.VideoBase64 == "" {
		fmt.Fprintf(out, "Video: %s\n", v.VideoURL)
	}
	for _, c := range st.Assets.Copies {
		fmt.Fprintf(out, "Copy %d: %s\n", c.Variation, c.Headline)
	}
}

// briefSnapshot saves the analysed brief and prompts for crash reports.
func briefSnapshot(svc *campaign.Service) func(dir string) (string, error) {
	return func(dir string) (string, error) {
		st := svc.State()
		b, err := json.MarshalIndent(struct {
			Brief   *domain.BriefRecord     `json:"brief,omitempty"`
			Prompts *domain.CreativePrompts `json:"prompts,omitempty"`
		}{st.Brief.Data, st.Creative.Prompts}, "", "  ")
		if err != nil {
			return "", err
		}
		p := filepath.Join(dir, "session-brief.json")
		return p, os.WriteFile(p, b, 0o644)
	}
}
