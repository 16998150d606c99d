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
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"campaignwizard/internal/crop"
	"campaignwizard/internal/editor"
	"campaignwizard/internal/telemetry"
)

var (
	editAspect  string
	editCrop    string
	editPresets []string
	editFilter  string
	editAdjust  string
	editUndo    int
	editOut     string
)

var editCmd = &cobra.Command{
	Use:   "edit <image>",
	Short: "Crop an image and apply AI filters or adjustments",
	Long: `Edit an image the way the wizard's editor does.

Operations run in this order: crop (--crop x,y,w,h, constrained by --aspect),
presets, --filter, --adjust, then --undo steps back through the history.
The result is written to --out, or edited_image.<ext> next to the input.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	f := editCmd.Flags()
	f.StringVar(&editAspect, "aspect", "", "Crop aspect ratio (free, 1:1, 4:3, 16:9, ...)")
	f.StringVar(&editCrop, "crop", "", "Crop rectangle as x,y,w,h in image pixels")
	f.StringSliceVar(&editPresets, "preset", nil, "Apply named presets (e.g. \"Warmer Lighting\", Anime)")
	f.StringVar(&editFilter, "filter", "", "Free-form stylistic filter prompt")
	f.StringVar(&editAdjust, "adjust", "", "Free-form photographic adjustment prompt")
	f.IntVar(&editUndo, "undo", 0, "Undo this many steps before writing")
	f.StringVarP(&editOut, "out", "o", "", "Output file")
}

func parseRect(s string) (x, y, w, h float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return 0, 0, 0, 0, fmt.Errorf("crop %q: want x,y,w,h", s)
	}
	var v [4]float64
	for i, p := range parts {
		if v[i], err = strconv.ParseFloat(strings.TrimSpace(p), 64); err != nil {
			return 0, 0, 0, 0, fmt.Errorf("crop %q: %w", s, err)
		}
	}
	return v[0], v[1], v[2], v[3], nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := sessionContext(cmd.Context())
	out := cmd.OutOrStdout()
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	ps, err := openPrefs()
	if err != nil {
		return err
	}
	defer ps.Close()

	s := editor.NewSession(editor.Options{
		HistoryDepth:  cfg.Editor.HistoryDepth,
		HistoryBytes:  cfg.Editor.HistoryBytes(),
		LoadTimeout:   cfg.Editor.LoadTimeout(),
		MinCropPx:     cfg.Editor.MinCropPx,
		TransportMime: cfg.Editor.TransportMime,
		Remote:        newBackend(),
		Prefs:         ps,
		Events:        telemetry.Default(),
		Now:           time.Now,
	})
	if err := s.Open(ctx, data, http.DetectContentType(data)); err != nil {
		return err
	}
	defer s.Close()

	if editAspect != "" {
		a, ok := crop.LookupAspect(editAspect)
		if !ok {
			return fmt.Errorf("unknown aspect %q", editAspect)
		}
		if err := s.SetAspect(ctx, a); err != nil {
			return err
		}
	}
	if editCrop != "" {
		x, y, w, h, err := parseRect(editCrop)
		if err != nil {
			return err
		}
		if err := s.SetTool(ctx, editor.ToolCrop); err != nil {
			return err
		}
		s.PointerDown(x, y)
		s.PointerMove(x+w, y+h)
		s.PointerUp()
		img, err := s.ApplyCrop(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cropped to %dx%d\n", img.Width, img.Height)
	}
	for _, name := range editPresets {
		p, ok := editor.LookupPreset(name)
		if !ok {
			return fmt.Errorf("unknown preset %q", name)
		}
		if err := s.SetTool(ctx, toolFor(p.Kind)); err != nil {
			return err
		}
		if _, err := s.ApplyPreset(ctx, p.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Applied %s\n", p.Name)
	}
	for _, e := range []struct {
		kind   editor.EditKind
		prompt string
	}{{editor.KindFilter, editFilter}, {editor.KindAdjustment, editAdjust}} {
		if e.prompt == "" {
			continue
		}
		if err := s.SetTool(ctx, toolFor(e.kind)); err != nil {
			return err
		}
		if _, err := s.ApplyRemoteEdit(ctx, e.kind, e.prompt); err != nil {
			return err
		}
		fmt.Fprintf(out, "Applied %s\n", e.kind)
	}
	for i := 0; i < editUndo; i++ {
		if _, ok := s.Undo(); !ok {
			break
		}
	}
	if !s.HasChanges() {
		fmt.Fprintln(out, "No changes to write")
		return nil
	}

	b, _, name, err := s.Export()
	if err != nil {
		return err
	}
	dst := editOut
	if dst == "" {
		dst = filepath.Join(filepath.Dir(args[0]), name)
	}
	if err := os.WriteFile(dst, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (history %d/%d)\n", dst, s.HistoryCursor()+1, s.HistoryLen())
	return nil
}

func toolFor(k editor.EditKind) editor.Tool {
	if k == editor.KindFilter {
		return editor.ToolFilters
	}
	return editor.ToolAdjust
}
