/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"campaignwizard/internal/domain"
	"campaignwizard/internal/raster"
	"campaignwizard/internal/store"
)

const (
	reportThumbSide = 240
	reportMargin    = 40.0
)

// WriteReport renders a PDF summary of the session: brief, prompts, image
// thumbnails with their scores and the copy variations. Units are points on
// A4; text uses the built-in Helvetica.
func WriteReport(w io.Writer, st store.State, now time.Time) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(reportMargin, reportMargin, reportMargin)
	pdf.SetAutoPageBreak(true, reportMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	brand := "Campaign"
	title := ""
	if b := st.Brief.Data; b != nil {
		if b.BrandName.Value != "" {
			brand = b.BrandName.Value
		}
		title = b.CampaignTitle.Value
	}
	pdf.SetTitle(tr(brand+" campaign report"), false)
	pdf.SetAuthor("Campaign Wizard", false)
	pdf.AddPage()

	heading := func(s string) {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.MultiCell(0, 18, tr(s), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
	}
	field := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 13, tr(label), "", "L", false)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 13, tr(value), "", "L", false)
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 24, tr(brand), "", "L", false)
	pdf.SetFont("Helvetica", "", 11)
	if title != "" {
		pdf.MultiCell(0, 15, tr(title), "", "L", false)
	}
	pdf.MultiCell(0, 15, "Generated "+now.Format("2006-01-02 15:04"), "", "L", false)

	if b := st.Brief.Data; b != nil {
		heading("Brief")
		field("Summary", b.BriefSummary.Value)
		field("Key message", b.KeyMessage.Value)
		field("Business objective", b.Objectives.Business.Value)
		field("Marketing objective", b.Objectives.Marketing.Value)
		field("Target audience", b.TargetAudience.Demographics.Value)
		field("Visual style", b.VisualStyle.Value)
		field("Channels", strings.Join(b.Channels.Value, ", "))
		field("USP", b.USP.Value)
		if n := b.GeneratedCount(); n > 0 {
			field("Note", fmt.Sprintf("%d field(s) were inferred by the model rather than read from the brief.", n))
		}
	}
	if p := st.Creative.Prompts; p != nil {
		heading("Creative prompts")
		field("Image", p.ImagePrompt)
		field("Copy", p.CopyPrompt)
		field("Video", p.VideoPrompt)
	}
	if imgs := st.Assets.Images; len(imgs) > 0 {
		heading("Images")
		for _, img := range imgs {
			addThumbnail(pdf, img)
			label := fmt.Sprintf("Variation %d", img.Variation)
			if ev := img.Evaluation; ev != nil {
				label += fmt.Sprintf(": average %.1f (conversion %.1f, retention %.1f, traffic %.1f, engagement %.1f)",
					ev.Average(), ev.Conversion, ev.Retention, ev.Traffic, ev.Engagement)
			} else {
				label += ": not evaluated"
			}
			pdf.MultiCell(0, 13, tr(label), "", "L", false)
			pdf.Ln(6)
		}
	}
	if v := st.Assets.Video; v != nil {
		heading("Video")
		src := "inline"
		if v.VideoURL != "" && v.VideoBase64 == "" {
			src = v.VideoURL
		}
		field("Source", src)
	}
	if cs := st.Assets.Copies; len(cs) > 0 {
		heading("Copy")
		for _, c := range cs {
			field(fmt.Sprintf("Variation %d", c.Variation),
				plain(c.Headline)+"\n"+plain(c.BodyText)+"\n"+plain(c.CallToAction))
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// addThumbnail places a downscaled copy of img. Images that do not decode
// are left out of the report.
func addThumbnail(pdf *gofpdf.Fpdf, img domain.GeneratedImage) {
	data, err := img.Bytes()
	if err != nil {
		return
	}
	im, _, err := raster.Decode(context.Background(), data, raster.DefaultLoadTimeout)
	if err != nil {
		return
	}
	thumb, _, err := raster.Encode(im.Thumbnail(reportThumbSide), "image/png")
	if err != nil {
		return
	}
	name := fmt.Sprintf("variation-%d", img.Variation)
	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(thumb))
	if pdf.Err() {
		pdf.ClearError()
		return
	}
	info := pdf.GetImageInfo(name)
	w, h := info.Width(), info.Height()
	if w > reportThumbSide {
		h = h * reportThumbSide / w
		w = reportThumbSide
	}
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, h, true, opt, 0, "")
}
