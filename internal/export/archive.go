/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export packages a session's generated assets for download.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"campaignwizard/internal/domain"
	applog "campaignwizard/internal/log"
	"campaignwizard/internal/prefs"
	"campaignwizard/internal/store"
	"campaignwizard/internal/telemetry"
)

var ErrNothingToExport = errors.New("export: no generated assets")

// Recorder keeps a history of written archives. *prefs.Store satisfies it.
type Recorder interface {
	RecordExport(ctx context.Context, rec prefs.ExportRecord) (int64, error)
}

// Options controls archive contents and bookkeeping.
type Options struct {
	IncludeReport bool
	Recorder      Recorder
	Events        telemetry.Emitter
	Now           func() time.Time
}

// Manifest lists what went into an archive.
type Manifest struct {
	Name  string
	Brand string
	Files []string
	Bytes int64 // uncompressed payload
}

// WriteArchive writes the zip for st to w. Images go to images/, an inline
// video to video/ and copy variations plus translations to copy/. Videos
// only available by URL are not downloaded.
func WriteArchive(w io.Writer, st store.State, opt Options) (Manifest, error) {
	set := st.AssetSet()
	if set.Empty() {
		return Manifest{}, ErrNothingToExport
	}
	brand := BrandName(st, "campaign")
	m := Manifest{Name: ArchiveName(brand), Brand: brand}
	zw := zip.NewWriter(w)
	add := func(name string, data []byte) error {
		if err := addZipFile(zw, name, data); err != nil {
			return fmt.Errorf("zip add %s: %w", name, err)
		}
		m.Files = append(m.Files, name)
		m.Bytes += int64(len(data))
		return nil
	}

	for _, img := range set.Images {
		data, err := img.Bytes()
		if err != nil {
			return m, err
		}
		if err := add(fmt.Sprintf("images/%s_image_variation_%d.png", brand, img.Variation), data); err != nil {
			return m, err
		}
	}
	if set.Video != nil {
		data, err := set.Video.Bytes()
		if err != nil {
			return m, err
		}
		if len(data) > 0 {
			if err := add(fmt.Sprintf("video/%s_video.mp4", brand), data); err != nil {
				return m, err
			}
		}
	}
	if len(set.Copies) > 0 {
		if err := add(fmt.Sprintf("copy/%s_ad_copy.txt", brand), []byte(FormatCopies(set.Copies))); err != nil {
			return m, err
		}
		for _, lang := range translationLanguages(st.Assets.Translations) {
			txt := FormatTranslations(st.Assets.Translations, lang)
			if err := add(fmt.Sprintf("copy/%s_ad_copy_%s.txt", brand, fileSafe(lang)), []byte(txt)); err != nil {
				return m, err
			}
		}
	}
	if opt.IncludeReport {
		var buf bytes.Buffer
		if err := WriteReport(&buf, st, opt.now()); err != nil {
			return m, fmt.Errorf("campaign report: %w", err)
		}
		if err := add(fmt.Sprintf("report/%s_campaign_report.pdf", brand), buf.Bytes()); err != nil {
			return m, err
		}
	}
	if err := zw.Close(); err != nil {
		return m, fmt.Errorf("close zip: %w", err)
	}
	return m, nil
}

// ExportArchive writes {brand}_all_assets.zip into dir. The file appears
// atomically; a failed export leaves no partial archive behind.
func ExportArchive(ctx context.Context, dir string, st store.State, opt Options) (string, Manifest, error) {
	l := applog.WithOperation(applog.WithComponent("export"), "archive")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", Manifest{}, fmt.Errorf("ensure out dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.zip")
	if err != nil {
		return "", Manifest{}, fmt.Errorf("create archive: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	m, err := WriteArchive(tmp, st, opt)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", m, err
	}
	out := filepath.Join(dir, m.Name)
	if err := os.Rename(tmp.Name(), out); err != nil {
		return "", m, fmt.Errorf("finalize archive: %w", err)
	}
	l.InfoContext(ctx, "archive written", slog.String("path", out), slog.Int("files", len(m.Files)), slog.Int64("bytes", m.Bytes))

	if opt.Recorder != nil {
		rec := prefs.ExportRecord{Brand: m.Brand, Path: out, Files: len(m.Files), Bytes: m.Bytes, CreatedAt: opt.now()}
		if _, err := opt.Recorder.RecordExport(ctx, rec); err != nil {
			l.WarnContext(ctx, "record export failed", slog.Any("err", err))
		}
	}
	if opt.Events != nil {
		opt.Events.Emit(telemetry.ArchiveExported, telemetry.Props{
			"files":  len(m.Files),
			"report": opt.IncludeReport,
		})
	}
	return out, m, nil
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func translationLanguages(ts []domain.Translation) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range ts {
		if !seen[t.Language] {
			seen[t.Language] = true
			out = append(out, t.Language)
		}
	}
	return out
}
