/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config holds the user configuration: a YAML file in the user's
// config directory, overridden field by field from CW_* environment
// variables. The backend token never touches the file; it comes from
// CW_BACKEND_TOKEN or the OS keychain.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// currentVersion is written to config_version. Files with a larger value are
// still read; unknown keys are ignored.
const currentVersion = 1

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Workspace      string `yaml:"workspace"` // prefs database, crash reports, exports
}

type EditorConfig struct {
	HistoryDepth  int    `yaml:"history_depth"`
	HistoryMaxMB  int    `yaml:"history_max_mb"` // pixel memory held by undo snapshots
	LoadTimeoutMs int    `yaml:"load_timeout_ms"`
	MinCropPx     int    `yaml:"min_crop_px"`
	TransportMime string `yaml:"transport_mime"` // encoding of the raster sent for remote edits
}

type ExportConfig struct {
	IncludeReport bool   `yaml:"include_report"`
	OutDir        string `yaml:"out_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Editor        EditorConfig  `yaml:"editor"`
	Export        ExportConfig  `yaml:"export"`
	Logging       LoggingConfig `yaml:"logging"`
}

func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: currentVersion,
		Backend:       BackendConfig{BaseURL: "http://localhost:8000", TimeoutMs: 120000},
		Editor:        EditorConfig{HistoryDepth: 20, HistoryMaxMB: 256, LoadTimeoutMs: 10000, MinCropPx: 10, TransportMime: "image/png"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load returns the effective configuration and the backend token. A missing
// file yields the defaults; a malformed one is an error.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, "", fmt.Errorf("read %s: %w", path, err)
	default:
		// Keys absent from the file keep their defaults.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), "", fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.normalize()
	applyEnv(&cfg)
	return cfg, loadToken(), nil
}

// Save writes cfg to the config file and, when token is non-empty, stores it
// in the keychain.
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	cfg.ConfigVersion = currentVersion
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	return tokenStore.Set(keyringService, keyringToken, token)
}

// normalize trims and lower-cases enumerations and puts non-positive limits
// back to their defaults.
func (c *AppConfig) normalize() {
	d := Defaults()
	c.General.Workspace = strings.TrimSpace(c.General.Workspace)
	c.Export.OutDir = strings.TrimSpace(c.Export.OutDir)
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Backend.BaseURL = strings.TrimSpace(c.Backend.BaseURL); c.Backend.BaseURL == "" {
		c.Backend.BaseURL = d.Backend.BaseURL
	}
	lower := func(s *string, def string) {
		*s = strings.ToLower(strings.TrimSpace(*s))
		if *s == "" {
			*s = def
		}
	}
	lower(&c.Editor.TransportMime, d.Editor.TransportMime)
	lower(&c.Logging.Level, d.Logging.Level)
	lower(&c.Logging.Format, d.Logging.Format)
	positive := func(n *int, def int) {
		if *n <= 0 {
			*n = def
		}
	}
	positive(&c.Editor.HistoryDepth, d.Editor.HistoryDepth)
	positive(&c.Editor.HistoryMaxMB, d.Editor.HistoryMaxMB)
	positive(&c.Editor.LoadTimeoutMs, d.Editor.LoadTimeoutMs)
	positive(&c.Editor.MinCropPx, d.Editor.MinCropPx)
}

func millis(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// EffectiveTimeout is the per-request backend budget.
func (b BackendConfig) EffectiveTimeout() time.Duration {
	return millis(b.TimeoutMs, Defaults().Backend.TimeoutMs)
}

// HistoryBytes is the undo snapshot memory cap in bytes.
func (e EditorConfig) HistoryBytes() int {
	if e.HistoryMaxMB <= 0 {
		return Defaults().Editor.HistoryMaxMB << 20
	}
	return e.HistoryMaxMB << 20
}

// LoadTimeout is the editor's image decode budget.
func (e EditorConfig) LoadTimeout() time.Duration {
	return millis(e.LoadTimeoutMs, Defaults().Editor.LoadTimeoutMs)
}
