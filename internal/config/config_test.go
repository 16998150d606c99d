/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type memTokens map[string]string

func (m memTokens) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memTokens) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memTokens) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

// isolate points the config path at a temp dir and swaps the keyring for memory.
func isolate(t *testing.T) (string, memTokens) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv(EnvConfigPath, path)
	old := tokenStore
	mem := memTokens{}
	tokenStore = mem
	t.Cleanup(func() { tokenStore = old })
	return path, mem
}

func TestEnvOverridesBackendURL(t *testing.T) {
	isolate(t)
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	isolate(t)
	t.Setenv(EnvTelemetryOptIn, "true")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestDefaultsMatchEditorPolicy(t *testing.T) {
	d := Defaults()
	if d.Editor.HistoryDepth != 20 || d.Editor.MinCropPx != 10 {
		t.Fatalf("editor defaults changed: %+v", d.Editor)
	}
	if got := d.Editor.HistoryBytes(); got != 256<<20 {
		t.Fatalf("HistoryBytes = %d", got)
	}
	if got := d.Editor.LoadTimeout(); got != 10*time.Second {
		t.Fatalf("LoadTimeout = %v, want 10s", got)
	}
	if got := (BackendConfig{}).EffectiveTimeout(); got != 2*time.Minute {
		t.Fatalf("EffectiveTimeout fallback = %v", got)
	}
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestFileValuesLayerOverDefaults(t *testing.T) {
	path, _ := isolate(t)
	writeConfig(t, path, `
editor:
  history_depth: 5
  transport_mime: " IMAGE/JPEG "
export:
  include_report: true
  out_dir: " /tmp/out "
logging:
  level: DEBUG
  file: C:/tmp/cw.log
unknown_section:
  ignored: yes
`)
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor.HistoryDepth != 5 || cfg.Editor.TransportMime != "image/jpeg" {
		t.Fatalf("editor fields not read: %#v", cfg.Editor)
	}
	if cfg.Editor.MinCropPx != 10 || cfg.Editor.LoadTimeoutMs != 10000 {
		t.Fatalf("absent editor keys must keep defaults: %#v", cfg.Editor)
	}
	if !cfg.Export.IncludeReport || cfg.Export.OutDir != "/tmp/out" {
		t.Fatalf("export fields not read: %#v", cfg.Export)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" || cfg.Logging.File != "C:/tmp/cw.log" {
		t.Fatalf("logging fields not read: %#v", cfg.Logging)
	}
	if cfg.Backend.BaseURL != "http://localhost:8000" {
		t.Fatalf("backend default lost: %q", cfg.Backend.BaseURL)
	}
}

func TestNonPositiveLimitsFallBack(t *testing.T) {
	path, _ := isolate(t)
	writeConfig(t, path, "editor:\n  history_depth: 0\n  min_crop_px: -3\n")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Editor.HistoryDepth != 20 || cfg.Editor.MinCropPx != 10 {
		t.Fatalf("limits not restored: %#v", cfg.Editor)
	}
}

func TestMalformedFileIsAnError(t *testing.T) {
	path, _ := isolate(t)
	writeConfig(t, path, "editor: [unclosed\n")
	if _, _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/cw.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/cw.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
	if env, ok := EnvOverrideFor("logging.level"); !ok || env != EnvLogLevel {
		t.Fatalf("EnvOverrideFor(logging.level) = %q, %v", env, ok)
	}
	if env, ok := EnvOverrideFor("backend.base_url"); ok || env != EnvBackendURL {
		t.Fatalf("backend.base_url = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("no.such.key"); ok {
		t.Fatalf("unknown key reported an override")
	}
	t.Setenv(EnvHistoryDepth, "many")
	if cfg, _, _ := Load(); cfg.Editor.HistoryDepth != 20 {
		t.Fatalf("non-numeric override applied: %d", cfg.Editor.HistoryDepth)
	}
}

func TestSaveAndLoadRoundTripWithToken(t *testing.T) {
	path, mem := isolate(t)
	cfg := Defaults()
	cfg.Backend.BaseURL = "http://ai.internal:9000"
	cfg.Editor.HistoryDepth = 12
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if mem[keyringService+"/"+keyringToken] != "s3cret" {
		t.Fatalf("token not stored in keyring")
	}
	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Backend.BaseURL != "http://ai.internal:9000" || got.Editor.HistoryDepth != 12 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if tok != "s3cret" {
		t.Fatalf("token = %q", tok)
	}
	t.Setenv(EnvBackendToken, "from-env")
	if _, tok, _ := Load(); tok != "from-env" {
		t.Fatalf("env token should win, got %q", tok)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
}

func TestWorkspaceDir(t *testing.T) {
	path, _ := isolate(t)
	cfg := Defaults()
	if ws, err := cfg.WorkspaceDir(); err != nil || ws != filepath.Dir(path) {
		t.Fatalf("default WorkspaceDir = %q, %v", ws, err)
	}
	cfg.General.Workspace = "/data/ws"
	if ws, err := cfg.WorkspaceDir(); err != nil || ws != "/data/ws" {
		t.Fatalf("WorkspaceDir = %q, %v", ws, err)
	}
}

func TestHistoryMemoryCapFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHistoryMaxMB, "64")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Editor.HistoryBytes(); got != 64<<20 {
		t.Fatalf("HistoryBytes = %d, want %d", got, 64<<20)
	}
}
