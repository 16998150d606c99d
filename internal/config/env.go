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
	"strconv"
	"strings"
)

const (
	EnvConfigPath       = "CW_CONFIG"
	EnvBackendURL       = "CW_BACKEND_URL"
	EnvBackendTimeoutMs = "CW_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "CW_TLS_INSECURE"
	EnvBackendToken     = "CW_BACKEND_TOKEN"
	EnvTelemetryOptIn   = "CW_TELEMETRY_OPT_IN"
	EnvWorkspace        = "CW_WORKSPACE"
	EnvHistoryDepth     = "CW_HISTORY_DEPTH"
	EnvHistoryMaxMB     = "CW_HISTORY_MAX_MB"
	EnvLoadTimeoutMs    = "CW_LOAD_TIMEOUT_MS"
	EnvLogLevel         = "CW_LOG_LEVEL"
	EnvLogFormat        = "CW_LOG_FORMAT"
	EnvLogSource        = "CW_LOG_SOURCE"
	EnvLogFile          = "CW_LOG_FILE"
)

// binding ties a config key to the variable that overrides it. apply gets
// the trimmed, non-empty value.
type binding struct {
	key, env string
	apply    func(c *AppConfig, v string)
}

func str(f func(*AppConfig) *string) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *f(c) = v }
}

func lowerStr(f func(*AppConfig) *string) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *f(c) = strings.ToLower(v) }
}

func flag(f func(*AppConfig) *bool) func(*AppConfig, string) {
	return func(c *AppConfig, v string) { *f(c) = parseBool(v) }
}

// count ignores values that are not positive integers.
func count(f func(*AppConfig) *int) func(*AppConfig, string) {
	return func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*f(c) = n
		}
	}
}

var bindings = []binding{
	{"backend.base_url", EnvBackendURL, str(func(c *AppConfig) *string { return &c.Backend.BaseURL })},
	{"backend.timeout_ms", EnvBackendTimeoutMs, count(func(c *AppConfig) *int { return &c.Backend.TimeoutMs })},
	{"backend.tls_insecure", EnvBackendTLSInsec, flag(func(c *AppConfig) *bool { return &c.Backend.TLSInsecure })},
	{"general.telemetry_opt_in", EnvTelemetryOptIn, flag(func(c *AppConfig) *bool { return &c.General.TelemetryOptIn })},
	{"general.workspace", EnvWorkspace, str(func(c *AppConfig) *string { return &c.General.Workspace })},
	{"editor.history_depth", EnvHistoryDepth, count(func(c *AppConfig) *int { return &c.Editor.HistoryDepth })},
	{"editor.history_max_mb", EnvHistoryMaxMB, count(func(c *AppConfig) *int { return &c.Editor.HistoryMaxMB })},
	{"editor.load_timeout_ms", EnvLoadTimeoutMs, count(func(c *AppConfig) *int { return &c.Editor.LoadTimeoutMs })},
	{"logging.level", EnvLogLevel, lowerStr(func(c *AppConfig) *string { return &c.Logging.Level })},
	{"logging.format", EnvLogFormat, lowerStr(func(c *AppConfig) *string { return &c.Logging.Format })},
	{"logging.source", EnvLogSource, flag(func(c *AppConfig) *bool { return &c.Logging.Source })},
	{"logging.file", EnvLogFile, str(func(c *AppConfig) *string { return &c.Logging.File })},
}

func applyEnv(c *AppConfig) {
	for _, b := range bindings {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			b.apply(c, v)
		}
	}
}

// EnvOverrideFor names the variable currently overriding key, if any.
func EnvOverrideFor(key string) (string, bool) {
	for _, b := range bindings {
		if b.key == key {
			return b.env, strings.TrimSpace(os.Getenv(b.env)) != ""
		}
	}
	return "", false
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
