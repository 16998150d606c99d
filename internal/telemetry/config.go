/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 1500 * time.Millisecond

// Config controls the sender. FromEnv reads it from:
//
//	CW_TELEMETRY_OPT_IN      1, true, yes or on to enable events
//	CW_TELEMETRY_URL         endpoint receiving JSON events
//	CW_CRASH_UPLOAD_URL      endpoint receiving plain-text crash reports
//	CW_TELEMETRY_TIMEOUT_MS  request timeout, default 1500
//	CW_TELEMETRY_DEBUG       log send attempts when set
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("CW_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("CW_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("CW_CRASH_UPLOAD_URL")),
		Timeout:      defaultTimeout,
		DebugLogging: os.Getenv("CW_TELEMETRY_DEBUG") != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CW_TELEMETRY_TIMEOUT_MS"))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
