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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"campaignwizard/internal/backend"
	applog "campaignwizard/internal/log"
	"campaignwizard/internal/prefs"
)

func newBackend() *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL, token, backend.Options{
		Timeout:     cfg.Backend.EffectiveTimeout(),
		TLSInsecure: cfg.Backend.TLSInsecure,
	})
}

// openPrefs opens the workspace preference database, creating the
// workspace if needed. The caller closes the store.
func openPrefs() (*prefs.Store, error) {
	ws, err := cfg.WorkspaceDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(ws, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return prefs.Open(ws)
}

// exportDir is where archives and edited images are written unless a flag
// says otherwise.
func exportDir() (string, error) {
	if cfg.Export.OutDir != "" {
		return cfg.Export.OutDir, nil
	}
	ws, err := cfg.WorkspaceDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(ws, "exports"), nil
}

// sessionContext tags ctx with a fresh id so every log line of one command
// run can be correlated.
func sessionContext(ctx context.Context) context.Context {
	return applog.ContextWithSession(ctx, uuid.NewString())
}
