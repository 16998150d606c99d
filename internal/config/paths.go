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
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const appName = "campaignwizard"

// ConfigPath is the config file location; CW_CONFIG replaces it outright.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.New("cannot resolve config directory: " + err.Error())
	}
	return filepath.Join(dir, appName, "config.yaml"), nil
}

// WorkspaceDir is where the preference database, crash reports and default
// exports live: general.workspace, or the config directory.
func (c AppConfig) WorkspaceDir() (string, error) {
	if c.General.Workspace != "" {
		return c.General.Workspace, nil
	}
	p, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}
