/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Command campaignwizard runs the creative campaign wizard from the terminal:
// brief analysis, prompt and asset generation, review, export and the image
// editor.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"campaignwizard/internal/config"
	"campaignwizard/internal/crash"
	applog "campaignwizard/internal/log"
	"campaignwizard/internal/telemetry"
	"campaignwizard/internal/version"
)

var (
	flagWorkspace string
	flagBackend   string
	flagTimeout   time.Duration
	flagVerbose   bool

	cfg   config.AppConfig
	token string

	// crashOpts is completed by setup and by commands holding session state
	// worth saving.
	crashOpts crash.Options
)

var rootCmd = &cobra.Command{
	Use:           "campaignwizard",
	Short:         "AI creative campaign wizard",
	Long:          "Turn a campaign brief into prompts, images, video and ad copy, review them and export a ready-to-share archive.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.Default().Close()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Campaign Wizard", version.String())
	},
}

// setup loads configuration and initialises logging and telemetry. Flags win
// over environment, environment over the config file.
func setup() error {
	c, tok, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagWorkspace != "" {
		c.General.Workspace = flagWorkspace
	}
	if flagBackend != "" {
		c.Backend.BaseURL = flagBackend
	}
	if flagTimeout > 0 {
		c.Backend.TimeoutMs = int(flagTimeout / time.Millisecond)
	}
	if flagVerbose {
		c.Logging.Level = "debug"
	}
	cfg, token = c, tok

	applog.Init(applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	})
	tc := telemetry.FromEnv()
	tc.OptIn = tc.OptIn || c.General.TelemetryOptIn
	tel := telemetry.New(tc)
	telemetry.SetDefault(tel)
	if ws, err := c.WorkspaceDir(); err == nil {
		crashOpts.Workspace = ws
	}
	crashOpts.Uploader = tel
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "", "Workspace directory for preferences, exports and crash reports")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Backend base URL (overrides config and "+config.EnvBackendURL+")")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Backend request timeout")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	os.Exit(execute())
}

func execute() int {
	crashOpts.Command = strings.Join(os.Args[1:], " ")
	defer crash.Recover(&crashOpts)
	if err := rootCmd.Execute(); err != nil {
		applog.WithComponent("cli").Error("command failed", slog.Any("err", err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
