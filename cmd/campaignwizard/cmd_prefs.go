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
	"bufio"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"campaignwizard/internal/config"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Read and write stored preferences",
}

var prefsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a preference value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := openPrefs()
		if err != nil {
			return err
		}
		defer ps.Close()
		v, ok, err := ps.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("preference %q is not set", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a preference value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := openPrefs()
		if err != nil {
			return err
		}
		defer ps.Close()
		return ps.Set(cmd.Context(), args[0], args[1])
	},
}

var prefsDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Remove a preference",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := openPrefs()
		if err != nil {
			return err
		}
		defer ps.Close()
		return ps.Delete(cmd.Context(), args[0])
	},
}

var exportsLimit int

var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "List recently exported campaign archives",
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := openPrefs()
		if err != nil {
			return err
		}
		defer ps.Close()
		recs, err := ps.RecentExports(cmd.Context(), exportsLimit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No exports yet")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tBRAND\tFILES\tBYTES\tPATH")
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.CreatedAt.Local().Format(time.DateTime), r.Brand, r.Files, r.Bytes, r.Path)
		}
		return tw.Flush()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration and manage the backend token",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		if err == nil && token != "" {
			fmt.Fprintln(cmd.OutOrStdout(), "# backend token: set")
		}
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Read a backend token from stdin and store it in the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		tok := strings.TrimSpace(line)
		if tok == "" {
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			return errors.New("empty token")
		}
		// Persist the file configuration, not flag overrides.
		c, _, err := config.Load()
		if err != nil {
			return err
		}
		return config.Save(c, tok)
	},
}

var configClearTokenCmd = &cobra.Command{
	Use:   "clear-token",
	Short: "Remove the stored backend token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return config.DeleteToken()
	},
}

func init() {
	prefsCmd.AddCommand(prefsGetCmd, prefsSetCmd, prefsDeleteCmd)
	exportsCmd.Flags().IntVarP(&exportsLimit, "limit", "n", 20, "Number of exports to list")
	configCmd.AddCommand(configShowCmd, configPathCmd, configSetTokenCmd, configClearTokenCmd)
}
