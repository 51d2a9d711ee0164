// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration commands.
//
// Command: config [path|show|init]
// Short:   Inspect or create the configuration file
//
// Examples:
//   askai config path
//   askai config show
//   askai config init --force

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/askai-tui/internal/config"
)

// errConfigExists is returned by "config init" without --force when the
// file is already there.
var errConfigExists = errors.New("config file already exists (use --force to overwrite)")

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (API key redacted)",
		Long: `Print the configuration after environment variables and command-line
flags are applied. The API key is redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolveConfigPath()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(path)
			if err != nil {
				return err
			}
			g.apply(cfg)

			out := cmd.OutOrStdout()
			source := path
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				source += " (not found, using defaults)"
			}
			fmt.Fprintln(out, DimStyle.Render("# "+source))
			fmt.Fprint(out, cfg.String())
			if cfg.API.Key == "" {
				fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("No API key set. Set GEMINI_API_KEY or api.key."))
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolveConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s: %w", path, errConfigExists)
			}
			cfg := config.Default()
			g.apply(cfg)
			if err := config.SaveTOML(cfg, path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Wrote "+path))
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(pathCmd, showCmd, initCmd)
	return cmd
}
