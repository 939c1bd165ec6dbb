package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jotvcs/jot/pkg/repo"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get or set repository configuration",
		Long: `Get or set repository configuration in .jot/config.toml.

Supported keys: user.name, user.email, core.default_branch, merge.style.
With no arguments, prints the current configuration.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if len(args) == 0 {
				fmt.Fprintf(out, "user.name = %s\n", cfg.User.Name)
				fmt.Fprintf(out, "user.email = %s\n", cfg.User.Email)
				fmt.Fprintf(out, "core.default_branch = %s\n", cfg.Core.DefaultBranch)
				fmt.Fprintf(out, "merge.style = %s\n", cfg.Merge.Style)
				return nil
			}

			key := args[0]
			if len(args) == 1 {
				value, err := configValue(cfg, key)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, value)
				return nil
			}

			if err := setConfigValue(cfg, key, args[1]); err != nil {
				return err
			}
			return r.WriteConfig(cfg)
		},
	}
}

func configValue(cfg *repo.Config, key string) (string, error) {
	switch key {
	case "user.name":
		return cfg.User.Name, nil
	case "user.email":
		return cfg.User.Email, nil
	case "core.default_branch":
		return cfg.Core.DefaultBranch, nil
	case "merge.style":
		return cfg.Merge.Style, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

func setConfigValue(cfg *repo.Config, key, value string) error {
	switch key {
	case "user.name":
		cfg.User.Name = value
	case "user.email":
		cfg.User.Email = value
	case "core.default_branch":
		cfg.Core.DefaultBranch = value
	case "merge.style":
		if value != "merge" && value != "diff3" {
			return fmt.Errorf("merge.style must be \"merge\" or \"diff3\"")
		}
		cfg.Merge.Style = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}
