package main

import (
	"errors"
	"fmt"

	"github.com/leighmacdonald/tf-sentry/internal/config"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the config file",
		Long: `Writes the effective configuration, defaults merged with any existing
file and environment overrides, back to the config file. Creates the file
on first run.`,
		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(_ *cobra.Command, _ []string) error {
			loader := config.NewLoader(make(chan config.Config, 1))
			userConfig, errConfig := loader.Read()
			if errConfig != nil {
				return errors.Join(errConfig, errApp)
			}

			if errWrite := loader.Write(userConfig); errWrite != nil {
				return errors.Join(errWrite, errApp)
			}

			target := loader.Path()
			if target == "" {
				target = config.Path(config.DefaultConfigName + ".yaml")
			}
			fmt.Printf("Wrote %s\n", target) //nolint:forbidigo

			return nil
		},
	}

	cmd.AddCommand(initCmd)

	return cmd
}
