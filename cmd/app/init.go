package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

func newInitCmd(env *cliEnv) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			logger := setupLogger(env.opts.verbose)
			deps := env.depsFactory(logger)
			homeDir, err := os.UserHomeDir()
			if err != nil {
				handleCmdError(env.exitCode, fmt.Errorf("resolve home dir: %w", usecase.ErrCritical))
				return
			}
			opts := usecase.InitOptions{
				ConfigPath: usecase.ExpandHomeDir(env.opts.configPath, homeDir),
				Force:      force,
				DryRun:     env.opts.dryRun,
			}
			handleCmdError(env.exitCode, usecase.InitConfig(cmd.Context(), opts, deps, logger))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
