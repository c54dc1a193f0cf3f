package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

func newBackupCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [set...]",
		Short: "Create a new generation of each set and prune old ones",
		Long: "Create a new generation of each named set (all configured sets when none are given),\n" +
			"hardlinked against the newest complete generation, then apply the set's retention policy.",
		Run: func(cmd *cobra.Command, args []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				sets, err := rt.cfg.SelectSets(args)
				if err != nil {
					return err
				}
				if len(sets) == 0 {
					return fmt.Errorf("no backup sets configured: %w", usecase.ErrUsage)
				}
				var errs []error
				for _, set := range sets {
					if _, err := usecase.Backup(cmd.Context(), rt.cfg, rt.deps, rt.logger, set.Name, env.now()); err != nil {
						rt.logger.Error("Backup failed", "set", set.Name, "error", err)
						errs = append(errs, err)
					}
					if cmd.Context().Err() != nil {
						break
					}
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newPruneCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "prune [set...]",
		Short: "Delete generations outside each set's retention policy",
		Run: func(cmd *cobra.Command, args []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				sets, err := rt.cfg.SelectSets(args)
				if err != nil {
					return err
				}
				var errs []error
				for _, set := range sets {
					deleted, err := usecase.Prune(cmd.Context(), rt.cfg, rt.deps, rt.logger, set.Name)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					rt.logger.Debug("Prune finished", "set", set.Name, "deleted", len(deleted))
				}
				return errors.Join(errs...)
			})
		},
	}
}
