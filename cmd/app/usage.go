package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

func newUsageCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Maintain and report per-generation disk usage",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newUsageUpdateCmd(env))
	cmd.AddCommand(newUsageReportCmd(env))
	return cmd
}

func newUsageUpdateCmd(env *cliEnv) *cobra.Command {
	var purgeUnlisted bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Measure new or changed generations and save the usage database",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				if cmd.Flags().Changed("purge-unlisted") {
					rt.cfg.PurgeUnlisted = purgeUnlisted
				}
				stats, err := usecase.UpdateUsage(cmd.Context(), rt.cfg, rt.deps, rt.logger)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "measured %d, up to date %d, pruned %d\n",
					stats.Measured, stats.UpToDate, stats.Pruned)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&purgeUnlisted, "purge-unlisted", false,
		"also drop database entries of sets no longer in the config")
	return cmd
}

func newUsageReportCmd(env *cliEnv) *cobra.Command {
	flags := &reportFlags{field: usecase.FieldSize}
	var sets []string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show recorded usage per generation",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				query, err := flags.query()
				if err != nil {
					return err
				}
				report, err := usecase.UsageReport(cmd.Context(), rt.cfg, rt.deps, sets)
				if err != nil {
					return err
				}
				report, err = report.Apply(query)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), usecase.FormatUsageReport(report.Records(), terminalWidth()))
				return err
			})
		},
	}

	cmd.Flags().StringSliceVarP(&sets, "set", "s", nil, "restrict to these sets (repeatable)")
	flags.register(cmd, false)
	return cmd
}
