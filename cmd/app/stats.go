package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

func newStatsCmd(env *cliEnv) *cobra.Command {
	flags := &reportFlags{field: usecase.FieldBytes}
	var sets []string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show transfer statistics parsed from each generation's sync log",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				query, err := flags.query()
				if err != nil {
					return err
				}
				report, err := usecase.TransferReport(cmd.Context(), rt.cfg, rt.deps, rt.logger, sets)
				if err != nil {
					return err
				}
				report, err = report.Apply(query)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), usecase.FormatTransferReport(report.Records(), terminalWidth()))
				return err
			})
		},
	}

	cmd.Flags().StringSliceVarP(&sets, "set", "s", nil, "restrict to these sets (repeatable)")
	flags.register(cmd, true)
	return cmd
}
