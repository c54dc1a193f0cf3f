package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

func newVersionsCmd(env *cliEnv) *cobra.Command {
	var after, before string

	cmd := &cobra.Command{
		Use:   "versions <set> <path>",
		Short: "List the generations in which a file changed",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				query := usecase.ReportQuery{After: after, Before: before}
				if err := query.Validate(); err != nil {
					return err
				}
				report, err := usecase.FileVersions(cmd.Context(), rt.cfg, rt.deps, args[0], args[1])
				if err != nil {
					return err
				}
				report, err = report.Apply(query)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), usecase.FormatVersions(args[1], report.Records()))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&after, "after", "", "only generations on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&before, "before", "", "only generations on or before this date (YYYY-MM-DD)")
	return cmd
}
