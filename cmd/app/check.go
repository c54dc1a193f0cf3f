package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arumata/linkback/internal/usecase"
)

func newCheckCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "check [set...]",
		Short: "Verify that each set has a recent, complete generation",
		Run: func(cmd *cobra.Command, args []string) {
			env.run(cmd, func(rt *cmdRuntime) error {
				report, err := usecase.CheckHealth(cmd.Context(), rt.cfg, rt.deps, args, env.now())
				if len(report.Sets) > 0 {
					if _, werr := fmt.Fprint(cmd.OutOrStdout(), usecase.FormatHealth(report)); werr != nil {
						return werr
					}
				}
				return err
			})
		},
	}
}
