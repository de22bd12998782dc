package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"a4print/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(commandCtx(cmd), cfg)
			colorEnabled := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				status := colorize(colorEnabled, ansiGreen, "ok")
				switch {
				case !result.Passed && result.Optional:
					status = "warn"
				case !result.Passed:
					status = colorize(colorEnabled, ansiRed, "fail")
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "Status", "Detail"}, rows, nil))
			if blocking := preflight.Blocking(results); len(blocking) > 0 {
				return errors.New("some required checks failed")
			}
			return nil
		},
	}
}
