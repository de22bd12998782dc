package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"a4print/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect or clean intermediate images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			usage, err := staging.Measure(cfg.Paths.StagingDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Staging directory: %s\n", cfg.Paths.StagingDir)
			if usage.Files == 0 {
				fmt.Fprintln(out, "No staged files")
				return nil
			}
			fmt.Fprintf(out, "%d files, %s, oldest %s\n", usage.Files, humanize.IBytes(uint64(usage.Bytes)), humanize.Time(usage.Oldest))
			return nil
		},
	}

	var maxAge time.Duration
	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged files older than --max-age",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func() error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				result := staging.CleanStale(commandCtx(cmd), cfg.Paths.StagingDir, maxAge, ctx.log())
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %d files (%s)\n", len(result.Removed), humanize.IBytes(uint64(result.FreedBytes)))
				for _, failure := range result.Errors {
					fmt.Fprintf(out, "  %s: %v\n", failure.Path, failure.Error)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("%d files could not be removed", len(result.Errors))
				}
				return nil
			})
		},
	}
	cleanCmd.Flags().DurationVar(&maxAge, "max-age", 0, "Only remove files older than this (0 removes all)")
	stagingCmd.AddCommand(cleanCmd)
	return stagingCmd
}
