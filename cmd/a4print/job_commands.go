package main

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"a4print/internal/config"
	"a4print/internal/queue"
	"a4print/internal/workflow"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Inspect and manage the saved export job",
	}
	jobCmd.AddCommand(newJobStatusCommand(ctx))
	jobCmd.AddCommand(newJobDiscardCommand(ctx))
	jobCmd.AddCommand(newJobRetryCommand(ctx))
	jobCmd.AddCommand(newJobEnhanceCommand(ctx))
	return jobCmd
}

func newJobStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the saved export job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				job, err := store.LoadJob(commandCtx(cmd))
				if errors.Is(err, queue.ErrCorruptedJob) {
					fmt.Fprintln(out, "The saved export could not be read and was discarded.")
					return nil
				}
				if err != nil {
					return err
				}
				if job == nil {
					fmt.Fprintln(out, "No saved export job")
					return nil
				}

				state := runStateLabel(workflow.Snapshot{Job: job})
				if exportRunning(cfg) {
					state = label("running")
				}
				counts := job.Counts()
				fmt.Fprintf(out, "State: %s\n", state)
				fmt.Fprintf(out, "Progress: %d of %d pages (%d failed)\n",
					counts[queue.StatusCompleted]+counts[queue.StatusFailed], job.Len(), counts[queue.StatusFailed])
				fmt.Fprintf(out, "Auto enhance: %s\n", onOff(job.AutoEnhance))
				fmt.Fprintln(out, renderJobTable(job))
				return nil
			})
		},
	}
}

// exportRunning reports whether another process holds the run lock.
func exportRunning(cfg *config.Config) bool {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = lock.Unlock()
		return false
	}
	return true
}

func newJobDiscardCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Discard the saved export job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func() error {
				app, err := ctx.openApp(commandCtx(cmd))
				if err != nil {
					return err
				}
				defer app.Close()

				out := cmd.OutOrStdout()
				job, err := app.manager.Recover(commandCtx(cmd))
				if err != nil && !errors.Is(err, queue.ErrCorruptedJob) {
					return err
				}
				if job == nil {
					fmt.Fprintln(out, "No saved export job")
					return nil
				}
				if err := app.manager.Discard(commandCtx(cmd)); err != nil {
					return err
				}
				fmt.Fprintf(out, "Discarded export job with %d pages\n", job.Len())
				return nil
			})
		},
	}
}

func newJobRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Retry failed pages of the saved export job and finish it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func() error {
				app, err := ctx.openApp(commandCtx(cmd))
				if err != nil {
					return err
				}
				defer app.Close()

				out := cmd.OutOrStdout()
				job, err := app.manager.Recover(commandCtx(cmd))
				if err != nil && !errors.Is(err, queue.ErrCorruptedJob) {
					return err
				}
				if job == nil {
					fmt.Fprintln(out, "No saved export job")
					return nil
				}
				if job.Counts()[queue.StatusFailed] == 0 {
					fmt.Fprintln(out, "No failed pages to retry")
					return nil
				}
				return app.drive(commandCtx(cmd), out, app.retryFailed)
			})
		},
	}
}

func newJobEnhanceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "enhance [on|off]",
		Short: "Show or change auto enhance for the saved export job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunLock(func() error {
				app, err := ctx.openApp(commandCtx(cmd))
				if err != nil {
					return err
				}
				defer app.Close()

				out := cmd.OutOrStdout()
				job, err := app.manager.Recover(commandCtx(cmd))
				if err != nil && !errors.Is(err, queue.ErrCorruptedJob) {
					return err
				}
				if job == nil {
					fmt.Fprintln(out, "No saved export job")
					return nil
				}
				if len(args) == 0 {
					fmt.Fprintf(out, "Auto enhance: %s\n", onOff(job.AutoEnhance))
					return nil
				}
				enabled, err := parseOnOff(args[0])
				if err != nil {
					return err
				}
				if err := app.manager.SetAutoEnhance(commandCtx(cmd), enabled); err != nil {
					return err
				}
				fmt.Fprintf(out, "Auto enhance: %s\n", onOff(enabled))
				return nil
			})
		},
	}
}
