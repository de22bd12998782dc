package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"a4print/internal/gallery"
	"a4print/internal/logging"
	"a4print/internal/preflight"
	"a4print/internal/queue"
	"a4print/internal/staging"
	"a4print/internal/workflow"
)

// staleStagingAge bounds how long intermediates survive between exports.
const staleStagingAge = 24 * time.Hour

type exportOptions struct {
	dpi       int
	noEnhance bool
	resume    bool
	discard   bool
}

type recoveryDecision int

const (
	decisionResume recoveryDecision = iota
	decisionDiscard
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export [paths...]",
		Short: "Export images or folders as A4 PDF pages",
		Long: `Export images or folders as A4 PDF pages.

An interrupted export is detected first. Choose --resume or --discard, or
answer the prompt when running in a terminal. Send SIGUSR1 to mark the process
as backgrounded and SIGUSR2 to bring it back; with background export disabled
the export pauses in between.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.resume && opts.discard {
				return errors.New("--resume and --discard are mutually exclusive")
			}
			return ctx.withRunLock(func() error {
				return runExport(cmd, ctx, opts, args)
			})
		},
	}

	cmd.Flags().IntVar(&opts.dpi, "dpi", 0, "Override the export DPI (150, 200, 300, or 600)")
	cmd.Flags().BoolVar(&opts.noEnhance, "no-enhance", false, "Skip automatic enhancement for this job")
	cmd.Flags().BoolVar(&opts.resume, "resume", false, "Resume an interrupted export without prompting")
	cmd.Flags().BoolVar(&opts.discard, "discard", false, "Discard an interrupted export without prompting")
	return cmd
}

func runExport(cmd *cobra.Command, ctx *commandContext, opts exportOptions, paths []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if opts.dpi != 0 {
		cfg.Export.DPI = opts.dpi
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	out := cmd.OutOrStdout()
	runCtx := commandCtx(cmd)

	if blocking := preflight.Blocking(preflight.RunAll(runCtx, cfg)); len(blocking) > 0 {
		for _, result := range blocking {
			fmt.Fprintf(out, "%s: %s\n", result.Name, result.Detail)
		}
		return errors.New("preflight checks failed; run `a4print check` for details")
	}
	staging.CleanStale(runCtx, cfg.Paths.StagingDir, staleStagingAge, ctx.log())

	app, err := ctx.openApp(runCtx)
	if err != nil {
		return err
	}
	defer app.Close()

	recovered, err := app.manager.Recover(runCtx)
	switch {
	case errors.Is(err, queue.ErrCorruptedJob):
		fmt.Fprintln(out, "The saved export could not be read and was discarded.")
	case err != nil:
		return err
	}

	if recovered != nil {
		decision, err := decideRecovery(cmd, opts, recovered)
		if err != nil {
			return err
		}
		if decision == decisionResume {
			if len(paths) > 0 {
				fmt.Fprintln(out, "Resuming the interrupted export; the new selection was ignored.")
			}
			if err := app.drive(runCtx, out, app.manager.Resume); err != nil {
				return err
			}
			return app.offerRetry(cmd, out)
		}
		if err := app.manager.Discard(runCtx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Discarded the interrupted export.")
		if len(paths) == 0 {
			return nil
		}
	}

	if len(paths) == 0 {
		return errors.New("no images selected; pass image files or folders to export")
	}
	sources, err := gallery.Collect(paths, gallery.Options{
		Supports:     cfg.SupportsFormat,
		MaxBatchSize: cfg.Export.MaxBatchSize,
	})
	if err != nil {
		return err
	}

	autoEnhance := cfg.Export.AutoEnhance && !opts.noEnhance
	if _, err := app.manager.Initialize(runCtx, sources, autoEnhance); err != nil {
		return err
	}
	app.logger.Info("export requested",
		logging.Int("images", len(sources)),
		logging.Int("dpi", cfg.Export.DPI),
		logging.Bool("auto_enhance", autoEnhance),
	)
	if err := app.drive(runCtx, out, app.manager.Start); err != nil {
		return err
	}
	return app.offerRetry(cmd, out)
}

func decideRecovery(cmd *cobra.Command, opts exportOptions, job *queue.Job) (recoveryDecision, error) {
	switch {
	case opts.resume:
		return decisionResume, nil
	case opts.discard:
		return decisionDiscard, nil
	}

	in := cmd.InOrStdin()
	if !isInteractive(in) {
		return decisionDiscard, errors.New("an interrupted export was found; rerun with --resume or --discard")
	}
	return promptRecovery(cmd.OutOrStdout(), in, job)
}

func promptRecovery(out io.Writer, in io.Reader, job *queue.Job) (recoveryDecision, error) {
	counts := job.Counts()
	done := counts[queue.StatusCompleted] + counts[queue.StatusFailed]
	fmt.Fprintf(out, "An interrupted export was found (%d of %d pages done).\n", done, job.Len())

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Resume or discard? [r/d]: ")
		line, err := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "r", "resume":
			return decisionResume, nil
		case "d", "discard":
			return decisionDiscard, nil
		}
		if err != nil {
			return decisionDiscard, fmt.Errorf("no answer given: %w", err)
		}
		fmt.Fprintln(out, "Please answer r or d.")
	}
}

// offerRetry asks whether to retry failed pages after an interactive export
// and drives the retry run. It returns when the user declines or nothing
// failed.
func (a *exportApp) offerRetry(cmd *cobra.Command, out io.Writer) error {
	in := cmd.InOrStdin()
	if !isInteractive(in) {
		return nil
	}
	reader := bufio.NewReader(in)
	for {
		snap := a.manager.Snapshot()
		if snap.Summary == nil || snap.Summary.Failed == 0 {
			return nil
		}
		fmt.Fprintf(out, "Retry %d failed pages? [y/N]: ", snap.Summary.Failed)
		line, _ := reader.ReadString('\n')
		if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
			return nil
		}
		if err := a.drive(commandCtx(cmd), out, a.retryFailed); err != nil {
			return err
		}
	}
}

func (a *exportApp) retryFailed(ctx context.Context) error {
	_, err := a.manager.RetryFailed(ctx)
	return err
}

func finishedMessage(summary workflow.Summary) string {
	if summary.Failed == 0 {
		return fmt.Sprintf("Exported %d of %d pages.", summary.Succeeded, summary.Total)
	}
	return fmt.Sprintf("Exported %d of %d pages; %d failed.", summary.Succeeded, summary.Total, summary.Failed)
}

// beginFunc starts or resumes the manager.
type beginFunc func(context.Context) error
