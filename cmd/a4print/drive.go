package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"a4print/internal/lifecycle"
	"a4print/internal/workflow"
)

// interruptGrace bounds how long an interrupted export may take to save.
const interruptGrace = 30 * time.Second

var errRunStopped = errors.New("export stopped")

// drive starts the job with begin and supervises the lifecycle coordinator
// and the progress printer until the job finishes or the user interrupts.
func (a *exportApp) drive(ctx context.Context, out io.Writer, begin beginFunc) error {
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, unix.SIGTERM)
	defer stop()

	writer := &syncWriter{w: out}
	hub := a.manager.Events()
	since := hub.Sequence()

	if err := begin(runCtx); err != nil {
		if errors.Is(err, workflow.ErrPolicyViolation) {
			return fmt.Errorf("%w (a4print settings background on)", err)
		}
		return err
	}

	source := lifecycle.NewSignalSource()
	coordinator, err := lifecycle.NewCoordinator(a.manager, a.presence, source, func(n lifecycle.Notice) {
		fmt.Fprintln(writer, n.Message)
	}, a.logger)
	if err != nil {
		source.Close()
		return err
	}

	snap := a.manager.Snapshot()
	printer := &eventPrinter{out: writer, color: shouldColorize(out)}
	if snap.Job != nil {
		printer.total = snap.Job.Len()
	}

	g, gctx := errgroup.WithContext(runCtx)
	coordCtx, cancelCoord := context.WithCancel(gctx)
	g.Go(func() error {
		return coordinator.Run(coordCtx)
	})
	g.Go(func() error {
		defer cancelCoord()
		return a.follow(gctx, printer, since)
	})
	err = g.Wait()

	switch {
	case err == nil:
		final := a.manager.Snapshot()
		if final.Job != nil {
			fmt.Fprintln(out, renderJobTable(final.Job))
		}
		if final.Summary != nil {
			fmt.Fprintln(out, renderSummary(*final.Summary))
			fmt.Fprintln(out, finishedMessage(*final.Summary))
		}
		return nil
	case errors.Is(err, context.Canceled):
		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), interruptGrace)
		defer cancel()
		if waitErr := a.manager.Wait(waitCtx); waitErr != nil {
			fmt.Fprintln(out, "Export interrupted before the current page was saved.")
		} else {
			fmt.Fprintln(out, "Export interrupted. Run `a4print export --resume` to continue.")
		}
		return err
	case errors.Is(err, errRunStopped):
		if last := a.manager.Snapshot().LastError; last != "" {
			return fmt.Errorf("%w: %s", errRunStopped, last)
		}
		return err
	default:
		return err
	}
}

// follow prints events until the export completes. A stop while the app is
// backgrounded is a lifecycle pause, so it keeps waiting for the resume.
func (a *exportApp) follow(ctx context.Context, printer *eventPrinter, since uint64) error {
	hub := a.manager.Events()
	for {
		events, next, err := hub.Fetch(ctx, since, 0, true)
		if err != nil {
			return err
		}
		since = next
		for _, evt := range events {
			printer.print(evt)
			switch evt.Type {
			case workflow.EventExportCompleted:
				return nil
			case workflow.EventRunStopped:
				if a.presence.InBackground() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errRunStopped
			}
		}
	}
}
