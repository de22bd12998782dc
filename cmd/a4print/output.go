package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"a4print/internal/queue"
	"a4print/internal/workflow"
)

const (
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiReset = "\033[0m"
)

var titleCaser = cases.Title(language.English)

func label(value string) string {
	return titleCaser.String(value)
}

// syncWriter serializes writes from the event printer and lifecycle notices.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func isInteractive(reader io.Reader) bool {
	file, ok := reader.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorize(enabled bool, color, value string) string {
	if !enabled {
		return value
	}
	return color + value + ansiReset
}

// runStateLabel describes the job the way `job status` shows it.
func runStateLabel(snap workflow.Snapshot) string {
	switch {
	case snap.Job == nil:
		return label("none")
	case snap.State.IsRunning:
		return label("running")
	case snap.Finished:
		return label("finished")
	case snap.Job.HasProcessing():
		return label("interrupted")
	case snap.Job.HasPending():
		return label("paused")
	default:
		return label("settled")
	}
}

func renderJobTable(job *queue.Job) string {
	rows := make([][]string, 0, job.Len())
	for idx, item := range job.Items {
		detail := item.OutputRef
		if item.Status == queue.StatusFailed {
			detail = item.Error
		}
		rows = append(rows, []string{
			strconv.Itoa(idx + 1),
			filepath.Base(item.SourceRef),
			string(item.Status),
			detail,
		})
	}
	return renderTable([]string{"#", "Image", "Status", "PDF / Error"}, rows, []columnAlignment{alignRight})
}

func renderSummary(summary workflow.Summary) string {
	rows := [][]string{
		{"Pages", strconv.Itoa(summary.Total)},
		{"Exported", strconv.Itoa(summary.Succeeded)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Elapsed", summary.Elapsed.Round(100 * time.Millisecond).String()},
	}
	return renderTable([]string{"Summary", ""}, rows, []columnAlignment{alignLeft, alignRight})
}

// eventPrinter renders workflow events as progress lines.
type eventPrinter struct {
	out   io.Writer
	total int
	color bool
}

func (p *eventPrinter) print(evt workflow.Event) {
	position := fmt.Sprintf("[%d/%d]", evt.ItemIndex+1, p.total)
	switch evt.Type {
	case workflow.EventItemStarted:
		fmt.Fprintf(p.out, "%s Exporting %s\n", position, filepath.Base(evt.Source))
	case workflow.EventItemCompleted:
		fmt.Fprintf(p.out, "%s %s %s -> %s\n", position, colorize(p.color, ansiGreen, "done"), filepath.Base(evt.Source), evt.Output)
	case workflow.EventItemFailed:
		fmt.Fprintf(p.out, "%s %s %s: %s\n", position, colorize(p.color, ansiRed, "failed"), filepath.Base(evt.Source), evt.Message)
	case workflow.EventRunPaused:
		fmt.Fprintln(p.out, "Export paused; the current page will finish first.")
	case workflow.EventRunResumed:
		fmt.Fprintln(p.out, "Export resumed.")
	case workflow.EventPersistenceDegraded:
		fmt.Fprintf(p.out, "Warning: progress is not being saved (%s)\n", evt.Message)
	}
}
