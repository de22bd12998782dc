package workflow

import (
	"context"
	"log/slog"
	"time"

	"a4print/internal/logging"
	"a4print/internal/notifications"
	"a4print/internal/queue"
)

// Summary aggregates the outcome of one run.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Elapsed   time.Duration `json:"elapsed"`
}

// ElapsedSeconds returns the run duration in seconds.
func (s Summary) ElapsedSeconds() float64 {
	return s.Elapsed.Seconds()
}

// Summarize derives a Summary from a job's final statuses.
func Summarize(job *queue.Job, elapsed time.Duration) Summary {
	counts := job.Counts()
	return Summary{
		Total:     job.Len(),
		Succeeded: counts[queue.StatusCompleted],
		Failed:    counts[queue.StatusFailed],
		Elapsed:   elapsed,
	}
}

// JobClearer removes the persisted job.
type JobClearer interface {
	ClearJob(ctx context.Context) error
}

// Reporter finalizes a drained job.
type Reporter struct {
	store    JobClearer
	notifier notifications.Service
	policy   Policy
	logger   *slog.Logger
}

// NewReporter builds a Reporter. A nil notifier disables notifications.
func NewReporter(store JobClearer, notifier notifications.Service, policy Policy, logger *slog.Logger) *Reporter {
	return &Reporter{
		store:    store,
		notifier: notifier,
		policy:   policy,
		logger:   logging.NewComponentLogger(logger, "reporter"),
	}
}

// Report builds the summary, notifies when the export finished in the
// background with background export enabled, and always clears the
// persisted job. Notification and clear failures are logged, not returned.
func (r *Reporter) Report(ctx context.Context, job *queue.Job, elapsed time.Duration) Summary {
	summary := Summarize(job, elapsed)
	logger := logging.WithContext(ctx, r.logger)

	if r.shouldNotify() {
		if err := r.notifier.NotifyExportComplete(ctx, summary.Total, summary.Succeeded, summary.Failed, summary.Elapsed); err != nil {
			logging.WarnWithContext(logger, "completion notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
				logging.String(logging.FieldImpact, "user was not notified that the export finished"),
			)
		}
	}

	if err := r.store.ClearJob(context.WithoutCancel(ctx)); err != nil {
		logging.WarnWithContext(logger, "failed to clear finished job", "persistence_failure",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the database in data_dir"),
			logging.String(logging.FieldImpact, "a finished job may be offered for resume on next launch"),
		)
	}

	logger.Info("export finished",
		logging.String(logging.FieldEventType, "export_complete"),
		logging.Int("total", summary.Total),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.Elapsed),
	)
	return summary
}

func (r *Reporter) shouldNotify() bool {
	if r.notifier == nil || r.policy == nil {
		return false
	}
	return r.policy.InBackground() && r.policy.ExportInBackground()
}
