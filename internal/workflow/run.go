package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"a4print/internal/logging"
	"a4print/internal/services"
)

func newRunID() string {
	return uuid.NewString()
}

func withRunID(ctx context.Context, runID string) context.Context {
	return services.WithRequestID(ctx, runID)
}

// run drives the job one item at a time until it is paused, drained, or ctx
// ends. Each item is persisted as Processing before the export starts and
// again with its outcome before the next item is considered.
func (m *Manager) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	logger := logging.WithContext(ctx, m.logger)

	for {
		m.mu.Lock()
		if !m.running || ctx.Err() != nil {
			m.stopLocked()
			m.mu.Unlock()
			logger.Info("export loop stopped", logging.String(logging.FieldEventType, "run_stopped"))
			m.publish(Event{Type: EventRunStopped, ItemIndex: -1})
			return
		}
		idx := m.job.FirstPending()
		if idx < 0 {
			m.mu.Unlock()
			m.finish(ctx)
			return
		}
		if err := m.job.MarkProcessing(idx); err != nil {
			m.lastErr = err
			m.stopLocked()
			m.mu.Unlock()
			logging.ErrorWithContext(logger, "export loop halted", "run_halted",
				logging.Error(err),
				logging.Int(logging.FieldItemIndex, idx),
				logging.String(logging.FieldErrorHint, "discard the job and start a new export"),
			)
			m.publish(Event{Type: EventRunStopped, ItemIndex: idx, Message: err.Error()})
			return
		}
		m.processing = true
		source := m.job.Items[idx].SourceRef
		autoEnhance := m.job.AutoEnhance
		m.mu.Unlock()

		m.saveLatest(ctx)
		m.publish(Event{Type: EventItemStarted, ItemIndex: idx, Source: source})

		itemCtx := services.WithItemIndex(ctx, idx)
		output, exportErr := m.exporter.Export(itemCtx, source, autoEnhance, m.dpi)
		if exportErr != nil && ctx.Err() != nil {
			m.interrupt(ctx, idx)
			return
		}

		m.mu.Lock()
		var markErr error
		if exportErr != nil {
			markErr = m.job.MarkFailed(idx, exportErr.Error())
		} else {
			markErr = m.job.MarkCompleted(idx, output)
		}
		m.processing = false
		if markErr != nil {
			// An exporter that reports success without a path still fails the item.
			exportErr = fmt.Errorf("export returned no output: %w", markErr)
			_ = m.job.MarkFailed(idx, exportErr.Error())
			output = ""
		}
		m.mu.Unlock()

		m.saveLatest(ctx)
		if exportErr != nil {
			m.itemFailed(itemCtx, idx, source, exportErr)
			continue
		}
		m.itemCompleted(itemCtx, idx, source, output)
	}
}

// stopLocked resets run state when the loop exits. m.mu must be held.
func (m *Manager) stopLocked() {
	m.running = false
	m.processing = false
	m.loopActive = false
}

// interrupt leaves the in-flight item marked Processing so the next launch
// offers to resume it.
func (m *Manager) interrupt(ctx context.Context, idx int) {
	m.mu.Lock()
	m.stopLocked()
	m.mu.Unlock()
	m.saveLatest(ctx)

	logging.WithContext(services.WithItemIndex(ctx, idx), m.logger).Info("export interrupted",
		logging.String(logging.FieldEventType, "run_interrupted"),
		logging.String("reason", context.Cause(ctx).Error()),
	)
	m.publish(Event{Type: EventRunStopped, ItemIndex: idx, Message: "interrupted"})
}

func (m *Manager) itemCompleted(ctx context.Context, idx int, source, output string) {
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("page exported",
		logging.String(logging.FieldEventType, "item_completed"),
		logging.String("source", source),
		logging.String("output", output),
	)
	if m.history != nil {
		if _, err := m.history.AddHistory(context.WithoutCancel(ctx), output); err != nil {
			logging.WarnWithContext(logger, "failed to record export history", "history_failure",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the PDF is not listed in export history"),
			)
		}
	}
	m.publish(Event{Type: EventItemCompleted, ItemIndex: idx, Source: source, Output: output})
}

func (m *Manager) itemFailed(ctx context.Context, idx int, source string, err error) {
	logger := logging.WithContext(ctx, m.logger)
	attrs := append([]logging.Attr{
		logging.String("source", source),
		logging.String(logging.FieldImpact, "page skipped; retry failed items to try again"),
	}, logging.ErrorAttrs(err)...)
	logging.WarnWithContext(logger, "page export failed", "item_failed", attrs...)

	if m.notifier != nil {
		if notifyErr := m.notifier.NotifyError(context.WithoutCancel(ctx), err, source); notifyErr != nil {
			logger.Debug("error notification failed", logging.Error(notifyErr))
		}
	}
	m.publish(Event{Type: EventItemFailed, ItemIndex: idx, Source: source, Message: err.Error()})
}

// finish finalizes a drained job through the reporter.
func (m *Manager) finish(ctx context.Context) {
	m.mu.Lock()
	m.job.Cursor = m.job.Len()
	snapshot := m.job.Clone()
	elapsed := m.now().Sub(m.runStart)
	m.mu.Unlock()

	m.persistMu.Lock()
	summary := m.reporter.Report(ctx, snapshot, elapsed)
	m.mu.Lock()
	m.finished = true
	m.lastSummary = &summary
	m.runStart = time.Time{}
	m.stopLocked()
	m.mu.Unlock()
	m.persistMu.Unlock()

	m.publish(Event{Type: EventExportCompleted, ItemIndex: -1, Summary: &summary,
		Message: fmt.Sprintf("%d of %d pages exported", summary.Succeeded, summary.Total)})
}

// saveLatest writes the current in-memory job. Failures are logged and
// counted; the loop keeps going with in-memory state.
func (m *Manager) saveLatest(ctx context.Context) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	if m.job == nil || m.finished {
		m.mu.Unlock()
		return
	}
	snapshot := m.job.Clone()
	m.mu.Unlock()

	err := m.store.SaveJob(context.WithoutCancel(ctx), snapshot)

	m.mu.Lock()
	if err == nil {
		m.persistFailures = 0
		m.mu.Unlock()
		return
	}
	m.persistFailures++
	failures := m.persistFailures
	m.lastErr = err
	m.mu.Unlock()

	logger := logging.WithContext(ctx, m.logger)
	logging.WarnWithContext(logger, "failed to persist export job", "persistence_failure",
		logging.Error(err),
		logging.Int("consecutive_failures", failures),
		logging.String(logging.FieldErrorHint, "check free space and permissions for data_dir"),
		logging.String(logging.FieldImpact, "progress may be lost if the app exits"),
	)
	if failures == degradedThreshold {
		logging.ErrorWithContext(logger, "export progress is no longer being saved", "persistence_degraded",
			logging.Error(err),
			logging.Int("consecutive_failures", failures),
		)
		m.publish(Event{Type: EventPersistenceDegraded, ItemIndex: -1, Message: err.Error()})
	}
}
