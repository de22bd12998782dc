package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"a4print/internal/logging"
	"a4print/internal/notifications"
	"a4print/internal/queue"
)

// degradedThreshold is the number of consecutive failed writes after which
// the manager reports persistence as degraded.
const degradedThreshold = 3

// JobStore persists the single job slot.
type JobStore interface {
	SaveJob(ctx context.Context, job *queue.Job) error
	LoadJob(ctx context.Context) (*queue.Job, error)
	ClearJob(ctx context.Context) error
}

// HistoryRecorder records finished PDFs.
type HistoryRecorder interface {
	AddHistory(ctx context.Context, filePath string) (queue.HistoryEntry, error)
}

// Exporter turns one source image into a PDF and returns its path.
type Exporter interface {
	Export(ctx context.Context, sourceRef string, autoEnhance bool, dpi int) (string, error)
}

// Policy reports the app presence and the background export setting.
type Policy interface {
	InBackground() bool
	ExportInBackground() bool
}

// Options configures a Manager. Store, Exporter and Policy are required.
type Options struct {
	Store    JobStore
	Exporter Exporter
	Policy   Policy
	History  HistoryRecorder
	Notifier notifications.Service
	Events   *EventHub
	Logger   *slog.Logger
	DPI      int
	Now      func() time.Time
}

// Manager coordinates the batch export job.
type Manager struct {
	store    JobStore
	exporter Exporter
	policy   Policy
	history  HistoryRecorder
	notifier notifications.Service
	reporter *Reporter
	events   *EventHub
	logger   *slog.Logger
	dpi      int
	now      func() time.Time

	// persistMu serializes writes so the latest in-memory state always wins.
	persistMu sync.Mutex

	mu              sync.Mutex
	job             *queue.Job
	finished        bool
	running         bool
	processing      bool
	loopActive      bool
	loopDone        chan struct{}
	runID           string
	runStart        time.Time
	persistFailures int
	lastSummary     *Summary
	lastErr         error
}

// NewManager constructs a manager from opts.
func NewManager(opts Options) (*Manager, error) {
	if opts.Store == nil {
		return nil, errors.New("workflow: job store is required")
	}
	if opts.Exporter == nil {
		return nil, errors.New("workflow: exporter is required")
	}
	if opts.Policy == nil {
		return nil, errors.New("workflow: policy is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	events := opts.Events
	if events == nil {
		events = NewEventHub(0)
	}
	m := &Manager{
		store:    opts.Store,
		exporter: opts.Exporter,
		policy:   opts.Policy,
		history:  opts.History,
		notifier: opts.Notifier,
		events:   events,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		dpi:      opts.DPI,
		now:      now,
	}
	m.reporter = NewReporter(opts.Store, opts.Notifier, opts.Policy, logger)
	return m, nil
}

// Events exposes the manager's event hub.
func (m *Manager) Events() *EventHub {
	return m.events
}

// Initialize replaces any idle job with a fresh one holding one Pending item
// per source. Nothing is persisted until the first item starts.
func (m *Manager) Initialize(ctx context.Context, sources []string, autoEnhance bool) (*queue.Job, error) {
	if len(sources) == 0 {
		return nil, errors.New("workflow: at least one source image is required")
	}
	m.mu.Lock()
	if m.loopActive {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	job := queue.NewJob(sources, autoEnhance)
	m.job = job
	m.finished = false
	m.lastSummary = nil
	m.lastErr = nil
	m.runStart = time.Time{}
	snapshot := job.Clone()
	m.mu.Unlock()

	logging.WithContext(ctx, m.logger).Info("export job initialized",
		logging.String(logging.FieldEventType, "job_initialized"),
		logging.Int("items", snapshot.Len()),
		logging.Bool("auto_enhance", autoEnhance),
	)
	m.publish(Event{Type: EventJobInitialized, ItemIndex: -1, Message: fmt.Sprintf("%d images queued", snapshot.Len())})
	return snapshot, nil
}

// Recover loads the persisted job, if any, without starting it. A corrupted
// record has already been cleared by the store; the error is returned so the
// caller can tell the user.
func (m *Manager) Recover(ctx context.Context) (*queue.Job, error) {
	m.mu.Lock()
	if m.loopActive {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	m.mu.Unlock()

	job, err := m.store.LoadJob(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrCorruptedJob) {
			logging.WarnWithContext(logging.WithContext(ctx, m.logger), "discarded corrupted export job", "job_corrupted",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "start a new export"),
				logging.String(logging.FieldImpact, "the interrupted export cannot be resumed"),
			)
			m.publish(Event{Type: EventJobCorrupted, ItemIndex: -1, Message: err.Error()})
		}
		return nil, err
	}
	if job == nil {
		return nil, nil
	}

	m.mu.Lock()
	m.job = job
	m.finished = false
	m.lastSummary = nil
	m.runStart = time.Time{}
	snapshot := job.Clone()
	m.mu.Unlock()

	counts := snapshot.Counts()
	logging.WithContext(ctx, m.logger).Info("recovered interrupted export job",
		logging.String(logging.FieldEventType, "job_recovered"),
		logging.Int("items", snapshot.Len()),
		logging.Int("completed", counts[queue.StatusCompleted]),
		logging.Int("cursor", snapshot.Cursor),
	)
	m.publish(Event{Type: EventJobRecovered, ItemIndex: -1, Message: fmt.Sprintf("%d of %d images done", counts[queue.StatusCompleted]+counts[queue.StatusFailed], snapshot.Len())})
	return snapshot, nil
}

// Start begins processing at the first Pending item.
func (m *Manager) Start(ctx context.Context) error {
	return m.begin(ctx, EventRunStarted)
}

// Pause requests that the loop stop at the next item boundary. An in-flight
// item always finishes. Pausing an idle job is a no-op.
func (m *Manager) Pause(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	processing := m.processing
	m.mu.Unlock()

	logging.WithContext(ctx, m.logger).Info("export paused",
		logging.String(logging.FieldEventType, "run_paused"),
		logging.Bool("item_in_flight", processing),
	)
	m.publish(Event{Type: EventRunPaused, ItemIndex: -1})
	return nil
}

// Resume continues a paused or interrupted job from its cursor.
func (m *Manager) Resume(ctx context.Context) error {
	return m.begin(ctx, EventRunResumed)
}

func (m *Manager) begin(ctx context.Context, kind EventType) error {
	if m.policy.InBackground() && !m.policy.ExportInBackground() {
		return ErrPolicyViolation
	}

	m.mu.Lock()
	if m.job == nil {
		m.mu.Unlock()
		return ErrNoJob
	}
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if m.loopActive {
		// The loop is still finishing its in-flight item; it picks up the
		// flag at the next boundary.
		m.running = true
		m.mu.Unlock()
		m.logResumed(ctx, kind, true)
		m.publish(Event{Type: kind, ItemIndex: -1})
		return nil
	}

	m.job.ResetProcessing()
	if !m.job.HasPending() && (kind == EventRunStarted || m.finished) {
		m.mu.Unlock()
		return ErrNothingPending
	}
	runID := newRunID()
	done := make(chan struct{})
	m.running = true
	m.loopActive = true
	m.loopDone = done
	m.runID = runID
	m.finished = false
	m.lastErr = nil
	if m.runStart.IsZero() {
		m.runStart = m.now()
	}
	m.mu.Unlock()

	m.logResumed(ctx, kind, false)
	m.publish(Event{Type: kind, ItemIndex: -1})

	go m.run(withRunID(ctx, runID), done)
	return nil
}

func (m *Manager) logResumed(ctx context.Context, kind EventType, draining bool) {
	msg := "export started"
	if kind == EventRunResumed {
		msg = "export resumed"
	}
	logging.WithContext(ctx, m.logger).Info(msg,
		logging.String(logging.FieldEventType, string(kind)),
		logging.Bool("loop_draining", draining),
	)
}

// RetryFailed moves Failed items back to Pending in place and starts the
// run. It returns the number of items reset.
func (m *Manager) RetryFailed(ctx context.Context) (int, error) {
	if m.policy.InBackground() && !m.policy.ExportInBackground() {
		return 0, ErrPolicyViolation
	}
	m.mu.Lock()
	if m.job == nil {
		m.mu.Unlock()
		return 0, ErrNoJob
	}
	if m.loopActive {
		m.mu.Unlock()
		return 0, ErrBusy
	}
	reset := m.job.ResetFailed()
	if reset > 0 {
		m.finished = false
		m.lastSummary = nil
		m.runStart = time.Time{}
	}
	m.mu.Unlock()

	if reset == 0 {
		return 0, nil
	}
	logging.WithContext(ctx, m.logger).Info("retrying failed items",
		logging.String(logging.FieldEventType, "items_retried"),
		logging.Int("count", reset),
	)
	m.publish(Event{Type: EventItemsRetried, ItemIndex: -1, Message: fmt.Sprintf("%d items queued for retry", reset)})
	m.saveLatest(ctx)
	if err := m.Start(ctx); err != nil {
		return reset, err
	}
	return reset, nil
}

// Discard drops the job from memory and storage. The loop must be idle.
func (m *Manager) Discard(ctx context.Context) error {
	m.mu.Lock()
	if m.loopActive {
		m.mu.Unlock()
		return ErrBusy
	}
	m.job = nil
	m.finished = false
	m.lastSummary = nil
	m.runStart = time.Time{}
	m.mu.Unlock()

	m.persistMu.Lock()
	err := m.store.ClearJob(ctx)
	m.persistMu.Unlock()

	logging.WithContext(ctx, m.logger).Info("export job discarded",
		logging.String(logging.FieldEventType, "job_discarded"),
	)
	m.publish(Event{Type: EventJobDiscarded, ItemIndex: -1})
	if err != nil {
		return fmt.Errorf("discard job: %w", err)
	}
	return nil
}

// SetAutoEnhance changes whether enhancement runs for items not yet started.
func (m *Manager) SetAutoEnhance(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	if m.job == nil {
		m.mu.Unlock()
		return ErrNoJob
	}
	changed := m.job.AutoEnhance != enabled
	m.job.AutoEnhance = enabled
	finished := m.finished
	m.mu.Unlock()

	if !changed {
		return nil
	}
	m.publish(Event{Type: EventAutoEnhanceChanged, ItemIndex: -1, Message: fmt.Sprintf("auto enhance %t", enabled)})
	if !finished {
		m.saveLatest(ctx)
	}
	return nil
}

// Wait blocks until the current run loop exits or ctx ends.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	done := m.loopDone
	active := m.loopActive
	m.mu.Unlock()
	if !active || done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the job is set to run.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// HasProcessingItem reports whether an item is marked Processing.
func (m *Manager) HasProcessingItem() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job != nil && m.job.HasProcessing()
}

func (m *Manager) publish(evt Event) {
	if m.events == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = m.now().UTC()
	}
	m.events.Publish(evt)
}
