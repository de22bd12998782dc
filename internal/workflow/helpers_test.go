package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"a4print/internal/queue"
	"a4print/internal/workflow"
)

type memoryStore struct {
	mu      sync.Mutex
	job     *queue.Job
	saves   []*queue.Job
	clears  int
	saveErr error
	loadErr error
}

func (s *memoryStore) SaveJob(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.job = job.Clone()
	s.saves = append(s.saves, job.Clone())
	return nil
}

func (s *memoryStore) LoadJob(context.Context) (*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.job == nil {
		return nil, nil
	}
	return s.job.Clone(), nil
}

func (s *memoryStore) ClearJob(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = nil
	s.clears++
	return nil
}

func (s *memoryStore) persisted() *queue.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.job == nil {
		return nil
	}
	return s.job.Clone()
}

func (s *memoryStore) history() []*queue.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*queue.Job(nil), s.saves...)
}

type stubExporter struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	hook  func(source string)
}

func (e *stubExporter) Export(_ context.Context, source string, _ bool, _ int) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, source)
	hook := e.hook
	err := e.fail[source]
	e.mu.Unlock()
	if hook != nil {
		hook(source)
	}
	if err != nil {
		return "", err
	}
	return filepath.Join("/exports", strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))+".pdf"), nil
}

func (e *stubExporter) setFailure(source string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail == nil {
		e.fail = map[string]error{}
	}
	if err == nil {
		delete(e.fail, source)
		return
	}
	e.fail[source] = err
}

func (e *stubExporter) called() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

type stubPolicy struct {
	mu         sync.Mutex
	background bool
	allow      bool
}

func (p *stubPolicy) InBackground() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.background
}

func (p *stubPolicy) ExportInBackground() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allow
}

type completion struct {
	total, succeeded, failed int
}

type recordingNotifier struct {
	mu          sync.Mutex
	completions []completion
	errors      []string
}

func (n *recordingNotifier) NotifyExportComplete(_ context.Context, total, succeeded, failed int, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, completion{total, succeeded, failed})
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error, label string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, label+": "+err.Error())
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func (n *recordingNotifier) completionCalls() []completion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]completion(nil), n.completions...)
}

func (n *recordingNotifier) errorCalls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.errors...)
}

type harness struct {
	manager  *workflow.Manager
	store    *memoryStore
	exporter *stubExporter
	policy   *stubPolicy
	notifier *recordingNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    &memoryStore{},
		exporter: &stubExporter{},
		policy:   &stubPolicy{allow: true},
		notifier: &recordingNotifier{},
	}
	mgr, err := workflow.NewManager(workflow.Options{
		Store:    h.store,
		Exporter: h.exporter,
		Policy:   h.policy,
		Notifier: h.notifier,
		DPI:      300,
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	h.manager = mgr
	return h
}

func (h *harness) initialize(t *testing.T, sources ...string) {
	t.Helper()
	if _, err := h.manager.Initialize(context.Background(), sources, true); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
}

func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.manager.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func statuses(job *queue.Job) []queue.Status {
	out := make([]queue.Status, 0, job.Len())
	for _, item := range job.Items {
		out = append(out, item.Status)
	}
	return out
}

func equalStatuses(got []queue.Status, want ...queue.Status) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// checkSaveOrdering asserts that each persisted snapshot is valid and that
// items move Pending -> Processing -> terminal one at a time in order.
func checkSaveOrdering(t *testing.T, saves []*queue.Job) {
	t.Helper()
	for n, snap := range saves {
		if err := snap.Validate(); err != nil {
			t.Fatalf("save %d invalid: %v", n, err)
		}
		processing := 0
		for _, item := range snap.Items {
			if item.Status == queue.StatusProcessing {
				processing++
			}
		}
		if processing > 1 {
			t.Fatalf("save %d has %d processing items", n, processing)
		}
		if n == 0 {
			continue
		}
		prev := saves[n-1]
		for idx := range snap.Items {
			before, after := prev.Items[idx].Status, snap.Items[idx].Status
			if before.IsTerminal() && !after.IsTerminal() {
				t.Fatalf("save %d: item %d went from %s back to %s", n, idx, before, after)
			}
		}
	}
}

func eventTypes(hub *workflow.EventHub) []workflow.EventType {
	events := hub.Tail(0)
	out := make([]workflow.EventType, 0, len(events))
	for _, evt := range events {
		out = append(out, evt.Type)
	}
	return out
}

func hasEvent(hub *workflow.EventHub, kind workflow.EventType) bool {
	for _, got := range eventTypes(hub) {
		if got == kind {
			return true
		}
	}
	return false
}

var errRender = errors.New("render failed for b.jpg: decode error")
