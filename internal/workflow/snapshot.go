package workflow

import (
	"a4print/internal/queue"
)

// RunState is the transient, never-persisted run flag pair.
type RunState struct {
	IsRunning    bool `json:"is_running"`
	IsProcessing bool `json:"is_processing"`
}

// Snapshot is a point-in-time copy of the manager state.
type Snapshot struct {
	Job                 *queue.Job `json:"-"`
	State               RunState   `json:"state"`
	Finished            bool       `json:"finished"`
	Summary             *Summary   `json:"summary,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	PersistenceFailures int        `json:"persistence_failures"`
}

// Progress returns settled and total item counts for display.
func (s Snapshot) Progress() (done, total int) {
	if s.Job == nil {
		return 0, 0
	}
	counts := s.Job.Counts()
	return counts[queue.StatusCompleted] + counts[queue.StatusFailed], s.Job.Len()
}

// Snapshot returns a copy of the current job and run state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		State: RunState{
			IsRunning:    m.running,
			IsProcessing: m.processing,
		},
		Finished:            m.finished,
		PersistenceFailures: m.persistFailures,
	}
	if m.job != nil {
		snap.Job = m.job.Clone()
	}
	if m.lastSummary != nil {
		summary := *m.lastSummary
		snap.Summary = &summary
	}
	if m.lastErr != nil {
		snap.LastError = m.lastErr.Error()
	}
	return snap
}
