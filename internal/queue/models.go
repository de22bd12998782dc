package queue

import (
	"fmt"
	"strings"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

var statusSet = map[Status]struct{}{
	StatusPending:    {},
	StatusProcessing: {},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// ParseStatus validates a persisted status string.
func ParseStatus(value string) (Status, bool) {
	status := Status(value)
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether the status is Completed or Failed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is one image's journey through the export pipeline.
type Item struct {
	SourceRef string
	Status    Status
	OutputRef string
	Error     string
}

// Job is the persisted unit of work. Copying a Job through Clone copies
// every item.
type Job struct {
	Items       []Item
	Cursor      int
	AutoEnhance bool
}

// NewJob builds a fresh job with every item Pending and the cursor at zero.
func NewJob(sources []string, autoEnhance bool) *Job {
	items := make([]Item, 0, len(sources))
	for _, src := range sources {
		items = append(items, Item{SourceRef: src, Status: StatusPending})
	}
	return &Job{Items: items, AutoEnhance: autoEnhance}
}

// Clone returns a deep copy of the job.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	clone.Items = append([]Item(nil), j.Items...)
	return &clone
}

// Len returns the number of items.
func (j *Job) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Items)
}

// FirstPending returns the index of the first Pending item, or -1.
func (j *Job) FirstPending() int {
	for idx, item := range j.Items {
		if item.Status == StatusPending {
			return idx
		}
	}
	return -1
}

// HasPending reports whether any item is still waiting to run.
func (j *Job) HasPending() bool {
	return j.FirstPending() >= 0
}

// HasProcessing reports whether an item was left mid-flight.
func (j *Job) HasProcessing() bool {
	if j == nil {
		return false
	}
	for _, item := range j.Items {
		if item.Status == StatusProcessing {
			return true
		}
	}
	return false
}

// Counts tallies items by status.
func (j *Job) Counts() map[Status]int {
	counts := make(map[Status]int, len(statusSet))
	if j == nil {
		return counts
	}
	for _, item := range j.Items {
		counts[item.Status]++
	}
	return counts
}

// MarkProcessing moves the item at idx to Processing and points the cursor at it.
func (j *Job) MarkProcessing(idx int) error {
	if err := j.checkIndex(idx); err != nil {
		return err
	}
	item := &j.Items[idx]
	if item.Status != StatusPending && item.Status != StatusProcessing {
		return fmt.Errorf("%w: item %d is %s", ErrInvalidTransition, idx, item.Status)
	}
	for prior := 0; prior < idx; prior++ {
		if !j.Items[prior].Status.IsTerminal() {
			return fmt.Errorf("%w: item %d is %s ahead of item %d", ErrInvalidTransition, prior, j.Items[prior].Status, idx)
		}
	}
	item.Status = StatusProcessing
	item.OutputRef = ""
	item.Error = ""
	j.Cursor = idx
	return nil
}

// MarkCompleted records a successful export and advances the cursor past idx.
func (j *Job) MarkCompleted(idx int, outputRef string) error {
	if err := j.checkIndex(idx); err != nil {
		return err
	}
	if strings.TrimSpace(outputRef) == "" {
		return fmt.Errorf("%w: completed item %d needs an output path", ErrInvalidTransition, idx)
	}
	item := &j.Items[idx]
	if item.Status != StatusProcessing {
		return fmt.Errorf("%w: item %d is %s, not Processing", ErrInvalidTransition, idx, item.Status)
	}
	item.Status = StatusCompleted
	item.OutputRef = outputRef
	item.Error = ""
	j.Cursor = idx + 1
	return nil
}

// MarkFailed records a failed export and advances the cursor past idx.
func (j *Job) MarkFailed(idx int, message string) error {
	if err := j.checkIndex(idx); err != nil {
		return err
	}
	item := &j.Items[idx]
	if item.Status != StatusProcessing {
		return fmt.Errorf("%w: item %d is %s, not Processing", ErrInvalidTransition, idx, item.Status)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "export failed"
	}
	item.Status = StatusFailed
	item.OutputRef = ""
	item.Error = message
	j.Cursor = idx + 1
	return nil
}

// ResetFailed moves every Failed item back to Pending in place, clearing
// its error, and returns how many were reset. Items keep their order.
func (j *Job) ResetFailed() int {
	reset := 0
	for idx := range j.Items {
		if j.Items[idx].Status == StatusFailed {
			j.Items[idx].Status = StatusPending
			j.Items[idx].Error = ""
			reset++
		}
	}
	return reset
}

// ResetProcessing returns an interrupted Processing item to Pending so the
// next pass picks it up again.
func (j *Job) ResetProcessing() bool {
	changed := false
	for idx := range j.Items {
		if j.Items[idx].Status == StatusProcessing {
			j.Items[idx].Status = StatusPending
			j.Items[idx].OutputRef = ""
			j.Items[idx].Error = ""
			if idx < j.Cursor {
				j.Cursor = idx
			}
			changed = true
		}
	}
	return changed
}

// Validate checks the structural invariants of the job.
func (j *Job) Validate() error {
	if j == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidTransition)
	}
	if j.Cursor < 0 || j.Cursor > len(j.Items) {
		return fmt.Errorf("cursor %d outside [0,%d]", j.Cursor, len(j.Items))
	}
	for idx, item := range j.Items {
		if _, ok := statusSet[item.Status]; !ok {
			return fmt.Errorf("item %d: unknown status %q", idx, item.Status)
		}
		switch item.Status {
		case StatusCompleted:
			if item.OutputRef == "" {
				return fmt.Errorf("item %d: completed without output path", idx)
			}
		case StatusFailed:
			if item.Error == "" {
				return fmt.Errorf("item %d: failed without error message", idx)
			}
		default:
			if item.OutputRef != "" || item.Error != "" {
				return fmt.Errorf("item %d: %s item carries an outcome", idx, item.Status)
			}
		}
		if item.Status == StatusProcessing {
			for prior := 0; prior < idx; prior++ {
				if !j.Items[prior].Status.IsTerminal() {
					return fmt.Errorf("item %d: processing while item %d is %s", idx, prior, j.Items[prior].Status)
				}
			}
		}
	}
	return nil
}

func (j *Job) checkIndex(idx int) error {
	if j == nil || idx < 0 || idx >= len(j.Items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	return nil
}
