package workflow

import (
	"context"
	"sync"
	"time"
)

// EventType names a state change published by the manager.
type EventType string

const (
	EventJobInitialized      EventType = "job_initialized"
	EventJobRecovered        EventType = "job_recovered"
	EventJobCorrupted        EventType = "job_corrupted"
	EventJobDiscarded        EventType = "job_discarded"
	EventRunStarted          EventType = "run_started"
	EventRunPaused           EventType = "run_paused"
	EventRunResumed          EventType = "run_resumed"
	EventRunStopped          EventType = "run_stopped"
	EventItemStarted         EventType = "item_started"
	EventItemCompleted       EventType = "item_completed"
	EventItemFailed          EventType = "item_failed"
	EventItemsRetried        EventType = "items_retried"
	EventAutoEnhanceChanged  EventType = "auto_enhance_changed"
	EventPersistenceDegraded EventType = "persistence_degraded"
	EventExportCompleted     EventType = "export_completed"
)

// Event is one entry in the hub. ItemIndex is -1 for job-level events.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`
	ItemIndex int       `json:"item_index"`
	Source    string    `json:"source,omitempty"`
	Output    string    `json:"output,omitempty"`
	Message   string    `json:"message,omitempty"`
	Summary   *Summary  `json:"summary,omitempty"`
}

// EventHub keeps a bounded buffer of recent events and wakes waiters when
// new ones arrive.
type EventHub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
}

// NewEventHub constructs a hub holding at most capacity events.
func NewEventHub(capacity int) *EventHub {
	if capacity <= 0 {
		capacity = 256
	}
	h := &EventHub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends evt, assigning its sequence number.
func (h *EventHub) Publish(evt Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	evt.Sequence = h.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	h.cond.Broadcast()
	h.mu.Unlock()
}

// Fetch returns events with sequence greater than since, up to limit, and
// the latest sequence. When wait is true it blocks until an event arrives or
// ctx ends.
func (h *EventHub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	stopWake := make(chan struct{})
	defer close(stopWake)
	if wait && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-stopWake:
			}
		}()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events, next := h.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
	}
}

// Sequence returns the sequence number of the latest published event.
func (h *EventHub) Sequence() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq
}

// Tail returns the most recent limit events without blocking.
func (h *EventHub) Tail(limit int) []Event {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.buffer) {
		limit = len(h.buffer)
	}
	out := make([]Event, limit)
	copy(out, h.buffer[len(h.buffer)-limit:])
	return out
}

func (h *EventHub) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	start := len(h.buffer)
	for i, evt := range h.buffer {
		if evt.Sequence > since {
			start = i
			break
		}
	}
	if start == len(h.buffer) {
		return nil, h.nextSeq
	}
	end := start + limit
	if end > len(h.buffer) {
		end = len(h.buffer)
	}
	out := make([]Event, end-start)
	copy(out, h.buffer[start:end])
	return out, out[len(out)-1].Sequence
}
