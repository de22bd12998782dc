package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"a4print/internal/logging"
)

// Queue is the part of the export engine the coordinator drives.
type Queue interface {
	IsRunning() bool
	HasProcessingItem() bool
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
}

// NoticeKind identifies a user-facing lifecycle notice.
type NoticeKind string

const (
	NoticePaused       NoticeKind = "paused"
	NoticeResumed      NoticeKind = "resumed"
	NoticeResumeFailed NoticeKind = "resume_failed"
)

// Notice is surfaced to the user after the coordinator acts.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Coordinator reacts to presence changes for the lifetime of Run. Handle is
// not safe for concurrent use; Run serializes events from the source.
type Coordinator struct {
	queue    Queue
	presence *Presence
	source   Source
	notify   func(Notice)
	logger   *slog.Logger

	// pausedHere is set when the coordinator paused a running export.
	pausedHere bool
}

// NewCoordinator wires a coordinator. notify may be nil.
func NewCoordinator(queue Queue, presence *Presence, source Source, notify func(Notice), logger *slog.Logger) (*Coordinator, error) {
	if queue == nil || presence == nil || source == nil {
		return nil, errors.New("lifecycle: queue, presence, and source are required")
	}
	if notify == nil {
		notify = func(Notice) {}
	}
	return &Coordinator{
		queue:    queue,
		presence: presence,
		source:   source,
		notify:   notify,
		logger:   logging.NewComponentLogger(logger, "lifecycle"),
	}, nil
}

// Run consumes presence events until ctx ends or the source closes. The
// source is always closed on return.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.source.Close()
	events := c.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-events:
			if !ok {
				return nil
			}
			c.Handle(ctx, state)
		}
	}
}

// Handle applies one presence change.
func (c *Coordinator) Handle(ctx context.Context, state AppState) {
	prev := c.presence.transition(state)
	if prev == state {
		return
	}
	c.logger.Debug("app state changed",
		logging.String("from", prev.String()),
		logging.String("to", state.String()),
	)
	if c.presence.ExportInBackground() {
		return
	}

	switch state {
	case StateBackground:
		if !c.queue.IsRunning() {
			return
		}
		if err := c.queue.Pause(ctx); err != nil {
			logging.WarnWithContext(c.logger, "pause on background failed", "lifecycle_pause_failed", logging.Error(err))
			return
		}
		c.pausedHere = true
		c.logger.Info("export paused while in background",
			logging.String(logging.FieldEventType, "lifecycle_paused"),
		)
		c.notify(Notice{Kind: NoticePaused, Message: "Export paused while the app is in the background. It resumes when you return."})
	case StateActive:
		if c.queue.IsRunning() || !(c.pausedHere || c.queue.HasProcessingItem()) {
			return
		}
		c.pausedHere = false
		if err := c.queue.Resume(ctx); err != nil {
			logging.WarnWithContext(c.logger, "resume on foreground failed", "lifecycle_resume_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "export stays paused until resumed manually"),
			)
			c.notify(Notice{Kind: NoticeResumeFailed, Message: err.Error()})
			return
		}
		c.logger.Info("export resumed on return to foreground",
			logging.String(logging.FieldEventType, "lifecycle_resumed"),
		)
		c.notify(Notice{Kind: NoticeResumed, Message: "Export resumed."})
	}
}
