package queue_test

import (
	"errors"
	"testing"

	"a4print/internal/queue"
)

func TestNewJobStartsPending(t *testing.T) {
	job := queue.NewJob([]string{"a.jpg", "b.jpg", "c.jpg"}, true)
	if job.Len() != 3 || job.Cursor != 0 || !job.AutoEnhance {
		t.Fatalf("unexpected job: %+v", job)
	}
	for idx, item := range job.Items {
		if item.Status != queue.StatusPending || item.OutputRef != "" || item.Error != "" {
			t.Fatalf("item %d not fresh: %+v", idx, item)
		}
	}
	if err := job.Validate(); err != nil {
		t.Fatalf("fresh job invalid: %v", err)
	}
}

func TestTransitionsKeepInvariants(t *testing.T) {
	job := queue.NewJob([]string{"a.jpg", "b.jpg", "c.jpg"}, false)

	if err := job.MarkProcessing(0); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := job.MarkCompleted(0, "/out/a.pdf"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if job.Cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", job.Cursor)
	}
	if err := job.MarkProcessing(1); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := job.MarkFailed(1, "render failed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := job.MarkProcessing(2); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := job.MarkCompleted(2, "/out/c.pdf"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if job.Cursor != job.Len() {
		t.Fatalf("expected cursor at end, got %d", job.Cursor)
	}
	if err := job.Validate(); err != nil {
		t.Fatalf("job invalid after run: %v", err)
	}

	counts := job.Counts()
	if counts[queue.StatusCompleted] != 2 || counts[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestTransitionsRejectInvalidMoves(t *testing.T) {
	job := queue.NewJob([]string{"a.jpg", "b.jpg"}, false)

	if err := job.MarkCompleted(0, "/out/a.pdf"); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition completing a pending item, got %v", err)
	}
	if err := job.MarkProcessing(1); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition skipping a pending item, got %v", err)
	}
	if err := job.MarkProcessing(5); !errors.Is(err, queue.ErrIndexOutOfRange) {
		t.Fatalf("expected index error, got %v", err)
	}
	if err := job.MarkProcessing(0); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := job.MarkCompleted(0, " "); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected completed item to require output path, got %v", err)
	}
}

func TestMarkFailedDefaultsMessage(t *testing.T) {
	job := queue.NewJob([]string{"a.jpg"}, false)
	if err := job.MarkProcessing(0); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := job.MarkFailed(0, ""); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if job.Items[0].Error == "" {
		t.Fatal("expected failed item to carry an error message")
	}
}

func TestResetFailedPreservesOrder(t *testing.T) {
	job := &queue.Job{
		Items: []queue.Item{
			{SourceRef: "a.jpg", Status: queue.StatusCompleted, OutputRef: "/out/a.pdf"},
			{SourceRef: "b.jpg", Status: queue.StatusFailed, Error: "boom"},
			{SourceRef: "c.jpg", Status: queue.StatusCompleted, OutputRef: "/out/c.pdf"},
			{SourceRef: "d.jpg", Status: queue.StatusFailed, Error: "boom"},
		},
		Cursor: 4,
	}

	if reset := job.ResetFailed(); reset != 2 {
		t.Fatalf("expected 2 reset items, got %d", reset)
	}
	wantOrder := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}
	for idx, want := range wantOrder {
		if job.Items[idx].SourceRef != want {
			t.Fatalf("order changed at %d: %q", idx, job.Items[idx].SourceRef)
		}
	}
	if job.FirstPending() != 1 {
		t.Fatalf("expected first pending at 1, got %d", job.FirstPending())
	}
	if job.Items[1].Error != "" {
		t.Fatal("expected error cleared on reset")
	}
	if err := job.Validate(); err != nil {
		t.Fatalf("job invalid after reset: %v", err)
	}
}

func TestResetProcessingRewindsCursor(t *testing.T) {
	job := queue.NewJob([]string{"a.jpg", "b.jpg"}, false)
	if err := job.MarkProcessing(0); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if !job.HasProcessing() {
		t.Fatal("expected processing item")
	}
	if !job.ResetProcessing() {
		t.Fatal("expected reset to report a change")
	}
	if job.HasProcessing() || job.Items[0].Status != queue.StatusPending || job.Cursor != 0 {
		t.Fatalf("unexpected job after reset: %+v", job)
	}
}

func TestCloneIsDeep(t *testing.T) {
	job := queue.NewJob([]string{"a.jpg"}, true)
	clone := job.Clone()
	clone.Items[0].Status = queue.StatusFailed
	clone.Cursor = 1
	if job.Items[0].Status != queue.StatusPending || job.Cursor != 0 {
		t.Fatal("mutating clone changed the original")
	}
}

func TestValidateRejectsBrokenJobs(t *testing.T) {
	tests := []struct {
		name string
		job  queue.Job
	}{
		{"cursor past end", queue.Job{Items: []queue.Item{{SourceRef: "a", Status: queue.StatusPending}}, Cursor: 2}},
		{"negative cursor", queue.Job{Cursor: -1}},
		{"completed without path", queue.Job{Items: []queue.Item{{SourceRef: "a", Status: queue.StatusCompleted}}}},
		{"failed without error", queue.Job{Items: []queue.Item{{SourceRef: "a", Status: queue.StatusFailed}}}},
		{"pending with outcome", queue.Job{Items: []queue.Item{{SourceRef: "a", Status: queue.StatusPending, Error: "x"}}}},
		{"processing out of order", queue.Job{Items: []queue.Item{
			{SourceRef: "a", Status: queue.StatusPending},
			{SourceRef: "b", Status: queue.StatusProcessing},
		}}},
		{"unknown status", queue.Job{Items: []queue.Item{{SourceRef: "a", Status: "Queued"}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.job.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
