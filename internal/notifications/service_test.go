package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"a4print/internal/config"
	"a4print/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	requests := make(chan capturedRequest, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, requests
}

func newConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.ExportComplete = true
	cfg.Notifications.Errors = true
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(newConfig(""))
	if err := svc.NotifyExportComplete(context.Background(), 3, 3, 0, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop notifier for nil config, got %v", err)
	}
}

func TestNotifyExportComplete(t *testing.T) {
	tests := []struct {
		name          string
		succeeded     int
		failed        int
		expectTitle   string
		expectMessage string
		expectTags    string
	}{
		{
			name:          "all succeeded",
			succeeded:     3,
			expectTitle:   "Export Complete 🎉",
			expectMessage: "Your batch PDF export finished successfully.\n3 of 3 pages exported in 12s",
			expectTags:    "a4print,export,completed",
		},
		{
			name:          "with failures",
			succeeded:     2,
			failed:        1,
			expectTitle:   "Export Complete (with errors)",
			expectMessage: "Your batch PDF export finished.\n2 succeeded, 1 failed in 12s",
			expectTags:    "a4print,export,warning",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, requests := newNtfyServer(t, http.StatusOK)
			svc := notifications.NewService(newConfig(server.URL))

			err := svc.NotifyExportComplete(context.Background(), tc.succeeded+tc.failed, tc.succeeded, tc.failed, 12300*time.Millisecond)
			if err != nil {
				t.Fatalf("NotifyExportComplete: %v", err)
			}
			req := <-requests
			if req.title != tc.expectTitle {
				t.Fatalf("title: got %q want %q", req.title, tc.expectTitle)
			}
			if req.body != tc.expectMessage {
				t.Fatalf("message: got %q want %q", req.body, tc.expectMessage)
			}
			if req.tags != tc.expectTags {
				t.Fatalf("tags: got %q want %q", req.tags, tc.expectTags)
			}
		})
	}
}

func TestNotifyExportCompleteRespectsToggle(t *testing.T) {
	server, requests := newNtfyServer(t, http.StatusOK)
	cfg := newConfig(server.URL)
	cfg.Notifications.ExportComplete = false
	svc := notifications.NewService(cfg)

	if err := svc.NotifyExportComplete(context.Background(), 1, 1, 0, time.Second); err != nil {
		t.Fatalf("NotifyExportComplete: %v", err)
	}
	select {
	case req := <-requests:
		t.Fatalf("expected no request, got %+v", req)
	default:
	}
}

func TestNotifyErrorHighPriority(t *testing.T) {
	server, requests := newNtfyServer(t, http.StatusOK)
	svc := notifications.NewService(newConfig(server.URL))

	if err := svc.NotifyError(context.Background(), errors.New("disk full"), "scan.jpg"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	req := <-requests
	if req.priority != "high" {
		t.Fatalf("expected high priority, got %q", req.priority)
	}
	if req.body != "❌ Export error for scan.jpg: disk full" {
		t.Fatalf("unexpected body %q", req.body)
	}
}

func TestSendReportsHTTPFailure(t *testing.T) {
	server, _ := newNtfyServer(t, http.StatusInternalServerError)
	svc := notifications.NewService(newConfig(server.URL))

	err := svc.TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}
