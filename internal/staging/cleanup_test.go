package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"a4print/internal/logging"
)

func writeStaged(t *testing.T, dir, name string, size int, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	when := time.Now().Add(-age)
	if err := os.Chtimes(path, when, when); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
	return path
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	old := writeStaged(t, dir, "scan_a4_1a2b3c4d.png", 100, 2*time.Hour)
	recent := writeStaged(t, dir, "scan_enhanced_5e6f7a8b.png", 50, time.Minute)
	if err := os.Mkdir(filepath.Join(dir, "keep"), 0o755); err != nil {
		t.Fatal(err)
	}

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("expected only the old file removed, got %v", result.Removed)
	}
	if result.FreedBytes != 100 {
		t.Fatalf("expected 100 bytes freed, got %d", result.FreedBytes)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Fatalf("recent file should remain: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep")); err != nil {
		t.Fatalf("directories should remain: %v", err)
	}
}

func TestCleanStaleZeroAgeRemovesAll(t *testing.T) {
	dir := t.TempDir()
	writeStaged(t, dir, "a.png", 10, 0)
	writeStaged(t, dir, "b.png", 10, time.Minute)

	result := CleanStale(context.Background(), dir, 0, nil)
	if len(result.Removed) != 2 {
		t.Fatalf("expected both files removed, got %v", result.Removed)
	}
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	writeStaged(t, dir, "a.png", 10, time.Hour)
	writeStaged(t, dir, "b.png", 30, time.Minute)

	usage, err := Measure(dir)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if usage.Files != 2 || usage.Bytes != 40 {
		t.Fatalf("unexpected usage: %+v", usage)
	}
	if time.Since(usage.Oldest) < 50*time.Minute {
		t.Fatalf("expected oldest about an hour ago, got %v", usage.Oldest)
	}

	missing, err := Measure(filepath.Join(dir, "missing"))
	if err != nil || missing.Files != 0 {
		t.Fatalf("expected empty usage for missing dir, got %+v, %v", missing, err)
	}
}
