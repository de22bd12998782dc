package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"a4print/internal/queue"
	"a4print/internal/testsupport"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := &queue.Job{
		Items: []queue.Item{
			{SourceRef: "/img/a.jpg", Status: queue.StatusCompleted, OutputRef: "/out/a.pdf"},
			{SourceRef: "/img/b.jpg", Status: queue.StatusFailed, Error: "render failed"},
			{SourceRef: "/img/c.jpg", Status: queue.StatusProcessing},
			{SourceRef: "/img/d.jpg", Status: queue.StatusPending},
		},
		Cursor:      2,
		AutoEnhance: false,
	}
	if err := store.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob: %v", err)
	}

	loaded, err := store.LoadJob(ctx)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if !reflect.DeepEqual(job, loaded) {
		t.Fatalf("round trip mismatch:\nsaved  %+v\nloaded %+v", job, loaded)
	}
}

func TestSaveJobOverwrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustSaveJob(t, store, queue.NewJob([]string{"a.jpg"}, true))
	testsupport.MustSaveJob(t, store, queue.NewJob([]string{"b.jpg", "c.jpg"}, false))

	loaded, err := store.LoadJob(ctx)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if loaded.Len() != 2 || loaded.Items[0].SourceRef != "b.jpg" || loaded.AutoEnhance {
		t.Fatalf("expected latest job, got %+v", loaded)
	}
}

func TestLoadJobAbsent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.LoadJob(context.Background())
	if err != nil || job != nil {
		t.Fatalf("expected absent job, got %+v err=%v", job, err)
	}
}

func TestLoadJobClearsCorruptedRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	writeRawJob(t, store.Path(), `{"items":{"0":"a.jpg"},"currentIdx":0,"autoEnhance":true}`)

	job, err := store.LoadJob(ctx)
	if job != nil {
		t.Fatalf("expected nil job for corrupted record, got %+v", job)
	}
	if !errors.Is(err, queue.ErrCorruptedJob) {
		t.Fatalf("expected ErrCorruptedJob, got %v", err)
	}

	present, err := store.HasJob(ctx)
	if err != nil {
		t.Fatalf("HasJob: %v", err)
	}
	if present {
		t.Fatal("expected corrupted record to be cleared")
	}

	job, err = store.LoadJob(ctx)
	if err != nil || job != nil {
		t.Fatalf("expected absent job after clear, got %+v err=%v", job, err)
	}
}

func TestClearJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.ClearJob(ctx); err != nil {
		t.Fatalf("ClearJob on empty slot: %v", err)
	}
	testsupport.MustSaveJob(t, store, queue.NewJob([]string{"a.jpg"}, true))
	if err := store.ClearJob(ctx); err != nil {
		t.Fatalf("ClearJob: %v", err)
	}
	if job, _ := store.LoadJob(ctx); job != nil {
		t.Fatalf("expected cleared job, got %+v", job)
	}
}

func TestJobSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.MustSaveJob(t, store, queue.NewJob([]string{"a.jpg", "b.jpg"}, true))
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	job, err := reopened.LoadJob(context.Background())
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if job.Len() != 2 {
		t.Fatalf("expected persisted job after reopen, got %+v", job)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	db.Close()

	if _, err := queue.Open(cfg); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestExportInBackgroundSetting(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	enabled, err := store.ExportInBackground(ctx, true)
	if err != nil || !enabled {
		t.Fatalf("expected fallback true, got %v err=%v", enabled, err)
	}
	if err := store.SetExportInBackground(ctx, false); err != nil {
		t.Fatalf("SetExportInBackground: %v", err)
	}
	enabled, err = store.ExportInBackground(ctx, true)
	if err != nil || enabled {
		t.Fatalf("expected persisted false, got %v err=%v", enabled, err)
	}
}

func TestHistoryLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := filepath.Join(cfg.Paths.ExportDir, "A4Print_1.pdf")
	second := filepath.Join(cfg.Paths.ExportDir, "A4Print_2.pdf")
	testsupport.WriteFile(t, first, 2048)
	testsupport.WriteFile(t, second, 10)

	firstEntry, err := store.AddHistory(ctx, first)
	if err != nil {
		t.Fatalf("AddHistory: %v", err)
	}
	if firstEntry.Filename != "A4Print_1.pdf" || firstEntry.SizeLabel() != "2.0 KiB" {
		t.Fatalf("unexpected entry: %+v size=%s", firstEntry, firstEntry.SizeLabel())
	}
	if _, err := store.AddHistory(ctx, second); err != nil {
		t.Fatalf("AddHistory: %v", err)
	}
	missing, err := store.AddHistory(ctx, filepath.Join(cfg.Paths.ExportDir, "gone.pdf"))
	if err != nil {
		t.Fatalf("AddHistory missing file: %v", err)
	}
	if missing.SizeLabel() != "Unknown" {
		t.Fatalf("expected Unknown size for missing file, got %s", missing.SizeLabel())
	}

	entries, err := store.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 || entries[0].ID != missing.ID {
		t.Fatalf("expected newest first, got %+v", entries)
	}

	found, err := store.DeleteHistory(ctx, firstEntry.ID)
	if err != nil || !found {
		t.Fatalf("DeleteHistory: found=%v err=%v", found, err)
	}
	if _, err := os.Stat(first); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected exported file removed, stat err=%v", err)
	}
	found, err = store.DeleteHistory(ctx, firstEntry.ID)
	if err != nil || found {
		t.Fatalf("expected second delete to report missing entry, found=%v err=%v", found, err)
	}

	removed, err := store.ClearHistory(ctx)
	if err != nil || removed != 2 {
		t.Fatalf("ClearHistory: removed=%d err=%v", removed, err)
	}
	if _, err := os.Stat(second); err != nil {
		t.Fatalf("expected clear to keep files on disk: %v", err)
	}
}
