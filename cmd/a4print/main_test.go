package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"a4print/internal/config"
	"a4print/internal/queue"
	"a4print/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("A4PRINT_NTFY_TOPIC", "")
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", base)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (env *cliTestEnv) saveJob(t *testing.T, job *queue.Job) {
	t.Helper()
	store, err := queue.Open(env.cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()
	testsupport.MustSaveJob(t, store, job)
}

func (env *cliTestEnv) loadJob(t *testing.T) *queue.Job {
	t.Helper()
	store, err := queue.Open(env.cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()
	job, err := store.LoadJob(context.Background())
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	return job
}

func (env *cliTestEnv) writeImages(t *testing.T, names ...string) string {
	t.Helper()
	dir := filepath.Join(env.baseDir, "photos")
	for _, name := range names {
		testsupport.WriteImage(t, filepath.Join(dir, name), 40, 60)
	}
	return dir
}

func exportedPDFs(t *testing.T, env *cliTestEnv) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(env.cfg.Paths.ExportDir, "*.pdf"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestExportCommandWritesPDFsAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.writeImages(t, "one.png", "two.jpg")

	out, err := runCLI(t, env, "", "export", dir)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 2 of 2 pages.") {
		t.Fatalf("expected completion message, got:\n%s", out)
	}
	if pdfs := exportedPDFs(t, env); len(pdfs) != 2 {
		t.Fatalf("expected 2 PDFs, got %v", pdfs)
	}
	if job := env.loadJob(t); job != nil {
		t.Fatalf("expected job cleared, got %+v", job)
	}

	out, err = runCLI(t, env, "", "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if strings.Count(out, ".pdf") != 2 {
		t.Fatalf("expected 2 history rows, got:\n%s", out)
	}

	out, err = runCLI(t, env, "", "job", "status")
	if err != nil {
		t.Fatalf("job status: %v", err)
	}
	if !strings.Contains(out, "No saved export job") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
}

func TestExportRequiresDecisionForInterruptedJob(t *testing.T) {
	env := setupCLITestEnv(t)
	env.saveJob(t, queue.NewJob([]string{"/missing/a.png"}, true))

	_, err := runCLI(t, env, "", "export")
	if err == nil || !strings.Contains(err.Error(), "--resume or --discard") {
		t.Fatalf("expected decision error, got %v", err)
	}
	if env.loadJob(t) == nil {
		t.Fatal("job must be kept until the user decides")
	}
}

func TestExportResumeContinuesFromCursor(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.writeImages(t, "second.png")

	job := queue.NewJob([]string{filepath.Join(dir, "first.png"), filepath.Join(dir, "second.png")}, false)
	if err := job.MarkProcessing(0); err != nil {
		t.Fatal(err)
	}
	if err := job.MarkCompleted(0, filepath.Join(env.cfg.Paths.ExportDir, "earlier.pdf")); err != nil {
		t.Fatal(err)
	}
	env.saveJob(t, job)

	out, err := runCLI(t, env, "", "export", "--resume")
	if err != nil {
		t.Fatalf("export --resume: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 2 of 2 pages.") {
		t.Fatalf("expected both pages counted, got:\n%s", out)
	}
	if pdfs := exportedPDFs(t, env); len(pdfs) != 1 {
		t.Fatalf("expected only the second page exported, got %v", pdfs)
	}
}

func TestExportDiscardWithoutPaths(t *testing.T) {
	env := setupCLITestEnv(t)
	env.saveJob(t, queue.NewJob([]string{"/missing/a.png"}, true))

	out, err := runCLI(t, env, "", "export", "--discard")
	if err != nil {
		t.Fatalf("export --discard: %v", err)
	}
	if !strings.Contains(out, "Discarded the interrupted export.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if env.loadJob(t) != nil {
		t.Fatal("expected job discarded")
	}
}

func TestExportRecordsFailedPages(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.writeImages(t, "good.png")
	broken := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(broken, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, env, "", "export", dir)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 1 of 2 pages; 1 failed.") {
		t.Fatalf("expected partial failure summary, got:\n%s", out)
	}
	if !strings.Contains(out, "Failed") {
		t.Fatalf("expected failed row in job table, got:\n%s", out)
	}
}

func TestExportRejectsEmptySelection(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := runCLI(t, env, "", "export"); err == nil {
		t.Fatal("expected error without paths")
	}
	if _, err := runCLI(t, env, "", "export", filepath.Join(env.baseDir, "nope")); err == nil {
		t.Fatal("expected error for missing path")
	}
	if _, err := runCLI(t, env, "", "export", "--resume", "--discard"); err == nil {
		t.Fatal("expected error for conflicting flags")
	}
}

func TestJobEnhanceAndDiscard(t *testing.T) {
	env := setupCLITestEnv(t)
	env.saveJob(t, queue.NewJob([]string{"/missing/a.png", "/missing/b.png"}, true))

	if _, err := runCLI(t, env, "", "job", "enhance", "off"); err != nil {
		t.Fatalf("job enhance off: %v", err)
	}
	out, err := runCLI(t, env, "", "job", "status")
	if err != nil {
		t.Fatalf("job status: %v", err)
	}
	for _, want := range []string{"State: Paused", "Progress: 0 of 2 pages", "Auto enhance: off"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in status output:\n%s", want, out)
		}
	}

	out, err = runCLI(t, env, "", "job", "discard")
	if err != nil {
		t.Fatalf("job discard: %v", err)
	}
	if !strings.Contains(out, "Discarded export job with 2 pages") {
		t.Fatalf("unexpected discard output:\n%s", out)
	}
	if env.loadJob(t) != nil {
		t.Fatal("expected job removed")
	}
}

func TestJobRetryWithoutFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.saveJob(t, queue.NewJob([]string{"/missing/a.png"}, true))

	out, err := runCLI(t, env, "", "job", "retry")
	if err != nil {
		t.Fatalf("job retry: %v", err)
	}
	if !strings.Contains(out, "No failed pages to retry") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSettingsBackgroundToggle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "", "settings", "background")
	if err != nil || !strings.Contains(out, "Export in background: on") {
		t.Fatalf("expected default on, got %q, %v", out, err)
	}
	if _, err := runCLI(t, env, "", "settings", "background", "off"); err != nil {
		t.Fatalf("settings background off: %v", err)
	}
	out, err = runCLI(t, env, "", "settings", "background")
	if err != nil || !strings.Contains(out, "Export in background: off") {
		t.Fatalf("expected persisted off, got %q, %v", out, err)
	}
	if _, err := runCLI(t, env, "", "settings", "background", "maybe"); err == nil {
		t.Fatal("expected error for invalid value")
	}
}

func TestHistoryDeleteUnknownEntry(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := runCLI(t, env, "", "history", "delete", "does-not-exist"); err == nil {
		t.Fatal("expected error for unknown entry")
	}
	out, err := runCLI(t, env, "", "history", "clear")
	if err != nil || !strings.Contains(out, "Cleared 0 history entries") {
		t.Fatalf("unexpected clear output %q, %v", out, err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(env.baseDir, "new", "config.toml")

	if _, err := runCLI(t, env, "", "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}
	if _, err := runCLI(t, env, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
}

func TestCheckAndStagingCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "", "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Export directory") {
		t.Fatalf("expected directory rows, got:\n%s", out)
	}

	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.StagingDir, "left_a4_00000000.png"), 2048)
	out, err = runCLI(t, env, "", "staging")
	if err != nil || !strings.Contains(out, "1 files, 2.0 KiB") {
		t.Fatalf("unexpected staging output %q, %v", out, err)
	}
	out, err = runCLI(t, env, "", "staging", "clean")
	if err != nil || !strings.Contains(out, "Removed 1 files") {
		t.Fatalf("unexpected clean output %q, %v", out, err)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, env, "", "test-notify")
	if err != nil || !strings.Contains(out, "not configured") {
		t.Fatalf("unexpected output %q, %v", out, err)
	}
}

func TestPromptRecovery(t *testing.T) {
	job := queue.NewJob([]string{"a.png", "b.png"}, true)
	var out bytes.Buffer

	decision, err := promptRecovery(&out, strings.NewReader("x\nd\n"), job)
	if err != nil || decision != decisionDiscard {
		t.Fatalf("expected discard, got %v, %v", decision, err)
	}
	if !strings.Contains(out.String(), "Please answer r or d.") {
		t.Fatalf("expected reprompt, got %q", out.String())
	}

	decision, err = promptRecovery(&out, strings.NewReader("resume\n"), job)
	if err != nil || decision != decisionResume {
		t.Fatalf("expected resume, got %v, %v", decision, err)
	}

	if _, err := promptRecovery(&out, strings.NewReader(""), job); err == nil {
		t.Fatal("expected error on EOF")
	}
}

func TestLogsShowsTrailingLines(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.cfg.LogPath(), []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, err := runCLI(t, env, "", "logs", "-n", "2")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected logs output %q", out)
	}
}

func TestConfigValidateShowsResolvedSettings(t *testing.T) {
	env := setupCLITestEnv(t)
	out, err := runCLI(t, env, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	for _, want := range []string{"Config file", "300", "disabled"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
