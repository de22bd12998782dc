package preflight

import (
	"context"
	"strings"

	"a4print/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Export directory", cfg.Paths.ExportDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
	}

	if command := strings.TrimSpace(cfg.Enhancement.Command); command != "" {
		results = append(results, CheckBinary("Enhancement tool", command))
	}

	if topic := strings.TrimSpace(cfg.Notifications.NtfyTopic); topic != "" {
		result := CheckNtfy(ctx, topic)
		result.Optional = true
		results = append(results, result)
	}

	return results
}

// Blocking returns the failed results that are not optional.
func Blocking(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failed = append(failed, result)
		}
	}
	return failed
}
