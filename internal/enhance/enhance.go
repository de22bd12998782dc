// Package enhance runs the external image enhancement tool.
package enhance

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"a4print/internal/config"
	"a4print/internal/logging"
	"a4print/internal/services"
)

// Executor runs an external command.
type Executor interface {
	Run(ctx context.Context, name string, args []string) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// Tool enhances images by invoking the configured command. A Tool with no
// command passes images through untouched.
type Tool struct {
	command    string
	args       func(input, output string) []string
	stagingDir string
	exec       Executor
	logger     *slog.Logger
}

// Option customizes a Tool.
type Option func(*Tool)

// WithExecutor overrides the command executor.
func WithExecutor(exec Executor) Option {
	return func(t *Tool) {
		if exec != nil {
			t.exec = exec
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tool) {
		t.logger = logging.NewComponentLogger(logger, "enhance")
	}
}

// New builds a Tool from the enhancement and paths configuration.
func New(cfg *config.Config, opts ...Option) *Tool {
	tool := &Tool{
		command:    strings.TrimSpace(cfg.Enhancement.Command),
		args:       cfg.EnhancementArgs,
		stagingDir: cfg.Paths.StagingDir,
		exec:       commandExecutor{},
		logger:     logging.NewComponentLogger(nil, "enhance"),
	}
	for _, opt := range opts {
		opt(tool)
	}
	return tool
}

// Enabled reports whether an external command is configured.
func (t *Tool) Enabled() bool {
	return t.command != ""
}

// Enhance writes an enhanced PNG copy of imageRef into the staging directory
// and returns its path.
func (t *Tool) Enhance(ctx context.Context, imageRef string) (string, error) {
	if !t.Enabled() {
		return imageRef, nil
	}
	if _, err := os.Stat(imageRef); err != nil {
		return "", services.Wrap(services.ErrorKindIO, "enhance", "read source image", err)
	}
	if err := os.MkdirAll(t.stagingDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrorKindIO, "enhance", "create staging directory", err)
	}

	base := strings.TrimSuffix(filepath.Base(imageRef), filepath.Ext(imageRef))
	output := filepath.Join(t.stagingDir, fmt.Sprintf("%s_enhanced_%s.png", base, uuid.NewString()[:8]))
	args := t.args(imageRef, output)

	logging.WithContext(ctx, t.logger).Debug("running enhancement tool",
		logging.String("command", t.command),
		logging.String("args", strings.Join(args, " ")),
	)
	if err := t.exec.Run(ctx, t.command, args); err != nil {
		_ = os.Remove(output)
		return "", services.WithHint(
			services.Wrap(services.ErrorKindExternal, "enhance", fmt.Sprintf("%s failed", filepath.Base(t.command)), err),
			"check the enhancement command in config.toml or disable auto-enhance",
		)
	}
	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrorKindExternal, "enhance", "tool produced no output", err)
	}
	return output, nil
}

// Check verifies the configured command can be found on PATH.
func (t *Tool) Check() error {
	if !t.Enabled() {
		return nil
	}
	if _, err := exec.LookPath(t.command); err != nil {
		return services.WithHint(
			services.Wrap(services.ErrorKindValidation, "enhance", fmt.Sprintf("command %q not found", t.command), err),
			"install ImageMagick or set enhancement.command",
		)
	}
	return nil
}
