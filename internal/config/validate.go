package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateEnhancement(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.ExportDir == "" {
		return errors.New("paths.export_dir must be set")
	}
	return nil
}

func (c *Config) validateExport() error {
	if !slices.Contains(SupportedDPI, c.Export.DPI) {
		return fmt.Errorf("export.dpi must be one of %v, got %d", SupportedDPI, c.Export.DPI)
	}
	if c.Export.MaxBatchSize < 0 {
		return errors.New("export.max_batch_size must be zero (unlimited) or positive")
	}
	if c.Export.StepTimeoutSeconds < 0 {
		return errors.New("export.step_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateEnhancement() error {
	if c.Enhancement.Command == "" {
		return nil
	}
	joined := strings.Join(c.Enhancement.Args, " ")
	if !strings.Contains(joined, enhancementInputToken) || !strings.Contains(joined, enhancementOutputToken) {
		return fmt.Errorf("enhancement.args must reference %s and %s", enhancementInputToken, enhancementOutputToken)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
