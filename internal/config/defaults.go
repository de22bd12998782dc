package config

const (
	defaultDataDir            = "~/.local/share/a4print"
	defaultExportDir          = "~/A4Prints/Exports"
	defaultStagingDir         = "~/.local/share/a4print/staging"
	defaultLogDir             = "~/.local/share/a4print/logs"
	defaultDPI                = 300
	defaultMaxBatchSize       = 20
	defaultStepTimeoutSeconds = 30
	defaultEnhancementCommand = "magick"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultExportInBackground = true
	defaultAutoEnhance        = true
	ntfyTopicEnv              = "A4PRINT_NTFY_TOPIC"
	enhancementInputToken     = "{input}"
	enhancementOutputToken    = "{output}"
	defaultConfigRelativePath = "~/.config/a4print/config.toml"
	projectConfigFileName     = "a4print.toml"
)

// SupportedDPI lists the print resolutions the export pipeline accepts.
var SupportedDPI = []int{150, 200, 300, 600}

func defaultSupportedFormats() []string {
	return []string{"jpg", "jpeg", "png", "webp"}
}

func defaultEnhancementArgs() []string {
	return []string{enhancementInputToken, "-auto-level", "-sharpen", "0x1", enhancementOutputToken}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			ExportDir:  defaultExportDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Export: Export{
			DPI:                defaultDPI,
			AutoEnhance:        defaultAutoEnhance,
			MaxBatchSize:       defaultMaxBatchSize,
			SupportedFormats:   defaultSupportedFormats(),
			StepTimeoutSeconds: defaultStepTimeoutSeconds,
		},
		Enhancement: Enhancement{
			Command: defaultEnhancementCommand,
			Args:    defaultEnhancementArgs(),
		},
		Lifecycle: Lifecycle{
			ExportInBackground: defaultExportInBackground,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			ExportComplete: true,
			Errors:         false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
