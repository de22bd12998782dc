// Package config loads, normalizes, and validates a4print configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// A4PRINT_NTFY_TOPIC. The Config type centralizes every knob the export engine
// and CLI need, so export/staging directories, print settings, and the
// enhancement tool are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
