// Package notifications delivers export events to ntfy.
//
// NewService returns an ntfy-backed Service when a topic is configured and a
// no-op implementation otherwise, so callers never branch on configuration.
// Delivery is best effort: callers log returned errors and carry on.
package notifications
