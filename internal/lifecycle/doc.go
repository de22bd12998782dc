// Package lifecycle reconciles foreground/background transitions with the
// export run state.
//
// A Source yields AppState changes (OS signals in the CLI, a channel in
// tests). Presence tracks the current state and the persisted
// export-in-background setting and doubles as the workflow policy. The
// Coordinator subscribes to a Source for its lifetime and pauses or resumes
// the export queue when the setting forbids background work.
package lifecycle
