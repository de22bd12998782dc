package lifecycle

import (
	"context"
	"fmt"
	"sync"
)

// SettingsStore persists the export-in-background flag.
type SettingsStore interface {
	ExportInBackground(ctx context.Context, fallback bool) (bool, error)
	SetExportInBackground(ctx context.Context, enabled bool) error
}

// Presence holds the current AppState and the background export setting.
// It satisfies the workflow policy interface.
type Presence struct {
	store SettingsStore

	mu                 sync.RWMutex
	state              AppState
	exportInBackground bool
}

// NewPresence reads the persisted setting once, falling back to the
// configured default when nothing has been stored. The app starts Active.
func NewPresence(ctx context.Context, store SettingsStore, fallback bool) (*Presence, error) {
	p := &Presence{store: store, state: StateActive, exportInBackground: fallback}
	if store == nil {
		return p, nil
	}
	enabled, err := store.ExportInBackground(ctx, fallback)
	if err != nil {
		return p, fmt.Errorf("load background export setting: %w", err)
	}
	p.exportInBackground = enabled
	return p, nil
}

// State returns the current presence.
func (p *Presence) State() AppState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// InBackground reports whether the app is backgrounded.
func (p *Presence) InBackground() bool {
	return p.State() == StateBackground
}

// ExportInBackground reports the current setting.
func (p *Presence) ExportInBackground() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exportInBackground
}

// SetExportInBackground persists and applies the setting. The in-memory
// value only changes once the write succeeds.
func (p *Presence) SetExportInBackground(ctx context.Context, enabled bool) error {
	if p.store != nil {
		if err := p.store.SetExportInBackground(ctx, enabled); err != nil {
			return fmt.Errorf("save background export setting: %w", err)
		}
	}
	p.mu.Lock()
	p.exportInBackground = enabled
	p.mu.Unlock()
	return nil
}

// transition records state and returns the previous one.
func (p *Presence) transition(state AppState) AppState {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.state
	p.state = state
	return prev
}
