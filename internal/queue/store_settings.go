package queue

import (
	"context"
	"strconv"
	"strings"
)

// ExportInBackground returns the persisted background-export setting, or
// fallback when none has been stored or the stored value is unreadable.
func (s *Store) ExportInBackground(ctx context.Context, fallback bool) (bool, error) {
	value, ok, err := s.getValue(ctx, exportInBackgroundKey)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	parsed, parseErr := strconv.ParseBool(strings.TrimSpace(value))
	if parseErr != nil {
		return fallback, nil
	}
	return parsed, nil
}

// SetExportInBackground persists the background-export setting.
func (s *Store) SetExportInBackground(ctx context.Context, enabled bool) error {
	return s.setValue(ctx, exportInBackgroundKey, strconv.FormatBool(enabled))
}
