package queue

import (
	"context"
	"errors"
	"fmt"
)

// SaveJob overwrites the persisted job with a full snapshot.
func (s *Store) SaveJob(ctx context.Context, job *Job) error {
	data, err := EncodeJob(job)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return s.setValue(ctx, jobKey, string(data))
}

// LoadJob returns the persisted job, or nil when none is stored. A record
// that fails validation is removed and reported as ErrCorruptedJob with a
// nil job; callers treat that as absent.
func (s *Store) LoadJob(ctx context.Context) (*Job, error) {
	value, ok, err := s.getValue(ctx, jobKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	job, decodeErr := DecodeJob([]byte(value))
	if decodeErr == nil {
		return job, nil
	}
	if errors.Is(decodeErr, ErrCorruptedJob) {
		if clearErr := s.ClearJob(ctx); clearErr != nil {
			return nil, errors.Join(decodeErr, clearErr)
		}
	}
	return nil, decodeErr
}

// ClearJob removes the persisted job. Clearing an empty slot is not an error.
func (s *Store) ClearJob(ctx context.Context) error {
	return s.deleteValue(ctx, jobKey)
}

// HasJob reports whether a job record is stored, without validating it.
func (s *Store) HasJob(ctx context.Context) (bool, error) {
	_, ok, err := s.getValue(ctx, jobKey)
	return ok, err
}
