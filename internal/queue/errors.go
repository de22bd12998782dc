package queue

import "errors"

var (
	// ErrCorruptedJob reports a persisted job record that failed validation.
	// The record has already been cleared when this is returned.
	ErrCorruptedJob = errors.New("corrupted export job data")
	// ErrPersistence wraps storage failures while reading or writing state.
	ErrPersistence = errors.New("persistence failure")
	// ErrInvalidTransition reports a status change that would break job invariants.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrIndexOutOfRange reports an item index outside the job.
	ErrIndexOutOfRange = errors.New("item index out of range")
)
