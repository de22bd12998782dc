package workflow

import "errors"

var (
	// ErrAlreadyRunning is returned by Start and Resume while the job is running.
	ErrAlreadyRunning = errors.New("export already running")
	// ErrPolicyViolation is returned when starting or resuming while the app is
	// in the background and background export is disabled.
	ErrPolicyViolation = errors.New("background export is disabled; bring the app to the foreground or enable background export")
	// ErrBusy is returned by operations that need the run loop to be idle.
	ErrBusy = errors.New("export loop still active; pause and wait for the current item to finish")
	// ErrNoJob is returned when an operation needs a job and none is loaded.
	ErrNoJob = errors.New("no export job")
	// ErrNothingPending is returned by Start when every item is already settled.
	ErrNothingPending = errors.New("no pending items to export")
)
