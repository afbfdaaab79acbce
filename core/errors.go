package narrator

import "errors"

var (
	// ErrTransientIO marks a failed accessibility query that may succeed on
	// a later event.
	ErrTransientIO = errors.New("transient accessibility query failure")
	// ErrResourceUnavailable is returned by Start when a required
	// collaborator is missing.
	ErrResourceUnavailable = errors.New("required resource unavailable")

	ErrAlreadyStarted = errors.New("narrator already started")
	ErrAlreadyStopped = errors.New("narrator already stopped")
)
