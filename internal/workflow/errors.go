package workflow

import "errors"

var (
	// ErrRunNotFound indicates no checkpoint exists for the run token.
	ErrRunNotFound = errors.New("run not found")
	// ErrNotSuspended indicates the run is not awaiting review.
	ErrNotSuspended = errors.New("run is not suspended")
)
