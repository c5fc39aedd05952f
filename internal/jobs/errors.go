package jobs

import "errors"

var (
	// ErrNotFound means no job with the given id is registered in this
	// process.
	ErrNotFound = errors.New("job not found")

	// ErrAlreadyTerminal means the job has already finished and the
	// requested transition is refused.
	ErrAlreadyTerminal = errors.New("job already finished")
)
