package drm

import (
	"errors"
	"fmt"
)

// ErrUnknownJob is returned when the scheduler no longer recognizes a job id,
// typically because the job finished and was reaped.
var ErrUnknownJob = errors.New("job is not known to the scheduler")

// ErrClientUnavailable is returned when a scheduler client can't be used,
// for example because its command line tools are not installed.
var ErrClientUnavailable = errors.New("scheduler client unavailable")

// SubmissionError is returned when the scheduler refuses a submission.
type SubmissionError struct {
	Backend string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s: submitting job: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError is returned when the status of a job can't be determined for
// any reason other than the job being unknown.
type PollError struct {
	Backend string
	ID      string
	Err     error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("%s: polling job %s: %v", e.Backend, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PollError) Unwrap() error { return e.Err }

// Unavailable wraps the reason a client can't be used.
func Unavailable(backend string, reason error) error {
	return fmt.Errorf("%w: %s: %v", ErrClientUnavailable, backend, reason)
}
