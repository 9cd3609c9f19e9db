package compute

import (
	"errors"
	"fmt"
)

// ClusterFailMessage is the user-facing message of jobs the scheduler failed,
// or whose status couldn't be determined.
const ClusterFailMessage = "Cluster could not complete job"

// prepareFailMessage is the user-facing message of jobs whose command line
// couldn't be built.
const prepareFailMessage = "failure preparing job"

// ErrStopped is returned when work is handed to a runner that has shut down.
var ErrStopped = errors.New("runner is shut down")

// PreparationError is returned by Submit when a job's command line can't be
// prepared.
type PreparationError struct {
	JobID string
	Err   error
}

func (e *PreparationError) Error() string {
	return fmt.Sprintf("preparing job %s: %v", e.JobID, e.Err)
}

// Unwrap returns the underlying error.
func (e *PreparationError) Unwrap() error { return e.Err }
