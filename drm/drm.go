// Package drm defines how the cluster runner talks to an external
// distributed resource manager (Grid Engine, Slurm, PBS, HTCondor, ...):
// the Client interface, the status vocabulary, and the error taxonomy.
package drm

import (
	"context"
)

// JobTemplate describes one submission.
type JobTemplate struct {
	// Name shown by the scheduler.
	Name string
	// Path of the shell script to run.
	ScriptPath string
	// Files the scheduler captures the job's stdout and stderr into.
	StdoutPath string
	StderrPath string
	// Directory the job starts in.
	WorkDir string
	// Cell/cluster and queue/partition. Empty means the scheduler default.
	Cell  string
	Queue string
}

// DescriptionPath is where a client which needs a separate submit
// description writes it for the given script. Runners remove it along with
// the script.
func DescriptionPath(scriptPath string) string {
	return scriptPath + ".condor"
}

// Target returns the queue argument understood by Grid Engine and PBS:
// "queue@cell", "queue", "@cell", or "" for the scheduler default.
func (t *JobTemplate) Target() string {
	switch {
	case t.Cell != "" && t.Queue != "":
		return t.Queue + "@" + t.Cell
	case t.Cell != "":
		return "@" + t.Cell
	}
	return t.Queue
}

// Client is a session with an external scheduler.
//
// A Client is used by one goroutine at a time. The runner opens one session
// for its monitor loop and another for callers submitting and cancelling jobs.
type Client interface {
	// Open starts the session.
	Open() error
	// Close tears the session down.
	Close() error
	// Submit enqueues a job and returns the scheduler's id for it.
	// Failures are returned as *SubmissionError.
	Submit(ctx context.Context, tpl *JobTemplate) (string, error)
	// Poll returns the current status of a job. It returns ErrUnknownJob
	// once the scheduler no longer recognizes the id.
	Poll(ctx context.Context, id string) (Status, error)
	// Cancel asks the scheduler to terminate a job. It returns ErrUnknownJob
	// if the id is not recognized.
	Cancel(ctx context.Context, id string) error
}

// Opener creates new, unopened sessions.
type Opener func() (Client, error)
