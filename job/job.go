// Package job contains the persisted job record model consumed by the
// cluster runner: lifecycle states, job kinds, the Wrapper interface the
// runner calls back into, and the Store interface records live in.
package job

import (
	"context"
	"fmt"
	"time"
)

// State is the local lifecycle state of a job.
type State string

// Job states.
const (
	New     State = "new"
	Queued  State = "queued"
	Running State = "running"
	OK      State = "ok"
	Error   State = "error"
	Deleted State = "deleted"
)

// Terminal reports whether no further transitions are expected from s.
func (s State) Terminal() bool {
	switch s {
	case OK, Error, Deleted:
		return true
	}
	return false
}

// ParseState parses a state name.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case New, Queued, Running, OK, Error, Deleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown job state %q", s)
}

// Kind distinguishes the different kinds of work a job record can describe.
type Kind string

// Job kinds.
const (
	Tool        Kind = "tool"
	Task        Kind = "task"
	SetMetadata Kind = "set_metadata"
)

// Key returns the storage key of the job with the given kind and id.
func Key(kind Kind, id string) string {
	if kind == "" {
		kind = Tool
	}
	return string(kind) + "/" + id
}

// Record is the persisted representation of one unit of work.
type Record struct {
	ID             string
	Kind           Kind
	State          State
	CommandLine    string
	WorkDir        string
	LibraryPath    string
	DestinationURL string
	ExternalID     string
	Stdout         string
	Stderr         string
	// User-facing failure message.
	Info    string
	Created time.Time
	Updated time.Time
}

// Key returns the storage key of the record.
func (r *Record) Key() string {
	return Key(r.Kind, r.ID)
}

// Wrapper is the view of a job the cluster runner drives through its
// lifecycle. Implementations persist every transition.
type Wrapper interface {
	ID() string
	Kind() Kind
	// Prepare builds everything needed to produce the command line.
	Prepare(ctx context.Context) error
	CommandLine() string
	LibraryPath() string
	WorkingDirectory() string
	State() State
	ExternalID() string
	DestinationURL() string

	ChangeState(ctx context.Context, s State) error
	// Fail marks the job as failed with a user-facing message. err carries
	// the underlying detail, if any, and is never shown to users.
	Fail(ctx context.Context, msg string, err error)
	Finish(ctx context.Context, stdout, stderr string) error
	Cleanup(ctx context.Context)
	SetRunner(ctx context.Context, destinationURL, externalID string) error
}

// Store persists job records.
type Store interface {
	GetJob(ctx context.Context, key string) (*Record, error)
	PutJob(ctx context.Context, r *Record) error
	// ListJobs returns records in any of the given states, or all records
	// if no state is given. Records are ordered by key.
	ListJobs(ctx context.Context, states ...State) ([]*Record, error)
	Close() error
}

// ErrNotFound is returned by stores when a record doesn't exist.
var ErrNotFound = fmt.Errorf("job not found")
