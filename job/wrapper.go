package job

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/galaxyproject/gxrunner/logger"
	"github.com/galaxyproject/gxrunner/util"
	"github.com/galaxyproject/gxrunner/util/fsutil"
	"github.com/kballard/go-shellquote"
)

// StoreWrapper implements Wrapper on top of a Store. Every transition is
// written through to the store, with retries.
type StoreWrapper struct {
	// Remove the job working directory on Cleanup.
	CleanupWorkDir bool

	mu    sync.Mutex
	rec   Record
	store Store
	retry *util.Retrier
	log   *logger.Logger
}

// NewStoreWrapper returns a Wrapper around a copy of the given record.
func NewStoreWrapper(r *Record, store Store, log *logger.Logger) *StoreWrapper {
	if r.Kind == "" {
		r.Kind = Tool
	}
	log = log.WithFields("job", r.ID, "kind", string(r.Kind))
	return &StoreWrapper{
		rec:   *r,
		store: store,
		retry: util.NewRetrier(log),
		log:   log,
	}
}

// Record returns a copy of the wrapped record.
func (w *StoreWrapper) Record() Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rec
}

// ID returns the local job id.
func (w *StoreWrapper) ID() string { return w.rec.ID }

// Kind returns the kind of the job.
func (w *StoreWrapper) Kind() Kind { return w.rec.Kind }

// Prepare checks the command line is well formed and creates the working
// directory.
func (w *StoreWrapper) Prepare(ctx context.Context) error {
	rec := w.Record()
	if _, err := shellquote.Split(rec.CommandLine); err != nil {
		return fmt.Errorf("malformed command line: %v", err)
	}
	if rec.WorkDir != "" {
		if err := fsutil.EnsureDir(rec.WorkDir); err != nil {
			return fmt.Errorf("creating working directory: %v", err)
		}
	}
	return nil
}

// CommandLine returns the command line to run.
func (w *StoreWrapper) CommandLine() string { return w.Record().CommandLine }

// LibraryPath returns the library path to export, if any.
func (w *StoreWrapper) LibraryPath() string { return w.Record().LibraryPath }

// WorkingDirectory returns the directory the command runs in.
func (w *StoreWrapper) WorkingDirectory() string { return w.Record().WorkDir }

// ExternalID returns the scheduler's id for the job.
func (w *StoreWrapper) ExternalID() string { return w.Record().ExternalID }

// DestinationURL returns the runner destination of the job.
func (w *StoreWrapper) DestinationURL() string { return w.Record().DestinationURL }

// State returns the job state, refreshed from the store so that changes made
// by the job's owner (such as deletion) are visible.
func (w *StoreWrapper) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	fresh, err := w.store.GetJob(context.Background(), w.rec.Key())
	if err == nil && fresh.State != w.rec.State {
		w.rec.State = fresh.State
	}
	return w.rec.State
}

// ChangeState moves the job to state s. Terminal states are final.
func (w *StoreWrapper) ChangeState(ctx context.Context, s State) error {
	return w.update(ctx, func(r *Record) error {
		if r.State.Terminal() && r.State != s {
			return fmt.Errorf("job %s is already %s", r.ID, r.State)
		}
		r.State = s
		return nil
	})
}

// Fail marks the job as failed.
func (w *StoreWrapper) Fail(ctx context.Context, msg string, cause error) {
	if cause != nil {
		w.log.Error("job failed", "info", msg, "error", cause)
	} else {
		w.log.Info("job failed", "info", msg)
	}
	err := w.update(ctx, func(r *Record) error {
		if r.State == Deleted {
			return nil
		}
		r.State = Error
		r.Info = msg
		return nil
	})
	if err != nil {
		w.log.Error("couldn't persist job failure", err)
	}
}

// Finish records the job's captured output and marks it as complete.
// A deleted job stays deleted.
func (w *StoreWrapper) Finish(ctx context.Context, stdout, stderr string) error {
	return w.update(ctx, func(r *Record) error {
		if r.State == Deleted {
			return nil
		}
		r.State = OK
		r.Stdout = stdout
		r.Stderr = stderr
		return nil
	})
}

// Cleanup removes the working directory, when configured to.
func (w *StoreWrapper) Cleanup(ctx context.Context) {
	dir := w.WorkingDirectory()
	if !w.CleanupWorkDir || dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		w.log.Error("couldn't remove working directory", "dir", dir, "error", err)
	}
}

// SetRunner records where the job was sent and the scheduler's id for it.
func (w *StoreWrapper) SetRunner(ctx context.Context, destinationURL, externalID string) error {
	return w.update(ctx, func(r *Record) error {
		r.DestinationURL = destinationURL
		r.ExternalID = externalID
		return nil
	})
}

// update applies f to the latest stored version of the record and persists
// it. The in-memory record only changes once the write succeeds.
func (w *StoreWrapper) update(ctx context.Context, f func(*Record) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := w.rec
	if fresh, err := w.store.GetJob(ctx, w.rec.Key()); err == nil {
		next = *fresh
	}
	if err := f(&next); err != nil {
		return err
	}
	next.Updated = time.Now()
	err := w.retry.Retry(ctx, "put job", func() error {
		return w.store.PutJob(ctx, &next)
	})
	if err != nil {
		return fmt.Errorf("persisting job %s: %v", next.ID, err)
	}
	w.rec = next
	return nil
}
