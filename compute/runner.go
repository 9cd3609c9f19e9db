// Package compute contains the cluster job runner: it submits jobs to an
// external scheduler, watches them from a single monitor goroutine, and
// reports every transition back to the job's wrapper.
package compute

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/galaxyproject/gxrunner/config"
	"github.com/galaxyproject/gxrunner/drm"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/logger"
	"github.com/galaxyproject/gxrunner/metrics"
	"github.com/galaxyproject/gxrunner/util/fsutil"
	"github.com/gammazero/workerpool"
	"golang.org/x/time/rate"
)

// Runner submits jobs to a cluster scheduler and monitors them to completion.
//
// Callers interact with the monitor goroutine only through the hand-off
// queue. The list of watched jobs belongs to the monitor goroutine.
type Runner struct {
	conf    config.Runner
	log     *logger.Logger
	cleanup CleanupPolicy
	ctx     context.Context

	// monitorClient is only used by the monitor goroutine.
	monitorClient drm.Client
	// client serves callers of Submit and Stop.
	client   drm.Client
	clientMu sync.Mutex

	queue   chan *JobState
	limiter *rate.Limiter
	pool    *workerpool.WorkerPool

	mu     sync.RWMutex
	closed bool
	// inflight counts Submit and Recover calls which may still push onto
	// the queue. The stop sentinel is sent only once it drops to zero.
	inflight     sync.WaitGroup
	shutdownOnce sync.Once
	done         chan struct{}
}

// stopSentinel tells the monitor goroutine to tear down and exit.
var stopSentinel = &JobState{}

// NewRunner opens two scheduler sessions, one for the monitor loop and one
// for callers, and starts the monitor loop.
func NewRunner(conf config.Runner, open drm.Opener, log *logger.Logger) (*Runner, error) {
	r, err := newRunner(conf, open, log)
	if err != nil {
		return nil, err
	}
	go r.monitor()
	return r, nil
}

func newRunner(conf config.Runner, open drm.Opener, log *logger.Logger) (*Runner, error) {
	def := config.DefaultConfig().Runner
	if conf.MonitorRate <= 0 {
		conf.MonitorRate = def.MonitorRate
	}
	if conf.QueueSize <= 0 {
		conf.QueueSize = def.QueueSize
	}
	if conf.Workers <= 0 {
		conf.Workers = def.Workers
	}
	if conf.ScriptPrefix == "" {
		conf.ScriptPrefix = def.ScriptPrefix
	}
	if conf.LibraryPathVar == "" {
		conf.LibraryPathVar = def.LibraryPathVar
	}
	if conf.DefaultDestination == "" {
		conf.DefaultDestination = def.DefaultDestination
	}
	if conf.WorkDir == "" {
		return nil, fmt.Errorf("runner work directory is not set")
	}
	if err := fsutil.EnsureDir(conf.WorkDir); err != nil {
		return nil, fmt.Errorf("creating runner work directory: %v", err)
	}

	monitorClient, err := openSession(open)
	if err != nil {
		return nil, err
	}
	client, err := openSession(open)
	if err != nil {
		monitorClient.Close()
		return nil, err
	}

	r := &Runner{
		conf:          conf,
		log:           log,
		cleanup:       CleanupPolicy{Debug: conf.Debug, Log: log},
		ctx:           context.Background(),
		monitorClient: monitorClient,
		client:        client,
		queue:         make(chan *JobState, conf.QueueSize),
		pool:          workerpool.New(conf.Workers),
		done:          make(chan struct{}),
	}
	if conf.PollRate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(conf.PollRate), 1)
	}
	return r, nil
}

func openSession(open drm.Opener) (drm.Client, error) {
	c, err := open()
	if err == nil {
		err = c.Open()
	}
	if err != nil {
		if errors.Is(err, drm.ErrClientUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", drm.ErrClientUnavailable, err)
	}
	return c, nil
}

// Submit prepares a job, writes its submission script and hands it to the
// scheduler. It returns once the scheduler has accepted the job; the job is
// then watched by the monitor loop.
//
// Preparation failures fail the job and are returned as *PreparationError.
// Scheduler failures are returned as *drm.SubmissionError and leave the
// job's state untouched.
func (r *Runner) Submit(ctx context.Context, w job.Wrapper) error {
	if !r.enter() {
		return ErrStopped
	}
	defer r.inflight.Done()
	return r.submit(ctx, w)
}

func (r *Runner) submit(ctx context.Context, w job.Wrapper) error {
	log := r.log.WithFields("job", w.ID())

	if err := w.Prepare(ctx); err != nil {
		return r.prepareFailed(ctx, w, err)
	}

	cmdline := w.CommandLine()
	if strings.TrimSpace(cmdline) == "" {
		log.Debug("job has no command line, finishing")
		return w.Finish(ctx, "", "")
	}

	url := w.DestinationURL()
	if url == "" {
		url = r.conf.DefaultDestination
	}
	dest, err := ParseDestination(url)
	if err != nil {
		return r.prepareFailed(ctx, w, err)
	}

	s := r.newJobState(w, dest)
	workdir := w.WorkingDirectory()
	if workdir == "" {
		workdir = r.conf.WorkDir
	}
	lib := w.LibraryPath()
	if lib == "" {
		lib = r.conf.LibraryPath
	}
	if err := writeScript(s.ScriptPath, r.conf.LibraryPathVar, lib, workdir, cmdline); err != nil {
		return r.prepareFailed(ctx, w, err)
	}

	if w.State() == job.Deleted {
		log.Debug("job was deleted while it was being prepared")
		r.cleanup.Apply(s.ScriptPath)
		w.Cleanup(ctx)
		return nil
	}

	tpl := &drm.JobTemplate{
		Name:       "g" + w.ID(),
		ScriptPath: s.ScriptPath,
		StdoutPath: s.StdoutPath,
		StderrPath: s.StderrPath,
		WorkDir:    workdir,
		Cell:       dest.Cell,
		Queue:      dest.Queue,
	}
	r.clientMu.Lock()
	id, err := r.client.Submit(ctx, tpl)
	r.clientMu.Unlock()
	if err != nil {
		var serr *drm.SubmissionError
		if !errors.As(err, &serr) {
			err = &drm.SubmissionError{Backend: dest.Scheme, Err: err}
		}
		return err
	}
	s.RemoteID = id
	metrics.Submitted()
	log.Info("queued job", "external_id", id, "destination", url)

	if err := w.SetRunner(ctx, url, id); err != nil {
		log.Error("couldn't record external id", err)
	}
	if err := w.ChangeState(ctx, job.Queued); err != nil {
		log.Error("couldn't mark job as queued", err)
	}
	return r.push(s)
}

func (r *Runner) prepareFailed(ctx context.Context, w job.Wrapper, err error) error {
	w.Fail(ctx, prepareFailMessage, err)
	return &PreparationError{JobID: w.ID(), Err: err}
}

// Wrap returns a store-backed wrapper for rec. Its Cleanup removes the
// job's working directory unless the runner keeps files for debugging.
func (r *Runner) Wrap(rec *job.Record, store job.Store) *job.StoreWrapper {
	w := job.NewStoreWrapper(rec, store, r.log)
	w.CleanupWorkDir = !r.conf.Debug
	return w
}

// Put submits a job asynchronously on the runner's worker pool.
// Submission failures fail the job.
func (r *Runner) Put(w job.Wrapper) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrStopped
	}

	r.pool.Submit(func() {
		err := r.submit(r.ctx, w)
		var serr *drm.SubmissionError
		switch {
		case errors.As(err, &serr):
			r.log.Error("job submission failed", "job", w.ID(), "error", err)
			w.Fail(r.ctx, ClusterFailMessage, err)
		case err != nil:
			r.log.Error("job submission failed", "job", w.ID(), "error", err)
		}
	})
	return nil
}

// Stop asks the scheduler to cancel a job. The monitor loop observes the
// outcome on a later cycle. A job the scheduler doesn't know is not an error.
func (r *Runner) Stop(ctx context.Context, w job.Wrapper) error {
	id := w.ExternalID()
	if id == "" {
		return nil
	}
	log := r.log.WithFields("job", w.ID(), "external_id", id)

	r.clientMu.Lock()
	err := r.client.Cancel(ctx, id)
	r.clientMu.Unlock()

	switch {
	case errors.Is(err, drm.ErrUnknownJob):
		log.Debug("job is already gone from the scheduler")
		return nil
	case err != nil:
		return fmt.Errorf("stopping job %s: %w", w.ID(), err)
	}
	log.Info("stopped job")
	return nil
}

// Recover resumes monitoring of a job submitted by an earlier process.
// The job's files are derived from its id; nothing is resubmitted.
func (r *Runner) Recover(ctx context.Context, w job.Wrapper) error {
	if !r.enter() {
		return ErrStopped
	}
	defer r.inflight.Done()
	id := w.ExternalID()
	if id == "" {
		return fmt.Errorf("job %s has no external id", w.ID())
	}
	url := w.DestinationURL()
	if url == "" {
		url = r.conf.DefaultDestination
	}
	dest, err := ParseDestination(url)
	if err != nil {
		return fmt.Errorf("recovering job %s: %v", w.ID(), err)
	}

	s := r.newJobState(w, dest)
	s.RemoteID = id
	switch st := w.State(); st {
	case job.Running:
		s.LastStatus = drm.Running
		s.Running = true
	case job.Queued:
		s.LastStatus = drm.QueuedActive
	default:
		return fmt.Errorf("job %s is %s, only queued and running jobs can be recovered", w.ID(), st)
	}

	r.log.Info("recovered job", "job", w.ID(), "external_id", id, "state", string(w.State()))
	return r.push(s)
}

// Shutdown stops accepting work and tells the monitor loop to exit.
// It doesn't block; use Wait to wait for the monitor loop to finish.
func (r *Runner) Shutdown() {
	r.shutdownOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()

		go func() {
			r.pool.Stop()
			r.inflight.Wait()
			r.queue <- stopSentinel
		}()
	})
}

// Wait blocks until the monitor loop has closed its sessions and exited.
func (r *Runner) Wait() {
	<-r.done
}

// Done returns a channel which is closed once the monitor loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// enter registers an in-flight call, unless the runner is shut down.
// Callers which get true must call r.inflight.Done.
func (r *Runner) enter() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	r.inflight.Add(1)
	return true
}

func (r *Runner) push(s *JobState) error {
	select {
	case r.queue <- s:
		return nil
	case <-r.done:
		return ErrStopped
	}
}

func (r *Runner) monitorRate() time.Duration {
	return time.Duration(r.conf.MonitorRate)
}
