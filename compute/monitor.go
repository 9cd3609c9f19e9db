package compute

import (
	"errors"
	"time"

	"github.com/galaxyproject/gxrunner/drm"
	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/metrics"
	"github.com/galaxyproject/gxrunner/util/fsutil"
	multierror "github.com/hashicorp/go-multierror"
)

// monitor is the runner's only long-lived goroutine. Every cycle it moves
// newly handed-off jobs into the watch-list, polls each watched job once,
// and sleeps.
func (r *Runner) monitor() {
	defer close(r.done)

	var watched []*JobState
	for {
		var stop bool
		watched, stop = r.drain(watched)
		if stop {
			r.teardown(len(watched))
			return
		}

		start := time.Now()
		watched = r.check(watched)
		metrics.SetWatched(len(watched))
		metrics.ObserveCycle(time.Since(start))

		time.Sleep(r.monitorRate())
	}
}

// drain appends every queued hand-off entry to watched without blocking.
// It reports whether the stop sentinel was seen.
func (r *Runner) drain(watched []*JobState) ([]*JobState, bool) {
	for {
		select {
		case s := <-r.queue:
			if s == stopSentinel {
				return watched, true
			}
			watched = append(watched, s)
		default:
			return watched, false
		}
	}
}

func (r *Runner) teardown(watching int) {
	r.log.Info("monitor stopping", "watched", watching)

	var result *multierror.Error
	if err := r.monitorClient.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	r.clientMu.Lock()
	if err := r.client.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	r.clientMu.Unlock()

	if err := result.ErrorOrNil(); err != nil {
		r.log.Error("error closing scheduler sessions", err)
	}
}

// check polls every watched job once, in order, and returns the jobs which
// are still active.
func (r *Runner) check(watched []*JobState) []*JobState {
	next := make([]*JobState, 0, len(watched))
	for _, s := range watched {
		if r.checkJob(s) {
			next = append(next, s)
		}
	}
	return next
}

// checkJob polls one job and applies the resulting transition. It returns
// false once the job needs no further watching.
func (r *Runner) checkJob(s *JobState) bool {
	ctx := r.ctx
	log := r.log.WithFields("job", s.Wrapper.ID(), "external_id", s.RemoteID)

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			log.Error("poll rate limiter", err)
			return true
		}
	}

	status, err := r.monitorClient.Poll(ctx, s.RemoteID)
	switch {
	case errors.Is(err, drm.ErrUnknownJob):
		r.vanished(s)
		return false

	case err != nil:
		metrics.PollError()
		metrics.Transition(metrics.Failed)
		log.Error("couldn't check job status", err)
		s.Wrapper.Fail(ctx, ClusterFailMessage, err)
		r.cleanup.Apply(s.files()...)
		return false
	}

	if status != s.LastStatus {
		log.Debug("job status changed", "status", status.String())
	}
	s.LastStatus = status

	switch status {
	case drm.Running:
		if !s.Running {
			s.Running = true
			metrics.Transition(metrics.Running)
			log.Debug("job is now running")
			if err := s.Wrapper.ChangeState(ctx, job.Running); err != nil {
				log.Error("couldn't mark job as running", err)
			}
		}
		return true

	case drm.Done:
		metrics.Transition(metrics.Done)
		log.Debug("job finished")
		r.finish(s)
		return false

	case drm.Failed:
		metrics.Transition(metrics.Failed)
		log.Info("job failed on the cluster")
		s.Wrapper.Fail(ctx, ClusterFailMessage, nil)
		r.cleanup.Apply(s.files()...)
		return false
	}
	return true
}

// vanished resolves a job the scheduler no longer knows. A job that left
// any output behind finished and was reaped; a job with no output at all
// never ran.
func (r *Runner) vanished(s *JobState) {
	log := r.log.WithFields("job", s.Wrapper.ID(), "external_id", s.RemoteID)
	metrics.Transition(metrics.Vanished)

	if fsutil.Exists(s.StdoutPath) || fsutil.Exists(s.StderrPath) {
		log.Debug("job is no longer known to the scheduler, assuming it finished")
		r.finish(s)
		return
	}
	log.Info("job is no longer known to the scheduler and left no output")
	s.Wrapper.Fail(r.ctx, ClusterFailMessage, drm.ErrUnknownJob)
	r.cleanup.Apply(s.files()...)
}

func (r *Runner) finish(s *JobState) {
	stdout := fsutil.ReadFileBestEffort(s.StdoutPath)
	stderr := fsutil.ReadFileBestEffort(s.StderrPath)
	if err := s.Wrapper.Finish(r.ctx, stdout, stderr); err != nil {
		r.log.Error("couldn't finish job", "job", s.Wrapper.ID(), "error", err)
	}
	r.cleanup.Apply(s.files()...)
}
