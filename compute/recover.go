package compute

import (
	"context"
	"fmt"

	"github.com/galaxyproject/gxrunner/job"
	"github.com/galaxyproject/gxrunner/logger"
	multierror "github.com/hashicorp/go-multierror"
)

// Recoverable reports whether a job record describes a job the scheduler
// should still know about.
func Recoverable(rec *job.Record) bool {
	switch rec.State {
	case job.Queued, job.Running:
		return rec.ExternalID != ""
	}
	return false
}

// RecoverJobs hands every recoverable job in the store back to the runner.
// It returns the number of jobs recovered. Failures don't stop recovery of
// the other jobs; they are returned together.
func RecoverJobs(ctx context.Context, r *Runner, store job.Store, log *logger.Logger) (int, error) {
	recs, err := store.ListJobs(ctx, job.Queued, job.Running)
	if err != nil {
		return 0, fmt.Errorf("listing jobs to recover: %v", err)
	}

	var result *multierror.Error
	count := 0
	for _, rec := range recs {
		if !Recoverable(rec) {
			log.Debug("skipping job without external id", "job", rec.ID, "state", string(rec.State))
			continue
		}
		w := r.Wrap(rec, store)
		if err := r.Recover(ctx, w); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		count++
	}
	log.Info("recovered jobs", "count", count)
	return count, result.ErrorOrNil()
}
