package compute

import (
	"fmt"
	"path/filepath"

	"github.com/galaxyproject/gxrunner/drm"
	"github.com/galaxyproject/gxrunner/job"
)

// JobState is the runner's view of one job it is watching.
type JobState struct {
	Wrapper job.Wrapper
	// Scheduler id. Empty until the job is submitted.
	RemoteID string
	// Last status reported by the scheduler. Only used for logging.
	LastStatus drm.Status
	// Set once the job has been reported running, so the running
	// transition fires at most once.
	Running     bool
	StdoutPath  string
	StderrPath  string
	ScriptPath  string
	Destination Destination
}

// jobPaths holds the per-job files derived from a job's id and kind.
type jobPaths struct {
	stdout string
	stderr string
	script string
}

func (r *Runner) pathsFor(w job.Wrapper) jobPaths {
	stem := w.ID()
	if k := w.Kind(); k != "" && k != job.Tool {
		stem = fmt.Sprintf("%s_%s", k, w.ID())
	}
	return jobPaths{
		stdout: filepath.Join(r.conf.WorkDir, stem+".o"),
		stderr: filepath.Join(r.conf.WorkDir, stem+".e"),
		script: filepath.Join(r.conf.WorkDir, fmt.Sprintf("%s_%s.sh", r.conf.ScriptPrefix, stem)),
	}
}

func (r *Runner) newJobState(w job.Wrapper, dest Destination) *JobState {
	p := r.pathsFor(w)
	return &JobState{
		Wrapper:     w,
		StdoutPath:  p.stdout,
		StderrPath:  p.stderr,
		ScriptPath:  p.script,
		Destination: dest,
	}
}

func (s *JobState) files() []string {
	return []string{s.StdoutPath, s.StderrPath, s.ScriptPath, drm.DescriptionPath(s.ScriptPath)}
}
